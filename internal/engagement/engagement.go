// Package engagement keeps per-screen view state consistent with the course API.
//
// Each screen owns its state behind a mutex and re-fetches what it shows; there
// is no shared cache. Toggles go through optimistic.Run so a failed call always
// restores the prior value and a successful one adopts the server's answer.
// Load and Close bump a generation counter; responses that started under an
// older generation are dropped.
package engagement

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/and161185/academy-client/internal/api"
	"github.com/and161185/academy-client/internal/errs"
	"github.com/and161185/academy-client/internal/model"
	"github.com/and161185/academy-client/internal/optimistic"
	"github.com/and161185/academy-client/internal/session"
)

// ErrNotLoaded is returned by actions on a screen that has no loaded state.
var ErrNotLoaded = errors.New("screen not loaded")

// Control keys.
const (
	KeyCompletion = "completion"
	KeyFavorite   = "favorite"
	KeyEarningAdd = "earning:add"
	KeyAvatar     = "avatar"
	KeyWelcome    = "welcome"
	KeyProfile    = "profile"
)

func EarningDeleteKey(id string) string { return "earning:delete:" + id }
func AdminKey(userID string) string     { return "admin:" + userID }
func FacultyKey(userID string) string   { return "faculty:" + userID }
func ModuleKey(moduleID string) string  { return "module:" + moduleID }
func FavoriteKeyOf(k model.FavoriteKey) string {
	return KeyFavorite + ":" + k.ModuleID + ":" + itoa(k.LessonNumber)
}

// ModulesAPI lists course content.
type ModulesAPI interface {
	List(ctx context.Context) ([]model.Module, error)
	Get(ctx context.Context, id string) (model.Module, error)
	ByNumber(ctx context.Context, n int) (model.Module, error)
}

// ProgressAPI records lesson and module completion.
type ProgressAPI interface {
	CompleteLesson(ctx context.Context, moduleID string, lesson int) (model.CompletionResult, error)
	UncompleteLesson(ctx context.Context, moduleID string, lesson int) (model.CompletionResult, error)
	LessonStatus(ctx context.Context, moduleID string, lesson int) (bool, error)
	CompleteModule(ctx context.Context, moduleID string) (int, error)
}

// FavoritesAPI manages favorite lessons.
type FavoritesAPI interface {
	Add(ctx context.Context, k model.FavoriteKey) (model.FavoriteResult, error)
	Remove(ctx context.Context, k model.FavoriteKey) (model.FavoriteResult, error)
	Check(ctx context.Context, k model.FavoriteKey) (bool, error)
	List(ctx context.Context) ([]model.FavoriteEntry, error)
}

// ProfileAPI covers profile, avatar, earnings and leaderboard.
type ProfileAPI interface {
	Get(ctx context.Context) (model.Profile, model.ProfileStats, error)
	Update(ctx context.Context, u model.ProfileUpdate) (model.Profile, error)
	UploadAvatar(ctx context.Context, a model.Avatar) (model.Profile, error)
	Earnings(ctx context.Context) (model.Earnings, error)
	AddEarning(ctx context.Context, amount decimal.Decimal, date time.Time) (model.Earnings, error)
	DeleteEarning(ctx context.Context, id string) (model.Earnings, error)
	Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error)
}

// AdminAPI covers user administration.
type AdminAPI interface {
	Users(ctx context.Context) ([]model.AdminUser, error)
	AssignFaculty(ctx context.Context, userID, faculty string) (model.AdminUser, error)
	ToggleAdmin(ctx context.Context, userID string) (model.AdminFlag, error)
}

// Sessions exposes the session store.
type Sessions interface {
	Current() (model.Session, bool)
	CurrentUser(ctx context.Context) (model.Session, error)
}

// Deps are the collaborators of a Coordinator.
type Deps struct {
	Modules   ModulesAPI
	Progress  ProgressAPI
	Favorites FavoritesAPI
	Profile   ProfileAPI
	Admin     AdminAPI
	Session   Sessions
	Log       *zap.Logger
	Now       func() time.Time
}

// Coordinator hands out screens bound to the same collaborators.
type Coordinator struct {
	modules   ModulesAPI
	progress  ProgressAPI
	favorites FavoritesAPI
	profile   ProfileAPI
	admin     AdminAPI
	session   Sessions
	log       *zap.Logger
	now       func() time.Time

	welcomeMu   sync.Mutex
	dismissedIn string // session key of the last welcome dismissal
}

// New builds a coordinator.
func New(d Deps) *Coordinator {
	c := &Coordinator{
		modules:   d.Modules,
		progress:  d.Progress,
		favorites: d.Favorites,
		profile:   d.Profile,
		admin:     d.Admin,
		session:   d.Session,
		log:       d.Log,
		now:       d.Now,
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// FromClient wires a coordinator to the resource clients and session store.
func FromClient(c *api.Client, s *session.Store, log *zap.Logger) *Coordinator {
	return New(Deps{
		Modules:   c.Modules,
		Progress:  c.Progress,
		Favorites: c.Favorites,
		Profile:   c.Profile,
		Admin:     c.Admin,
		Session:   s,
		Log:       log,
	})
}

// screen is the state every screen shares.
type screen struct {
	mu     sync.Mutex
	gen    uint64
	closed bool
	notice string
	guard  *optimistic.Guard
	log    *zap.Logger
}

func (s *screen) init(log *zap.Logger, name string) {
	s.guard = optimistic.NewGuard()
	s.log = log.With(zap.String("screen", name))
}

// begin starts a load and returns its generation.
func (s *screen) begin() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	return s.gen
}

func (s *screen) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// live must be called with mu held.
func (s *screen) live(gen uint64) bool { return !s.closed && s.gen == gen }

// update runs fn under the lock if gen is still current.
func (s *screen) update(gen uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.live(gen) {
		return false
	}
	fn()
	return true
}

// failed logs err and leaves a notice for the user. Must be called with mu held.
func (s *screen) failed(op errs.Op, err error) {
	s.log.Warn("operation failed", zap.String("op", string(op)), zap.Error(err))
	if n := noticeFor(op, err); n != "" {
		s.notice = n
	}
}

func (s *screen) failedAt(gen uint64, op errs.Op, err error) {
	s.update(gen, func() { s.failed(op, err) })
}

// Close detaches the screen; later responses are ignored.
func (s *screen) Close() {
	s.mu.Lock()
	s.closed = true
	s.gen++
	s.mu.Unlock()
}

// TakeNotice returns the pending failure notice once.
func (s *screen) TakeNotice() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.notice
	s.notice = ""
	return n
}

// Busy reports whether the control has a call in flight.
func (s *screen) Busy(key string) bool { return s.guard.Busy(key) }

// noticeFor builds the one-shot message naming the failed action. Unauthenticated
// errors get none: the session is torn down and the user is sent to login.
func noticeFor(op errs.Op, err error) string {
	switch {
	case errors.Is(err, errs.ErrUnauthenticated), errors.Is(err, errs.ErrBusy),
		errors.Is(err, context.Canceled):
		return ""
	case errors.Is(err, errs.ErrRequestFailed), errors.Is(err, errs.ErrValidation):
		return err.Error()
	case errors.Is(err, errs.ErrNetworkUnavailable):
		return op.Human() + " failed: network unavailable"
	default:
		return op.Human() + " failed"
	}
}
