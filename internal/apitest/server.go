// Package apitest is an in-memory fake of the course API for tests.
//
// Every route counts its calls and can be told to fail with a fixed status.
// State is seeded with two modules and three users (see the exported constants).
package apitest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"github.com/and161185/academy-client/internal/model"
	"github.com/and161185/academy-client/internal/wire"
)

// Seeded fixtures.
const (
	StudentID       = "u-student"
	StudentEmail    = "student@example.com"
	StudentPassword = "secret"
	AdminID         = "u-admin"
	AdminEmail      = "admin@example.com"
	AdminPassword   = "admin"
	OtherID         = "u-other"
	OtherEmail      = "other@example.com"
	OtherPassword   = "other"

	Module1ID = "m1"
	Module2ID = "m2"
)

// Route keys accepted by Calls and Fail.
const (
	RouteLogin            = "POST /auth/login"
	RouteMe               = "GET /auth/me"
	RouteLogout           = "POST /auth/logout"
	RouteModules          = "GET /modules"
	RouteModule           = "GET /modules/{id}"
	RouteModuleByNumber   = "GET /modules/number/{n}"
	RouteLessonComplete   = "POST /progress/lessons/{moduleId}/{lessonNumber}/complete"
	RouteLessonUncomplete = "DELETE /progress/lessons/{moduleId}/{lessonNumber}/complete"
	RouteLessonStatus     = "GET /progress/lessons/{moduleId}/{lessonNumber}/status"
	RouteModuleComplete   = "POST /progress/modules/{moduleId}/complete"
	RouteFavorites        = "GET /favorites"
	RouteFavoriteAdd      = "POST /favorites/{moduleId}/{lessonNumber}"
	RouteFavoriteRemove   = "DELETE /favorites/{moduleId}/{lessonNumber}"
	RouteFavoriteCheck    = "GET /favorites/{moduleId}/{lessonNumber}/check"
	RouteProfile          = "GET /profile"
	RouteProfileUpdate    = "PUT /profile"
	RouteAvatar           = "POST /profile/avatar"
	RouteEarnings         = "GET /profile/earnings"
	RouteEarningAdd       = "POST /profile/earnings"
	RouteEarningDelete    = "DELETE /profile/earnings/{id}"
	RouteLeaderboard      = "GET /profile/leaderboard"
	RouteAdminUsers       = "GET /admin/users"
	RouteAdminFaculty     = "PUT /admin/users/{id}/faculty"
	RouteAdminToggle      = "PUT /admin/users/{id}/admin"
)

const tokenTTL = time.Hour

type user struct {
	wire.Profile
	password string
	isAdmin  bool
}

type favorite struct {
	key     model.FavoriteKey
	addedAt time.Time
}

type failure struct {
	status  int
	message string
}

// Avatar is the last avatar upload the server received.
type Avatar struct {
	Filename    string
	ContentType string
	Size        int
}

// Server is the fake API. Embeds the running httptest server.
type Server struct {
	*httptest.Server

	signKey []byte
	now     func() time.Time

	mu         sync.Mutex
	users      map[string]*user
	order      []string
	modules    []wire.Module
	completed  map[string]map[model.FavoriteKey]bool
	doneMods   map[string]map[string]bool
	favorites  map[string][]favorite
	earnings   map[string][]wire.Earning
	revoked    map[string]bool
	calls      map[string]int
	fail       map[string]failure
	forceDone  *bool
	forceFav   *bool
	lastAvatar Avatar
}

// NewFake builds a seeded fake without starting a listener; serve Router or Handler.
func NewFake(signKey []byte) *Server {
	s := &Server{
		signKey:   signKey,
		now:       time.Now,
		users:     map[string]*user{},
		completed: map[string]map[model.FavoriteKey]bool{},
		doneMods:  map[string]map[string]bool{},
		favorites: map[string][]favorite{},
		earnings:  map[string][]wire.Earning{},
		revoked:   map[string]bool{},
		calls:     map[string]int{},
		fail:      map[string]failure{},
	}
	s.seed()
	return s
}

// New starts a seeded fake and stops it on test cleanup.
func New(t testing.TB) *Server {
	t.Helper()
	s := NewFake([]byte("apitest-sign-key"))
	s.Server = httptest.NewServer(s.Router())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) seed() {
	add := func(id, email, pw, first, last string, admin bool) {
		s.users[id] = &user{
			Profile:  wire.Profile{ID: id, Email: email, FirstName: first, LastName: last},
			password: pw,
			isAdmin:  admin,
		}
		s.order = append(s.order, id)
	}
	add(StudentID, StudentEmail, StudentPassword, "Олена", "Коваль", false)
	add(AdminID, AdminEmail, AdminPassword, "Адмін", "Академії", true)
	add(OtherID, OtherEmail, OtherPassword, "Петро", "Шевчук", false)
	expert := "Експерт"
	s.users[OtherID].Faculty = &expert

	s.modules = []wire.Module{
		{
			ID: Module1ID, Number: 1, Title: "Вступ до продюсування", Category: "basics",
			Lessons: []wire.Lesson{
				{Number: 1, Title: "Знайомство", VideoURL: "https://video.example/1-1", Duration: 12},
				{Number: 2, Title: "Перші кроки", VideoURL: "https://video.example/1-2", Duration: 18,
					Materials: []wire.Material{{Type: "pdf", Title: "Чекліст", URL: "https://files.example/1-2.pdf"}}},
			},
		},
		{
			ID: Module2ID, Number: 2, Title: "Маркетинг", Category: "growth",
			Lessons: []wire.Lesson{
				{Number: 1, Title: "Аудиторія", VideoURL: "https://video.example/2-1", Duration: 20},
				{Number: 2, Title: "Воронка продажів", VideoURL: "https://video.example/2-2", Duration: 25, Homework: "Опишіть воронку"},
			},
		},
	}
}

// Router builds the chi router of the fake.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	route := func(key string, h http.HandlerFunc, mws ...func(http.Handler) http.Handler) {
		method, pattern, _ := strings.Cut(key, " ")
		r.With(append([]func(http.Handler) http.Handler{s.track(key)}, mws...)...).Method(method, pattern, h)
	}

	route(RouteLogin, s.handleLogin)
	route(RouteMe, s.handleMe, s.authMiddleware)
	route(RouteLogout, s.handleLogout, s.authMiddleware)

	route(RouteModules, s.handleModules, s.optionalAuth)
	route(RouteModuleByNumber, s.handleModuleByNumber, s.optionalAuth)
	route(RouteModule, s.handleModule, s.optionalAuth)

	route(RouteLessonComplete, s.handleLessonComplete, s.authMiddleware)
	route(RouteLessonUncomplete, s.handleLessonUncomplete, s.authMiddleware)
	route(RouteLessonStatus, s.handleLessonStatus, s.authMiddleware)
	route(RouteModuleComplete, s.handleModuleComplete, s.authMiddleware)

	route(RouteFavorites, s.handleFavorites, s.authMiddleware)
	route(RouteFavoriteAdd, s.handleFavoriteAdd, s.authMiddleware)
	route(RouteFavoriteRemove, s.handleFavoriteRemove, s.authMiddleware)
	route(RouteFavoriteCheck, s.handleFavoriteCheck, s.authMiddleware)

	route(RouteProfile, s.handleProfile, s.authMiddleware)
	route(RouteProfileUpdate, s.handleProfileUpdate, s.authMiddleware)
	route(RouteAvatar, s.handleAvatar, s.authMiddleware)
	route(RouteEarnings, s.handleEarnings, s.authMiddleware)
	route(RouteEarningAdd, s.handleEarningAdd, s.authMiddleware)
	route(RouteEarningDelete, s.handleEarningDelete, s.authMiddleware)
	route(RouteLeaderboard, s.handleLeaderboard, s.authMiddleware)

	route(RouteAdminUsers, s.handleAdminUsers, s.authMiddleware, s.requireAdmin)
	route(RouteAdminFaculty, s.handleAdminFaculty, s.authMiddleware, s.requireAdmin)
	route(RouteAdminToggle, s.handleAdminToggle, s.authMiddleware, s.requireAdmin)
	return r
}

// --- test controls ---

// Calls returns how many requests hit the route.
func (s *Server) Calls(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

// TotalCalls returns the number of requests over all routes.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// Fail makes the route answer status with message until Restore is called.
func (s *Server) Fail(key string, status int, message string) {
	s.mu.Lock()
	s.fail[key] = failure{status: status, message: message}
	s.mu.Unlock()
}

// Restore removes an injected failure.
func (s *Server) Restore(key string) {
	s.mu.Lock()
	delete(s.fail, key)
	s.mu.Unlock()
}

// ForceCompletion makes lesson complete/uncomplete settle on v and echo it.
func (s *Server) ForceCompletion(v bool) {
	s.mu.Lock()
	s.forceDone = &v
	s.mu.Unlock()
}

// ForceFavorite makes favorite add/remove settle on v and echo it.
func (s *Server) ForceFavorite(v bool) {
	s.mu.Lock()
	s.forceFav = &v
	s.mu.Unlock()
}

// SetFaculty sets a user's faculty directly.
func (s *Server) SetFaculty(userID string, faculty *string) {
	s.mu.Lock()
	s.users[userID].Faculty = faculty
	s.mu.Unlock()
}

// SetSeenWelcome sets a user's welcome flag directly.
func (s *Server) SetSeenWelcome(userID string, v bool) {
	s.mu.Lock()
	s.users[userID].HasSeenWelcomeModal = v
	s.mu.Unlock()
}

// User returns a copy of the stored profile and admin flag.
func (s *Server) User(id string) (wire.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[id]
	return u.Profile, u.isAdmin
}

// Completed reports the stored completion of a lesson.
func (s *Server) Completed(userID string, key model.FavoriteKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed[userID][key]
}

// IsFavorite reports whether the key is in the stored favorites.
func (s *Server) IsFavorite(userID string, key model.FavoriteKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.favIndex(userID, key) >= 0
}

// LastAvatar returns the last received upload.
func (s *Server) LastAvatar() Avatar {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAvatar
}

// Token signs a token for the user, as login would.
func (s *Server) Token(userID string, ttl time.Duration) string {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	jti, _ := uuid.NewV4()
	claims.ID = jti.String()
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signKey)
	return tok
}

// Revoke makes the server reject tok from now on.
func (s *Server) Revoke(tok string) {
	s.mu.Lock()
	s.revoked[tok] = true
	s.mu.Unlock()
}

// --- middleware ---

type ctxKey string

const userIDKey ctxKey = "apitest.userID"

func withUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func userIDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func (s *Server) track(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.mu.Lock()
			s.calls[key]++
			f, failing := s.fail[key]
			s.mu.Unlock()
			if failing {
				writeMessage(w, f.status, f.message)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := s.userIDFromRequest(r)
		if err != nil {
			writeMessage(w, http.StatusUnauthorized, "Не авторизовано")
			return
		}
		next.ServeHTTP(w, r.WithContext(withUserID(r.Context(), id)))
	})
}

func (s *Server) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := bearerToken(r); err != nil {
			next.ServeHTTP(w, r)
			return
		}
		s.authMiddleware(next).ServeHTTP(w, r)
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := userIDFrom(r.Context())
		s.mu.Lock()
		admin := s.users[id] != nil && s.users[id].isAdmin
		s.mu.Unlock()
		if !admin {
			writeMessage(w, http.StatusForbidden, "Доступ заборонено")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// userIDFromRequest extracts "Authorization: Bearer <JWT>", verifies HS256 and returns sub.
func (s *Server) userIDFromRequest(r *http.Request) (string, error) {
	tok, err := bearerToken(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	revoked := s.revoked[tok]
	s.mu.Unlock()
	if revoked {
		return "", errors.New("revoked")
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(tok, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.signKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return "", errors.New("invalid token")
	}
	s.mu.Lock()
	_, ok := s.users[claims.Subject]
	s.mu.Unlock()
	if !ok {
		return "", errors.New("unknown subject")
	}
	return claims.Subject, nil
}

func bearerToken(r *http.Request) (string, error) {
	v := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
		if t := strings.TrimSpace(v[7:]); t != "" {
			return t, nil
		}
	}
	return "", errors.New("no bearer token")
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, wire.ErrorBody{Message: msg})
}

func lessonKey(r *http.Request) (model.FavoriteKey, error) {
	n, err := strconv.Atoi(chi.URLParam(r, "lessonNumber"))
	if err != nil {
		return model.FavoriteKey{}, fmt.Errorf("bad lesson number: %w", err)
	}
	return model.FavoriteKey{ModuleID: chi.URLParam(r, "moduleId"), LessonNumber: n}, nil
}

// findLesson must be called with mu held.
func (s *Server) findLesson(k model.FavoriteKey) (*wire.Module, *wire.Lesson) {
	for i := range s.modules {
		m := &s.modules[i]
		if m.ID != k.ModuleID {
			continue
		}
		for j := range m.Lessons {
			if m.Lessons[j].Number == k.LessonNumber {
				return m, &m.Lessons[j]
			}
		}
		return m, nil
	}
	return nil, nil
}

// favIndex must be called with mu held.
func (s *Server) favIndex(userID string, k model.FavoriteKey) int {
	for i, f := range s.favorites[userID] {
		if f.key == k {
			return i
		}
	}
	return -1
}

// moduleView must be called with mu held.
func (s *Server) moduleView(m wire.Module, userID string) wire.Module {
	out := m
	out.Lessons = make([]wire.Lesson, len(m.Lessons))
	done := 0
	for i, l := range m.Lessons {
		l.IsCompleted = s.completed[userID][model.FavoriteKey{ModuleID: m.ID, LessonNumber: l.Number}]
		if l.IsCompleted {
			done++
		}
		out.Lessons[i] = l
	}
	if len(m.Lessons) > 0 {
		out.Progress = float64(done) * 100 / float64(len(m.Lessons))
	}
	return out
}

// completedLessons must be called with mu held.
func (s *Server) completedLessons(userID string) int {
	n := 0
	for _, v := range s.completed[userID] {
		if v {
			n++
		}
	}
	return n
}

// earningsTotal must be called with mu held.
func (s *Server) earningsTotal(userID string) decimal.Decimal {
	total := decimal.Zero
	for _, e := range s.earnings[userID] {
		total = total.Add(e.Amount)
	}
	return total
}

// earningsResponse must be called with mu held.
func (s *Server) earningsResponse(userID string) wire.EarningsResponse {
	h := append([]wire.Earning{}, s.earnings[userID]...)
	return wire.EarningsResponse{TotalEarnings: s.earningsTotal(userID), History: h}
}

func (u *user) wireUser() wire.User {
	return wire.User{
		ID:                  u.ID,
		Email:               u.Email,
		FirstName:           u.FirstName,
		LastName:            u.LastName,
		Phone:               u.Phone,
		AvatarURL:           u.AvatarURL,
		Faculty:             u.Faculty,
		HasCompletedSorting: u.HasCompletedSorting,
		HasAcceptedRules:    u.HasAcceptedRules,
		HasSeenWelcomeModal: u.HasSeenWelcomeModal,
		IsAdmin:             u.isAdmin,
	}
}

// profile must be called with mu held.
func (s *Server) profile(u *user) wire.Profile {
	p := u.Profile
	p.FavoriteLessons = nil
	for _, f := range s.favorites[u.ID] {
		p.FavoriteLessons = append(p.FavoriteLessons, wire.FavoriteRef{
			ModuleID: f.key.ModuleID, LessonNumber: f.key.LessonNumber, AddedAt: f.addedAt,
		})
	}
	return p
}

// adminUser must be called with mu held.
func (s *Server) adminUser(u *user) wire.AdminUser {
	return wire.AdminUser{
		ID:                    u.ID,
		Email:                 u.Email,
		FirstName:             u.FirstName,
		LastName:              u.LastName,
		Phone:                 u.Phone,
		Faculty:               u.Faculty,
		IsAdmin:               u.isAdmin,
		Earnings:              s.earningsTotal(u.ID),
		CompletedLessonsCount: s.completedLessons(u.ID),
		CompletedModulesCount: len(s.doneMods[u.ID]),
	}
}
