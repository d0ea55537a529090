package engagement

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/and161185/academy-client/internal/errs"
	"github.com/and161185/academy-client/internal/model"
	"github.com/and161185/academy-client/internal/optimistic"
)

// ProgressView is the "my progress" page: profile, stats and rating.
type ProgressView struct {
	Loaded      bool
	Profile     model.Profile
	Stats       model.ProfileStats
	Leaderboard []model.LeaderboardEntry
	AvatarBusy  bool
}

// ProgressScreen shows server-derived stats and ranking.
type ProgressScreen struct {
	screen
	c           *Coordinator
	loaded      bool
	profile     model.Profile
	stats       model.ProfileStats
	leaderboard []model.LeaderboardEntry
}

func (c *Coordinator) Progress() *ProgressScreen {
	s := &ProgressScreen{c: c}
	s.init(c.log, "progress")
	return s
}

// Load fetches profile and leaderboard independently; each failed read renders empty.
func (s *ProgressScreen) Load(ctx context.Context) error {
	gen := s.begin()
	p, st, perr := s.c.profile.Get(ctx)
	lb, lerr := s.c.profile.Leaderboard(ctx)

	s.update(gen, func() {
		if perr != nil {
			s.profile, s.stats = model.Profile{}, model.ProfileStats{}
			s.failed(errs.OpProfileGet, perr)
		} else {
			s.profile, s.stats = p, st
		}
		if lerr != nil {
			s.leaderboard = nil
			s.failed(errs.OpLeaderboard, lerr)
		} else {
			s.leaderboard = lb
		}
		s.loaded = perr == nil
	})
	if perr != nil {
		return perr
	}
	return lerr
}

func (s *ProgressScreen) View() ProgressView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ProgressView{
		Loaded:      s.loaded,
		Profile:     s.profile,
		Stats:       s.stats,
		Leaderboard: slices.Clone(s.leaderboard),
		AvatarBusy:  s.guard.Busy(KeyAvatar),
	}
}

// UploadAvatar validates and uploads an image, then replaces the profile with
// the server's copy and refreshes the session.
func (s *ProgressScreen) UploadAvatar(ctx context.Context, a model.Avatar) error {
	a, err := ValidateAvatar(a)
	if err != nil {
		s.mu.Lock()
		s.notice = err.Error()
		s.mu.Unlock()
		return err
	}
	gen := s.generation()
	_, err = optimistic.Run(ctx, s.guard, KeyAvatar, optimistic.Mutation[model.Profile]{
		Call: func(ctx context.Context) (model.Profile, error) {
			return s.c.profile.UploadAvatar(ctx, a)
		},
		Reconcile: func(p model.Profile) {
			s.update(gen, func() { s.profile = p })
		},
		Revert: func(err error) { s.failedAt(gen, errs.OpAvatarUpload, err) },
	})
	if err != nil {
		return err
	}
	s.c.refreshSession(ctx)
	return nil
}

// UpdateProfile sends a partial update and adopts the returned profile.
func (s *ProgressScreen) UpdateProfile(ctx context.Context, u model.ProfileUpdate) error {
	gen := s.generation()
	_, err := optimistic.Run(ctx, s.guard, KeyProfile, optimistic.Mutation[model.Profile]{
		Call: func(ctx context.Context) (model.Profile, error) {
			return s.c.profile.Update(ctx, u)
		},
		Reconcile: func(p model.Profile) {
			s.update(gen, func() { s.profile = p })
		},
		Revert: func(err error) { s.failedAt(gen, errs.OpProfileUpdate, err) },
	})
	if err != nil {
		return err
	}
	s.c.refreshSession(ctx)
	return nil
}

// refreshSession re-reads the current user; failures are logged only.
func (c *Coordinator) refreshSession(ctx context.Context) {
	if c.session == nil {
		return
	}
	if _, err := c.session.CurrentUser(ctx); err != nil {
		c.log.Warn("session refresh failed", zap.Error(err))
	}
}
