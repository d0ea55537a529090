package engagement

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/and161185/academy-client/internal/errs"
	"github.com/and161185/academy-client/internal/model"
	"github.com/and161185/academy-client/internal/optimistic"
)

// LessonView is what the lesson screen renders.
type LessonView struct {
	Loaded         bool
	Module         model.Module
	Lesson         model.Lesson
	Completed      bool
	Favorite       bool
	CompletionBusy bool
	FavoriteBusy   bool
}

// LessonScreen holds completion and favorite state of one lesson.
type LessonScreen struct {
	screen
	c   *Coordinator
	key model.FavoriteKey

	loaded    bool
	module    model.Module
	lesson    model.Lesson
	completed bool
	favorite  bool
}

// Lesson opens the screen for a lesson of a module.
func (c *Coordinator) Lesson(moduleID string, number int) *LessonScreen {
	s := &LessonScreen{c: c, key: model.FavoriteKey{ModuleID: moduleID, LessonNumber: number}}
	s.init(c.log, "lesson")
	return s
}

// Load fetches the module, then completion and favorite status. Status read
// failures render as false.
func (s *LessonScreen) Load(ctx context.Context) error {
	gen := s.begin()

	m, err := s.c.modules.Get(ctx, s.key.ModuleID)
	if err != nil {
		s.update(gen, func() {
			s.loaded = false
			s.failed(errs.OpModuleGet, err)
		})
		return err
	}
	l, ok := m.Lesson(s.key.LessonNumber)
	if !ok {
		err := fmt.Errorf("lesson %d of module %s: %w", s.key.LessonNumber, s.key.ModuleID, errs.ErrNotFound)
		s.update(gen, func() { s.loaded = false })
		return err
	}

	var authErr error
	done, err := s.c.progress.LessonStatus(ctx, s.key.ModuleID, s.key.LessonNumber)
	if err != nil {
		s.log.Debug("lesson status unavailable", zap.Error(err))
		done = false
		if errors.Is(err, errs.ErrUnauthenticated) {
			authErr = err
		}
	}
	fav, err := s.c.favorites.Check(ctx, s.key)
	if err != nil {
		s.log.Debug("favorite check unavailable", zap.Error(err))
		fav = false
		if errors.Is(err, errs.ErrUnauthenticated) {
			authErr = err
		}
	}

	s.update(gen, func() {
		s.loaded = true
		s.module, s.lesson = m, l
		s.completed, s.favorite = done, fav
		s.lesson.Completed = done
	})
	return authErr
}

// View returns a snapshot of the screen.
func (s *LessonScreen) View() LessonView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return LessonView{
		Loaded:         s.loaded,
		Module:         s.module,
		Lesson:         s.lesson,
		Completed:      s.completed,
		Favorite:       s.favorite,
		CompletionBusy: s.guard.Busy(KeyCompletion),
		FavoriteBusy:   s.guard.Busy(KeyFavorite),
	}
}

func (s *LessonScreen) loadedGen() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded || s.closed {
		return 0, ErrNotLoaded
	}
	return s.gen, nil
}

func (s *LessonScreen) setCompleted(gen uint64, v bool) {
	s.update(gen, func() {
		s.completed = v
		s.lesson.Completed = v
	})
}

func (s *LessonScreen) setFavorite(gen uint64, v bool) {
	s.update(gen, func() { s.favorite = v })
}

// ToggleCompletion flips the completion mark and returns the settled value.
// The current value is read after the control's guard is taken.
func (s *LessonScreen) ToggleCompletion(ctx context.Context) (bool, error) {
	gen, err := s.loadedGen()
	if err != nil {
		return false, err
	}
	var prev, target bool
	return optimistic.Run(ctx, s.guard, KeyCompletion, optimistic.Mutation[bool]{
		Apply: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			prev = s.completed
			target = !prev
			if s.live(gen) {
				s.completed, s.lesson.Completed = target, target
			}
		},
		Call: func(ctx context.Context) (bool, error) {
			return s.c.settleCompletion(ctx, s.key, target)
		},
		Reconcile: func(v bool) { s.setCompleted(gen, v) },
		Revert: func(err error) {
			s.setCompleted(gen, prev)
			s.log.Info("reverted", zap.String("entity", "completion"),
				zap.String("key", FavoriteKeyOf(s.key)), zap.Bool("value", prev))
			op := errs.OpLessonComplete
			if !target {
				op = errs.OpLessonUncomplete
			}
			s.failedAt(gen, op, err)
		},
	})
}

// settleCompletion sends the mutation and returns the server's value: the echo
// when present, else a status read-back, else target.
func (c *Coordinator) settleCompletion(ctx context.Context, k model.FavoriteKey, target bool) (bool, error) {
	var (
		res model.CompletionResult
		err error
	)
	if target {
		res, err = c.progress.CompleteLesson(ctx, k.ModuleID, k.LessonNumber)
	} else {
		res, err = c.progress.UncompleteLesson(ctx, k.ModuleID, k.LessonNumber)
	}
	if err != nil {
		return false, err
	}
	if res.IsCompleted != nil {
		return *res.IsCompleted, nil
	}
	v, err := c.progress.LessonStatus(ctx, k.ModuleID, k.LessonNumber)
	if err != nil {
		c.log.Debug("completion read-back failed", zap.Error(err))
		return target, nil
	}
	return v, nil
}

// ToggleFavorite adds or removes the lesson from favorites and returns the settled value.
func (s *LessonScreen) ToggleFavorite(ctx context.Context) (bool, error) {
	gen, err := s.loadedGen()
	if err != nil {
		return false, err
	}
	var prev, target bool
	return optimistic.Run(ctx, s.guard, KeyFavorite, optimistic.Mutation[bool]{
		Apply: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			prev = s.favorite
			target = !prev
			if s.live(gen) {
				s.favorite = target
			}
		},
		Call: func(ctx context.Context) (bool, error) {
			return s.c.settleFavorite(ctx, s.key, target)
		},
		Reconcile: func(v bool) { s.setFavorite(gen, v) },
		Revert: func(err error) {
			s.setFavorite(gen, prev)
			s.log.Info("reverted", zap.String("entity", "favorite"),
				zap.String("key", FavoriteKeyOf(s.key)), zap.Bool("value", prev))
			op := errs.OpFavoriteAdd
			if !target {
				op = errs.OpFavoriteRemove
			}
			s.failedAt(gen, op, err)
		},
	})
}

func (c *Coordinator) settleFavorite(ctx context.Context, k model.FavoriteKey, target bool) (bool, error) {
	var (
		res model.FavoriteResult
		err error
	)
	if target {
		res, err = c.favorites.Add(ctx, k)
	} else {
		res, err = c.favorites.Remove(ctx, k)
	}
	if err != nil {
		return false, err
	}
	if res.IsFavorite != nil {
		return *res.IsFavorite, nil
	}
	v, err := c.favorites.Check(ctx, k)
	if err != nil {
		c.log.Debug("favorite read-back failed", zap.Error(err))
		return target, nil
	}
	return v, nil
}
