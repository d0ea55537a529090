package engagement

import (
	"context"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/and161185/academy-client/internal/errs"
	"github.com/and161185/academy-client/internal/model"
	"github.com/and161185/academy-client/internal/optimistic"
)

// AdminView is the user administration table.
type AdminView struct {
	Loaded bool
	Users  []model.AdminUser
}

// AdminScreen lists users and edits faculty and admin flags.
type AdminScreen struct {
	screen
	c      *Coordinator
	loaded bool
	users  []model.AdminUser
}

func (c *Coordinator) Admin() *AdminScreen {
	s := &AdminScreen{c: c}
	s.init(c.log, "admin")
	return s
}

func (s *AdminScreen) Load(ctx context.Context) error {
	gen := s.begin()
	us, err := s.c.admin.Users(ctx)
	s.update(gen, func() {
		if err != nil {
			s.loaded, s.users = false, nil
			s.failed(errs.OpAdminUsers, err)
			return
		}
		s.loaded, s.users = true, us
	})
	return err
}

func (s *AdminScreen) View() AdminView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AdminView{Loaded: s.loaded, Users: slices.Clone(s.users)}
}

// patch must be called with mu held.
func (s *AdminScreen) patch(userID string, fn func(u *model.AdminUser)) {
	for i := range s.users {
		if s.users[i].ID == userID {
			fn(&s.users[i])
			return
		}
	}
}

func (s *AdminScreen) lookup(userID string) (model.AdminUser, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded || s.closed {
		return model.AdminUser{}, 0, ErrNotLoaded
	}
	i := slices.IndexFunc(s.users, func(u model.AdminUser) bool { return u.ID == userID })
	if i < 0 {
		return model.AdminUser{}, 0, fmt.Errorf("%w: unknown user %q", errs.ErrValidation, userID)
	}
	return s.users[i], s.gen, nil
}

// AssignFaculty sets one user's faculty. Only that user's row changes.
func (s *AdminScreen) AssignFaculty(ctx context.Context, userID, faculty string) error {
	if err := ValidateFaculty(faculty); err != nil {
		s.mu.Lock()
		s.notice = err.Error()
		s.mu.Unlock()
		return err
	}
	_, gen, err := s.lookup(userID)
	if err != nil {
		return err
	}
	_, err = optimistic.Run(ctx, s.guard, FacultyKey(userID), optimistic.Mutation[model.AdminUser]{
		Call: func(ctx context.Context) (model.AdminUser, error) {
			return s.c.admin.AssignFaculty(ctx, userID, faculty)
		},
		Reconcile: func(u model.AdminUser) {
			f := faculty
			if u.Faculty != nil {
				f = *u.Faculty
			}
			s.update(gen, func() {
				s.patch(userID, func(row *model.AdminUser) { row.Faculty = &f })
			})
		},
		Revert: func(err error) { s.failedAt(gen, errs.OpAdminAssignFaculty, err) },
	})
	if err != nil {
		return err
	}
	if cur, ok := s.c.currentSession(); ok && cur.UserID == userID {
		s.c.refreshSession(ctx)
	}
	return nil
}

// ToggleAdmin flips a user's admin flag and returns the server's value.
func (s *AdminScreen) ToggleAdmin(ctx context.Context, userID string) (bool, error) {
	u, gen, err := s.lookup(userID)
	if err != nil {
		return false, err
	}
	prev := u.IsAdmin
	set := func(v bool) {
		s.update(gen, func() {
			s.patch(userID, func(row *model.AdminUser) { row.IsAdmin = v })
		})
	}
	flag, err := optimistic.Run(ctx, s.guard, AdminKey(userID), optimistic.Mutation[model.AdminFlag]{
		Apply: func() { set(!prev) },
		Call: func(ctx context.Context) (model.AdminFlag, error) {
			return s.c.admin.ToggleAdmin(ctx, userID)
		},
		Reconcile: func(f model.AdminFlag) { set(f.IsAdmin) },
		Revert: func(err error) {
			set(prev)
			s.log.Info("reverted", zap.String("entity", "admin"),
				zap.String("key", userID), zap.Bool("value", prev))
			s.failedAt(gen, errs.OpAdminToggle, err)
		},
	})
	if err != nil {
		return prev, err
	}
	return flag.IsAdmin, nil
}

func (c *Coordinator) currentSession() (model.Session, bool) {
	if c.session == nil {
		return model.Session{}, false
	}
	return c.session.Current()
}
