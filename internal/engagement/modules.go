package engagement

import (
	"context"
	"slices"

	"go.uber.org/zap"

	"github.com/and161185/academy-client/internal/errs"
	"github.com/and161185/academy-client/internal/model"
	"github.com/and161185/academy-client/internal/optimistic"
)

// ModulesView is the course overview.
type ModulesView struct {
	Loaded  bool
	Modules []model.Module
}

// ModulesScreen lists modules with per-user progress.
type ModulesScreen struct {
	screen
	c       *Coordinator
	loaded  bool
	modules []model.Module
}

func (c *Coordinator) Modules() *ModulesScreen {
	s := &ModulesScreen{c: c}
	s.init(c.log, "modules")
	return s
}

// Load fetches the module list; on failure the list renders empty.
func (s *ModulesScreen) Load(ctx context.Context) error {
	gen := s.begin()
	ms, err := s.c.modules.List(ctx)
	s.update(gen, func() {
		if err != nil {
			s.loaded, s.modules = false, nil
			s.failed(errs.OpModulesList, err)
			return
		}
		slices.SortStableFunc(ms, func(a, b model.Module) int { return a.Number - b.Number })
		s.loaded, s.modules = true, ms
	})
	return err
}

func (s *ModulesScreen) View() ModulesView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ModulesView{Loaded: s.loaded, Modules: slices.Clone(s.modules)}
}

// CompleteModule marks every lesson of the module done and refreshes it from
// the server. Returns the completed module count.
func (s *ModulesScreen) CompleteModule(ctx context.Context, moduleID string) (int, error) {
	gen := s.generation()
	return optimistic.Run(ctx, s.guard, ModuleKey(moduleID), optimistic.Mutation[int]{
		Call: func(ctx context.Context) (int, error) {
			return s.c.progress.CompleteModule(ctx, moduleID)
		},
		Reconcile: func(int) {
			m, err := s.c.modules.Get(ctx, moduleID)
			if err != nil {
				s.log.Debug("module refresh failed", zap.Error(err))
				return
			}
			s.update(gen, func() {
				if i := slices.IndexFunc(s.modules, func(x model.Module) bool { return x.ID == moduleID }); i >= 0 {
					s.modules[i] = m
				}
			})
		},
		Revert: func(err error) { s.failedAt(gen, errs.OpModuleComplete, err) },
	})
}
