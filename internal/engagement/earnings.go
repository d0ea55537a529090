package engagement

import (
	"context"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/and161185/academy-client/internal/errs"
	"github.com/and161185/academy-client/internal/model"
	"github.com/and161185/academy-client/internal/optimistic"
)

// EarningsView is the earnings total and history, newest date first.
type EarningsView struct {
	Loaded  bool
	Total   decimal.Decimal
	History []model.EarningRecord
	AddBusy bool
}

// EarningsScreen mirrors the server's earnings. Add and delete replace the
// whole state with the server's answer; totals are never computed locally.
type EarningsScreen struct {
	screen
	c      *Coordinator
	loaded bool
	state  model.Earnings
}

func (c *Coordinator) Earnings() *EarningsScreen {
	s := &EarningsScreen{c: c}
	s.init(c.log, "earnings")
	return s
}

func (s *EarningsScreen) Load(ctx context.Context) error {
	gen := s.begin()
	e, err := s.c.profile.Earnings(ctx)
	s.update(gen, func() {
		if err != nil {
			s.loaded, s.state = false, model.Earnings{}
			s.failed(errs.OpEarningsList, err)
			return
		}
		s.loaded = true
		s.replace(e)
	})
	return err
}

// replace must be called with mu held.
func (s *EarningsScreen) replace(e model.Earnings) {
	e.History = slices.Clone(e.History)
	model.SortEarningsDesc(e.History)
	s.state = e
}

func (s *EarningsScreen) View() EarningsView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return EarningsView{
		Loaded:  s.loaded,
		Total:   s.state.Total,
		History: slices.Clone(s.state.History),
		AddBusy: s.guard.Busy(KeyEarningAdd),
	}
}

// Add records a user-entered amount dated now. Non-positive or unparsable
// amounts fail with errs.ErrValidation before any request.
func (s *EarningsScreen) Add(ctx context.Context, amount string) error {
	d, err := ParseAmount(amount)
	if err != nil {
		s.mu.Lock()
		s.notice = err.Error()
		s.mu.Unlock()
		return err
	}
	return s.AddAmount(ctx, d)
}

// AddAmount records d dated now.
func (s *EarningsScreen) AddAmount(ctx context.Context, d decimal.Decimal) error {
	if !d.IsPositive() {
		return errs.ErrValidation
	}
	gen := s.generation()
	_, err := optimistic.Run(ctx, s.guard, KeyEarningAdd, optimistic.Mutation[model.Earnings]{
		Call: func(ctx context.Context) (model.Earnings, error) {
			return s.c.profile.AddEarning(ctx, d, s.c.now())
		},
		Reconcile: func(e model.Earnings) {
			s.update(gen, func() {
				s.loaded = true
				s.replace(e)
			})
		},
		Revert: func(err error) { s.failedAt(gen, errs.OpEarningAdd, err) },
	})
	return err
}

// Delete removes one record.
func (s *EarningsScreen) Delete(ctx context.Context, id string) error {
	gen := s.generation()
	_, err := optimistic.Run(ctx, s.guard, EarningDeleteKey(id), optimistic.Mutation[model.Earnings]{
		Call: func(ctx context.Context) (model.Earnings, error) {
			return s.c.profile.DeleteEarning(ctx, id)
		},
		Reconcile: func(e model.Earnings) {
			s.update(gen, func() {
				s.loaded = true
				s.replace(e)
			})
		},
		Revert: func(err error) { s.failedAt(gen, errs.OpEarningDelete, err) },
	})
	return err
}
