package engagement

import (
	"context"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/academy-client/internal/errs"
	"github.com/and161185/academy-client/internal/model"
	"github.com/and161185/academy-client/internal/optimistic"
)

// Facet is one module chip of the favorites filter.
type Facet struct {
	ModuleNumber int
	Count        int
}

// FavoritesView is the filtered favorites list.
type FavoritesView struct {
	Loaded  bool
	Entries []model.FavoriteEntry // after filters
	Total   int                   // before filters
	Search  string
	Module  int // 0 means all modules
	Facets  []Facet
}

// FavoritesScreen holds the favorites snapshot and its filters. Filtering
// never touches the network.
type FavoritesScreen struct {
	screen
	c       *Coordinator
	loaded  bool
	entries []model.FavoriteEntry
	search  string
	module  int
}

func (c *Coordinator) Favorites() *FavoritesScreen {
	s := &FavoritesScreen{c: c}
	s.init(c.log, "favorites")
	return s
}

// Load replaces the snapshot; filters are kept.
func (s *FavoritesScreen) Load(ctx context.Context) error {
	gen := s.begin()
	list, err := s.c.favorites.List(ctx)
	s.update(gen, func() {
		if err != nil {
			s.loaded, s.entries = false, nil
			s.failed(errs.OpFavoritesList, err)
			return
		}
		s.loaded, s.entries = true, dedupe(list)
	})
	return err
}

func dedupe(list []model.FavoriteEntry) []model.FavoriteEntry {
	seen := make(map[model.FavoriteKey]struct{}, len(list))
	out := make([]model.FavoriteEntry, 0, len(list))
	for _, e := range list {
		if _, ok := seen[e.Key]; ok {
			continue
		}
		seen[e.Key] = struct{}{}
		out = append(out, e)
	}
	return out
}

// SetSearch filters by a case-insensitive substring of the lesson or module title.
func (s *FavoritesScreen) SetSearch(text string) {
	s.mu.Lock()
	s.search = text
	s.mu.Unlock()
}

// SetModule filters by module number; 0 clears the filter.
func (s *FavoritesScreen) SetModule(n int) {
	s.mu.Lock()
	s.module = n
	s.mu.Unlock()
}

// ResetFilters clears both the search text and the module filter.
func (s *FavoritesScreen) ResetFilters() {
	s.mu.Lock()
	s.search, s.module = "", 0
	s.mu.Unlock()
}

func (s *FavoritesScreen) View() FavoritesView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FavoritesView{
		Loaded:  s.loaded,
		Entries: Filter(s.entries, s.search, s.module),
		Total:   len(s.entries),
		Search:  s.search,
		Module:  s.module,
		Facets:  Facets(s.entries),
	}
}

// Filter applies the search text and module filter (AND). The search text is
// matched as typed, surrounding spaces included.
func Filter(entries []model.FavoriteEntry, search string, module int) []model.FavoriteEntry {
	q := strings.ToLower(search)
	out := make([]model.FavoriteEntry, 0, len(entries))
	for _, e := range entries {
		if q != "" && !strings.Contains(strings.ToLower(e.LessonTitle), q) &&
			!strings.Contains(strings.ToLower(e.ModuleTitle), q) {
			continue
		}
		if module != 0 && e.ModuleNumber != module {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Facets returns the distinct module numbers, ascending, with entry counts.
func Facets(entries []model.FavoriteEntry) []Facet {
	counts := map[int]int{}
	for _, e := range entries {
		counts[e.ModuleNumber]++
	}
	out := make([]Facet, 0, len(counts))
	for n, c := range counts {
		out = append(out, Facet{ModuleNumber: n, Count: c})
	}
	slices.SortFunc(out, func(a, b Facet) int { return a.ModuleNumber - b.ModuleNumber })
	return out
}

// Remove drops an entry optimistically; on failure it returns to its place.
func (s *FavoritesScreen) Remove(ctx context.Context, k model.FavoriteKey) error {
	s.mu.Lock()
	if !s.loaded || s.closed {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	gen := s.gen
	idx := slices.IndexFunc(s.entries, func(e model.FavoriteEntry) bool { return e.Key == k })
	if idx < 0 {
		s.mu.Unlock()
		return errs.ErrNotFound
	}
	removed := s.entries[idx]
	s.mu.Unlock()

	restore := func() {
		s.update(gen, func() {
			if slices.ContainsFunc(s.entries, func(e model.FavoriteEntry) bool { return e.Key == k }) {
				return
			}
			i := min(idx, len(s.entries))
			s.entries = slices.Insert(s.entries, i, removed)
		})
	}

	_, err := optimistic.Run(ctx, s.guard, FavoriteKeyOf(k), optimistic.Mutation[bool]{
		Apply: func() {
			s.update(gen, func() {
				s.entries = slices.DeleteFunc(s.entries, func(e model.FavoriteEntry) bool { return e.Key == k })
			})
		},
		Call: func(ctx context.Context) (bool, error) {
			return s.c.settleFavorite(ctx, k, false)
		},
		Reconcile: func(still bool) {
			if still {
				restore()
			}
		},
		Revert: func(err error) {
			restore()
			s.log.Info("reverted", zap.String("entity", "favorite"),
				zap.String("key", FavoriteKeyOf(k)), zap.Bool("value", true))
			s.failedAt(gen, errs.OpFavoriteRemove, err)
		},
	})
	return err
}
