package engagement

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/academy-client/internal/apitest"
	"github.com/and161185/academy-client/internal/errs"
	"github.com/and161185/academy-client/internal/model"
)

func seedFavorites(t *testing.T, e *env, keys ...model.FavoriteKey) {
	t.Helper()
	for _, k := range keys {
		_, err := e.api.Favorites.Add(context.Background(), k)
		require.NoError(t, err)
	}
}

func TestFavorites_SearchWithModuleFilterAndReset(t *testing.T) {
	t.Parallel()
	e := newEnv(t, apitest.StudentID)
	seedFavorites(t, e, key(apitest.Module1ID, 1), key(apitest.Module2ID, 2))
	s := e.c.Favorites()
	require.NoError(t, s.Load(context.Background()))
	loads := e.srv.Calls(apitest.RouteFavorites)

	s.SetSearch("алгоритм")
	s.SetModule(1)
	v := s.View()
	require.Empty(t, v.Entries)
	require.Equal(t, 2, v.Total)

	s.ResetFilters()
	v = s.View()
	require.Empty(t, v.Search)
	require.Zero(t, v.Module)
	require.Len(t, v.Entries, 2)

	require.Equal(t, loads, e.srv.Calls(apitest.RouteFavorites), "filtering is local")
}

func TestFavorites_FilterRules(t *testing.T) {
	t.Parallel()
	e := newEnv(t, apitest.StudentID)
	seedFavorites(t, e, key(apitest.Module1ID, 1), key(apitest.Module1ID, 2), key(apitest.Module2ID, 2))
	s := e.c.Favorites()
	require.NoError(t, s.Load(context.Background()))

	s.SetSearch("ВОРОНКА")
	require.Len(t, s.View().Entries, 1)

	s.SetSearch("маркет") // module title
	require.Len(t, s.View().Entries, 1)

	s.SetSearch("")
	s.SetModule(1)
	require.Len(t, s.View().Entries, 2)

	s.SetSearch("кроки")
	v := s.View()
	require.Len(t, v.Entries, 1)
	require.Equal(t, "Перші кроки", v.Entries[0].LessonTitle)

	require.Equal(t, []Facet{{ModuleNumber: 1, Count: 2}, {ModuleNumber: 2, Count: 1}}, v.Facets)
}

func TestFavorites_RemoveAndRevert(t *testing.T) {
	t.Parallel()
	e := newEnv(t, apitest.StudentID)
	k1, k2 := key(apitest.Module1ID, 1), key(apitest.Module2ID, 1)
	seedFavorites(t, e, k1, k2)
	s := e.c.Favorites()
	ctx := context.Background()
	require.NoError(t, s.Load(ctx))

	e.srv.Fail(apitest.RouteFavoriteRemove, http.StatusInternalServerError, "")
	err := s.Remove(ctx, k1)
	require.ErrorIs(t, err, errs.ErrRequestFailed)
	v := s.View()
	require.Len(t, v.Entries, 2)
	require.Equal(t, k1, v.Entries[0].Key, "restored in place")
	require.Equal(t, "favorite remove failed", s.TakeNotice())

	e.srv.Restore(apitest.RouteFavoriteRemove)
	require.NoError(t, s.Remove(ctx, k1))
	v = s.View()
	require.Len(t, v.Entries, 1)
	require.Equal(t, k2, v.Entries[0].Key)
	require.False(t, e.srv.IsFavorite(apitest.StudentID, k1))

	require.ErrorIs(t, s.Remove(ctx, k1), errs.ErrNotFound)
}

func TestFavorites_LoadFailureRendersEmpty(t *testing.T) {
	t.Parallel()
	e := newEnv(t, apitest.StudentID)
	seedFavorites(t, e, key(apitest.Module1ID, 1))
	s := e.c.Favorites()
	require.NoError(t, s.Load(context.Background()))

	e.srv.Fail(apitest.RouteFavorites, http.StatusInternalServerError, "")
	require.Error(t, s.Load(context.Background()))
	v := s.View()
	require.False(t, v.Loaded)
	require.Empty(t, v.Entries)
}

func TestFilter_Pure(t *testing.T) {
	t.Parallel()
	entries := []model.FavoriteEntry{
		{Key: key("a", 1), ModuleNumber: 1, ModuleTitle: "Алгоритми", LessonTitle: "Сортування"},
		{Key: key("b", 1), ModuleNumber: 2, ModuleTitle: "Мережі", LessonTitle: "Алгоритм маршрутизації"},
	}
	require.Len(t, Filter(entries, "алгоритм", 0), 2)
	require.Len(t, Filter(entries, "алгоритм", 2), 1)
	require.Empty(t, Filter(entries, "алгоритм", 3))
	require.Empty(t, Filter(entries, "  ", 0))
	require.Len(t, Filter(entries, " ", 0), 1)
	require.Empty(t, Filter(entries, " алгоритм", 0))
	require.Equal(t, []Facet{{1, 1}, {2, 1}}, Facets(entries))
}
