package api

import (
	"context"
	"net/http"

	"github.com/and161185/academy-client/internal/convert"
	"github.com/and161185/academy-client/internal/errs"
	"github.com/and161185/academy-client/internal/model"
	"github.com/and161185/academy-client/internal/wire"
)

// FavoritesClient covers /favorites.
type FavoritesClient struct{ c *Client }

func (f *FavoritesClient) Add(ctx context.Context, k model.FavoriteKey) (model.FavoriteResult, error) {
	var resp wire.FavoriteMutation
	path := lessonPath("/favorites/", k.ModuleID, k.LessonNumber)
	if err := f.c.do(ctx, errs.OpFavoriteAdd, http.MethodPost, path, authRequired, nil, &resp); err != nil {
		return model.FavoriteResult{}, err
	}
	return model.FavoriteResult{IsFavorite: resp.IsFavorite}, nil
}

func (f *FavoritesClient) Remove(ctx context.Context, k model.FavoriteKey) (model.FavoriteResult, error) {
	var resp wire.FavoriteMutation
	path := lessonPath("/favorites/", k.ModuleID, k.LessonNumber)
	if err := f.c.do(ctx, errs.OpFavoriteRemove, http.MethodDelete, path, authRequired, nil, &resp); err != nil {
		return model.FavoriteResult{}, err
	}
	return model.FavoriteResult{IsFavorite: resp.IsFavorite}, nil
}

func (f *FavoritesClient) Check(ctx context.Context, k model.FavoriteKey) (bool, error) {
	var resp wire.FavoriteCheck
	path := lessonPath("/favorites/", k.ModuleID, k.LessonNumber) + "/check"
	if err := f.c.do(ctx, errs.OpFavoriteCheck, http.MethodGet, path, authRequired, nil, &resp); err != nil {
		return false, err
	}
	return resp.IsFavorite, nil
}

// List returns the favorites snapshot, one entry per key.
func (f *FavoritesClient) List(ctx context.Context) ([]model.FavoriteEntry, error) {
	var resp wire.FavoritesResponse
	if err := f.c.do(ctx, errs.OpFavoritesList, http.MethodGet, "/favorites", authRequired, nil, &resp); err != nil {
		return nil, err
	}
	return convert.ToFavorites(resp.Favorites), nil
}
