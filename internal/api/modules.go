package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/and161185/academy-client/internal/convert"
	"github.com/and161185/academy-client/internal/errs"
	"github.com/and161185/academy-client/internal/model"
	"github.com/and161185/academy-client/internal/wire"
)

// ModulesClient covers /modules. Calls carry the token when one is stored so
// lessons come back with the caller's completion state.
type ModulesClient struct{ c *Client }

func (m *ModulesClient) List(ctx context.Context) ([]model.Module, error) {
	var resp []wire.Module
	if err := m.c.do(ctx, errs.OpModulesList, http.MethodGet, "/modules", authOptional, nil, &resp); err != nil {
		return nil, err
	}
	return convert.ToModules(resp), nil
}

func (m *ModulesClient) Get(ctx context.Context, id string) (model.Module, error) {
	var resp wire.Module
	if err := m.c.do(ctx, errs.OpModuleGet, http.MethodGet, "/modules/"+url.PathEscape(id), authOptional, nil, &resp); err != nil {
		return model.Module{}, err
	}
	return convert.ToModule(resp), nil
}

func (m *ModulesClient) ByNumber(ctx context.Context, n int) (model.Module, error) {
	var resp wire.Module
	if err := m.c.do(ctx, errs.OpModuleGet, http.MethodGet, "/modules/number/"+strconv.Itoa(n), authOptional, nil, &resp); err != nil {
		return model.Module{}, err
	}
	return convert.ToModule(resp), nil
}
