package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/and161185/academy-client/internal/convert"
	"github.com/and161185/academy-client/internal/errs"
	"github.com/and161185/academy-client/internal/model"
	"github.com/and161185/academy-client/internal/wire"
)

// AdminClient covers /admin. The server requires an admin token.
type AdminClient struct{ c *Client }

func (a *AdminClient) Users(ctx context.Context) ([]model.AdminUser, error) {
	var resp []wire.AdminUser
	if err := a.c.do(ctx, errs.OpAdminUsers, http.MethodGet, "/admin/users", authRequired, nil, &resp); err != nil {
		return nil, err
	}
	return convert.ToAdminUsers(resp), nil
}

func (a *AdminClient) AssignFaculty(ctx context.Context, userID, faculty string) (model.AdminUser, error) {
	var resp wire.AdminUser
	path := "/admin/users/" + url.PathEscape(userID) + "/faculty"
	if err := a.c.do(ctx, errs.OpAdminAssignFaculty, http.MethodPut, path, authRequired,
		wire.AssignFacultyRequest{Faculty: faculty}, &resp); err != nil {
		return model.AdminUser{}, err
	}
	return convert.ToAdminUser(resp), nil
}

func (a *AdminClient) ToggleAdmin(ctx context.Context, userID string) (model.AdminFlag, error) {
	var resp wire.AdminFlag
	path := "/admin/users/" + url.PathEscape(userID) + "/admin"
	if err := a.c.do(ctx, errs.OpAdminToggle, http.MethodPut, path, authRequired, struct{}{}, &resp); err != nil {
		return model.AdminFlag{}, err
	}
	return convert.ToAdminFlag(resp), nil
}
