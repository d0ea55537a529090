package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/and161185/academy-client/internal/convert"
	"github.com/and161185/academy-client/internal/errs"
	"github.com/and161185/academy-client/internal/model"
	"github.com/and161185/academy-client/internal/wire"
)

// AuthClient covers /auth.
type AuthClient struct{ c *Client }

// Login exchanges credentials for a session. The token is returned in
// Session.Token and is not persisted here.
func (a *AuthClient) Login(ctx context.Context, email, password string) (model.Session, error) {
	var resp wire.LoginResponse
	err := a.c.do(ctx, errs.OpLogin, http.MethodPost, "/auth/login", authNone,
		wire.LoginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		var re *errs.RequestError
		if errors.As(err, &re) && (re.Status == http.StatusUnauthorized || re.Status == http.StatusBadRequest) {
			if re.Message != "" {
				return model.Session{}, fmt.Errorf("%w: %s", errs.ErrInvalidCredentials, re.Message)
			}
			return model.Session{}, errs.ErrInvalidCredentials
		}
		return model.Session{}, err
	}
	if resp.Token == "" {
		return model.Session{}, fmt.Errorf("%s: empty token in response", errs.OpLogin.Human())
	}
	return convert.ToSession(resp.User, resp.Token), nil
}

// Me fetches the user bound to the stored token.
func (a *AuthClient) Me(ctx context.Context) (model.Session, error) {
	tok, err := a.c.creds.Token(ctx)
	if err != nil {
		return model.Session{}, err
	}
	if tok == "" {
		return model.Session{}, a.c.unauthenticated(ctx)
	}
	var resp wire.MeResponse
	err = a.c.send(ctx, call{
		op: errs.OpCurrentUser, method: http.MethodGet, path: "/auth/me",
		auth: authRequired, token: tok, out: &resp,
	})
	if err != nil {
		return model.Session{}, err
	}
	return convert.ToSession(resp.User, tok), nil
}

// Logout notifies the server that token is no longer used.
func (a *AuthClient) Logout(ctx context.Context, token string) error {
	if token == "" {
		return errs.ErrUnauthenticated
	}
	return a.c.send(ctx, call{
		op: errs.OpLogout, method: http.MethodPost, path: "/auth/logout",
		auth: authRequired, token: token,
	})
}
