package session

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/academy-client/internal/api"
	"github.com/and161185/academy-client/internal/apitest"
	"github.com/and161185/academy-client/internal/credentials"
	"github.com/and161185/academy-client/internal/errs"
	"github.com/and161185/academy-client/internal/model"
)

func setup(t *testing.T) (*apitest.Server, *api.Client, *credentials.MemoryStore, *Store) {
	t.Helper()
	srv := apitest.New(t)
	creds := credentials.NewMemoryStore("")
	log := zaptest.NewLogger(t)
	c := api.New(srv.URL, creds, api.WithLogger(log))
	st := New(c.Auth, creds, log)
	c.OnUnauthenticated(st.Teardown)
	return srv, c, creds, st
}

func TestLoginPersistsToken(t *testing.T) {
	t.Parallel()
	_, _, creds, st := setup(t)
	ctx := context.Background()

	sess, err := st.Login(ctx, apitest.StudentEmail, apitest.StudentPassword)
	require.NoError(t, err)
	tok, _ := creds.Token(ctx)
	require.Equal(t, sess.Token, tok)
	cur, ok := st.Current()
	require.True(t, ok)
	require.Equal(t, apitest.StudentID, cur.UserID)
}

func TestLoginInvalid(t *testing.T) {
	t.Parallel()
	_, _, creds, st := setup(t)
	_, err := st.Login(context.Background(), apitest.StudentEmail, "nope")
	require.ErrorIs(t, err, errs.ErrInvalidCredentials)
	_, ok := st.Current()
	require.False(t, ok)
	tok, _ := creds.Token(context.Background())
	require.Empty(t, tok)
}

func TestLogout_ClearsFirstAndSwallowsNotifyFailure(t *testing.T) {
	t.Parallel()
	srv, _, creds, st := setup(t)
	ctx := context.Background()
	_, err := st.Login(ctx, apitest.StudentEmail, apitest.StudentPassword)
	require.NoError(t, err)

	srv.Fail(apitest.RouteLogout, http.StatusInternalServerError, "down")
	require.NoError(t, st.Logout(ctx))
	require.Equal(t, 1, srv.Calls(apitest.RouteLogout))
	tok, _ := creds.Token(ctx)
	require.Empty(t, tok)
	_, ok := st.Current()
	require.False(t, ok)
}

func TestLogout_ServerInvalidatesToken(t *testing.T) {
	t.Parallel()
	srv, _, creds, st := setup(t)
	ctx := context.Background()
	sess, err := st.Login(ctx, apitest.StudentEmail, apitest.StudentPassword)
	require.NoError(t, err)
	require.NoError(t, st.Logout(ctx))

	// the same token is rejected afterwards
	require.NoError(t, creds.Set(ctx, sess.Token))
	_, err = st.CurrentUser(ctx)
	require.ErrorIs(t, err, errs.ErrUnauthenticated)
	tok, _ := creds.Token(ctx)
	require.Empty(t, tok)
	require.Equal(t, 2, srv.Calls(apitest.RouteLogin)+srv.Calls(apitest.RouteLogout))
}

func TestCurrentUser_NoTokenNoRequest(t *testing.T) {
	t.Parallel()
	srv, _, _, st := setup(t)
	_, err := st.CurrentUser(context.Background())
	require.ErrorIs(t, err, errs.ErrUnauthenticated)
	require.Equal(t, 0, srv.TotalCalls())
}

func TestCurrentUser_RefreshesFields(t *testing.T) {
	t.Parallel()
	srv, _, _, st := setup(t)
	ctx := context.Background()
	_, err := st.Login(ctx, apitest.StudentEmail, apitest.StudentPassword)
	require.NoError(t, err)

	f := "Продюсер"
	srv.SetFaculty(apitest.StudentID, &f)
	sess, err := st.CurrentUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, sess.Faculty)
	require.Equal(t, f, *sess.Faculty)
}

func TestAny401TearsDown(t *testing.T) {
	t.Parallel()
	srv, c, creds, st := setup(t)
	ctx := context.Background()
	sess, err := st.Login(ctx, apitest.StudentEmail, apitest.StudentPassword)
	require.NoError(t, err)
	srv.Revoke(sess.Token)

	_, err = c.Favorites.List(ctx)
	require.ErrorIs(t, err, errs.ErrUnauthenticated)
	_, ok := st.Current()
	require.False(t, ok)
	tok, _ := creds.Token(ctx)
	require.Empty(t, tok)
}

type flakyAuth struct{ err error }

func (f flakyAuth) Login(context.Context, string, string) (model.Session, error) {
	return model.Session{}, f.err
}
func (f flakyAuth) Me(context.Context) (model.Session, error) { return model.Session{}, f.err }
func (f flakyAuth) Logout(context.Context, string) error   { return f.err }

func TestCurrentUser_NetworkFailureKeepsToken(t *testing.T) {
	t.Parallel()
	creds := credentials.NewMemoryStore("tok")
	st := New(flakyAuth{err: errors.Join(errs.ErrNetworkUnavailable, errors.New("dial"))}, creds, nil)

	_, err := st.CurrentUser(context.Background())
	require.ErrorIs(t, err, errs.ErrNetworkUnavailable)
	tok, _ := creds.Token(context.Background())
	require.Equal(t, "tok", tok)
}
