package engagement

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/academy-client/internal/apitest"
	"github.com/and161185/academy-client/internal/model"
)

func TestWelcomeDue(t *testing.T) {
	t.Parallel()
	f := "Продюсер"
	require.False(t, WelcomeDue(model.Session{}))
	require.True(t, WelcomeDue(model.Session{Faculty: &f}))
	require.False(t, WelcomeDue(model.Session{Faculty: &f, HasSeenWelcomeModal: true}))
}

func TestWelcome_ShowsAfterFacultyAndDismissPersists(t *testing.T) {
	t.Parallel()
	e := newEnv(t, apitest.StudentID)
	ctx := context.Background()
	g := e.c.Welcome()
	require.False(t, g.Visible(), "no faculty yet")

	f := "Продюсер"
	e.srv.SetFaculty(apitest.StudentID, &f)
	_, err := e.st.CurrentUser(ctx)
	require.NoError(t, err)
	require.True(t, g.Visible())
	require.Equal(t, f, g.Faculty())

	require.NoError(t, g.Dismiss(ctx))
	require.False(t, g.Visible())
	p, _ := e.srv.User(apitest.StudentID)
	require.True(t, p.HasSeenWelcomeModal)
	sess, _ := e.st.Current()
	require.True(t, sess.HasSeenWelcomeModal)

	require.NoError(t, g.Dismiss(ctx))
	require.Equal(t, 1, e.srv.Calls(apitest.RouteProfileUpdate))
}

func TestWelcome_PersistFailureStaysHidden(t *testing.T) {
	t.Parallel()
	e := newEnv(t, apitest.StudentID)
	ctx := context.Background()
	f := "Експерт"
	e.srv.SetFaculty(apitest.StudentID, &f)
	_, err := e.st.CurrentUser(ctx)
	require.NoError(t, err)

	g := e.c.Welcome()
	e.srv.Fail(apitest.RouteProfileUpdate, http.StatusInternalServerError, "")
	require.Error(t, g.Dismiss(ctx))
	require.False(t, g.Visible(), "hidden for the rest of the session")
	require.Equal(t, 1, e.srv.Calls(apitest.RouteProfileUpdate), "no retry")

	// another screen of the same session, even after a session refresh
	_, err = e.st.CurrentUser(ctx)
	require.NoError(t, err)
	fresh := e.c.Welcome()
	require.False(t, fresh.Visible())
	require.NoError(t, fresh.Dismiss(ctx))
	require.Equal(t, 1, e.srv.Calls(apitest.RouteProfileUpdate))

	// the flag never reached the server, so the next login shows it again
	require.NoError(t, e.st.Logout(ctx))
	require.False(t, e.c.Welcome().Visible())
	_, err = e.st.Login(ctx, apitest.StudentEmail, apitest.StudentPassword)
	require.NoError(t, err)
	require.True(t, e.c.Welcome().Visible())
}
