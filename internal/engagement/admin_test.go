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

func byID(us []model.AdminUser) map[string]model.AdminUser {
	m := make(map[string]model.AdminUser, len(us))
	for _, u := range us {
		m[u.ID] = u
	}
	return m
}

func TestAdmin_AssignFacultyChangesOnlyThatUser(t *testing.T) {
	t.Parallel()
	e := newEnv(t, apitest.AdminID)
	ctx := context.Background()
	s := e.c.Admin()
	require.NoError(t, s.Load(ctx))
	before := byID(s.View().Users)
	require.Nil(t, before[apitest.StudentID].Faculty)

	require.NoError(t, s.AssignFaculty(ctx, apitest.StudentID, "Продюсер"))
	after := byID(s.View().Users)
	require.NotNil(t, after[apitest.StudentID].Faculty)
	require.Equal(t, "Продюсер", *after[apitest.StudentID].Faculty)
	for id, u := range before {
		if id == apitest.StudentID {
			continue
		}
		require.Equal(t, u, after[id], id)
	}
	p, _ := e.srv.User(apitest.StudentID)
	require.Equal(t, "Продюсер", *p.Faculty)
}

func TestAdmin_AssignFacultyValidation(t *testing.T) {
	t.Parallel()
	e := newEnv(t, apitest.AdminID)
	ctx := context.Background()
	s := e.c.Admin()
	require.NoError(t, s.Load(ctx))

	require.ErrorIs(t, s.AssignFaculty(ctx, apitest.StudentID, ""), errs.ErrValidation)
	require.Equal(t, "validation failed: select a faculty", s.TakeNotice())
	require.ErrorIs(t, s.AssignFaculty(ctx, apitest.StudentID, "Астронавт"), errs.ErrValidation)
	require.ErrorIs(t, s.AssignFaculty(ctx, "nobody", "Продюсер"), errs.ErrValidation)
	require.Zero(t, e.srv.Calls(apitest.RouteAdminFaculty))
}

func TestAdmin_AssignFacultyOnSelfRefreshesSession(t *testing.T) {
	t.Parallel()
	e := newEnv(t, apitest.AdminID)
	ctx := context.Background()
	s := e.c.Admin()
	require.NoError(t, s.Load(ctx))

	require.NoError(t, s.AssignFaculty(ctx, apitest.AdminID, "Експерт"))
	sess, ok := e.st.Current()
	require.True(t, ok)
	require.NotNil(t, sess.Faculty)
	require.Equal(t, "Експерт", *sess.Faculty)
}

func TestAdmin_ToggleAdmin(t *testing.T) {
	t.Parallel()
	e := newEnv(t, apitest.AdminID)
	ctx := context.Background()
	s := e.c.Admin()
	require.NoError(t, s.Load(ctx))

	got, err := s.ToggleAdmin(ctx, apitest.OtherID)
	require.NoError(t, err)
	require.True(t, got)
	require.True(t, byID(s.View().Users)[apitest.OtherID].IsAdmin)

	e.srv.Fail(apitest.RouteAdminToggle, http.StatusInternalServerError, "")
	got, err = s.ToggleAdmin(ctx, apitest.OtherID)
	require.ErrorIs(t, err, errs.ErrRequestFailed)
	require.True(t, got)
	require.True(t, byID(s.View().Users)[apitest.OtherID].IsAdmin, "reverted")
	require.Equal(t, "admin toggle failed", s.TakeNotice())
}

func TestAdmin_NonAdminSeesNeutralState(t *testing.T) {
	t.Parallel()
	e := newEnv(t, apitest.StudentID)
	s := e.c.Admin()
	err := s.Load(context.Background())
	require.ErrorIs(t, err, errs.ErrRequestFailed)
	require.False(t, s.View().Loaded)
	require.Empty(t, s.View().Users)
}
