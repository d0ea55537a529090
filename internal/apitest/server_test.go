package apitest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/academy-client/internal/wire"
)

func TestNewFake_SeedsUsersAndModules(t *testing.T) {
	t.Parallel()
	s := New(t)

	p, admin := s.User(StudentID)
	require.Equal(t, "Олена", p.FirstName)
	require.False(t, admin)
	_, admin = s.User(AdminID)
	require.True(t, admin)
	other, _ := s.User(OtherID)
	require.NotNil(t, other.Faculty)
	require.Equal(t, "Експерт", *other.Faculty)

	resp, err := http.Get(s.URL + "/modules")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	s.mu.Lock()
	mods := s.modules
	s.mu.Unlock()
	require.Len(t, mods, 2)
	require.Equal(t, Module1ID, mods[0].ID)
	require.Equal(t, Module2ID, mods[1].ID)
	require.Equal(t, "Перші кроки", mods[0].Lessons[1].Title)
	require.Len(t, mods[0].Lessons[1].Materials, 1)
}

func TestNewFake_LoginWithSeededPassword(t *testing.T) {
	t.Parallel()
	s := New(t)

	body, _ := json.Marshal(wire.LoginRequest{Email: StudentEmail, Password: StudentPassword})
	resp, err := http.Post(s.URL+"/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out wire.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.Token)
	require.Equal(t, StudentID, out.User.ID)
}
