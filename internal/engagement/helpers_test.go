package engagement

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/academy-client/internal/api"
	"github.com/and161185/academy-client/internal/apitest"
	"github.com/and161185/academy-client/internal/credentials"
	"github.com/and161185/academy-client/internal/model"
	"github.com/and161185/academy-client/internal/session"
)

var fixedNow = time.Date(2025, 5, 14, 10, 30, 0, 0, time.UTC)

type env struct {
	srv   *apitest.Server
	api   *api.Client
	st    *session.Store
	creds *credentials.MemoryStore
	c     *Coordinator
}

// newEnv logs userID in (when non-empty) against a fresh fake server.
func newEnv(t *testing.T, userID string) *env {
	t.Helper()
	srv := apitest.New(t)
	log := zaptest.NewLogger(t)
	creds := credentials.NewMemoryStore("")
	c := api.New(srv.URL, creds, api.WithLogger(log))
	st := session.New(c.Auth, creds, log)
	c.OnUnauthenticated(st.Teardown)

	if userID != "" {
		require.NoError(t, creds.Set(context.Background(), srv.Token(userID, time.Hour)))
		_, err := st.CurrentUser(context.Background())
		require.NoError(t, err)
	}
	coord := New(Deps{
		Modules:   c.Modules,
		Progress:  c.Progress,
		Favorites: c.Favorites,
		Profile:   c.Profile,
		Admin:     c.Admin,
		Session:   st,
		Log:       log,
		Now:       func() time.Time { return fixedNow },
	})
	return &env{srv: srv, api: c, st: st, creds: creds, c: coord}
}

func key(moduleID string, n int) model.FavoriteKey {
	return model.FavoriteKey{ModuleID: moduleID, LessonNumber: n}
}
