package engagement

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/and161185/academy-client/internal/apitest"
)

func TestModules_LoadAndCompleteModule(t *testing.T) {
	t.Parallel()
	e := newEnv(t, apitest.StudentID)
	ctx := context.Background()
	s := e.c.Modules()
	require.NoError(t, s.Load(ctx))
	v := s.View()
	require.Len(t, v.Modules, 2)
	require.Equal(t, 1, v.Modules[0].Number)

	n, err := s.CompleteModule(ctx, apitest.Module2ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	m := s.View().Modules[1]
	require.InDelta(t, 100.0, m.Progress, 0.001)
	for _, l := range m.Lessons {
		require.True(t, l.Completed)
	}
}
