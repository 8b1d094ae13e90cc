package monitoring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/gitteams/internal/cache"
	"github.com/charlesng35/gitteams/internal/database/testutil"
	"github.com/charlesng35/gitteams/internal/monitoring"
	"github.com/charlesng35/gitteams/internal/monitoring/checks"
)

type unreachableStore struct {
	cache.Store
}

func (unreachableStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func TestHealthManagerReadiness(t *testing.T) {
	t.Parallel()

	manager := monitoring.NewHealthManager(
		monitoring.NewCheck("database", func(ctx context.Context) monitoring.ProbeResult {
			return monitoring.ProbeResult{Status: monitoring.StatusUp}
		}),
		monitoring.NewCheck("cache", func(ctx context.Context) monitoring.ProbeResult {
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded}
		}),
	)

	report := manager.Readiness(context.Background())
	require.False(t, report.Success)
	require.Equal(t, monitoring.StatusDegraded, report.Status)
	require.Len(t, report.Checks, 2)
	require.Equal(t, "cache", report.Checks[1].Component)

	manager.RegisterReadiness(monitoring.NewCheck("broken", func(ctx context.Context) monitoring.ProbeResult {
		panic("boom")
	}))
	report = manager.Readiness(context.Background())
	require.Equal(t, monitoring.StatusDown, report.Status)
	require.Equal(t, "boom", report.Checks[2].Details)

	require.True(t, manager.Liveness().Success)
}

func TestResultFromErrorDegradesOnTimeout(t *testing.T) {
	t.Parallel()

	require.Equal(t, monitoring.StatusUp, monitoring.ResultFromError(nil, 0).Status)
	require.Equal(t, monitoring.StatusDegraded, monitoring.ResultFromError(context.DeadlineExceeded, 0).Status)
	require.Equal(t, monitoring.StatusDown, monitoring.ResultFromError(errors.New("refused"), 0).Status)
}

func TestDatabaseCheck(t *testing.T) {
	db := testutil.MustOpenTestDB(t)

	result := checks.Database(db, time.Second).Run(context.Background())
	require.Equal(t, monitoring.StatusUp, result.Status)

	result = checks.Database(nil, time.Second).Run(context.Background())
	require.Equal(t, monitoring.StatusDown, result.Status)
}

func TestCacheCheck(t *testing.T) {
	t.Parallel()

	result := checks.Cache(cache.NewMemoryStore(), time.Second).Run(context.Background())
	require.Equal(t, monitoring.StatusUp, result.Status)

	result = checks.Cache(unreachableStore{}, time.Second).Run(context.Background())
	require.Equal(t, monitoring.StatusDegraded, result.Status)
	require.Contains(t, result.Details, "connection refused")
}
