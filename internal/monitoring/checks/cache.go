package checks

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/charlesng35/gitteams/internal/cache"
	"github.com/charlesng35/gitteams/internal/monitoring"
)

const (
	defaultCacheTimeout = 2 * time.Second
	cacheProbeKey       = "health:probe"
)

// Cache returns a readiness probe writing and reading back a short lived entry.
// A failing cache only degrades the service since every cache user falls back.
func Cache(store cache.Store, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("cache", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if store == nil {
			return monitoring.ResultFromError(errors.New("cache not configured"), time.Since(start))
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultCacheTimeout))
		defer cancel()

		payload := []byte(start.UTC().Format(time.RFC3339Nano))
		err := store.Set(probeCtx, cacheProbeKey, payload, time.Minute)
		if err == nil {
			var (
				got []byte
				ok  bool
			)
			got, ok, err = store.Get(probeCtx, cacheProbeKey)
			if err == nil && (!ok || !bytes.Equal(got, payload)) {
				err = errors.New("cache returned a different value")
			}
		}

		result := monitoring.ResultFromError(err, time.Since(start))
		if result.Status == monitoring.StatusDown {
			result.Status = monitoring.StatusDegraded
		}
		return result
	})
}
