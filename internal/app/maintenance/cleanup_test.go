package maintenance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/require"

	"github.com/charlesng35/gitteams/internal/cache"
	testutil "github.com/charlesng35/gitteams/internal/database/testutil"
	"github.com/charlesng35/gitteams/internal/models"
	"github.com/charlesng35/gitteams/internal/services"
)

type failingPurger struct{}

func (failingPurger) PurgeExpired(context.Context) (int64, error) {
	return 0, errors.New("purge failed")
}

func TestCleanerRunOnce(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	auditSvc, err := services.NewAuditService(db)
	require.NoError(t, err)

	clock := &fixedClock{current: time.Date(2024, 5, 20, 9, 0, 0, 0, time.UTC)}
	store := cache.NewDatabaseStore(db, cache.WithDatabaseClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "github:orgs:expired", []byte("[]"), time.Minute))
	require.NoError(t, store.Set(ctx, "github:orgs:fresh", []byte("[]"), time.Hour))
	clock.current = clock.current.Add(10 * time.Minute)

	require.NoError(t, db.Create(&models.AuditLog{
		Action:    "old.action",
		Result:    "success",
		CreatedAt: time.Now().AddDate(0, 0, -10),
	}).Error)
	require.NoError(t, auditSvc.Log(ctx, services.AuditEntry{Action: "new.action", Result: "success"}))

	c := NewCleaner(store, auditSvc,
		WithAuditRetentionDays(7),
		WithCron(cron.New(cron.WithLogger(cron.DiscardLogger))),
	)
	require.NoError(t, c.RunOnce(ctx))

	var entries int64
	require.NoError(t, db.Model(&models.CacheEntry{}).Count(&entries).Error)
	require.Equal(t, int64(1), entries)

	var auditCount int64
	require.NoError(t, db.Model(&models.AuditLog{}).Count(&auditCount).Error)
	require.Equal(t, int64(1), auditCount)
}

func TestCleanerRunOnceCombinesErrors(t *testing.T) {
	c := NewCleaner(failingPurger{}, nil)
	require.EqualError(t, c.RunOnce(context.Background()), "purge failed")
}

func TestCleanerStartRejectsBadSchedule(t *testing.T) {
	c := NewCleaner(cache.NewMemoryStore(), nil, WithCacheSchedule("not a schedule"))
	require.Error(t, c.Start())
}

func TestCleanerStartStop(t *testing.T) {
	c := NewCleaner(cache.NewMemoryStore(), nil)
	require.NoError(t, c.Start())
	<-c.Stop().Done()
}

type fixedClock struct {
	current time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.current
}
