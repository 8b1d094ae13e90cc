package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/gitteams/internal/cache"
	"github.com/charlesng35/gitteams/internal/github"
)

type countingLister struct {
	orgs  []github.Organization
	err   error
	calls int
}

func (l *countingLister) ListOrganizations(context.Context, string) ([]github.Organization, error) {
	l.calls++
	return l.orgs, l.err
}

type failingStore struct {
	cache.Store
}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("store down")
}

func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("store down")
}

func TestOrganizationServiceCachesUntilTTL(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	store := cache.NewMemoryStore(cache.WithClock(func() time.Time { return now }))
	lister := &countingLister{orgs: []github.Organization{{ID: 1, Login: "course-org"}}}

	svc, err := NewOrganizationService(&staticCredentials{token: "ghp"}, lister, store, 5*time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	orgs, err := svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, "course-org", orgs[0].Login)

	now = now.Add(4 * time.Minute)
	_, err = svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, lister.calls)

	_, err = svc.List(ctx, "user-2")
	require.NoError(t, err)
	require.Equal(t, 2, lister.calls)

	now = now.Add(2 * time.Minute)
	_, err = svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 3, lister.calls)

	require.NoError(t, svc.Invalidate(ctx, "user-1"))
	_, err = svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 4, lister.calls)
}

func TestOrganizationServiceBypassesBrokenCache(t *testing.T) {
	lister := &countingLister{}
	svc, err := NewOrganizationService(&staticCredentials{token: "ghp"}, lister, failingStore{}, time.Minute)
	require.NoError(t, err)

	orgs, err := svc.List(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, orgs)
	require.Empty(t, orgs)
}

func TestOrganizationServiceDoesNotCacheErrors(t *testing.T) {
	store := cache.NewMemoryStore()
	lister := &countingLister{err: github.ErrInvalidToken}
	svc, err := NewOrganizationService(&staticCredentials{token: "ghp"}, lister, store, time.Minute)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.List(ctx, "user-1")
	require.ErrorIs(t, err, github.ErrInvalidToken)

	lister.err = nil
	_, err = svc.List(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, 2, lister.calls)
}

func TestOrganizationServiceCredentialFailure(t *testing.T) {
	lister := &countingLister{}
	svc, err := NewOrganizationService(&staticCredentials{err: ErrOwnerCredentials}, lister, nil, 0)
	require.NoError(t, err)

	_, err = svc.List(context.Background(), "user-1")
	require.ErrorIs(t, err, ErrOwnerCredentials)
	require.Zero(t, lister.calls)
}
