package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/gitteams/internal/models"
)

func TestUserServiceUpsertAndAuthenticate(t *testing.T) {
	db := openServiceTestDB(t)
	audit, err := NewAuditService(db)
	require.NoError(t, err)
	svc, err := NewUserService(db, prefixCipher{}, audit)
	require.NoError(t, err)
	ctx := context.Background()

	user, created, err := svc.Upsert(ctx, UpsertUserInput{Name: "instructor", Password: "s3cret!", GitHubToken: "ghp_first"})
	require.NoError(t, err)
	require.True(t, created)
	require.NotEqual(t, "s3cret!", user.PasswordHash)
	require.Equal(t, sealedPrefix+"ghp_first", user.GitHubToken)

	authenticated, err := svc.Authenticate(ctx, "instructor", "s3cret!", "127.0.0.1")
	require.NoError(t, err)
	require.Equal(t, user.ID, authenticated.ID)

	_, err = svc.Authenticate(ctx, "instructor", "wrong", "127.0.0.1")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody", "s3cret!", "127.0.0.1")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	updated, created, err := svc.Upsert(ctx, UpsertUserInput{Name: "instructor", Password: "rotated", GitHubToken: "ghp_second"})
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, user.ID, updated.ID)

	token, err := svc.GitHubToken(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "ghp_second", token)

	_, err = svc.Authenticate(ctx, "instructor", "s3cret!", "")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	logs, _, err := audit.List(ctx, AuditListOptions{Filters: AuditFilters{Action: AuditActionLogin, Result: "failure"}})
	require.NoError(t, err)
	require.Len(t, logs, 3)
}

func TestUserServiceUpsertRequiresFields(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewUserService(db, prefixCipher{}, nil)
	require.NoError(t, err)

	_, _, err = svc.Upsert(context.Background(), UpsertUserInput{Name: "x", Password: "y"})
	require.Error(t, err)
}

func TestUserServiceGitHubTokenFailures(t *testing.T) {
	db := openServiceTestDB(t)
	svc, err := NewUserService(db, prefixCipher{}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	_, err = svc.GitHubToken(ctx, "missing")
	require.ErrorIs(t, err, ErrOwnerCredentials)
	require.ErrorIs(t, err, ErrUserNotFound)

	broken := &models.User{Name: "broken", PasswordHash: "x", GitHubToken: "garbage"}
	require.NoError(t, db.Create(broken).Error)
	_, err = svc.GitHubToken(ctx, broken.ID)
	require.ErrorIs(t, err, ErrOwnerCredentials)
}
