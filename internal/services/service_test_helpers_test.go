package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/gitteams/internal/database/testutil"
	"github.com/charlesng35/gitteams/internal/github"
	"github.com/charlesng35/gitteams/internal/models"
)

const sealedPrefix = "sealed:"

type prefixCipher struct{}

func (prefixCipher) Encrypt(plaintext string) (string, error) {
	return sealedPrefix + plaintext, nil
}

func (prefixCipher) Decrypt(ciphertext string) (string, error) {
	if !strings.HasPrefix(ciphertext, sealedPrefix) {
		return "", errors.New("not sealed")
	}
	return strings.TrimPrefix(ciphertext, sealedPrefix), nil
}

type staticCredentials struct {
	token string
	err   error
	calls atomic.Int32
}

func (s *staticCredentials) GitHubToken(context.Context, string) (string, error) {
	s.calls.Add(1)
	return s.token, s.err
}

// fakeGitHub records calls and answers from per-username tables.
type fakeGitHub struct {
	mu sync.Mutex

	missing         map[string]bool
	lookupErr       map[string]error
	createErr       error
	collaboratorErr map[string]error

	lookups       []string
	created       []github.CreateRepositoryInput
	collaborators []string
}

func (f *fakeGitHub) UserExists(_ context.Context, _ string, username string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups = append(f.lookups, username)
	if err := f.lookupErr[username]; err != nil {
		return false, err
	}
	return !f.missing[username], nil
}

func (f *fakeGitHub) CreateRepository(_ context.Context, _ string, input github.CreateRepositoryInput) (*github.Repository, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, input)
	if f.createErr != nil {
		return nil, f.createErr
	}
	owner := input.Org
	if owner == "" {
		owner = "owner"
	}
	return &github.Repository{
		HTMLURL:    "https://github.com/" + owner + "/" + input.Name,
		FullName:   owner + "/" + input.Name,
		OwnerLogin: owner,
		Name:       input.Name,
	}, nil
}

func (f *fakeGitHub) AddCollaborator(_ context.Context, _ string, _ string, _ string, username string) (github.CollaboratorStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collaborators = append(f.collaborators, username)
	if err := f.collaboratorErr[username]; err != nil {
		return "", err
	}
	return github.CollaboratorInvited, nil
}

func (f *fakeGitHub) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.lookups)
}

func openServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
}

func seedOwner(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()

	user := &models.User{
		Name:         name,
		PasswordHash: "unused",
		GitHubToken:  sealedPrefix + "ghp_" + name,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedProject(t *testing.T, db *gorm.DB, ownerID string, minPeople, maxPeople int) *models.Project {
	t.Helper()

	svc, err := NewProjectService(db, nil)
	require.NoError(t, err)

	project, err := svc.Create(context.Background(), ownerID, CreateProjectInput{
		Title:     "Distributed Systems",
		Org:       "course-org",
		MinPeople: minPeople,
		MaxPeople: maxPeople,
	})
	require.NoError(t, err)
	return project
}
