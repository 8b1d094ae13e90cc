package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/gitteams/internal/models"
	"github.com/charlesng35/gitteams/pkg/crypto"
)

// TokenCipher seals and opens GitHub tokens at rest.
type TokenCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// UpsertUserInput captures the attributes used to create or update an owner.
type UpsertUserInput struct {
	Name        string
	Password    string
	GitHubToken string
}

// UserService manages project owners and their stored GitHub credentials.
type UserService struct {
	db     *gorm.DB
	cipher TokenCipher
	audit  *AuditService
}

// NewUserService constructs a UserService.
func NewUserService(db *gorm.DB, cipher TokenCipher, audit *AuditService) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	if cipher == nil {
		return nil, errors.New("user service: token cipher is required")
	}
	return &UserService{db: db, cipher: cipher, audit: audit}, nil
}

// Authenticate verifies a name/password pair and returns the matching owner.
func (s *UserService) Authenticate(ctx context.Context, name, password, ipAddress string) (*models.User, error) {
	ctx = ensureContext(ctx)

	name = strings.TrimSpace(name)
	if name == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user models.User
	err := s.db.WithContext(ctx).Where("name = ?", name).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.recordLogin(ctx, nil, ipAddress, "failure")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("user service: query user: %w", err)
	}

	if !crypto.VerifyPassword(user.PasswordHash, password) {
		s.recordLogin(ctx, &user.ID, ipAddress, "failure")
		return nil, ErrInvalidCredentials
	}

	s.recordLogin(ctx, &user.ID, ipAddress, "success")
	return &user, nil
}

func (s *UserService) recordLogin(ctx context.Context, userID *string, ipAddress, result string) {
	recordAudit(s.audit, ctx, AuditEntry{
		UserID:    userID,
		Action:    AuditActionLogin,
		Result:    result,
		IPAddress: ipAddress,
	})
}

// GetByID loads an owner by identifier.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// Upsert creates the owner or replaces the password and token of an existing one.
// The boolean reports whether a new record was created.
func (s *UserService) Upsert(ctx context.Context, input UpsertUserInput) (*models.User, bool, error) {
	ctx = ensureContext(ctx)

	name := strings.TrimSpace(input.Name)
	token := strings.TrimSpace(input.GitHubToken)
	if name == "" || input.Password == "" || token == "" {
		return nil, false, errors.New("user service: name, password and github token are required")
	}

	hash, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, false, fmt.Errorf("user service: hash password: %w", err)
	}
	sealed, err := s.cipher.Encrypt(token)
	if err != nil {
		return nil, false, fmt.Errorf("user service: encrypt token: %w", err)
	}

	var (
		user    models.User
		created bool
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("name = ?", name).Take(&user).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			user = models.User{Name: name, PasswordHash: hash, GitHubToken: sealed}
			created = true
			return tx.Create(&user).Error
		case err != nil:
			return err
		}
		user.PasswordHash = hash
		user.GitHubToken = sealed
		return tx.Model(&user).Updates(map[string]any{
			"password_hash": hash,
			"github_token":  sealed,
		}).Error
	})
	if err != nil {
		return nil, false, fmt.Errorf("user service: upsert user: %w", err)
	}

	return &user, created, nil
}

// GitHubToken decrypts the stored GitHub token of the owner. Any failure wraps
// ErrOwnerCredentials and must not be retried.
func (s *UserService) GitHubToken(ctx context.Context, ownerID string) (string, error) {
	user, err := s.GetByID(ctx, ownerID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrOwnerCredentials, err)
	}
	if strings.TrimSpace(user.GitHubToken) == "" {
		return "", fmt.Errorf("%w: no token stored", ErrOwnerCredentials)
	}

	token, err := s.cipher.Decrypt(user.GitHubToken)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrOwnerCredentials, err)
	}
	if strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("%w: token is empty", ErrOwnerCredentials)
	}
	return token, nil
}
