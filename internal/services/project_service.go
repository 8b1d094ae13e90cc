package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/charlesng35/gitteams/internal/models"
	"github.com/charlesng35/gitteams/pkg/crypto"
	"github.com/charlesng35/gitteams/pkg/validator"
)

const (
	inviteTokenBytes    = 16
	inviteTokenAttempts = 3
)

// CreateProjectInput captures the attributes required to open a project.
type CreateProjectInput struct {
	Title       string
	Org         string
	Description *string
	MinPeople   int
	MaxPeople   int
}

// PublicProject is the invite page view of a project. Owner identity, invite
// token and group counter are deliberately absent.
type PublicProject struct {
	Title       string    `json:"title"`
	Org         string    `json:"org"`
	Description string    `json:"description"`
	MinPeople   int       `json:"min_people"`
	MaxPeople   int       `json:"max_people"`
	CreatedAt   time.Time `json:"created_at"`
}

// ProjectService manages owner projects and resolves invite tokens.
type ProjectService struct {
	db       *gorm.DB
	audit    *AuditService
	newToken func() (string, error)
}

// NewProjectService constructs a ProjectService.
func NewProjectService(db *gorm.DB, audit *AuditService) (*ProjectService, error) {
	if db == nil {
		return nil, errors.New("project service: db is required")
	}
	return &ProjectService{
		db:    db,
		audit: audit,
		newToken: func() (string, error) {
			return crypto.GenerateOpaqueToken(inviteTokenBytes)
		},
	}, nil
}

// Create validates input and stores a new project with a fresh invite token.
func (s *ProjectService) Create(ctx context.Context, ownerID string, input CreateProjectInput) (*models.Project, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(ownerID) == "" {
		return nil, errors.New("project service: owner id is required")
	}

	title := validator.PlainText(input.Title)
	org := strings.TrimSpace(input.Org)
	switch {
	case title == "":
		return nil, invalidf("title is required")
	case org == "":
		return nil, invalidf("org is required")
	case input.MinPeople < 1:
		return nil, invalidf("min_people must be at least 1")
	case input.MaxPeople < input.MinPeople:
		return nil, invalidf("max_people must be greater than or equal to min_people")
	}

	var description *string
	if input.Description != nil {
		description = stringPtr(validator.PlainText(*input.Description))
	}

	project := &models.Project{
		OwnerID:         ownerID,
		Title:           title,
		Org:             org,
		Description:     description,
		MinPeople:       input.MinPeople,
		MaxPeople:       input.MaxPeople,
		NextGroupNumber: 1,
	}

	var lastErr error
	for attempt := 0; attempt < inviteTokenAttempts; attempt++ {
		token, err := s.newToken()
		if err != nil {
			return nil, fmt.Errorf("project service: generate invite token: %w", err)
		}
		project.ID = ""
		project.InviteToken = token

		lastErr = s.db.WithContext(ctx).Create(project).Error
		if lastErr == nil {
			break
		}
		if !isUniqueConstraintError(lastErr) {
			return nil, fmt.Errorf("project service: create project: %w", lastErr)
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("project service: create project: %w", lastErr)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:    &ownerID,
		ProjectID: &project.ID,
		Action:    AuditActionProjectCreate,
		Result:    "success",
		Metadata: map[string]any{
			"title": title,
			"org":   org,
		},
	})

	return project, nil
}

// ListByOwner returns the owner's projects, newest first.
func (s *ProjectService) ListByOwner(ctx context.Context, ownerID string) ([]models.Project, error) {
	ctx = ensureContext(ctx)

	var projects []models.Project
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("project service: list projects: %w", err)
	}
	return projects, nil
}

// GetForOwner loads a project and its groups. Projects of other owners are reported
// as not found.
func (s *ProjectService) GetForOwner(ctx context.Context, ownerID, id string) (*models.Project, error) {
	ctx = ensureContext(ctx)

	var project models.Project
	err := s.db.WithContext(ctx).
		Preload("Groups", func(db *gorm.DB) *gorm.DB {
			return db.Order("number ASC")
		}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Take(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("project service: get project: %w", err)
	}
	return &project, nil
}

// Delete removes an owner's project together with its groups.
func (s *ProjectService) Delete(ctx context.Context, ownerID, id string) error {
	ctx = ensureContext(ctx)

	var title string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		err := tx.Select("id", "title").Where("id = ? AND owner_id = ?", id, ownerID).Take(&project).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		if err != nil {
			return err
		}
		title = project.Title

		if err := tx.Where("project_id = ?", project.ID).Delete(&models.Group{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Project{}, "id = ?", project.ID).Error
	})
	if errors.Is(err, ErrProjectNotFound) {
		return ErrProjectNotFound
	}
	if err != nil {
		return fmt.Errorf("project service: delete project: %w", err)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		UserID:    &ownerID,
		ProjectID: &id,
		Action:    AuditActionProjectDelete,
		Result:    "success",
		Metadata:  map[string]any{"title": title},
	})
	return nil
}

// ResolveInvite maps an invite token to its project. Matching is exact and
// case-sensitive; a blank token never matches.
func (s *ProjectService) ResolveInvite(ctx context.Context, token string) (*models.Project, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(token) == "" {
		return nil, ErrProjectNotFound
	}

	var project models.Project
	err := s.db.WithContext(ctx).Where("invite_token = ?", token).Take(&project).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("project service: resolve invite: %w", err)
	}
	// case-insensitive collations (MySQL) can match a differently cased token
	if project.InviteToken != token {
		return nil, ErrProjectNotFound
	}
	return &project, nil
}

// PublicView strips owner-sensitive fields from a project.
func PublicView(project *models.Project) PublicProject {
	return PublicProject{
		Title:       project.Title,
		Org:         project.Org,
		Description: project.DisplayDescription(),
		MinPeople:   project.MinPeople,
		MaxPeople:   project.MaxPeople,
		CreatedAt:   project.CreatedAt,
	}
}
