package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/gitteams/internal/github"
	"github.com/charlesng35/gitteams/internal/models"
)

// GroupLedger records the groups of each project and guards membership and
// numbering invariants at the persistence layer.
type GroupLedger struct {
	db *gorm.DB
}

// NewGroupLedger constructs a GroupLedger.
func NewGroupLedger(db *gorm.DB) (*GroupLedger, error) {
	if db == nil {
		return nil, errors.New("group ledger: db is required")
	}
	return &GroupLedger{db: db}, nil
}

// Conflicts returns the submitted usernames, as submitted, that already belong to
// a group of the project. Comparison ignores case.
func (l *GroupLedger) Conflicts(ctx context.Context, projectID string, usernames []string) ([]string, error) {
	ctx = ensureContext(ctx)
	return conflictsIn(l.db.WithContext(ctx), projectID, usernames)
}

func conflictsIn(tx *gorm.DB, projectID string, usernames []string) ([]string, error) {
	if len(usernames) == 0 {
		return nil, nil
	}

	var groups []models.Group
	if err := tx.Select("id", "participants").Where("project_id = ?", projectID).Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("group ledger: load groups: %w", err)
	}

	taken := make(map[string]struct{})
	for _, group := range groups {
		for _, participant := range group.Participants {
			taken[usernameKey(participant.Username)] = struct{}{}
		}
	}

	var conflicts []string
	for _, username := range usernames {
		if _, ok := taken[usernameKey(username)]; ok {
			conflicts = append(conflicts, username)
		}
	}
	return conflicts, nil
}

// AllocateNumber atomically increments the project's group counter and returns the
// number it held before the increment. A number is never handed out twice.
func (l *GroupLedger) AllocateNumber(ctx context.Context, projectID string) (int, error) {
	ctx = ensureContext(ctx)

	var project models.Project
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Project{}).
			Where("id = ?", projectID).
			UpdateColumn("next_group_number", gorm.Expr("next_group_number + ?", 1))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrProjectNotFound
		}
		return tx.Select("id", "next_group_number").Where("id = ?", projectID).Take(&project).Error
	})
	if errors.Is(err, ErrProjectNotFound) {
		return 0, ErrProjectNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("group ledger: allocate number: %w", err)
	}
	return project.NextGroupNumber - 1, nil
}

// Persist stores a group. The project row is locked for the duration of the
// transaction and membership is checked again, so two overlapping groups that
// passed the early check concurrently cannot both be stored.
func (l *GroupLedger) Persist(ctx context.Context, group *models.Group) error {
	ctx = ensureContext(ctx)

	if group == nil {
		return errors.New("group ledger: group is required")
	}

	usernames := make([]string, len(group.Participants))
	for i, participant := range group.Participants {
		usernames[i] = participant.Username
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var project models.Project
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			Where("id = ?", group.ProjectID).
			Take(&project).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		if err != nil {
			return err
		}

		conflicts, err := conflictsIn(tx, group.ProjectID, usernames)
		if err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return &ConflictError{Usernames: conflicts}
		}

		if err := tx.Create(group).Error; err != nil {
			if isUniqueConstraintError(err) {
				return &ConflictError{}
			}
			return err
		}
		return nil
	})

	var conflict *ConflictError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &conflict), errors.Is(err, ErrProjectNotFound):
		return err
	default:
		return fmt.Errorf("group ledger: persist group: %w", err)
	}
}

// RecordCollaborators stores the invitation outcome of each member on a
// persisted group.
func (l *GroupLedger) RecordCollaborators(ctx context.Context, group *models.Group, outcomes map[string]github.CollaboratorStatus) error {
	ctx = ensureContext(ctx)

	if group == nil || group.ID == "" {
		return errors.New("group ledger: persisted group is required")
	}

	collaborators := make(datatypes.JSONMap, len(outcomes))
	for username, status := range outcomes {
		collaborators[username] = string(status)
	}

	result := l.db.WithContext(ctx).
		Model(&models.Group{}).
		Where("id = ?", group.ID).
		Update("collaborators", collaborators)
	if result.Error != nil {
		return fmt.Errorf("group ledger: record collaborators: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("group ledger: record collaborators: group %s not found", group.ID)
	}
	group.Collaborators = collaborators
	return nil
}

// ListByProject returns the project's groups ordered by number.
func (l *GroupLedger) ListByProject(ctx context.Context, projectID string) ([]models.Group, error) {
	ctx = ensureContext(ctx)

	var groups []models.Group
	if err := l.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("number ASC").
		Find(&groups).Error; err != nil {
		return nil, fmt.Errorf("group ledger: list groups: %w", err)
	}
	return groups, nil
}
