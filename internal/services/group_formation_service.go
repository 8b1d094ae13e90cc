package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/charlesng35/gitteams/internal/github"
	"github.com/charlesng35/gitteams/internal/models"
	"github.com/charlesng35/gitteams/pkg/logger"
	"github.com/charlesng35/gitteams/pkg/metrics"
	"github.com/charlesng35/gitteams/pkg/validator"
)

const (
	// DefaultLookupConcurrency bounds concurrent GitHub user lookups per request.
	DefaultLookupConcurrency = 4

	maxSlugLength = 80

	outcomeCompleted          = "completed"
	outcomeRejected           = "rejected"
	outcomeProvisioningFailed = "provisioning-failed"
)

var slugSeparator = regexp.MustCompile(`[^a-z0-9]+`)

// OwnerCredentials resolves the plaintext GitHub token of a project owner.
type OwnerCredentials interface {
	GitHubToken(ctx context.Context, ownerID string) (string, error)
}

// GitHubProvisioner is the subset of the GitHub client the formation workflow drives.
type GitHubProvisioner interface {
	UserExists(ctx context.Context, token, username string) (bool, error)
	CreateRepository(ctx context.Context, token string, input github.CreateRepositoryInput) (*github.Repository, error)
	AddCollaborator(ctx context.Context, token, owner, repo, username string) (github.CollaboratorStatus, error)
}

// ParticipantInput is one submitted group member.
type ParticipantInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// FormGroupRequest captures a public group formation submission.
type FormGroupRequest struct {
	InviteToken string
	// Project skips the invite lookup when the caller already resolved it.
	Project      *models.Project
	Participants []ParticipantInput
	ClientIP     string
}

// FormationResult describes a completed group.
type FormationResult struct {
	Group         *models.Group
	Repository    *github.Repository
	Collaborators map[string]github.CollaboratorStatus
}

// GroupFormationConfig tunes repository provisioning.
type GroupFormationConfig struct {
	PrivateRepos      bool
	LookupConcurrency int
}

// GroupFormationService turns a public submission into a numbered group with its
// own repository.
type GroupFormationService struct {
	projects    *ProjectService
	ledger      *GroupLedger
	credentials OwnerCredentials
	github      GitHubProvisioner
	audit       *AuditService
	cfg         GroupFormationConfig
	notifiers   []GroupNotifier
	log         *zap.Logger
}

// FormationOption customises a GroupFormationService.
type FormationOption func(*GroupFormationService)

// WithNotifier announces every completed group through n. It may be given
// more than once.
func WithNotifier(n GroupNotifier) FormationOption {
	return func(s *GroupFormationService) {
		if n != nil {
			s.notifiers = append(s.notifiers, n)
		}
	}
}

// NewGroupFormationService wires the formation workflow.
func NewGroupFormationService(projects *ProjectService, ledger *GroupLedger, credentials OwnerCredentials, gh GitHubProvisioner, audit *AuditService, cfg GroupFormationConfig, opts ...FormationOption) (*GroupFormationService, error) {
	switch {
	case projects == nil:
		return nil, errors.New("group formation: project service is required")
	case ledger == nil:
		return nil, errors.New("group formation: ledger is required")
	case credentials == nil:
		return nil, errors.New("group formation: owner credentials are required")
	case gh == nil:
		return nil, errors.New("group formation: github provisioner is required")
	}
	if cfg.LookupConcurrency <= 0 {
		cfg.LookupConcurrency = DefaultLookupConcurrency
	}

	svc := &GroupFormationService{
		projects:    projects,
		ledger:      ledger,
		credentials: credentials,
		github:      gh,
		audit:       audit,
		cfg:         cfg,
		log:         logger.WithModule("group-formation"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// FormGroup runs the formation workflow and stops at the first hard failure.
func (s *GroupFormationService) FormGroup(ctx context.Context, req FormGroupRequest) (*FormationResult, error) {
	ctx = ensureContext(ctx)

	project := req.Project
	if project == nil {
		resolved, err := s.projects.ResolveInvite(ctx, req.InviteToken)
		if err != nil {
			return nil, err
		}
		project = resolved
	}

	participants, err := normalizeParticipants(req.Participants)
	if err != nil {
		return nil, s.reject(ctx, project, req.ClientIP, err)
	}

	if count := len(participants); count < project.MinPeople || count > project.MaxPeople {
		return nil, s.reject(ctx, project, req.ClientIP,
			invalidf("a group needs between %d and %d members, got %d", project.MinPeople, project.MaxPeople, count))
	}

	usernames := make([]string, len(participants))
	for i, participant := range participants {
		usernames[i] = participant.Username
	}

	conflicts, err := s.ledger.Conflicts(ctx, project.ID, usernames)
	if err != nil {
		return nil, err
	}
	if len(conflicts) > 0 {
		return nil, s.reject(ctx, project, req.ClientIP, &ConflictError{Usernames: conflicts})
	}

	token, err := s.credentials.GitHubToken(ctx, project.OwnerID)
	if err != nil {
		s.log.Error("owner credentials unavailable", zap.String("project_id", project.ID), zap.Error(err))
		return nil, s.reject(ctx, project, req.ClientIP, err)
	}

	if err := s.verifyUsers(ctx, token, usernames); err != nil {
		return nil, s.reject(ctx, project, req.ClientIP, err)
	}

	// From here on the attempt owns a group number and runs to completion.
	ctx = context.WithoutCancel(ctx)

	number, err := s.ledger.AllocateNumber(ctx, project.ID)
	if err != nil {
		return nil, s.reject(ctx, project, req.ClientIP, err)
	}

	repo, err := s.github.CreateRepository(ctx, token, github.CreateRepositoryInput{
		Name:        RepositoryName(project.Title, number),
		Org:         project.Org,
		Description: project.DisplayDescription(),
		Private:     s.cfg.PrivateRepos,
	})
	if err != nil {
		err = &ProvisioningError{Number: number, Err: err}
		s.finish(ctx, project, number, req.ClientIP, outcomeProvisioningFailed, err)
		return nil, err
	}

	group := &models.Group{
		ProjectID:          project.ID,
		Number:             number,
		Participants:       participants,
		RepositoryURL:      repo.HTMLURL,
		RepositoryFullName: repo.FullName,
	}
	// Nobody is invited to a repository whose group lost the membership race.
	if err := s.ledger.Persist(ctx, group); err != nil {
		s.finish(ctx, project, number, req.ClientIP, outcomeProvisioningFailed, err)
		return nil, err
	}

	collaborators := s.inviteCollaborators(ctx, token, repo, project.ID, usernames)
	if err := s.ledger.RecordCollaborators(ctx, group, collaborators); err != nil {
		s.log.Warn("collaborator outcomes not stored",
			zap.String("project_id", project.ID),
			zap.String("group_id", group.ID),
			zap.Error(err),
		)
	}

	s.finish(ctx, project, number, req.ClientIP, outcomeCompleted, nil)
	for _, n := range s.notifiers {
		n.GroupFormed(ctx, project, group)
	}
	return &FormationResult{
		Group:         group,
		Repository:    repo,
		Collaborators: collaborators,
	}, nil
}

func normalizeParticipants(inputs []ParticipantInput) ([]models.Participant, error) {
	if len(inputs) == 0 {
		return nil, invalidf("at least one participant is required")
	}

	seen := make(map[string]struct{}, len(inputs))
	participants := make([]models.Participant, 0, len(inputs))
	for i, input := range inputs {
		username := strings.TrimSpace(input.Username)
		email := strings.TrimSpace(input.Email)
		if username == "" || email == "" {
			return nil, invalidf("participant %d: username and email are required", i+1)
		}
		if !validator.IsGitHubLogin(username) {
			return nil, invalidf("participant %d: %q is not a valid GitHub username", i+1, username)
		}
		if !validator.IsEmail(email) {
			return nil, invalidf("participant %d: %q is not a valid email address", i+1, email)
		}

		key := usernameKey(username)
		if _, dup := seen[key]; dup {
			return nil, invalidf("username %q is listed more than once", username)
		}
		seen[key] = struct{}{}

		participants = append(participants, models.Participant{Username: username, Email: email})
	}
	return participants, nil
}

// verifyUsers looks every username up on GitHub. A rate limit wins over other
// failures, and lookup failures win over missing users.
func (s *GroupFormationService) verifyUsers(ctx context.Context, token string, usernames []string) error {
	exists := make([]bool, len(usernames))
	errs := make([]error, len(usernames))

	var g errgroup.Group
	g.SetLimit(s.cfg.LookupConcurrency)
	for i, username := range usernames {
		g.Go(func() error {
			exists[i], errs[i] = s.github.UserExists(ctx, token, username)
			return nil
		})
	}
	_ = g.Wait()

	var failure error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if _, limited := github.IsRateLimited(err); limited {
			return err
		}
		if failure == nil {
			failure = err
		}
	}
	if failure != nil {
		return fmt.Errorf("%w: %w", ErrGitHubUnavailable, failure)
	}

	var missing []string
	for i, username := range usernames {
		if !exists[i] {
			missing = append(missing, username)
		}
	}
	if len(missing) > 0 {
		return &InvalidUsersError{Usernames: missing}
	}
	return nil
}

func (s *GroupFormationService) inviteCollaborators(ctx context.Context, token string, repo *github.Repository, projectID string, usernames []string) map[string]github.CollaboratorStatus {
	statuses := make(map[string]github.CollaboratorStatus, len(usernames))
	for _, username := range usernames {
		status, err := s.github.AddCollaborator(ctx, token, repo.OwnerLogin, repo.Name, username)
		if err != nil {
			s.log.Warn("collaborator invitation failed",
				zap.String("project_id", projectID),
				zap.String("repository", repo.FullName),
				zap.String("username", username),
				zap.Error(err),
			)
			status = github.CollaboratorError
		}
		statuses[username] = status
		metrics.CollaboratorInvites.WithLabelValues(string(status)).Inc()
	}
	return statuses
}

func (s *GroupFormationService) reject(ctx context.Context, project *models.Project, clientIP string, err error) error {
	s.finish(ctx, project, 0, clientIP, outcomeRejected, err)
	return err
}

func (s *GroupFormationService) finish(ctx context.Context, project *models.Project, number int, clientIP, outcome string, err error) {
	metrics.GroupFormations.WithLabelValues(outcome).Inc()

	fields := []zap.Field{
		zap.String("project_id", project.ID),
		zap.String("outcome", outcome),
	}
	metadata := map[string]any{}
	if number > 0 {
		fields = append(fields, zap.Int("group_number", number))
		metadata["group_number"] = number
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
		metadata["reason"] = failureReason(err)
	}

	switch outcome {
	case outcomeCompleted:
		s.log.Info("group formed", fields...)
	case outcomeProvisioningFailed:
		s.log.Error("group provisioning failed", fields...)
	default:
		s.log.Info("group formation rejected", fields...)
	}

	recordAudit(s.audit, ctx, AuditEntry{
		ProjectID: &project.ID,
		Action:    AuditActionGroupForm,
		Result:    outcome,
		IPAddress: clientIP,
		Metadata:  metadata,
	})
}

// failureReason is a short classification safe to store in the audit log.
func failureReason(err error) string {
	var (
		validation *ValidationError
		conflict   *ConflictError
		invalid    *InvalidUsersError
		provision  *ProvisioningError
	)
	switch {
	case errors.As(err, &validation):
		return "invalid_submission"
	case errors.As(err, &conflict):
		return "membership_conflict"
	case errors.Is(err, ErrOwnerCredentials):
		return "owner_credentials"
	case errors.As(err, &invalid):
		return "unknown_github_users"
	case errors.As(err, &provision):
		return "repository_creation"
	}
	if _, limited := github.IsRateLimited(err); limited {
		return "github_rate_limited"
	}
	if errors.Is(err, ErrGitHubUnavailable) {
		return "github_unavailable"
	}
	return "internal"
}

// RepositoryName derives the repository name of a group from the project title.
func RepositoryName(title string, number int) string {
	return fmt.Sprintf("%s-group-%d", slugify(title), number)
}

func slugify(title string) string {
	slug := slugSeparator.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		return "project"
	}
	return slug
}

// RetryAfter returns how long a caller should wait before retrying a rate limited
// submission, or zero when unknown.
func RetryAfter(err error, now time.Time) time.Duration {
	rl, ok := github.IsRateLimited(err)
	if !ok || rl.ResetAt.IsZero() || !rl.ResetAt.After(now) {
		return 0
	}
	return rl.ResetAt.Sub(now)
}
