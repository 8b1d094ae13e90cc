package security

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/gitteams/internal/app"
	"github.com/charlesng35/gitteams/internal/models"
)

// CheckStatus is the outcome of one posture check.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
)

const (
	minSecretLength = 32
	maxAccessTTL    = 7 * 24 * time.Hour
)

// Check is the result of a single verification.
type Check struct {
	ID          string      `json:"id"`
	Status      CheckStatus `json:"status"`
	Message     string      `json:"message"`
	Remediation string      `json:"remediation,omitempty"`
	Details     any         `json:"details,omitempty"`
}

// Result aggregates every check with a per-status count.
type Result struct {
	CheckedAt time.Time      `json:"checked_at"`
	Checks    []Check        `json:"checks"`
	Summary   map[string]int `json:"summary"`
}

// AuditService reviews the deployment configuration for weak settings.
type AuditService struct {
	db  *gorm.DB
	cfg *app.Config
	now func() time.Time
}

// NewAuditService builds the service. A nil db or cfg degrades the affected
// checks to warnings.
func NewAuditService(db *gorm.DB, cfg *app.Config) *AuditService {
	return &AuditService{db: db, cfg: cfg, now: time.Now}
}

// WithClock overrides the clock stamped on results.
func (s *AuditService) WithClock(clock func() time.Time) {
	if clock != nil {
		s.now = clock
	}
}

// Run executes every check.
func (s *AuditService) Run(ctx context.Context) Result {
	if ctx == nil {
		ctx = context.Background()
	}

	checks := []Check{s.checkOwnerPresent(ctx)}
	if s.cfg == nil {
		checks = append(checks, Check{
			ID:          "configuration",
			Status:      StatusWarn,
			Message:     "Configuration not loaded; settings were not reviewed.",
			Remediation: "Load configuration before running the security audit.",
		})
	} else {
		checks = append(checks,
			checkJWTSecret(s.cfg.Auth.JWT),
			checkVaultKey(s.cfg.Vault),
			checkAccessTTL(s.cfg.Auth.JWT),
			checkRateLimit(s.cfg.Server.RateLimit),
			checkRepositoryVisibility(s.cfg.GitHub),
			checkMailTransport(s.cfg.Mail),
		)
	}

	summary := map[string]int{
		string(StatusPass): 0,
		string(StatusWarn): 0,
		string(StatusFail): 0,
	}
	for _, check := range checks {
		summary[string(check.Status)]++
	}

	return Result{
		CheckedAt: s.now().UTC(),
		Checks:    checks,
		Summary:   summary,
	}
}

// LogFindings writes every non-passing check to log.
func LogFindings(log *zap.Logger, result Result) {
	for _, check := range result.Checks {
		fields := []zap.Field{zap.String("check", check.ID), zap.String("remediation", check.Remediation)}
		switch check.Status {
		case StatusFail:
			log.Error(check.Message, fields...)
		case StatusWarn:
			log.Warn(check.Message, fields...)
		}
	}
}

func (s *AuditService) checkOwnerPresent(ctx context.Context) Check {
	const id = "owner_present"
	if s.db == nil {
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     "Database unavailable; unable to confirm an owner account exists.",
			Remediation: "Ensure database connectivity before running the audit.",
		}
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Could not count owner accounts: %v", err),
			Remediation: "Retry after resolving database errors.",
		}
	}
	if count == 0 {
		return Check{
			ID:          id,
			Status:      StatusFail,
			Message:     "No owner account exists; nobody can create projects.",
			Remediation: "Create an owner with the seeduser command.",
		}
	}
	return Check{
		ID:      id,
		Status:  StatusPass,
		Message: "Owner accounts present.",
		Details: map[string]any{"count": count},
	}
}

func checkJWTSecret(jwt app.JWTSettings) Check {
	const id = "jwt_secret_strength"
	length := len(strings.TrimSpace(jwt.Secret))
	switch {
	case length == 0:
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     "JWT signing secret is generated at startup; owners are signed out on every restart.",
			Remediation: "Set GITTEAMS_AUTH_JWT_SECRET to a random value of at least 32 bytes.",
		}
	case length < minSecretLength:
		return Check{
			ID:          id,
			Status:      StatusFail,
			Message:     fmt.Sprintf("JWT signing secret is too short (%d bytes).", length),
			Remediation: "Use a randomly generated secret of at least 32 bytes.",
			Details:     map[string]any{"length": length},
		}
	}
	return Check{
		ID:      id,
		Status:  StatusPass,
		Message: fmt.Sprintf("JWT signing secret length is %d bytes.", length),
		Details: map[string]any{"length": length},
	}
}

func checkVaultKey(vault app.VaultConfig) Check {
	const id = "vault_encryption_key"
	key := strings.TrimSpace(vault.EncryptionKey)
	switch {
	case key == "":
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     "Vault key is stored in the database next to the GitHub tokens it protects.",
			Remediation: "Set GITTEAMS_VAULT_ENCRYPTION_KEY so a database dump alone cannot reveal tokens.",
		}
	case len(key) < minSecretLength:
		return Check{
			ID:          id,
			Status:      StatusFail,
			Message:     fmt.Sprintf("Vault key is too short (%d characters).", len(key)),
			Remediation: "Use an encryption key of at least 32 characters.",
		}
	}
	return Check{
		ID:      id,
		Status:  StatusPass,
		Message: "Vault encryption key configured.",
		Details: map[string]any{"length": len(key)},
	}
}

func checkAccessTTL(jwt app.JWTSettings) Check {
	const id = "access_token_ttl"
	if jwt.TTL > maxAccessTTL {
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     fmt.Sprintf("Access tokens live for %s, longer than the recommended %s.", jwt.TTL, maxAccessTTL),
			Remediation: "Lower auth.jwt.access_token_ttl.",
			Details:     map[string]any{"ttl": jwt.TTL.String()},
		}
	}
	return Check{
		ID:      id,
		Status:  StatusPass,
		Message: "Access token lifetime is within limits.",
		Details: map[string]any{"ttl": jwt.TTL.String()},
	}
}

func checkRateLimit(limit app.RateLimitConfig) Check {
	const id = "public_rate_limit"
	if limit.Requests <= 0 || limit.Window <= 0 {
		return Check{
			ID:          id,
			Status:      StatusFail,
			Message:     "Public endpoints are not rate limited; anyone holding an invite link can exhaust the owner's GitHub quota.",
			Remediation: "Set server.rate_limit.requests and server.rate_limit.window.",
		}
	}
	return Check{
		ID:      id,
		Status:  StatusPass,
		Message: fmt.Sprintf("Public endpoints allow %d requests per %s per client.", limit.Requests, limit.Window),
	}
}

func checkRepositoryVisibility(gh app.GitHubConfig) Check {
	const id = "repository_visibility"
	if !gh.PrivateRepos {
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     "Group repositories are created public.",
			Remediation: "Set github.private_repos to true unless the course publishes its work.",
		}
	}
	return Check{ID: id, Status: StatusPass, Message: "Group repositories are private."}
}

func checkMailTransport(mail app.MailConfig) Check {
	const id = "mail_transport"
	switch {
	case !mail.Enabled:
		return Check{ID: id, Status: StatusPass, Message: "Participant emails are disabled."}
	case mail.Password != "" && !mail.ImplicitTLS:
		return Check{
			ID:          id,
			Status:      StatusWarn,
			Message:     "SMTP credentials are protected only when the relay offers STARTTLS.",
			Remediation: "Enable mail.implicit_tls or confirm the relay always offers STARTTLS.",
		}
	}
	return Check{ID: id, Status: StatusPass, Message: "SMTP relay configured."}
}
