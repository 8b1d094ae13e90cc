package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/charlesng35/gitteams/internal/auditctx"
	"github.com/charlesng35/gitteams/pkg/logger"
)

// recordAudit logs the supplied entry while tolerating audit failures.
func recordAudit(audit *AuditService, ctx context.Context, entry AuditEntry) {
	if audit == nil {
		return
	}
	// the request actor fills what the caller left blank
	if actor, ok := auditctx.FromContext(ctx); ok {
		if entry.UserID == nil && actor.UserID != "" {
			entry.UserID = stringPtr(actor.UserID)
		}
		if entry.IPAddress == "" {
			entry.IPAddress = actor.IPAddress
		}
	}
	if err := audit.Log(ctx, entry); err != nil {
		logger.WithModule("audit").Warn("audit write failed", zap.String("action", entry.Action), zap.Error(err))
	}
}
