package handlers

import (
	stdErrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/charlesng35/gitteams/internal/github"
	"github.com/charlesng35/gitteams/internal/services"
	"github.com/charlesng35/gitteams/pkg/errors"
	"github.com/charlesng35/gitteams/pkg/logger"
	"github.com/charlesng35/gitteams/pkg/response"
)

// translateError maps service errors to the API error catalogue. Unknown errors
// become a generic 500 with the cause kept for logging only.
func translateError(err error) *errors.AppError {
	var (
		appErr      *errors.AppError
		validation  *services.ValidationError
		conflict    *services.ConflictError
		invalid     *services.InvalidUsersError
		provision   *services.ProvisioningError
		rateLimited *github.RateLimitError
	)

	switch {
	case err == nil:
		return nil
	case stdErrors.As(err, &appErr):
		return appErr
	case stdErrors.As(err, &validation):
		return errors.NewBadRequest(validation.Message)
	case stdErrors.Is(err, services.ErrInvalidCredentials):
		return errors.ErrInvalidCredentials.WithInternal(err)
	case stdErrors.Is(err, services.ErrUserNotFound):
		return errors.ErrUnauthorized.WithInternal(err)
	case stdErrors.Is(err, services.ErrProjectNotFound):
		return errors.ErrNotFound.WithMessage("Project not found").WithInternal(err)
	case stdErrors.As(err, &conflict):
		appErr := errors.ErrConflict.WithInternal(err)
		if len(conflict.Usernames) > 0 {
			appErr = appErr.WithDetail("conflicts", conflict.Usernames)
		}
		return appErr
	case stdErrors.Is(err, services.ErrOwnerCredentials):
		return errors.ErrConfigurationFault.WithInternal(err)
	case stdErrors.As(err, &rateLimited):
		appErr := errors.ErrGitHubRateLimited.WithInternal(err)
		if !rateLimited.ResetAt.IsZero() {
			appErr = appErr.WithDetail("reset_at", rateLimited.ResetAt.UTC().Format(time.RFC3339))
		}
		return appErr
	case stdErrors.As(err, &invalid):
		return errors.ErrGitHubUsersNotFound.WithDetail("invalid_users", invalid.Usernames).WithInternal(err)
	case stdErrors.As(err, &provision):
		appErr := errors.ErrRepositoryCreation.WithInternal(err).WithDetail("group_number", provision.Number)
		var apiErr *github.APIError
		if stdErrors.As(provision.Err, &apiErr) && apiErr.Message != "" {
			appErr = appErr.WithMessage(appErr.Message + ": " + apiErr.Message)
		}
		return appErr
	case stdErrors.Is(err, github.ErrInvalidToken):
		return errors.ErrGitHubTokenInvalid.WithInternal(err)
	case stdErrors.Is(err, services.ErrGitHubUnavailable), stdErrors.Is(err, github.ErrUnavailable):
		return errors.ErrGitHubUnavailable.WithInternal(err)
	default:
		return errors.ErrInternalServer.WithInternal(err)
	}
}

// respondError writes the translated error and logs server side failures.
func respondError(c *gin.Context, err error) {
	appErr := translateError(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.WithModule("http").Error("request failed",
			zap.String("route", c.FullPath()),
			zap.String("code", appErr.Code),
			zap.Error(err),
		)
	}
	if wait := services.RetryAfter(err, time.Now()); wait > 0 {
		c.Header("Retry-After", strconv.Itoa(int(wait.Seconds())+1))
	}
	_ = c.Error(err)
	response.Error(c, appErr)
}
