package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrProjectNotFound indicates the project does not exist or is not visible to the caller.
	ErrProjectNotFound = errors.New("project service: project not found")
	// ErrUserNotFound indicates the requested owner does not exist.
	ErrUserNotFound = errors.New("user service: user not found")
	// ErrInvalidCredentials is returned when a name/password pair does not match.
	ErrInvalidCredentials = errors.New("user service: invalid credentials")
	// ErrOwnerCredentials reports an owner GitHub token that is missing or cannot be decrypted.
	ErrOwnerCredentials = errors.New("owner github credentials unavailable")
	// ErrGroupConflict is matched by every ConflictError.
	ErrGroupConflict = errors.New("group ledger: membership conflict")
	// ErrGitHubUnavailable reports that identity verification could not reach GitHub.
	ErrGitHubUnavailable = errors.New("github verification unavailable")
)

// ValidationError carries a client input problem.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalidf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ConflictError lists submitted usernames that already belong to a group of the project.
// Usernames is empty when the conflict was on the group number itself.
type ConflictError struct {
	Usernames []string
}

func (e *ConflictError) Error() string {
	if len(e.Usernames) == 0 {
		return ErrGroupConflict.Error()
	}
	return fmt.Sprintf("%s: %s", ErrGroupConflict, strings.Join(e.Usernames, ", "))
}

func (e *ConflictError) Unwrap() error {
	return ErrGroupConflict
}

// InvalidUsersError lists submitted usernames GitHub confirmed do not exist.
type InvalidUsersError struct {
	Usernames []string
}

func (e *InvalidUsersError) Error() string {
	return "github users not found: " + strings.Join(e.Usernames, ", ")
}

// ProvisioningError reports a failed repository creation. Number is the group
// number consumed by the attempt.
type ProvisioningError struct {
	Number int
	Err    error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provision repository for group %d: %v", e.Number, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// isUniqueConstraintError detects database uniqueness constraint violations across vendors.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr != nil && pgErr.Code == pgerrcode.UniqueViolation {
		return true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr != nil && myErr.Number == 1062 {
		return true
	}

	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "unique constraint") ||
		strings.Contains(lower, "duplicate")
}
