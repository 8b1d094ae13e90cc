package validator

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	once     sync.Once
	validate *validator.Validate

	// Letters, digits, hyphens and underscores. Legacy logins may carry double or
	// trailing hyphens and managed user logins end in _shortcode, so only
	// characters that cannot appear in an account path are refused.
	githubLoginPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

const maxGitHubLoginLength = 100

// IsGitHubLogin reports whether value can name a GitHub account in an API path.
// Whether the account exists is for GitHub to answer.
func IsGitHubLogin(value string) bool {
	return len(value) <= maxGitHubLoginLength && githubLoginPattern.MatchString(value)
}

// IsEmail reports whether value is a syntactically valid email address.
func IsEmail(value string) bool {
	return getValidator().Var(value, "required,email") == nil
}

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param"`
}

// ValidationErrors collects multiple validation failures.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}

	parts := make([]string, len(v))
	for i, err := range v {
		if err.Param != "" {
			parts[i] = err.Field + " failed on " + err.Tag + "=" + err.Param
		} else {
			parts[i] = err.Field + " failed on " + err.Tag
		}
	}
	return strings.Join(parts, "; ")
}

// ValidateStruct validates a struct using registered rules.
func ValidateStruct(s interface{}) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	if ve, ok := err.(validator.ValidationErrors); ok {
		failures := make(ValidationErrors, 0, len(ve))
		for _, fe := range ve {
			failures = append(failures, ValidationError{
				Field: fe.Field(),
				Tag:   fe.Tag(),
				Param: fe.Param(),
			})
		}
		return failures
	}

	return err
}

// RegisterValidation exposes underlying validator custom rules.
func RegisterValidation(tag string, fn validator.Func) error {
	return getValidator().RegisterValidation(tag, fn)
}

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := fld.Tag.Get("json")
			if name == "" {
				return fld.Name
			}

			comma := strings.Index(name, ",")
			if comma != -1 {
				name = name[:comma]
			}

			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("github_login", func(fl validator.FieldLevel) bool {
			return IsGitHubLogin(strings.TrimSpace(fl.Field().String()))
		})
	})
	return validate
}
