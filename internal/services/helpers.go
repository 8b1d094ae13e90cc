package services

import (
	"context"
	"strings"
)

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

// usernameKey is the comparison form of a GitHub login.
func usernameKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func stringPtr(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
