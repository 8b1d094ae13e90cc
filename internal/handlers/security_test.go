package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/gitteams/internal/handlers/testutil"
)

func TestSecurityHandler_Audit(t *testing.T) {
	env := testutil.NewEnv(t)
	token := env.TokenFor(env.CreateOwner("Secret123!"))

	resp := env.Request(http.MethodGet, "/api/security/audit", nil, token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var result struct {
		Checks []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"checks"`
		Summary map[string]int `json:"summary"`
	}
	testutil.DecodeInto(t, resp, &result)

	statuses := map[string]string{}
	for _, check := range result.Checks {
		statuses[check.ID] = check.Status
	}
	require.Equal(t, "pass", statuses["owner_present"])
	require.Equal(t, "pass", statuses["jwt_secret_strength"])
	require.Equal(t, "warn", statuses["vault_encryption_key"])
	require.Equal(t, "pass", statuses["public_rate_limit"])
}

func TestSecurityHandler_RequiresAuth(t *testing.T) {
	env := testutil.NewEnv(t)

	resp := env.Request(http.MethodGet, "/api/security/audit", nil, "")
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}
