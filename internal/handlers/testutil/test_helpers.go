package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/gitteams/internal/api"
	"github.com/charlesng35/gitteams/internal/app"
	iauth "github.com/charlesng35/gitteams/internal/auth"
	"github.com/charlesng35/gitteams/internal/cache"
	sharedtestutil "github.com/charlesng35/gitteams/internal/database/testutil"
	"github.com/charlesng35/gitteams/internal/github"
	"github.com/charlesng35/gitteams/internal/models"
	"github.com/charlesng35/gitteams/internal/monitoring"
	"github.com/charlesng35/gitteams/internal/monitoring/checks"
	"github.com/charlesng35/gitteams/internal/realtime"
	"github.com/charlesng35/gitteams/internal/security"
	"github.com/charlesng35/gitteams/internal/services"
	"github.com/charlesng35/gitteams/internal/vault"
	"github.com/charlesng35/gitteams/pkg/crypto"
	"github.com/charlesng35/gitteams/pkg/response"
)

// OwnerGitHubToken is the plaintext token every owner created through CreateOwner holds.
const OwnerGitHubToken = "ghp_test_owner_token"

// Env encapsulates a fully-wired API instance backed by an in-memory database and a
// fake GitHub server for handler tests.
type Env struct {
	T        *testing.T
	DB       *gorm.DB
	Router   *gin.Engine
	JWT      *iauth.JWTService
	GitHub   *FakeGitHub
	Store    *cache.MemoryStore
	Hub      *realtime.Hub
	Services api.Services
}

// EnvOption customises NewEnv.
type EnvOption func(*app.Config)

// WithRateLimit overrides the public endpoint rate limit.
func WithRateLimit(requests int, window time.Duration) EnvOption {
	return func(cfg *app.Config) {
		cfg.Server.RateLimit = app.RateLimitConfig{Requests: requests, Window: window}
	}
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())
	gh := NewFakeGitHub(t)

	cfg := &app.Config{
		Server: app.ServerConfig{
			RateLimit: app.RateLimitConfig{Requests: 1000, Window: time.Minute},
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: "test-suite-super-secret-key-32-bytes!!",
				Issuer: "test-suite",
				TTL:    time.Hour,
			},
		},
		GitHub: app.GitHubConfig{
			APIURL:       gh.URL(),
			UserAgent:    "gitteams-test",
			Timeout:      2 * time.Second,
			PrivateRepos: true,
			OrgCacheTTL:  time.Minute,
			Concurrency:  2,
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	sealer, err := vault.New([]byte("0123456789abcdef0123456789abcdef"), vault.WithKeyParams(crypto.KeyParams{
		Iterations:  1,
		MemoryKiB:   8 * 1024,
		Parallelism: 1,
	}))
	require.NoError(t, err)

	client, err := github.NewClient(cfg.GitHub.ClientConfig())
	require.NoError(t, err)

	store := cache.NewMemoryStore()

	audit, err := services.NewAuditService(db)
	require.NoError(t, err)
	users, err := services.NewUserService(db, sealer, audit)
	require.NoError(t, err)
	projects, err := services.NewProjectService(db, audit)
	require.NoError(t, err)
	ledger, err := services.NewGroupLedger(db)
	require.NoError(t, err)
	hub := realtime.NewHub(realtime.DefaultStreams(), cfg.Server.AllowedOrigins)
	live, err := services.NewRealtimeNotifier(hub)
	require.NoError(t, err)
	formation, err := services.NewGroupFormationService(projects, ledger, users, client, audit, cfg.GitHub.FormationConfig(), services.WithNotifier(live))
	require.NoError(t, err)
	orgs, err := services.NewOrganizationService(users, client, store, cfg.GitHub.OrgCacheTTL)
	require.NoError(t, err)

	svcs := api.Services{
		Users:         users,
		Projects:      projects,
		Ledger:        ledger,
		Formation:     formation,
		Organizations: orgs,
		Audit:         audit,
		Realtime:      hub,
		Security:      security.NewAuditService(db, cfg),
	}

	health := monitoring.NewHealthManager(
		checks.Database(db, time.Second),
		checks.Cache(store, time.Second),
	)

	router, err := api.NewRouter(cfg, jwtSvc, svcs, store, health)
	require.NoError(t, err)

	return &Env{
		T:        t,
		DB:       db,
		Router:   router,
		JWT:      jwtSvc,
		GitHub:   gh,
		Store:    store,
		Hub:      hub,
		Services: svcs,
	}
}

// CreateOwner inserts an owner with a random name and returns the record.
func (e *Env) CreateOwner(password string) *models.User {
	e.T.Helper()

	user, created, err := e.Services.Users.Upsert(context.Background(), services.UpsertUserInput{
		Name:        "owner-" + uuid.NewString()[:8],
		Password:    password,
		GitHubToken: OwnerGitHubToken,
	})
	require.NoError(e.T, err)
	require.True(e.T, created)
	return user
}

// TokenFor issues an access token for the owner without going through login.
func (e *Env) TokenFor(user *models.User) string {
	e.T.Helper()

	token, err := e.JWT.GenerateAccessToken(iauth.AccessTokenInput{UserID: user.ID, Name: user.Name})
	require.NoError(e.T, err)
	return token
}

// CreateProject opens a project for the owner and returns it.
func (e *Env) CreateProject(owner *models.User, title string, minPeople, maxPeople int) *models.Project {
	e.T.Helper()

	project, err := e.Services.Projects.Create(context.Background(), owner.ID, services.CreateProjectInput{
		Title:     title,
		Org:       "course-org",
		MinPeople: minPeople,
		MaxPeople: maxPeople,
	})
	require.NoError(e.T, err)
	return project
}

// LoginResult bundles the JSON response from POST /api/auth/login.
type LoginResult struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
	User      struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"user"`
}

// Login authenticates an owner and returns the issued token.
func (e *Env) Login(name, password string) LoginResult {
	e.T.Helper()

	resp := e.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"name":     name,
		"password": password,
	}, "")
	require.Equal(e.T, http.StatusOK, resp.Code, resp.Body.String())

	var result LoginResult
	DecodeInto(e.T, resp, &result)
	require.NotEmpty(e.T, result.Token)
	return result
}

// Request issues an HTTP request against the router. A non-empty token is sent as
// a bearer credential.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(e.T, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.Router.ServeHTTP(rec, req)
	return rec
}

// DecodeResponse parses the standard response envelope.
func DecodeResponse(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()

	var resp response.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

// DecodeInto decodes the data member of a success envelope into dest.
func DecodeInto(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	require.True(t, envelope.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, dest), string(envelope.Data))
}
