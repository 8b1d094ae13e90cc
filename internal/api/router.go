package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/gitteams/internal/app"
	iauth "github.com/charlesng35/gitteams/internal/auth"
	"github.com/charlesng35/gitteams/internal/cache"
	"github.com/charlesng35/gitteams/internal/handlers"
	"github.com/charlesng35/gitteams/internal/middleware"
	"github.com/charlesng35/gitteams/internal/monitoring"
	"github.com/charlesng35/gitteams/internal/realtime"
	"github.com/charlesng35/gitteams/internal/security"
	"github.com/charlesng35/gitteams/internal/services"
)

// Services bundles the application services the HTTP layer exposes.
type Services struct {
	Users         *services.UserService
	Projects      *services.ProjectService
	Ledger        *services.GroupLedger
	Formation     *services.GroupFormationService
	Organizations *services.OrganizationService
	Audit         *services.AuditService
	// Realtime is optional; /ws is only mounted when set.
	Realtime *realtime.Hub
	// Security is optional; /api/security/audit is only mounted when set.
	Security *security.AuditService
}

func (s Services) validate() error {
	switch {
	case s.Users == nil:
		return errors.New("router: user service must be provided")
	case s.Projects == nil:
		return errors.New("router: project service must be provided")
	case s.Ledger == nil:
		return errors.New("router: group ledger must be provided")
	case s.Formation == nil:
		return errors.New("router: group formation service must be provided")
	case s.Organizations == nil:
		return errors.New("router: organization service must be provided")
	case s.Audit == nil:
		return errors.New("router: audit service must be provided")
	}
	return nil
}

// NewRouter builds the Gin engine, wires middleware and registers every route.
func NewRouter(cfg *app.Config, jwt *iauth.JWTService, svcs Services, store cache.Store, health *monitoring.HealthManager) (*gin.Engine, error) {
	if cfg == nil {
		return nil, errors.New("router: config must be provided")
	}
	if jwt == nil {
		return nil, errors.New("router: jwt service must be provided")
	}
	if store == nil {
		return nil, errors.New("router: rate limit store must be provided")
	}
	if err := svcs.validate(); err != nil {
		return nil, err
	}
	if health == nil {
		health = monitoring.NewHealthManager()
	}

	r := gin.New()

	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins...))

	limit := middleware.RateLimit(store, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window)

	registerHealthRoutes(r, cfg, handlers.NewHealthHandler(health))
	registerMetricsRoutes(r, cfg)

	api := r.Group("/api")
	api.Use(middleware.Auth(jwt))

	registerAuthRoutes(r, api, authRouteDeps{
		Handler:   handlers.NewAuthHandler(svcs.Users, jwt),
		RateLimit: limit,
	})
	registerProjectRoutes(api, handlers.NewProjectHandler(svcs.Projects, svcs.Ledger, svcs.Audit))
	registerGitHubRoutes(api, handlers.NewGitHubHandler(svcs.Organizations))
	registerPublicRoutes(r, handlers.NewPublicHandler(svcs.Projects, svcs.Formation), limit)
	if svcs.Security != nil {
		if err := registerSecurityRoutes(api, svcs.Security); err != nil {
			return nil, err
		}
	}
	if svcs.Realtime != nil {
		registerRealtimeRoutes(r, handlers.NewRealtimeHandler(svcs.Realtime, jwt))
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

func normalizeEndpoint(endpoint, fallback string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return fallback
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return endpoint
}
