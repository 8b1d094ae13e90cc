package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/gitteams/internal/api"
	"github.com/charlesng35/gitteams/internal/app"
	"github.com/charlesng35/gitteams/internal/app/maintenance"
	iauth "github.com/charlesng35/gitteams/internal/auth"
	"github.com/charlesng35/gitteams/internal/cache"
	"github.com/charlesng35/gitteams/internal/database"
	"github.com/charlesng35/gitteams/internal/github"
	"github.com/charlesng35/gitteams/internal/monitoring"
	"github.com/charlesng35/gitteams/internal/monitoring/checks"
	"github.com/charlesng35/gitteams/internal/realtime"
	"github.com/charlesng35/gitteams/internal/security"
	"github.com/charlesng35/gitteams/internal/services"
	"github.com/charlesng35/gitteams/internal/vault"
	"github.com/charlesng35/gitteams/pkg/logger"
	"github.com/charlesng35/gitteams/pkg/mail"
)

// sharedStore is the cache backend: shared key/value storage that can also drop
// its expired entries.
type sharedStore interface {
	cache.Store
	cache.Purger
}

// runtimeStack bundles long-lived services used by the HTTP server.
type runtimeStack struct {
	DB      *gorm.DB
	Store   sharedStore
	JWT     *iauth.JWTService
	Cleaner *maintenance.Cleaner
	Router  *gin.Engine
}

// bootstrapRuntime initialises the database, cache, services, and the HTTP router.
func bootstrapRuntime(ctx context.Context, cfg *app.Config, log *zap.Logger) (*runtimeStack, error) {
	stack := &runtimeStack{}
	var err error
	success := false

	defer func() {
		if !success {
			if shutdownErr := stack.Shutdown(context.Background()); shutdownErr != nil {
				log.Warn("partial bootstrap cleanup failed", zap.Error(shutdownErr))
			}
		}
	}()

	if debug, _ := os.LookupEnv("GIN_DEBUG"); debug != "true" {
		gin.SetMode(gin.ReleaseMode)
	}

	stack.DB, err = initialiseDatabase(cfg)
	if err != nil {
		return nil, err
	}

	sealer, err := initialiseVault(ctx, stack.DB, cfg, log)
	if err != nil {
		return nil, err
	}

	stack.Store, err = selectCacheStore(cfg, stack.DB)
	if err != nil {
		return nil, err
	}
	log.Info("cache backend selected", zap.String("backend", cacheBackend(cfg)))

	stack.JWT, err = iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise jwt service: %w", err)
	}

	client, err := github.NewClient(cfg.GitHub.ClientConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise github client: %w", err)
	}

	svcs, err := buildServices(stack.DB, sealer, client, stack.Store, cfg)
	if err != nil {
		return nil, err
	}

	svcs.Security = security.NewAuditService(stack.DB, cfg)
	security.LogFindings(log, svcs.Security.Run(ctx))

	stack.Cleaner = maintenance.NewCleaner(stack.Store, svcs.Audit,
		maintenance.WithCacheSchedule(cfg.Cache.PurgeSchedule),
	)
	if err := stack.Cleaner.Start(); err != nil {
		return nil, fmt.Errorf("start maintenance jobs: %w", err)
	}

	health := monitoring.NewHealthManager(
		checks.Database(stack.DB, 0),
		checks.Cache(stack.Store, 0),
	)

	stack.Router, err = api.NewRouter(cfg, stack.JWT, svcs, stack.Store, health)
	if err != nil {
		return nil, fmt.Errorf("build api router: %w", err)
	}

	success = true
	return stack, nil
}

func buildServices(db *gorm.DB, sealer services.TokenCipher, client *github.Client, store cache.Store, cfg *app.Config) (api.Services, error) {
	var svcs api.Services
	var err error

	if svcs.Audit, err = services.NewAuditService(db); err != nil {
		return svcs, fmt.Errorf("initialise audit service: %w", err)
	}
	if svcs.Users, err = services.NewUserService(db, sealer, svcs.Audit); err != nil {
		return svcs, fmt.Errorf("initialise user service: %w", err)
	}
	if svcs.Projects, err = services.NewProjectService(db, svcs.Audit); err != nil {
		return svcs, fmt.Errorf("initialise project service: %w", err)
	}
	if svcs.Ledger, err = services.NewGroupLedger(db); err != nil {
		return svcs, fmt.Errorf("initialise group ledger: %w", err)
	}
	svcs.Realtime = realtime.NewHub(realtime.DefaultStreams(), cfg.Server.AllowedOrigins)
	live, err := services.NewRealtimeNotifier(svcs.Realtime)
	if err != nil {
		return svcs, err
	}
	formationOpts, err := formationOptions(cfg)
	if err != nil {
		return svcs, err
	}
	formationOpts = append(formationOpts, services.WithNotifier(live))
	if svcs.Formation, err = services.NewGroupFormationService(svcs.Projects, svcs.Ledger, svcs.Users, client, svcs.Audit, cfg.GitHub.FormationConfig(), formationOpts...); err != nil {
		return svcs, fmt.Errorf("initialise group formation service: %w", err)
	}
	if svcs.Organizations, err = services.NewOrganizationService(svcs.Users, client, store, cfg.GitHub.OrgCacheTTL); err != nil {
		return svcs, fmt.Errorf("initialise organization service: %w", err)
	}
	return svcs, nil
}

// formationOptions enables participant emails when a relay is configured.
func formationOptions(cfg *app.Config) ([]services.FormationOption, error) {
	if !cfg.Mail.Enabled {
		return nil, nil
	}

	sender, err := mail.NewSMTPSender(cfg.Mail.SenderConfig())
	if err != nil {
		return nil, fmt.Errorf("initialise mail sender: %w", err)
	}
	notifier, err := services.NewMailNotifier(sender)
	if err != nil {
		return nil, err
	}
	return []services.FormationOption{services.WithNotifier(notifier)}, nil
}

// initialiseVault builds the token vault. A configured key wins; otherwise the
// key stored in system settings is used, generated on first start.
func initialiseVault(ctx context.Context, db *gorm.DB, cfg *app.Config, log *zap.Logger) (*vault.Vault, error) {
	key := strings.TrimSpace(cfg.Vault.EncryptionKey)
	if key == "" {
		stored, err := database.EnsureVaultEncryptionKey(ctx, db, app.GenerateVaultKey)
		if err != nil {
			return nil, fmt.Errorf("ensure vault encryption key: %w", err)
		}
		log.Info("using stored vault key", zap.String("key", "vault.encryption_key"))
		key = stored
	}

	secret, err := app.VaultSecret(key)
	if err != nil {
		return nil, err
	}

	sealer, err := vault.New(secret)
	if err != nil {
		return nil, fmt.Errorf("initialise vault: %w", err)
	}
	return sealer, nil
}

func cacheBackend(cfg *app.Config) string {
	backend := strings.ToLower(strings.TrimSpace(cfg.Cache.Backend))
	if backend == "" {
		return "memory"
	}
	return backend
}

func selectCacheStore(cfg *app.Config, db *gorm.DB) (sharedStore, error) {
	switch backend := cacheBackend(cfg); backend {
	case "memory":
		return cache.NewMemoryStore(), nil
	case "database":
		return cache.NewDatabaseStore(db), nil
	default:
		return nil, fmt.Errorf("unsupported cache backend %q", backend)
	}
}

// Shutdown stops background jobs and releases resources. Every step runs; the
// errors are combined.
func (s *runtimeStack) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}

	var err error
	if s.Cleaner != nil {
		stopCtx := s.Cleaner.Stop()
		<-stopCtx.Done()
		err = multierr.Append(err, s.Cleaner.RunOnce(ctx))
	}

	if s.DB != nil {
		err = multierr.Append(err, database.Close(s.DB))
		s.DB = nil
	}
	return err
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := convertDatabaseConfig(cfg)
	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.Migrate(db); err != nil {
		return nil, multierr.Append(fmt.Errorf("migrate database: %w", err), database.Close(db))
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}

func convertDatabaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}

	switch dbCfg.Driver {
	case "", "sqlite":
		dbCfg.Driver = "sqlite"
	case "postgres", "postgresql":
		dbCfg.Driver = "postgres"
		applyDBAuth(&dbCfg, cfg.Database.Postgres)
	case "mysql", "mariadb":
		dbCfg.Driver = "mysql"
		applyDBAuth(&dbCfg, cfg.Database.MySQL)
	default:
		// Leave driver as-is to surface unsupported driver error during open.
	}

	return dbCfg
}

func applyDBAuth(dbCfg *database.Config, auth app.DBAuthConfig) {
	dbCfg.Host = strings.TrimSpace(auth.Host)
	dbCfg.Port = auth.Port
	dbCfg.Name = strings.TrimSpace(auth.Database)
	dbCfg.User = strings.TrimSpace(auth.Username)
	dbCfg.Password = auth.Password
	dbCfg.Options = auth.Options
}
