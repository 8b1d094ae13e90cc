// Command seeduser creates a project owner or updates the password and GitHub
// token of an existing one.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/gitteams/internal/app"
	"github.com/charlesng35/gitteams/internal/database"
	"github.com/charlesng35/gitteams/internal/services"
	"github.com/charlesng35/gitteams/internal/vault"
	"github.com/charlesng35/gitteams/pkg/logger"
)

type options struct {
	configPath  string
	name        string
	password    string
	githubToken string
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseOptions(args []string, out io.Writer) (options, error) {
	fs := flag.NewFlagSet("gitteams-seeduser", flag.ContinueOnError)
	fs.SetOutput(out)

	var opts options
	fs.StringVar(&opts.configPath, "config", "", "Path to configuration directory")
	fs.StringVar(&opts.name, "name", "", "Owner login name")
	fs.StringVar(&opts.password, "password", "", "Owner password")
	fs.StringVar(&opts.githubToken, "github-token", "", "GitHub token used to create repositories (falls back to GITHUB_TOKEN)")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if strings.TrimSpace(opts.githubToken) == "" {
		opts.githubToken = os.Getenv("GITHUB_TOKEN")
	}

	var missing []string
	if strings.TrimSpace(opts.name) == "" {
		missing = append(missing, "-name")
	}
	if opts.password == "" {
		missing = append(missing, "-password")
	}
	if strings.TrimSpace(opts.githubToken) == "" {
		missing = append(missing, "-github-token")
	}
	if len(missing) > 0 {
		return opts, fmt.Errorf("missing required flags: %s", strings.Join(missing, ", "))
	}
	return opts, nil
}

func run(ctx context.Context, args []string, out io.Writer) (err error) {
	opts, err := parseOptions(args, out)
	if err != nil {
		return err
	}

	var cfg *app.Config
	if opts.configPath != "" {
		cfg, err = app.LoadConfig(opts.configPath)
	} else {
		cfg, err = app.LoadConfig()
	}
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel, "console"); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	db, err := database.Open(databaseConfig(cfg))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() {
		err = multierr.Append(err, database.Close(db))
	}()

	if err := database.Migrate(db); err != nil {
		return err
	}

	return seedOwner(ctx, db, cfg, opts, out)
}

func seedOwner(ctx context.Context, db *gorm.DB, cfg *app.Config, opts options, out io.Writer) error {
	key := strings.TrimSpace(cfg.Vault.EncryptionKey)
	if key == "" {
		stored, err := database.EnsureVaultEncryptionKey(ctx, db, app.GenerateVaultKey)
		if err != nil {
			return fmt.Errorf("ensure vault encryption key: %w", err)
		}
		key = stored
	}
	secret, err := app.VaultSecret(key)
	if err != nil {
		return err
	}
	sealer, err := vault.New(secret)
	if err != nil {
		return fmt.Errorf("initialise vault: %w", err)
	}

	audit, err := services.NewAuditService(db)
	if err != nil {
		return err
	}
	users, err := services.NewUserService(db, sealer, audit)
	if err != nil {
		return err
	}

	user, created, err := users.Upsert(ctx, services.UpsertUserInput{
		Name:        opts.name,
		Password:    opts.password,
		GitHubToken: opts.githubToken,
	})
	if err != nil {
		return err
	}

	action := "updated"
	if created {
		action = "created"
	}
	logger.WithModule("seeduser").Info("owner saved", zap.String("user_id", user.ID), zap.String("action", action))
	fmt.Fprintf(out, "owner %q %s (id %s)\n", user.Name, action, user.ID)
	return nil
}

func databaseConfig(cfg *app.Config) database.Config {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		DSN:    strings.TrimSpace(cfg.Database.DSN),
	}
	var auth app.DBAuthConfig
	switch dbCfg.Driver {
	case "postgres", "postgresql":
		auth = cfg.Database.Postgres
	case "mysql", "mariadb":
		auth = cfg.Database.MySQL
	default:
		return dbCfg
	}
	dbCfg.Host = auth.Host
	dbCfg.Port = auth.Port
	dbCfg.Name = auth.Database
	dbCfg.User = auth.Username
	dbCfg.Password = auth.Password
	dbCfg.Options = auth.Options
	return dbCfg
}
