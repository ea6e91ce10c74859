// internal/bootstrap/bootstrap.go
//
// Process start-up shared by cmd/web and cmd/gather.
//
// Context
// -------
// Both binaries need the same first steps: a logger, the config (with
// Vault references resolved when VAULT_ADDR is set), the central store,
// and, for anything that gathers, a Gatherer wired to the aggregator host.
//
// Notes
// -----
// • The Vault client's renewal loop is bound to ctx; cancel it on exit.
// • Open pings the store, so a bad DSN fails here and not on first use.

package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/orvsd/central/internal/config"
	"github.com/orvsd/central/internal/database"
	"github.com/orvsd/central/internal/logger"
	"github.com/orvsd/central/internal/siteinfo"
	"github.com/orvsd/central/internal/vault"
)

// GatherLock is the advisory lock name every gather run takes.
const GatherLock = "orvsd_central.gather"

// Logger starts the rotating logger for binary name under the config
// root.
func Logger(name string) (*zap.SugaredLogger, error) {
	return logger.New(config.RootDir(), name, logger.RunningInTTY())
}

// Config loads configuration, dialling Vault first when configured.
func Config(ctx context.Context, log *zap.SugaredLogger) (*config.Config, error) {
	var res config.SecretResolver
	if config.UsesVault() {
		cli, err := vault.New(ctx, log)
		if err != nil {
			return nil, fmt.Errorf("vault: %w", err)
		}
		res = cli
	}
	return config.Load(ctx, res)
}

// Store opens the central store described by cfg.
func Store(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	o := database.DefaultOptions
	if cfg.Database.MaxOpenConns > 0 {
		o.MaxOpenConns = cfg.Database.MaxOpenConns
	}
	if cfg.Database.MaxIdleConns > 0 {
		o.MaxIdleConns = cfg.Database.MaxIdleConns
	}
	o.Retries = 2
	o.RetryBackoff = 2 * time.Second

	dsn := database.CentralDSN(cfg.Database.CentralDSN, cfg.Database.CentralPassword)
	db, err := database.OpenWithOptions(ctx, dsn, o)
	if err != nil {
		return nil, fmt.Errorf("central store: %w", err)
	}
	return db, nil
}

// Gatherer wires a siteinfo.Gatherer to the aggregator host in cfg and
// the central store db.  It returns nil when siteinfo.host is unset.
func Gatherer(cfg *config.Config, db *sqlx.DB, log *zap.SugaredLogger) *siteinfo.Gatherer {
	s := cfg.Siteinfo
	if s.Host == "" {
		return nil
	}
	return &siteinfo.Gatherer{
		Source: &siteinfo.MySQLSource{
			Host:           s.Host,
			Port:           s.Port,
			User:           s.User,
			Password:       s.Password,
			ConnectTimeout: s.ConnectTimeout,
			ReadTimeout:    s.ReadTimeout,
		},
		Store:          db,
		Lock:           database.AdvisoryLocker{DB: db, Name: GatherLock},
		Log:            log.Named("siteinfo"),
		IsolateSources: s.IsolateSources,
	}
}
