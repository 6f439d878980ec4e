package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/router-for-me/proxyseed/internal/bootstrap"
	"github.com/router-for-me/proxyseed/internal/catalog"
	"github.com/router-for-me/proxyseed/internal/config"
	"github.com/router-for-me/proxyseed/internal/db"
	"github.com/router-for-me/proxyseed/internal/security"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Runtime holds the store handle and the outcome of the startup bootstrap.
type Runtime struct {
	conn     *gorm.DB
	systemID string
	sealer   *security.Sealer
	state    *BootstrapState
	locker   *bootstrap.RedisLocker
}

// Conn returns the store handle, or nil when no store is configured.
func (r *Runtime) Conn() *gorm.DB {
	if r == nil {
		return nil
	}
	return r.conn
}

// State returns the recorded bootstrap state.
func (r *Runtime) State() *BootstrapState {
	if r == nil {
		return nil
	}
	return r.state
}

// Close releases the store and the lock client.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	var errs []error
	if errLock := r.locker.Close(); errLock != nil {
		errs = append(errs, fmt.Errorf("close redis lock: %w", errLock))
	}
	if errDB := db.Close(r.conn); errDB != nil {
		errs = append(errs, errDB)
	}
	return errors.Join(errs...)
}

// Prepare opens and migrates the store, then runs the bootstrap once.
// A missing DSN leaves the runtime without a store and the bootstrap is skipped.
// A failed bootstrap is recorded in the state rather than returned.
func Prepare(ctx context.Context, cfg config.AppConfig) (*Runtime, error) {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)

	bootCfg, errBoot := config.LoadBootstrapConfig(configPath)
	if errBoot != nil {
		return nil, errBoot
	}
	cat, errCatalog := catalog.Load(bootCfg.CatalogPath)
	if errCatalog != nil {
		return nil, errCatalog
	}

	rt := &Runtime{
		systemID: bootCfg.SystemID,
		sealer:   security.NewSealer(bootCfg.SaltKey),
		state:    NewBootstrapState(),
	}
	if !rt.sealer.Enabled() {
		log.Warn("no salt key configured, provider credentials are stored unsealed")
	}

	dsn, errDSN := config.LoadDatabaseDSN(configPath)
	switch {
	case errors.Is(errDSN, config.ErrMissingDatabaseDSN):
		log.Warn("no database configured, default data will not be seeded")
	case errDSN != nil:
		return nil, errDSN
	default:
		if summary, errSummary := config.SummarizeDSN(dsn); errSummary == nil {
			log.Infof("using database %s", summary)
		}
		conn, errOpen := db.Open(dsn)
		if errOpen != nil {
			return nil, errOpen
		}
		if errMigrate := db.Migrate(conn); errMigrate != nil {
			_ = db.Close(conn)
			return nil, errMigrate
		}
		rt.conn = conn
	}

	opts := bootstrap.Options{
		SystemID: bootCfg.SystemID,
		Catalog:  cat,
		Lookup:   os.Getenv,
		Sealer:   rt.sealer,
	}
	if rt.conn != nil {
		locker, errLocker := bootstrap.OpenRedisLocker(ctx, bootCfg.RedisLock)
		if errLocker != nil {
			_ = rt.Close()
			return nil, errLocker
		}
		if locker != nil {
			log.Infof("bootstrap lock enabled (key=%s)", locker.Key())
			rt.locker = locker
			opts.Locker = locker
		}
	}

	result, _ := bootstrap.New(opts).Initialize(ctx, rt.conn)
	rt.state.Record(result)
	return rt, nil
}

// RunOnce migrates and bootstraps the store, then returns the bootstrap error if any.
func RunOnce(ctx context.Context, cfg config.AppConfig) error {
	rt, errPrepare := Prepare(ctx, cfg)
	if errPrepare != nil {
		return errPrepare
	}
	defer func() {
		if errClose := rt.Close(); errClose != nil {
			log.WithError(errClose).Warn("close runtime")
		}
	}()

	result := rt.state.Result()
	log.Infof("bootstrap finished with status %s", result.Status)
	return result.Err
}

// RunServer bootstraps the store and serves the status endpoints until ctx is done.
func RunServer(ctx context.Context, cfg config.AppConfig, defaultPort int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	serverCfg, errServer := config.LoadServerConfig(configPath)
	if errServer != nil {
		return errServer
	}
	if serverCfg.Port <= 0 {
		if defaultPort <= 0 {
			defaultPort = 8318
		}
		serverCfg.Port = defaultPort
	}

	rt, errPrepare := Prepare(ctx, cfg)
	if errPrepare != nil {
		return errPrepare
	}
	defer func() {
		if errClose := rt.Close(); errClose != nil {
			log.WithError(errClose).Warn("close runtime")
		}
	}()

	log.Infof("starting status server with config=%s", configPath)
	return RunStatusServer(ctx, rt, serverCfg)
}
