package app

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"store-sync/internal/config"
	"store-sync/internal/database"
	"store-sync/internal/database/migration"
	dbpostgres "store-sync/internal/database/postgres"
	"store-sync/internal/database/seeder"
	"store-sync/internal/identity"
	"store-sync/internal/infrastructure/cache"
	"store-sync/internal/infrastructure/persistence/postgres"
	"store-sync/internal/metrics"
	"store-sync/internal/pkg/token"
	"store-sync/internal/usecase/session"
)

// Container wires the adapters and the session service together.
type Container struct {
	Config config.Config
	Logger *log.Logger

	DB    database.DB
	Cache *cache.Redis

	Local    *cache.LocalStore
	Provider *identity.Service
	Sessions *session.Service

	Collector *metrics.Collector
	PromReg   *prometheus.Registry
}

func NewContainer(cfg config.Config) (*Container, error) {
	logger := log.New(os.Stdout, "", log.LstdFlags)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	if cfg.Database.MigrationsDir != "" {
		runner := migration.Runner{Dir: cfg.Database.MigrationsDir}
		if err := runner.Run(ctx, db.SQLDB()); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	if err := (seeder.Runner{Seeders: seeder.Defaults()}).Run(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	redisCache := cache.NewRedis(logger)
	local := cache.NewLocalStore(redisCache)
	registry := cache.NewSessionRegistry(redisCache)

	tokens := token.NewHMACService(cfg.Auth.TokenSecret, cfg.Auth.TokenExpiresIn)
	creds := postgres.NewCredentialStore(db)
	provider := identity.NewService(creds, tokens, registry, cfg.Auth, logger)

	promReg := prometheus.NewRegistry()
	collector := metrics.NewCollector(promReg)

	profiles := postgres.NewProfileStore(db)
	sessions := session.NewService(
		provider,
		profiles,
		local,
		session.Config{RequireVerifiedEmail: cfg.Auth.RequireVerifiedEmail},
		collector,
		logger,
	)

	return &Container{
		Config:    cfg,
		Logger:    logger,
		DB:        db,
		Cache:     redisCache,
		Local:     local,
		Provider:  provider,
		Sessions:  sessions,
		Collector: collector,
		PromReg:   promReg,
	}, nil
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
