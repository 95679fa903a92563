// Package app wires configuration, storage, the event bus and the services
// into the object graph shared by the API, stream and admin binaries.
package app

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/adapters/cache"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/adapters/database"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/adapters/events"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/adapters/memory"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/application/services"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/providers"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/domain/repositories"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/clients/postgres"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/clients/redis"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/migrations"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/internal/infrastructure/observability"
	"github.com/IPD-Now/IPD-Now-Admin-Panel/pkg/config"
)

// Options tunes how New builds the graph
type Options struct {
	// RequireRedis fails startup instead of falling back to in-process events.
	// Processes that only stream need Redis to see writes made elsewhere.
	RequireRedis bool
	// SkipMigrationCheck lets the admin CLI connect to a database it is about to migrate
	SkipMigrationCheck bool
	Metrics            *observability.Metrics
}

// App is the wired service graph
type App struct {
	Config *config.Config

	DB    *postgres.Client
	Redis *redis.Client
	Bus   providers.EventBus
	Cache providers.CacheProvider

	Ledger        *services.OccupancyLedger
	Departments   *services.DepartmentService
	Patients      *services.PatientService
	Notifications *services.NotificationService
	Auth          *services.AuthService
	Feed          *services.FeedService
	Reports       *services.ReportService
}

type repositorySet struct {
	departments   repositories.DepartmentRepository
	patients      repositories.PatientRepository
	notifications repositories.NotificationRepository
	hospitals     repositories.HospitalRepository
	occupancy     repositories.OccupancyStore
}

// New connects to the configured backends and builds every service
func New(cfg *config.Config, opts Options) (*App, error) {
	a := &App{Config: cfg}

	repos, err := a.openStore(cfg, opts)
	if err != nil {
		return nil, err
	}

	if err := a.openRedis(cfg, opts); err != nil {
		a.Close()
		return nil, err
	}

	departments := repos.departments
	var ledgerOpts []services.LedgerOption
	ledgerOpts = append(ledgerOpts,
		services.WithConflictRetries(cfg.Ledger.MaxConflictRetries),
		services.WithLedgerMetrics(opts.Metrics),
	)
	if a.Redis != nil && cfg.Ledger.DepartmentCacheTTL > 0 {
		cached := database.NewCachedDepartmentAdapter(repos.departments, a.Cache, cfg.Ledger.DepartmentCacheTTL, opts.Metrics)
		departments = cached
		ledgerOpts = append(ledgerOpts, services.WithDepartmentCache(cached))
		log.Info().Int("ttl_seconds", cfg.Ledger.DepartmentCacheTTL).Msg("Department reads cached in Redis")
	}

	loc := cfg.Hospital.Location()
	a.Notifications = services.NewNotificationService(repos.notifications, a.Bus)
	a.Ledger = services.NewOccupancyLedger(repos.occupancy, a.Notifications, a.Bus, ledgerOpts...)
	a.Departments = services.NewDepartmentService(departments, a.Ledger, a.Bus)
	a.Patients = services.NewPatientService(repos.patients, departments, a.Bus, loc)
	a.Auth = services.NewAuthService(repos.hospitals, a.Cache, cfg.Auth.SigningKey(), cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	a.Feed = services.NewFeedService(a.Bus, a.Patients, a.Departments, a.Notifications)
	a.Reports = services.NewReportService(a.Departments, a.Patients, loc)

	return a, nil
}

func (a *App) openStore(cfg *config.Config, opts Options) (*repositorySet, error) {
	if cfg.Store.Driver == config.StoreDriverMemory {
		log.Warn().Msg("Using in-memory store; data is lost on restart")
		store := memory.NewStore()
		return &repositorySet{
			departments:   store.Departments(),
			patients:      store.Patients(),
			notifications: store.Notifications(),
			hospitals:     store.Hospitals(),
			occupancy:     store,
		}, nil
	}

	client, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL client: %w", err)
	}
	if !opts.SkipMigrationCheck {
		if err := migrations.CheckDBMigrationStatus(client.DB()); err != nil {
			client.Close()
			return nil, fmt.Errorf("database schema check failed (run `ipdctl migrate up`): %w", err)
		}
	}
	a.DB = client
	log.Info().Msg("PostgreSQL client initialized successfully")

	return &repositorySet{
		departments:   database.NewDepartmentAdapter(client),
		patients:      database.NewPatientAdapter(client),
		notifications: database.NewNotificationAdapter(client),
		hospitals:     database.NewHospitalAdapter(client),
		occupancy:     database.NewOccupancyAdapter(client),
	}, nil
}

func (a *App) openRedis(cfg *config.Config, opts Options) error {
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(&cfg.Redis)
		switch {
		case err == nil:
			a.Redis = client
			a.Bus = events.NewRedisEventBus(client)
			a.Cache = cache.NewRedisAdapter(client)
			log.Info().Str("addr", cfg.Redis.RedisAddr()).Msg("Redis event bus and cache initialized")
			return nil
		case opts.RequireRedis:
			return err
		default:
			log.Warn().Err(err).Msg("Redis unavailable; falling back to in-process events and cache")
		}
	} else if opts.RequireRedis {
		return fmt.Errorf("REDIS_ENABLED must be true for this process")
	}

	a.Bus = events.NewMemoryEventBus()
	a.Cache = cache.NewMemoryAdapter()
	return nil
}

// Close releases the bus and backend connections
func (a *App) Close() {
	if a.Bus != nil {
		if err := a.Bus.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing event bus")
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing Redis client")
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing PostgreSQL client")
		}
	}
}
