package bootstrap

import (
	"context"
	"log/slog"
	"os"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"ram/internal/bootstrap/config"
	"ram/internal/bootstrap/database"
	"ram/internal/bootstrap/logging"
	"ram/internal/errs"
	"ram/internal/hierarchy"
	cacheinfra "ram/internal/infrastructure/cache"
	sqliterepo "ram/internal/infrastructure/persistence/sqlite/repository"
	sqliteuow "ram/internal/infrastructure/persistence/sqlite/uow"
	"ram/internal/ports"
	"ram/internal/usecase/reporting"
)

var Module = fx.Options(
	fx.Provide(provideConfig),
	fx.Invoke(configureLogging),
	fx.Provide(provideDatabase),
	fx.Provide(provideApp),
	fx.Provide(provideRepositorySettings),
	fx.Provide(
		fx.Annotate(
			sqliterepo.NewLogRecordRepository,
			fx.As(new(ports.LogRecordRepository)),
		),
		fx.Annotate(
			sqliterepo.NewTestRunRepository,
			fx.As(new(ports.TestRunRepository)),
		),
		fx.Annotate(
			sqliterepo.NewAnalyticsRepository,
			fx.As(new(ports.AnalyticsRepository)),
		),
		fx.Annotate(
			sqliterepo.NewIngestRepository,
			fx.As(new(ports.IngestRepository)),
		),
	),
	fx.Provide(
		fx.Annotate(
			sqliteuow.NewUnitOfWork,
			fx.As(new(ports.UnitOfWork)),
		),
	),
	fx.Provide(
		fx.Annotate(
			cacheinfra.NewSQLiteCache,
			fx.As(new(ports.Cache)),
		),
	),
	fx.Provide(provideReportingService),
)

type configParams struct {
	fx.In

	Ctx        context.Context
	ConfigFile string `name:"configFile"`
}

func provideConfig(p configParams) (config.Config, error) {
	ctx := logging.WithAttrs(p.Ctx, slog.String("component", "bootstrap.fx"))
	return config.Load(ctx, p.ConfigFile)
}

func configureLogging(cfg config.Config) error {
	logger, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return errs.Wrap(err, "configure logging")
	}
	logging.SetDefault(logger)
	return nil
}

func provideDatabase(lc fx.Lifecycle, ctx context.Context, cfg config.Config) (*gorm.DB, error) {
	logCtx := logging.WithAttrs(ctx, slog.String("component", "bootstrap.fx"))

	db, err := database.Open(logCtx, cfg.Database)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	})

	return db, nil
}

func provideApp(cfg config.Config, db *gorm.DB) *App {
	return &App{
		Config: cfg,
		DB:     db,
	}
}

func provideRepositorySettings(cfg config.Config) sqliterepo.Settings {
	return sqliterepo.Settings{Timeout: cfg.Query.StoreTimeout}
}

type reportingParams struct {
	fx.In

	Config    config.Config
	Records   ports.LogRecordRepository
	TestRuns  ports.TestRunRepository
	Analytics ports.AnalyticsRepository
	Ingest    ports.IngestRepository
	UoW       ports.UnitOfWork
	Cache     ports.Cache
}

func provideReportingService(p reportingParams) *reporting.Service {
	q := p.Config.Query
	deps := reporting.Deps{
		Records:   p.Records,
		TestRuns:  p.TestRuns,
		Analytics: p.Analytics,
		Ingest:    p.Ingest,
		UoW:       p.UoW,
		Walk:      hierarchy.Options{MaxDepth: q.MaxDepth, CacheTTL: q.AncestorTTL},
		Settings: reporting.Settings{
			DefaultPageSize: q.DefaultPageSize,
			MaxPageSize:     q.MaxPageSize,
		},
	}
	if q.CacheAncestors {
		deps.Cache = p.Cache
	}
	return reporting.NewService(deps)
}
