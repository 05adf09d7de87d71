package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"stac-loader/internal/ingest"
	"stac-loader/internal/pgstac"
	"stac-loader/internal/secrets"
	"stac-loader/internal/shared/config"
	"stac-loader/internal/shared/storage/db"
	"stac-loader/internal/shared/telemetry"
)

// App holds the shared dependencies of the loader entrypoints.
type App struct {
	Config    config.Config
	DB        *sql.DB
	Loader    *pgstac.Loader
	Processor *ingest.Processor
	Log       telemetry.Logger
}

// Build resolves the catalog store credential, opens the pool, and wires
// the ingestion pipeline. A Build failure is a platform-level fault: the
// transport treats the whole invocation as failed and redelivers.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	telemetry.Configure(cfg.LogLevel)
	log := telemetry.Std{}

	dsn, err := secrets.ResolveDSN(ctx, secrets.Source{
		SecretARN:   cfg.PgstacSecretARN,
		Host:        cfg.PostgresHost,
		User:        cfg.PostgresUser,
		DBName:      cfg.PostgresDBName,
		Port:        cfg.PostgresPort,
		DatabaseURL: cfg.DatabaseURL,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("resolve store dsn: %w", err)
	}

	var pool *sql.DB
	if db.IsLambdaRuntime() {
		// Warm invocations of the same execution environment reuse the pool.
		pool, err = db.GetSingleton(ctx, dsn, db.OptionsFromEnv(db.DefaultLambdaOptions()))
	} else {
		pool, err = db.Connect(ctx, dsn, db.OptionsFromEnv(db.DefaultWorkerOptions()))
	}
	if err != nil {
		return nil, fmt.Errorf("connect catalog store: %w", err)
	}

	loader := &pgstac.Loader{
		DB:             pool,
		AcquireTimeout: cfg.AcquireTimeout,
	}

	return &App{
		Config: cfg,
		DB:     pool,
		Loader: loader,
		Processor: &ingest.Processor{
			Loader:      loader,
			Log:         log,
			Concurrency: cfg.LoadConcurrency,
		},
		Log: log,
	}, nil
}
