package main

// Run database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"log"
	"os"

	"stac-loader/internal/secrets"
	"stac-loader/internal/shared/config"
	"stac-loader/internal/shared/storage/db"
	"stac-loader/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	dsn, err := secrets.ResolveDSN(ctx, secrets.Source{
		SecretARN:   cfg.PgstacSecretARN,
		Host:        cfg.PostgresHost,
		User:        cfg.PostgresUser,
		DBName:      cfg.PostgresDBName,
		Port:        cfg.PostgresPort,
		DatabaseURL: cfg.DatabaseURL,
	}, telemetry.Std{})
	if err != nil {
		log.Printf("failed to resolve dsn: %v", err)
		os.Exit(1)
	}

	sqlDB, err := db.Connect(ctx, dsn, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		log.Printf("failed to run migrations: %v", err)
		os.Exit(1)
	}
}
