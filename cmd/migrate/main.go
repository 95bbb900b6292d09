package main

// Run database migrations:
//   go run ./cmd/migrate --direction up

import (
	"context"
	"log"
	"os"

	"github.com/spf13/pflag"

	"docchat-backend/internal/shared/config"
	"docchat-backend/internal/shared/storage/db"
	"docchat-backend/internal/shared/telemetry"
)

var direction = pflag.String("direction", "up", "Migration direction: up, down or status")

func main() {
	pflag.Parse()

	cfg := config.Load()
	if err := telemetry.Init(cfg.LogLevel); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer telemetry.Sync()

	dir := db.Direction(*direction)
	switch dir {
	case db.Up, db.Down, db.Status:
	default:
		telemetry.Error("migrate.invalid_direction", map[string]any{"direction": *direction})
		os.Exit(2)
	}

	ctx := context.Background()
	target, err := db.ResolveTarget(cfg.DatabaseURL)
	if err != nil {
		telemetry.Error("migrate.invalid_target", map[string]any{"error": err})
		os.Exit(1)
	}
	sqlDB, err := db.ConnectWithRetry(ctx, target, db.OptionsFromEnv(db.DefaultMigrateOptions()), cfg.DBConnectAttempts, cfg.DBConnectDelay)
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err})
		os.Exit(1)
	}
	defer sqlDB.Close()

	if err := db.Migrate(ctx, sqlDB, target.Dialect, dir); err != nil {
		telemetry.Error("migrate.failed", map[string]any{"direction": string(dir), "error": err})
		os.Exit(1)
	}
	telemetry.Info("migrate.done", map[string]any{"direction": string(dir), "dialect": target.Dialect})
}
