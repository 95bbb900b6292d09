package main

// Grant or revoke the admin role:
//   go run ./cmd/admin --grant U1
//   go run ./cmd/admin --revoke U1

import (
	"context"
	"log"
	"os"

	"github.com/spf13/pflag"

	"docchat-backend/internal/shared/config"
	"docchat-backend/internal/shared/security"
	"docchat-backend/internal/shared/storage/db"
	"docchat-backend/internal/shared/telemetry"
	"docchat-backend/internal/users"
)

var (
	grant  = pflag.String("grant", "", "User id to promote to admin")
	revoke = pflag.String("revoke", "", "User id to demote to a regular user")
)

func main() {
	pflag.Parse()

	cfg := config.Load()
	if err := telemetry.Init(cfg.LogLevel); err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer telemetry.Sync()

	userID, role, ok := roleChange(*grant, *revoke)
	if !ok {
		telemetry.Error("admin.usage", map[string]any{"error": "exactly one of --grant or --revoke is required"})
		os.Exit(2)
	}

	ctx := context.Background()
	target, err := db.ResolveTarget(cfg.DatabaseURL)
	if err != nil {
		telemetry.Error("admin.invalid_target", map[string]any{"error": err})
		os.Exit(1)
	}
	sqlDB, err := db.ConnectWithRetry(ctx, target, db.OptionsFromEnv(db.DefaultMigrateOptions()), cfg.DBConnectAttempts, cfg.DBConnectDelay)
	if err != nil {
		telemetry.Error("admin.connect_failed", map[string]any{"error": err})
		os.Exit(1)
	}
	defer sqlDB.Close()

	svc := users.NewService(&users.PGRepo{DB: sqlDB}, security.NewHasher(), nil, cfg.IsAdminID)
	if err := svc.SetRole(ctx, userID, role); err != nil {
		telemetry.Error("admin.failed", map[string]any{"user_id": userID, "role": string(role), "error": err})
		os.Exit(1)
	}
}

func roleChange(grant, revoke string) (string, users.Role, bool) {
	switch {
	case grant != "" && revoke == "":
		return grant, users.RoleAdmin, true
	case revoke != "" && grant == "":
		return revoke, users.RoleUser, true
	default:
		return "", "", false
	}
}
