package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("JWT_TTL", "")

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("expected env dev, got %q", cfg.Env)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected port 8080, got %q", cfg.Port)
	}
	if cfg.MaxUploadBytes != 20<<20 {
		t.Fatalf("expected 20MB ceiling, got %d", cfg.MaxUploadBytes)
	}
	if cfg.JWTTTL != 30*time.Minute {
		t.Fatalf("expected 30m ttl, got %s", cfg.JWTTTL)
	}
	if cfg.DBConnectAttempts != 10 || cfg.DBConnectDelay != 2*time.Second {
		t.Fatalf("unexpected connect retry defaults: %d %s", cfg.DBConnectAttempts, cfg.DBConnectDelay)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("ADMIN_USER_IDS", " a-1, ,B-2 ")
	t.Setenv("DB_CONNECT_DELAY", "500ms")
	t.Setenv("LLM_BASE_URL", "http://llm.local/v1/")

	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if len(cfg.AdminUserIDs) != 2 {
		t.Fatalf("expected 2 admin ids, got %v", cfg.AdminUserIDs)
	}
	if !cfg.IsAdminID(" B-2 ") {
		t.Fatalf("expected admin match for B-2")
	}
	if cfg.IsAdminID("b-2") || cfg.IsAdminID("A-1") {
		t.Fatalf("expected case variants not to match")
	}
	if cfg.DBConnectDelay != 500*time.Millisecond {
		t.Fatalf("expected 500ms delay, got %s", cfg.DBConnectDelay)
	}
	if cfg.LLMBaseURL != "http://llm.local/v1" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.LLMBaseURL)
	}
}

func TestValidateProductionRequiresSecrets(t *testing.T) {
	cfg := Config{Env: "production"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
	cfg.DatabaseURL = "postgres://x"
	cfg.JWTSecret = "s"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Config{Env: "dev"}).Validate(); err != nil {
		t.Fatalf("dev should not require secrets: %v", err)
	}
}

func TestLoadEnvFilesDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("DOCCHAT_TEST_KEY=from-file\nDOCCHAT_TEST_OTHER=\"quoted\"\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("DOCCHAT_TEST_KEY", "from-env")
	t.Setenv("DOCCHAT_TEST_OTHER", "")
	os.Unsetenv("DOCCHAT_TEST_OTHER")

	loadEnvFiles(path, filepath.Join(dir, "missing.env"))

	if got := os.Getenv("DOCCHAT_TEST_KEY"); got != "from-env" {
		t.Fatalf("expected env to win, got %q", got)
	}
	if got := os.Getenv("DOCCHAT_TEST_OTHER"); got != "quoted" {
		t.Fatalf("expected quoted value from file, got %q", got)
	}
}
