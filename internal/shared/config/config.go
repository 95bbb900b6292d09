package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"docchat-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port              string
	Env               string
	LogLevel          string
	CORSAllowOrigin   []string
	DatabaseURL       string
	DBConnectAttempts int
	DBConnectDelay    time.Duration

	JWTSecret string
	JWTTTL    time.Duration
	JWTIssuer string

	UploadDir      string
	MaxUploadBytes int64
	AdminUserIDs   []string

	LLMProvider          string
	LLMModel             string
	LLMBaseURL           string
	OpenAIAPIKey         string
	LLMTimeout           time.Duration
	LLMMaxContextChars   int
	LLMOAuthTokenURL     string
	LLMOAuthClientID     string
	LLMOAuthClientSecret string
	LLMNoTempModels      []string

	LoginRatePerMin int
}

// Load reads configuration from the environment (and local .env files) with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := Config{
		Port:              v.GetString("PORT"),
		Env:               normalizeEnv(v.GetString("ENV")),
		LogLevel:          v.GetString("LOG_LEVEL"),
		CORSAllowOrigin:   splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		DatabaseURL:       strings.TrimSpace(v.GetString("DATABASE_URL")),
		DBConnectAttempts: v.GetInt("DB_CONNECT_ATTEMPTS"),
		DBConnectDelay:    v.GetDuration("DB_CONNECT_DELAY"),

		JWTSecret: strings.TrimSpace(v.GetString("JWT_SECRET")),
		JWTTTL:    v.GetDuration("JWT_TTL"),
		JWTIssuer: v.GetString("JWT_ISSUER"),

		UploadDir:      v.GetString("UPLOAD_DIR"),
		MaxUploadBytes: v.GetInt64("MAX_UPLOAD_BYTES"),
		AdminUserIDs:   splitAndTrim(v.GetString("ADMIN_USER_IDS")),

		LLMProvider:          strings.ToLower(strings.TrimSpace(v.GetString("LLM_PROVIDER"))),
		LLMModel:             v.GetString("LLM_MODEL"),
		LLMBaseURL:           strings.TrimRight(v.GetString("LLM_BASE_URL"), "/"),
		OpenAIAPIKey:         v.GetString("OPENAI_API_KEY"),
		LLMTimeout:           time.Duration(v.GetInt("OPENAI_TIMEOUT_SECONDS")) * time.Second,
		LLMMaxContextChars:   v.GetInt("LLM_MAX_CONTEXT_CHARS"),
		LLMOAuthTokenURL:     v.GetString("LLM_OAUTH_TOKEN_URL"),
		LLMOAuthClientID:     v.GetString("LLM_OAUTH_CLIENT_ID"),
		LLMOAuthClientSecret: v.GetString("LLM_OAUTH_CLIENT_SECRET"),
		LLMNoTempModels:      splitAndTrim(v.GetString("LLM_NO_TEMP0_MODELS")),

		LoginRatePerMin: v.GetInt("RATE_LIMIT_LOGIN_PER_MIN"),
	}

	if err := cfg.Validate(); err != nil {
		telemetry.Warn("config.invalid", map[string]any{"error": err})
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:8501")
	v.SetDefault("DB_CONNECT_ATTEMPTS", 10)
	v.SetDefault("DB_CONNECT_DELAY", "2s")
	v.SetDefault("JWT_TTL", "30m")
	v.SetDefault("JWT_ISSUER", "docchat")
	v.SetDefault("UPLOAD_DIR", filepath.Join(os.TempDir(), "docchat_uploads"))
	v.SetDefault("MAX_UPLOAD_BYTES", 20<<20)
	v.SetDefault("LLM_PROVIDER", "openai")
	v.SetDefault("LLM_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_TIMEOUT_SECONDS", 120)
	v.SetDefault("LLM_MAX_CONTEXT_CHARS", 200000)
	v.SetDefault("RATE_LIMIT_LOGIN_PER_MIN", 10)
}

// Validate reports settings that are mandatory outside development.
func (c Config) Validate() error {
	if c.Env != "production" {
		return nil
	}
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required in production"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required in production"))
	}
	return errors.Join(errs...)
}

// IsDevLike reports whether the environment tolerates in-memory fallbacks.
func (c Config) IsDevLike() bool {
	return c.Env == "dev" || c.Env == "local"
}

// IsAdminID reports whether userID is listed in ADMIN_USER_IDS. Ids are case-sensitive.
func (c Config) IsAdminID(userID string) bool {
	userID = strings.TrimSpace(userID)
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
