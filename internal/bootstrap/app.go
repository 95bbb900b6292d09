package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2/clientcredentials"

	"docchat-backend/internal/account"
	"docchat-backend/internal/documents"
	"docchat-backend/internal/extract"
	"docchat-backend/internal/llm"
	openai "docchat-backend/internal/llm/openai"
	"docchat-backend/internal/query"
	"docchat-backend/internal/services/health"
	"docchat-backend/internal/shared/auth"
	"docchat-backend/internal/shared/config"
	"docchat-backend/internal/shared/security"
	"docchat-backend/internal/shared/server"
	"docchat-backend/internal/shared/storage/db"
	"docchat-backend/internal/shared/storage/scratch"
	"docchat-backend/internal/shared/telemetry"
	"docchat-backend/internal/users"
)

// App holds shared dependencies and the wired router.
type App struct {
	Config           config.Config
	Router           *gin.Engine
	DB               *sql.DB
	Scratch          *scratch.Store
	Signer           *auth.Signer
	LLM              llm.Client
	UsersRepo        users.Repo
	DocumentsRepo    documents.Repo
	UsersService     *users.Service
	DocumentsService *documents.Service
	QueryService     *query.Service
	AccountService   *account.Service
}

// Option overrides a collaborator, mainly for tests.
type Option func(*overrides)

type overrides struct {
	extractor extract.Extractor
	llm       llm.Client
	hasher    *security.Hasher
}

// WithExtractor replaces the PDF extractor.
func WithExtractor(e extract.Extractor) Option {
	return func(o *overrides) { o.extractor = e }
}

// WithLLM replaces the configured LLM client.
func WithLLM(c llm.Client) Option {
	return func(o *overrides) { o.llm = c }
}

// WithHasher replaces the password hasher.
func WithHasher(h *security.Hasher) Option {
	return func(o *overrides) { o.hasher = h }
}

// Build connects storage, wires services and mounts routes.
func Build(ctx context.Context, cfg config.Config, opts ...Option) (*App, error) {
	var ov overrides
	for _, opt := range opts {
		opt(&ov)
	}
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := scratch.New(cfg.UploadDir)
	if err != nil {
		return nil, err
	}

	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.JWTTTL, cfg.JWTIssuer, cfg.Env == "production")
	if err != nil {
		return nil, err
	}

	llmClient := ov.llm
	if llmClient == nil {
		llmClient, err = buildLLM(cfg)
		if err != nil {
			return nil, err
		}
	}

	app := &App{
		Config:  cfg,
		DB:      sqlDB,
		Scratch: store,
		Signer:  signer,
		LLM:     llmClient,
	}
	buildServices(app, ov)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Verifier:        signer,
		Health:          health.NewService(sqlDB),
		UserHandler:     users.NewHandler(app.UsersService),
		DocumentHandler: documents.NewHandler(app.DocumentsService),
		QueryHandler:    query.NewHandler(app.QueryService),
		AccountHandler:  account.NewHandler(app.AccountService),
	})

	return app, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if cfg.DatabaseURL == "" {
		if cfg.IsDevLike() {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, errors.New("DATABASE_URL is required")
	}

	target, err := db.ResolveTarget(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.ConnectWithRetry(ctx, target, db.OptionsFromEnv(db.DefaultServerOptions()), cfg.DBConnectAttempts, cfg.DBConnectDelay)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB, target.Dialect); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "echo":
		return llm.EchoClient{}, nil
	case "", "none", "placeholder":
		return llm.PlaceholderClient{}, nil
	case "openai":
		openaiCfg := openai.Config{
			APIKey:              cfg.OpenAIAPIKey,
			Model:               cfg.LLMModel,
			BaseURL:             cfg.LLMBaseURL,
			Timeout:             cfg.LLMTimeout,
			MaxContextChars:     cfg.LLMMaxContextChars,
			NoTemperatureModels: cfg.LLMNoTempModels,
		}
		if cfg.LLMOAuthTokenURL != "" {
			openaiCfg.OAuth = &clientcredentials.Config{
				ClientID:     cfg.LLMOAuthClientID,
				ClientSecret: cfg.LLMOAuthClientSecret,
				TokenURL:     cfg.LLMOAuthTokenURL,
			}
		}
		client, err := openai.NewClient(openaiCfg)
		if err != nil {
			if cfg.IsDevLike() {
				telemetry.Warn("bootstrap.llm_placeholder", map[string]any{"error": err})
				return llm.PlaceholderClient{}, nil
			}
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q", cfg.LLMProvider)
	}
}

func buildServices(app *App, ov overrides) {
	var userRepo users.Repo
	var docRepo documents.Repo
	if app.DB != nil {
		userRepo = &users.PGRepo{DB: app.DB}
		docRepo = &documents.PGRepo{DB: app.DB}
	} else {
		userRepo = users.NewMemoryRepo()
		docRepo = documents.NewMemoryRepo()
	}

	hasher := ov.hasher
	if hasher == nil {
		hasher = security.NewHasher()
	}
	extractor := ov.extractor
	if extractor == nil {
		extractor = extract.PDF{}
	}

	userSvc := users.NewService(userRepo, hasher, app.Signer, app.Config.IsAdminID)
	docSvc := documents.NewService(docRepo, userSvc, app.Scratch, extractor, app.Config.MaxUploadBytes)

	app.UsersRepo = userRepo
	app.DocumentsRepo = docRepo
	app.UsersService = userSvc
	app.DocumentsService = docSvc
	app.QueryService = query.NewService(userSvc, docSvc, app.LLM)
	app.AccountService = account.NewService(userRepo, docRepo, hasher)
}
