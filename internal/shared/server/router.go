package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"docchat-backend/internal/account"
	"docchat-backend/internal/documents"
	"docchat-backend/internal/query"
	"docchat-backend/internal/services/health"
	"docchat-backend/internal/shared/config"
	"docchat-backend/internal/shared/metrics"
	"docchat-backend/internal/shared/server/middleware"
	"docchat-backend/internal/shared/server/respond"
	"docchat-backend/internal/users"
)

const (
	apiPrefix      = "/api/v1"
	rateGroupAuth  = "AUTH"
	authBurstLimit = 5
)

// RouterDeps carries the handlers mounted by NewRouter.
type RouterDeps struct {
	Config          config.Config
	Verifier        middleware.TokenVerifier
	Health          *health.Service
	UserHandler     *users.Handler
	DocumentHandler *documents.Handler
	QueryHandler    *query.Handler
	AccountHandler  *account.Handler
	Now             func() time.Time
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			GroupFor: rateGroup,
			Limiter:  middleware.NewRateLimiter(deps.Now),
			Rules:    rateRules(deps.Config.LoginRatePerMin),
		}),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group(apiPrefix)
	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, deps.Health.Status(c.Request.Context()))
	})
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterPublicRoutes(api)
	}

	protected := api.Group("")
	protected.Use(middleware.Auth(deps.Verifier))
	if deps.UserHandler != nil {
		deps.UserHandler.RegisterRoutes(protected)
	}
	if deps.DocumentHandler != nil {
		deps.DocumentHandler.RegisterRoutes(protected)
	}
	if deps.QueryHandler != nil {
		deps.QueryHandler.RegisterRoutes(protected)
	}
	if deps.AccountHandler != nil {
		deps.AccountHandler.RegisterRoutes(protected)
	}

	r.NoRoute(func(c *gin.Context) {
		respond.Error(c, http.StatusNotFound, "not_found", "route not found", nil)
	})

	return r
}

func rateGroup(c *gin.Context) string {
	switch strings.TrimPrefix(c.FullPath(), apiPrefix) {
	case "/login", "/register_user/:id":
		return rateGroupAuth
	}
	return ""
}

func rateRules(perMinute int) map[string]middleware.RateLimitRule {
	if perMinute <= 0 {
		return nil
	}
	burst := authBurstLimit
	if perMinute < burst {
		burst = perMinute
	}
	return map[string]middleware.RateLimitRule{
		rateGroupAuth: {Rate: float64(perMinute) / 60.0, Burst: burst},
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
