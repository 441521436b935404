package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// UserRepository is the union of what the users and auth handlers need.
type UserRepository interface {
	handlers.UserStore
	GetByUsername(ctx context.Context, username string) (user.User, error)
}

type Deps struct {
	Users    UserRepository
	Tasks    handlers.TaskStore
	Cache    cache.Store
	Hasher   handlers.PasswordHasher
	Tokens   handlers.TokenIssuer
	Resolver middlewares.UserResolver

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Pingers  map[string]handlers.Pinger
}

func NewRouter(log *slog.Logger, deps Deps, cfg config.Config) *gin.Engine {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// X-Forwarded-For is only honoured from listed proxies; none by default,
	// otherwise any client could pick its own rate-limit key.
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		log.Error("invalid TRUSTED_PROXIES, trusting none", "err", err)
		_ = r.SetTrustedProxies(nil)
	}

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(otelgin.Middleware("taskhub"))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))

	// health and metrics
	h := handlers.NewHealthHandler(log, deps.Pingers)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	authMW := middlewares.NewAuthMiddleware(deps.Resolver)
	requireAuth := authMW.RequireAuth()
	requireJSON := middlewares.RequireJSON()

	loginLimiter := middlewares.NewRateLimiter(cfg.LoginRateLimit, time.Minute)

	// auth
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Hasher, deps.Tokens, deps.Cache, deps.Prom, log)
	r.POST("/auth/token", loginLimiter.Middleware(middlewares.KeyByIP), authHandler.Login)
	r.POST("/auth/token/refresh", requireAuth, authHandler.Refresh)

	// users
	usersHandler := handlers.NewUsersHandler(deps.Users, deps.Hasher, deps.Cache, log)
	users := r.Group("/users")
	{
		users.GET("", usersHandler.List)
		users.GET("/:id", usersHandler.Get)
		users.POST("", requireJSON, usersHandler.Create)
		users.PUT("/:id", requireAuth, authMW.RequireSelf("id"), requireJSON, usersHandler.Update)
		users.DELETE("/:id", requireAuth, authMW.RequireSelf("id"), usersHandler.Delete)
	}

	// tasks, all scoped to the caller
	tasksHandler := handlers.NewTasksHandler(deps.Tasks, log)
	tasks := r.Group("/tasks", requireAuth)
	{
		tasks.GET("", tasksHandler.List)
		tasks.POST("", requireJSON, tasksHandler.Create)
		tasks.GET("/:id", tasksHandler.Get)
		tasks.PATCH("/:id", requireJSON, tasksHandler.Patch)
		tasks.DELETE("/:id", tasksHandler.Delete)
	}

	return r
}
