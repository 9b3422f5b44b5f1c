package http

import (
	"context"
	"log/slog"
	"time"

	"github.com/bscott89/taskhub/internal/auth"
	"github.com/bscott89/taskhub/internal/cache"
	"github.com/bscott89/taskhub/internal/config"
	"github.com/bscott89/taskhub/internal/http/handlers"
	"github.com/bscott89/taskhub/internal/http/middlewares"
	"github.com/bscott89/taskhub/internal/observability"
	"github.com/bscott89/taskhub/internal/repo/postgres"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	Log       *slog.Logger
	Pool      *pgxpool.Pool
	Cfg       config.Config
	Mail      handlers.Mailer
	RedisPing func(ctx context.Context) error
}

func NewRouter(deps Deps) *gin.Engine {
	if deps.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(deps.Cfg.AllowedOrigins))
	r.Use(otelgin.Middleware("taskhub"))
	// multipart avatar uploads are the largest legitimate bodies
	r.Use(middlewares.MaxBodyBytes(2 << 20))

	// metrics
	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)
	r.Use(prom.GinHandleMiddleware())
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// health
	dbPing := func() error {
		if deps.Pool == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return deps.Pool.Ping(ctx)
	}

	redisPing := func() error {
		if deps.RedisPing == nil {
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()

		return deps.RedisPing(ctx)
	}

	health := handlers.NewHealthHandler(map[string]func() error{
		"db":    dbPing,
		"redis": redisPing,
	})
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	// wire up repositories
	usersRepo := postgres.NewUsersRepo(deps.Pool)
	tasksRepo := postgres.NewTasksRepo(deps.Pool)
	tokensRepo := postgres.NewTokensRepo(deps.Pool)

	jwtManager := auth.NewManager(deps.Cfg.JWTSecret, deps.Cfg.TokenTTL())
	authMW := middlewares.NewAuthMiddleware(jwtManager, tokensRepo, usersRepo)

	avatarCache := cache.New(30 * time.Second)

	// wire up handlers
	usersHandler := handlers.NewUsersHandler(usersRepo, tokensRepo, jwtManager, deps.Mail)
	avatarsHandler := handlers.NewAvatarsHandler(usersRepo, avatarCache)
	tasksHandler := handlers.NewTasksHandler(tasksRepo)

	// unauthenticated surface; signup/login are rate limited by IP
	limiter := middlewares.NewRateLimiter(20, time.Minute)
	r.POST("/users", limiter.RateLimiterMiddleware(middlewares.KeyByIP), middlewares.RequireJSON(), usersHandler.SignUp)
	r.POST("/users/login", limiter.RateLimiterMiddleware(middlewares.KeyByIP), middlewares.RequireJSON(), usersHandler.Login)
	r.GET("/users/:id/avatar", avatarsHandler.Get)

	// everything below requires a live bearer token
	authed := r.Group("", authMW.RequireAuth())

	authed.POST("/users/logout", usersHandler.Logout)
	authed.POST("/users/logoutAll", usersHandler.LogoutAll)
	authed.GET("/users/me", usersHandler.Me)
	authed.PATCH("/users/me", middlewares.RequireJSON(), usersHandler.UpdateMe)
	authed.DELETE("/users/me", usersHandler.DeleteMe)

	// avatar upload is multipart, so no RequireJSON here
	authed.POST("/users/me/avatar", avatarsHandler.Upload)
	authed.DELETE("/users/me/avatar", avatarsHandler.Delete)

	authed.POST("/tasks", middlewares.RequireJSON(), tasksHandler.CreateTask)
	authed.GET("/tasks", tasksHandler.ListTasks)
	authed.GET("/tasks/:id", tasksHandler.GetTaskById)
	authed.PATCH("/tasks/:id", middlewares.RequireJSON(), tasksHandler.UpdateTask)
	authed.DELETE("/tasks/:id", tasksHandler.DeleteTask)

	return r
}
