package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"resume-builder/internal/accounts"
	googleauth "resume-builder/internal/auth"
	"resume-builder/internal/credits"
	"resume-builder/internal/generatedresumes"
	"resume-builder/internal/generation"
	"resume-builder/internal/keywords"
	"resume-builder/internal/llm"
	openai "resume-builder/internal/llm/openai"
	"resume-builder/internal/queue"
	"resume-builder/internal/services/health"
	"resume-builder/internal/shared/config"
	"resume-builder/internal/shared/server"
	"resume-builder/internal/shared/server/middleware"
	"resume-builder/internal/shared/storage/db"
	"resume-builder/internal/shared/telemetry"
	"resume-builder/internal/synthesis"
	"resume-builder/internal/users"
)

const redisPingTimeout = 2 * time.Second

// App holds shared dependencies.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	Redis             *redis.Client
	Queue             queue.Client
	LLM               llm.Client
	AccountsRepo      accounts.Repo
	ResumesRepo       generatedresumes.Repo
	UsersRepo         users.Repo
	UsersService      *users.Service
	Reconciler        *accounts.Reconciler
	CreditGate        *credits.Gate
	Orchestrator      *generation.Orchestrator
	Health            *health.Service
	GenerationHandler *generation.Handler
	ResumesHandler    *generatedresumes.Handler
	AccountHandler    *accounts.Handler
	UsersHandler      *users.Handler
	GoogleAuth        *googleauth.GoogleService
}

// Build prepares shared dependencies and the HTTP router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	ctx := context.Background()

	sqlDB, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, DB: sqlDB}

	if app.Queue, err = buildQueue(cfg); err != nil {
		app.Close()
		return nil, fmt.Errorf("build queue: %w", err)
	}
	if app.LLM, err = buildLLM(cfg); err != nil {
		app.Close()
		return nil, fmt.Errorf("build llm client: %w", err)
	}
	app.Redis = buildRedis(ctx, cfg)
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            app.Config,
		Health:            app.Health,
		Limiter:           buildLimiter(app.Redis),
		GenerationHandler: app.GenerationHandler,
		ResumesHandler:    app.ResumesHandler,
		AccountHandler:    app.AccountHandler,
		UserHandler:       app.UsersHandler,
		GoogleAuth:        app.GoogleAuth,
	})

	return app, nil
}

// Close releases connections opened by Build.
func (a *App) Close() {
	if a == nil {
		return
	}
	if closer, ok := a.Queue.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

// openDB is swapped in tests to hand Build a mock connection.
var openDB = buildDB

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

// buildRedis returns nil when Redis is not configured or unreachable; the
// rate limiter then stays in-process.
func buildRedis(ctx context.Context, cfg config.Config) *redis.Client {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		telemetry.Warn("bootstrap.redis_unavailable", map[string]any{
			"addr":  addr,
			"error": err.Error(),
		})
		_ = client.Close()
		return nil
	}
	return client
}

func buildLimiter(client *redis.Client) middleware.Limiter {
	if client == nil {
		return middleware.NewRateLimiter(nil)
	}
	return middleware.NewRedisRateLimiter(client, "resume-builder:ratelimit")
}

func buildQueue(cfg config.Config) (queue.Client, error) {
	switch cfg.QueueBackend {
	case "rabbitmq":
		return queue.NewRabbitMQClient(cfg.RabbitMQURL, cfg.RabbitMQQueue)
	default:
		return queue.NoopClient{}, nil
	}
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" && isDevLike(cfg.Env) {
			log.Printf("bootstrap: OPENAI_API_KEY empty; generation will fail until configured")
			return llm.PlaceholderClient{}, nil
		}
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		return llm.WithRetry(client), nil
	default:
		return llm.PlaceholderClient{}, nil
	}
}

func buildServices(app *App) {
	if app.DB != nil {
		app.AccountsRepo = &accounts.PGRepo{DB: app.DB}
		app.ResumesRepo = &generatedresumes.PGRepo{DB: app.DB}
		app.UsersRepo = &users.PGRepo{DB: app.DB}
	} else {
		app.AccountsRepo = accounts.NewMemoryRepo()
		app.ResumesRepo = generatedresumes.NewMemoryRepo()
		app.UsersRepo = users.NewMemoryRepo()
	}

	app.UsersService = users.NewService(app.UsersRepo)
	app.Reconciler = accounts.NewReconciler(app.AccountsRepo, app.UsersService)
	app.CreditGate = credits.NewGate(app.AccountsRepo)
	app.Orchestrator = generation.NewOrchestrator(
		app.Reconciler,
		app.CreditGate,
		keywords.NewExtractor(app.LLM, app.Config.MaxKeywords),
		synthesis.NewSynthesizer(app.LLM),
		app.ResumesRepo,
		app.Queue,
		app.Config.DefaultTemplateID,
	)

	app.Health = health.NewService()
	if app.DB != nil {
		app.Health.Register("postgres", app.DB)
	}
	if app.Redis != nil {
		app.Health.Register("redis", health.PingFunc(func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		}))
	}

	app.GenerationHandler = generation.NewHandler(app.Orchestrator)
	app.ResumesHandler = generatedresumes.NewHandler(app.ResumesRepo)
	app.AccountHandler = accounts.NewHandler(app.AccountsRepo)
	app.UsersHandler = users.NewHandler(app.UsersService)
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		app.UsersService,
	)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
