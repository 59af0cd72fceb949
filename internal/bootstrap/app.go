package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resumematch-backend/internal/agent"
	"resumematch-backend/internal/agent/openai"
	"resumematch-backend/internal/extract"
	"resumematch-backend/internal/jobs"
	"resumematch-backend/internal/notify"
	"resumematch-backend/internal/resumes"
	"resumematch-backend/internal/shared/config"
	"resumematch-backend/internal/shared/server"
	"resumematch-backend/internal/shared/server/middleware"
	"resumematch-backend/internal/shared/storage/db"
	"resumematch-backend/internal/shared/storage/object"
	localstore "resumematch-backend/internal/shared/storage/object/local"
	s3store "resumematch-backend/internal/shared/storage/object/s3"
	"resumematch-backend/internal/shared/telemetry"
	"resumematch-backend/internal/tasks"
)

// App holds shared dependencies, constructed once at startup and torn down in
// reverse at shutdown.
type App struct {
	Config   config.Config
	Router   *gin.Engine
	DB       *sql.DB
	Store    object.ObjectStore
	Registry *notify.Registry
	Notifier *notify.Notifier
	Runner   *tasks.Runner
	Leases   *tasks.Leases

	ResumesRepo resumes.Repo
	JobsRepo    jobs.JobsRepo
	MatchesRepo jobs.MatchesRepo

	ResumeService *resumes.Service
	JobsService   *jobs.Service
	ResumeHandler *resumes.Handler
	JobsHandler   *jobs.Handler
}

// Build prepares all shared dependencies and the router.
func Build(cfg config.Config) (*App, error) {
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	analyzer, matcher := buildAgents(cfg)

	app := &App{
		Config:   cfg,
		DB:       sqlDB,
		Store:    store,
		Registry: notify.NewRegistry(),
		Runner:   tasks.NewRunner(cfg.WorkerCount),
		Leases:   tasks.NewLeases(),
	}
	app.Notifier = notify.NewNotifier(app.Registry)

	if sqlDB != nil {
		app.ResumesRepo = &resumes.PGRepo{DB: sqlDB}
		app.JobsRepo = &jobs.PGJobsRepo{DB: sqlDB}
		app.MatchesRepo = &jobs.PGMatchesRepo{DB: sqlDB}
	} else {
		app.ResumesRepo = resumes.NewMemoryRepo()
		app.JobsRepo = jobs.NewMemoryJobsRepo()
		app.MatchesRepo = jobs.NewMemoryMatchesRepo()
	}

	extractor := &extract.Service{Store: store, MaxBytes: cfg.MaxUploadBytes}

	app.ResumeService = &resumes.Service{
		Repo:      app.ResumesRepo,
		Store:     store,
		Extractor: extractor,
		Analyzer:  analyzer,
		Notifier:  app.Notifier,
		Runner:    app.Runner,
		Leases:    app.Leases,
	}
	app.JobsService = &jobs.Service{
		Jobs:    app.JobsRepo,
		Matches: app.MatchesRepo,
		Resumes: app.ResumesRepo,
		Matcher: matcher,
		Runner:  app.Runner,
		Leases:  app.Leases,
	}

	app.ResumeHandler = resumes.NewHandler(app.ResumeService, cfg.MaxUploadBytes)
	app.JobsHandler = jobs.NewHandler(app.JobsService)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:        cfg,
		Verifier:      buildVerifier(),
		ResumeHandler: app.ResumeHandler,
		JobsHandler:   app.JobsHandler,
		Registry:      app.Registry,
	})

	return app, nil
}

// Shutdown drains in-flight pipeline work, closes push connections, and
// releases the database.
func (a *App) Shutdown(ctx context.Context) error {
	drainErr := a.Runner.Shutdown(ctx)
	a.Registry.Close()
	if a.DB != nil {
		if err := a.DB.Close(); err != nil && drainErr == nil {
			drainErr = err
		}
	}
	return drainErr
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.no_database", map[string]any{
				"detail": "DATABASE_URL empty; using in-memory repositories",
			})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_unavailable", map[string]any{
				"error": err.Error(),
			})
			return nil, nil
		}
		return nil, err
	}

	migrateCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()
	if err := db.RunMigrations(migrateCtx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3_BUCKET is required for the s3 object store")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildAgents(cfg config.Config) (agent.ResumeAnalyzer, agent.JobMatcher) {
	if cfg.AgentAPIKey == "" || cfg.AgentModel == "" {
		telemetry.Warn("bootstrap.agent_not_configured", map[string]any{
			"detail": "AGENT_API_KEY or AGENT_MODEL missing; analysis calls will fail",
		})
		return agent.PlaceholderClient{}, agent.PlaceholderClient{}
	}
	client, err := openai.NewClient(cfg.AgentAPIKey, cfg.AgentModel, cfg.AgentBaseURL)
	if err != nil {
		telemetry.Warn("bootstrap.agent_not_configured", map[string]any{
			"error": err.Error(),
		})
		return agent.PlaceholderClient{}, agent.PlaceholderClient{}
	}
	return client, client
}

// buildVerifier returns nil: token issuance and validation belong to an
// external identity service. Dev-like environments fall back to the
// X-User-Id header inside the auth middleware.
func buildVerifier() middleware.TokenVerifier {
	return nil
}

func isDevLike(env string) bool {
	return env == "dev" || env == "local"
}
