package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"intervie-backend/internal/ai"
	_ "intervie-backend/internal/ai/gemini" // register the gemini provider
	_ "intervie-backend/internal/ai/groq"   // register the groq provider
	"intervie-backend/internal/chats"
	"intervie-backend/internal/extract"
	"intervie-backend/internal/interviews"
	"intervie-backend/internal/plans"
	"intervie-backend/internal/realtime"
	"intervie-backend/internal/shared/config"
	"intervie-backend/internal/shared/server"
	"intervie-backend/internal/shared/storage/db"
	"intervie-backend/internal/shared/storage/object"
	localstore "intervie-backend/internal/shared/storage/object/local"
	s3store "intervie-backend/internal/shared/storage/object/s3"
)

var errDatabaseRequired = errors.New("DATABASE_URL is required")

// App holds shared dependencies.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Hub    *realtime.Hub

	InterviewRepo    interviews.Repo
	ChatRepo         chats.Repo
	PlanStore        plans.Store
	PlansService     *plans.Service
	InterviewService *interviews.Service
	ChatService      *chats.Service
	InterviewHandler *interviews.Handler
	ChatHandler      *chats.Handler
	PlansHandler     *plans.Handler
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Hub:    realtime.NewHub(),
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:           app.Config,
		InterviewHandler: app.InterviewHandler,
		ChatHandler:      app.ChatHandler,
		PlansHandler:     app.PlansHandler,
		Hub:              app.Hub,
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, errDatabaseRequired
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

	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(app *App) error {
	var interviewRepo interviews.Repo
	var chatRepo chats.Repo
	var planStore plans.Store

	if app.DB != nil {
		interviewRepo = &interviews.PGRepo{DB: app.DB}
		chatRepo = &chats.PGRepo{DB: app.DB}
		planStore = &plans.PGStore{DB: app.DB}
	} else {
		interviewRepo = interviews.NewMemoryRepo()
		chatRepo = chats.NewMemoryRepo()
		planStore = plans.NewMemoryStore()
	}

	interviewProvider, err := ai.NewInterviewProvider(app.Config.InterviewProvider)
	if err != nil {
		return err
	}
	chatProvider, err := ai.NewChatProvider(app.Config.ChatProvider)
	if err != nil {
		return err
	}

	plansSvc := plans.NewService(planStore)
	limiter := ai.NewRateLimiter(nil, ai.DefaultRateLimits())

	interviewSvc := interviews.NewService(interviewRepo, interviewProvider, plansSvc, app.Hub, extract.Text)
	interviewSvc.Limiter = limiter
	interviewSvc.Artifacts = app.Store

	chatSvc := chats.NewService(chatRepo, chatProvider, plansSvc, ai.DefaultCatalog())
	chatSvc.Limiter = limiter

	app.InterviewRepo = interviewRepo
	app.ChatRepo = chatRepo
	app.PlanStore = planStore
	app.PlansService = plansSvc
	app.InterviewService = interviewSvc
	app.ChatService = chatSvc
	app.InterviewHandler = interviews.NewHandler(interviewSvc)
	app.ChatHandler = chats.NewHandler(chatSvc)
	app.PlansHandler = plans.NewHandler(plansSvc, app.Config.AdminKey)

	return nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
