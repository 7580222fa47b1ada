package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	"docstore-backend/internal/activity"
	"docstore-backend/internal/documents"
	"docstore-backend/internal/queue"
	"docstore-backend/internal/remotelog"
	"docstore-backend/internal/services/health"
	"docstore-backend/internal/shared/config"
	"docstore-backend/internal/shared/logsink"
	"docstore-backend/internal/shared/server"
	"docstore-backend/internal/shared/storage/db"
	"docstore-backend/internal/shared/storage/object"
	localstore "docstore-backend/internal/shared/storage/object/local"
	s3store "docstore-backend/internal/shared/storage/object/s3"
	"docstore-backend/internal/shared/telemetry"
	"docstore-backend/internal/usage"
	"docstore-backend/internal/users"
)

// App holds the wired dependencies of one process.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.Store
	Locks  *object.UserLocks
	Queue  queue.Client

	ServerLog  *logsink.FileSink
	ForwardLog logsink.Sink

	ActivityRepo     activity.Repo
	ActivityService  *activity.Service
	DocumentsService *documents.Service
	UsersService     *users.Service
	UsageService     *usage.Service

	closers []io.Closer
}

// Option adjusts Build.
type Option func(*buildOptions)

type buildOptions struct {
	console io.Writer
}

// WithConsole mirrors sink output to w instead of stdout.
func WithConsole(w io.Writer) Option {
	return func(o *buildOptions) { o.console = w }
}

// Build opens the log sinks, storage and optional database and queue,
// then wires services, handlers and the router.
func Build(cfg config.Config, opts ...Option) (*App, error) {
	var bo buildOptions
	for _, opt := range opts {
		opt(&bo)
	}
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if strings.TrimSpace(cfg.LogForwardTarget) == "" {
		cfg.LogForwardTarget = config.ForwardToFrontend
	}
	ctx := context.Background()

	app := &App{Config: cfg, Locks: object.NewUserLocks()}
	if err := app.buildSinks(bo); err != nil {
		app.Close()
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = object.Instrumented(store)

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	if sqlDB != nil {
		app.DB = sqlDB
		if !db.IsLambdaRuntime() {
			app.closers = append(app.closers, sqlDB)
		}
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Queue = queueClient

	app.buildServices()
	app.Router = server.NewRouter(server.RouterDeps{
		Config:           cfg,
		DocumentsHandler: documents.NewHandler(app.DocumentsService, app.ServerLog, cfg.MaxUploadBytes),
		UsersHandler:     users.NewHandler(app.UsersService, app.ServerLog),
		RemoteLogHandler: remotelog.NewHandler(app.ForwardLog),
		ActivityHandler:  activity.NewHandler(app.ActivityService),
		UsageHandler:     usage.NewHandler(app.UsageService),
		Health:           health.NewService(app.DB, app.Store),
		ServerLog:        app.ServerLog,
	})
	return app, nil
}

// Close releases the sinks and database pool.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *App) buildSinks(bo buildOptions) error {
	serverLog, err := logsink.Open(a.Config.ServerLogPath(), logsink.Options{Role: "BACKEND", Console: bo.console})
	if err != nil {
		return fmt.Errorf("open server log: %w", err)
	}
	a.ServerLog = serverLog
	a.closers = append(a.closers, serverLog)

	if a.Config.LogForwardTarget == config.ForwardToServer {
		a.ForwardLog = serverLog
		return nil
	}
	forwardLog, err := logsink.Open(a.Config.ForwardLogPath(), logsink.Options{Role: "FRONTEND", Console: bo.console})
	if err != nil {
		return fmt.Errorf("open forward log: %w", err)
	}
	a.ForwardLog = forwardLog
	a.closers = append(a.closers, forwardLog)
	return nil
}

func (a *App) buildServices() {
	if a.DB != nil {
		a.ActivityRepo = &activity.PGRepo{DB: a.DB}
	} else {
		a.ActivityRepo = activity.NewMemoryRepo()
	}
	a.UsageService = newUsageService(a.DB)
	if a.Queue == nil {
		a.Queue = queue.Inline(a.UsageService.Handle)
	}
	a.ActivityService = activity.NewService(a.ActivityRepo, a.Queue)
	a.DocumentsService = documents.NewService(a.Store, a.Locks, a.ActivityService)
	a.UsersService = users.NewService(a.Store, a.Locks, a.ActivityService)
}

// Worker holds what the activity queue consumers need.
type Worker struct {
	Config config.Config
	DB     *sql.DB
	Usage  *usage.Service
}

// BuildWorker connects the database and wires the usage service. It opens
// no log sinks so a worker never truncates the API's log files.
func BuildWorker(cfg config.Config) (*Worker, error) {
	sqlDB, err := buildDB(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return &Worker{Config: cfg, DB: sqlDB, Usage: newUsageService(sqlDB)}, nil
}

// Close releases the database pool unless it is the shared Lambda pool.
func (w *Worker) Close() error {
	if w.DB == nil || db.IsLambdaRuntime() {
		return nil
	}
	return w.DB.Close()
}

func newUsageService(sqlDB *sql.DB) *usage.Service {
	if sqlDB == nil {
		return usage.NewService()
	}
	return usage.NewPostgresService(sqlDB)
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, s3store.Options{
			Region:          cfg.AWSRegion,
			Bucket:          cfg.S3Bucket,
			Prefix:          cfg.S3Prefix,
			KMSKeyID:        cfg.SSEKMSKeyID,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UsePathStyle:    cfg.S3ForcePathStyle,
		})
	default:
		return localstore.New(cfg.StorageRoot)
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		telemetry.Info("bootstrap.activity_memory", map[string]any{"reason": "DATABASE_URL empty"})
		return nil, nil
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		sqlDB, err = db.Shared(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultOptions("lambda")))
	} else {
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultOptions("server")))
	}
	if err == nil {
		if err = db.RunMigrations(ctx, sqlDB); err != nil && !db.IsLambdaRuntime() {
			sqlDB.Close()
		}
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.activity_memory", map[string]any{"reason": "database unavailable", "err": err})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.ActivitySQSQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.ActivitySQSQueueURL, cfg.AWSRegion)
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
