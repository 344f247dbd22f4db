package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/explorer/internal/explorer/http"
	"github.com/aussiebroadwan/explorer/internal/explorer/metrics"
	"github.com/aussiebroadwan/explorer/internal/explorer/service"
	"github.com/aussiebroadwan/explorer/internal/explorer/store"
	"github.com/aussiebroadwan/explorer/internal/explorer/store/drivers/sqlite"
	"github.com/aussiebroadwan/explorer/pkg/blobx"
	"github.com/aussiebroadwan/explorer/pkg/cachex"
	"github.com/aussiebroadwan/explorer/pkg/httpx"
	"github.com/aussiebroadwan/explorer/pkg/jwtx"
	"github.com/aussiebroadwan/explorer/pkg/mailx"
	"github.com/aussiebroadwan/explorer/pkg/slogx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v1.0.0"
)

// Application owns every long lived dependency of the API process.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db      store.Store
	cache   cachex.Cache
	blobs   blobx.Store
	mailer  mailx.Sender
	codec   *jwtx.HS256Codec
	metrics *metrics.Collector
	reg     *prometheus.Registry

	authService         *service.AuthService
	appService          *service.AppService
	reviewService       *service.ReviewService
	mediaService        *service.MediaService
	categoryService     *service.CategoryService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New builds the application. Nothing is listening until Run.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "explorer-api",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	app.initMetrics()

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := app.initCache(ctx); err != nil {
		app.closeAll()
		return nil, err
	}
	if err := app.initBlobs(ctx); err != nil {
		app.closeAll()
		return nil, err
	}
	app.initMailer()

	codec, err := jwtx.NewHS256([]byte(cfg.JWTSecret), cfg.JWTTTL)
	if err != nil {
		app.closeAll()
		return nil, fmt.Errorf("failed to initialize session tokens: %w", err)
	}
	app.codec = codec

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Handler exposes the root HTTP handler, mainly for tests.
func (app *Application) Handler() http.Handler { return app.router }

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("explorer api starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.housekeepingService.Stop()
			app.closeAll()
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down explorer api...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.closeAll(); err != nil {
		return err
	}

	app.logger.Info("explorer api stopped")
	return nil
}

// closeAll releases the cache and the database. The database error, if
// any, is returned.
func (app *Application) closeAll() error {
	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error("error closing cache", "error", err)
		}
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database", "error", err)
			return err
		}
	}
	return nil
}

func (app *Application) initMetrics() {
	app.reg = prometheus.NewRegistry()
	app.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.NewCollector(app.reg)
}

// initDatabase opens the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		app.db = nil
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initCache(ctx context.Context) error {
	var c cachex.Cache

	switch app.cfg.Cache.Driver {
	case DriverRedis:
		rc, err := cachex.NewRedis(ctx, cachex.RedisConfig{
			Addr:     app.cfg.Cache.RedisAddr,
			Password: app.cfg.Cache.RedisPassword,
			DB:       app.cfg.Cache.RedisDB,
			Prefix:   app.cfg.Cache.RedisPrefix,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		c = rc
	default:
		c = cachex.NewMemory(app.cfg.Cache.Capacity)
	}

	app.cache = cachex.Instrument(c, app.metrics)
	app.logger.Info("cache ready", "driver", app.cfg.Cache.Driver)
	return nil
}

func (app *Application) initBlobs(ctx context.Context) error {
	switch app.cfg.Blob.Driver {
	case DriverMinio:
		m, err := blobx.NewMinio(ctx, blobx.MinioConfig{
			Endpoint:     app.cfg.Blob.Endpoint,
			AccessKey:    app.cfg.Blob.AccessKey,
			SecretKey:    app.cfg.Blob.SecretKey,
			Bucket:       app.cfg.Blob.Bucket,
			Region:       app.cfg.Blob.Region,
			CreateBucket: true,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize blob store: %w", err)
		}
		app.blobs = m
	default:
		app.logger.Warn("using in-memory blob store, uploads are lost on restart")
		app.blobs = blobx.NewMemory()
	}
	return nil
}

func (app *Application) initMailer() {
	var s mailx.Sender
	if app.cfg.Mail.ResendAPIKey != "" {
		s = mailx.NewResend(app.cfg.Mail.ResendAPIKey, app.cfg.Mail.From)
	} else {
		app.logger.Warn("RESEND_API_KEY not set, emails are logged instead of sent")
		s = mailx.Log{Logger: app.logger}
	}
	app.mailer = mailx.Observe(s, app.metrics)
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.authService = &service.AuthService{
		Store:       app.db,
		Tokens:      app.codec,
		Mailer:      app.mailer,
		AdminEmails: app.cfg.AdminEmails,
		LinkBase:    app.cfg.PublicBaseURL,
		LinkOrigins: app.cfg.CORSAllowedOrigins,
	}
	app.appService = &service.AppService{
		Store: app.db,
		Cache: app.cache,
		Blobs: app.blobs,
	}
	app.reviewService = &service.ReviewService{
		Store: app.db,
		Cache: app.cache,
	}
	app.mediaService = &service.MediaService{
		Store:     app.db,
		Cache:     app.cache,
		Blobs:     app.blobs,
		PublicURL: app.cfg.Blob.PublicURL,
	}
	app.categoryService = &service.CategoryService{
		Store: app.db,
		Cache: app.cache,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.codec,
		BuildVersion,
		app.db,
		app.logger,
	)
	router.Use(
		app.metrics.Middleware(),
		httpx.CORS(app.cfg.CORSAllowedOrigins),
	)
	router.Metrics = metrics.Handler(app.reg)

	router.AuthService = app.authService
	router.AppService = app.appService
	router.ReviewService = app.reviewService
	router.MediaService = app.mediaService
	router.CategoryService = app.categoryService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
