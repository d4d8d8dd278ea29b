// Package app provides application initialization, the HTTP API and lifecycle management.
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

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyellow/attendance-go/internal/attendance"
	"github.com/garyellow/attendance-go/internal/buildinfo"
	"github.com/garyellow/attendance-go/internal/classroom"
	"github.com/garyellow/attendance-go/internal/config"
	"github.com/garyellow/attendance-go/internal/logger"
	"github.com/garyellow/attendance-go/internal/metrics"
	"github.com/garyellow/attendance-go/internal/r2client"
	"github.com/garyellow/attendance-go/internal/sentry"
	"github.com/garyellow/attendance-go/internal/snapshot"
	"github.com/garyellow/attendance-go/internal/storage"
	"github.com/garyellow/attendance-go/internal/timeutil"
)

// Store is the persistence the API needs.
type Store interface {
	storage.RecordRepository
	Ping(ctx context.Context) error
}

// Deps are the collaborators of an Application. Clock and Location default to
// time.Now and the configured time zone.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	Store     Store
	Classroom *classroom.Classroom
	Publisher *snapshot.Publisher
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry
	Clock     timeutil.Clock
	Location  *time.Location
}

// Application manages the application lifecycle and dependencies.
type Application struct {
	cfg       *config.Config
	logger    *logger.Logger
	store     Store
	db        *storage.DB // owned database, closed on shutdown; nil when Store is injected
	class     *classroom.Classroom
	publisher *snapshot.Publisher
	metrics   *metrics.Metrics
	registry  *prometheus.Registry
	now       timeutil.Clock
	loc       *time.Location
	router    *gin.Engine
	server    *http.Server
}

// Initialize creates and initializes a new application with all dependencies.
func Initialize(ctx context.Context, cfg *config.Config) (*Application, error) {
	log := logger.NewWithOptions(logger.Options{
		Level:               cfg.LogLevel,
		Writer:              os.Stdout,
		BetterStackToken:    cfg.BetterStackToken,
		BetterStackEndpoint: cfg.BetterStackEndpoint,
	})
	log = log.WithField("service", "attendance-go")
	if host, err := os.Hostname(); err == nil && host != "" {
		log = log.WithField("instance_id", host)
	}

	// Default logger so package-level slog.*Context calls carry request values.
	slog.SetDefault(log.Logger)

	log.WithFields(map[string]any{
		"release":   buildinfo.Release(),
		"log_level": log.GetLevel().String(),
	}).Info("Initializing application...")
	if cfg.BetterStackEnabled() {
		log.WithField("endpoint", cfg.BetterStackEndpoint).Info("Better Stack logging enabled")
	}

	if err := sentry.Initialize(sentry.Config{
		DSN:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		Release:     buildinfo.Release(),
		SampleRate:  cfg.SentrySampleRate,
	}); err != nil {
		log.WithError(err).Warn("Sentry initialization failed, error reporting disabled")
	}

	loc, err := timeutil.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}

	class, builtIn, err := classroom.LoadOrDefault(cfg.ClassroomFile)
	if err != nil {
		return nil, fmt.Errorf("classroom: %w", err)
	}
	log.WithFields(map[string]any{
		"path":     cfg.ClassroomFile,
		"built_in": builtIn,
		"students": len(class.Roster),
		"periods":  len(class.Periods),
		"rules":    class.Rules.Len(),
	}).Info("Classroom loaded")

	db, err := storage.New(ctx, cfg.SQLitePath())
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	log.WithField("path", cfg.SQLitePath()).Info("Database connected")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewBuildInfoCollector(),
	)
	m := metrics.New(registry)
	db.SetMetrics(m)

	var store snapshot.ObjectStore
	if cfg.R2Enabled() {
		client, err := r2client.New(ctx, r2client.Config{
			Endpoint:    cfg.R2Endpoint,
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretAccessKey,
			BucketName:  cfg.R2BucketName,
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("r2: %w", err)
		}
		store = client
		log.WithField("bucket", client.Bucket()).Info("R2 snapshot upload enabled")
	}
	publisher := snapshot.New(snapshot.Config{
		CSVPath:     cfg.CSVPath,
		BOM:         cfg.CSVBOM,
		SnapshotKey: cfg.R2SnapshotKey,
	}, store, m, log.WithModule("snapshot").Logger)

	app := New(Deps{
		Config:    cfg,
		Logger:    log,
		Store:     db,
		Classroom: class,
		Publisher: publisher,
		Metrics:   m,
		Registry:  registry,
		Location:  loc,
	})
	app.db = db

	if err := app.seedFinal(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed: %w", err)
	}

	app.server = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.router,
		ReadHeaderTimeout: config.HTTPReadHeader,
		ReadTimeout:       config.HTTPRead,
		WriteTimeout:      config.HTTPWrite,
		IdleTimeout:       config.HTTPIdle,
	}

	log.Info("Initialization complete")
	return app, nil
}

// New wires an Application from deps and builds its router.
func New(deps Deps) *Application {
	a := &Application{
		cfg:       deps.Config,
		logger:    deps.Logger,
		store:     deps.Store,
		class:     deps.Classroom,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		registry:  deps.Registry,
		now:       deps.Clock,
		loc:       deps.Location,
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.loc == nil {
		loc, err := timeutil.LoadLocation(a.cfg.Timezone)
		if err != nil {
			loc = time.UTC
		}
		a.loc = loc
	}
	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
	}
	if a.metrics == nil {
		a.metrics = metrics.New(a.registry)
	}
	a.router = a.newRouter()
	return a
}

// Handler returns the HTTP handler.
func (a *Application) Handler() http.Handler {
	return a.router
}

func (a *Application) newRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(securityHeadersMiddleware())
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(a.logger))

	router.GET("/livez", a.livenessCheck)
	router.HEAD("/livez", a.livenessCheck)
	router.GET("/readyz", a.readinessCheck)
	router.HEAD("/readyz", a.readinessCheck)
	router.GET("/metrics",
		metricsAuthMiddleware(a.cfg.MetricsUsername, a.cfg.MetricsPassword),
		gin.WrapH(promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})))

	a.registerRoutes(router.Group("/api/v1", requestTimeoutMiddleware(config.RequestProcessing)))
	return router
}

func (a *Application) livenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "alive",
		"release": buildinfo.Release(),
	})
}

func (a *Application) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), config.ReadinessCheck)
	defer cancel()

	if err := a.store.Ping(ctx); err != nil {
		a.logger.WithError(err).Warn("Readiness check failed: database unavailable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"reason": "database unavailable",
		})
		return
	}

	counts := make(map[string]int, 2)
	for _, stage := range []attendance.Stage{attendance.StageDraft, attendance.StageFinal} {
		n, err := a.store.CountRecords(ctx, stage)
		if err != nil {
			a.logger.WithError(err).WithField("stage", stage).Warn("Failed to count records")
			continue
		}
		counts[string(stage)] = n
	}

	snapshotInfo := gin.H{"remote": false, "etag": ""}
	if a.publisher != nil {
		snapshotInfo["remote"] = a.publisher.RemoteEnabled()
		snapshotInfo["etag"] = a.publisher.CurrentETag()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ready",
		"database": "connected",
		"records":  counts,
		"classroom": gin.H{
			"students": len(a.class.Roster),
			"periods":  len(a.class.Periods),
		},
		"snapshot": snapshotInfo,
	})
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM, then shuts down.
func (a *Application) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.WithField("port", a.cfg.Port).Info("Starting HTTP server")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		a.logger.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-errCh:
		a.logger.WithError(err).Error("HTTP server error")
		runErr = err
	}

	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// shutdown stops the HTTP server, then closes the database and flushes logs and Sentry.
func (a *Application) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.logger.Info("Stopping HTTP server...")
	var errs []error
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.WithError(err).Error("HTTP server shutdown error")
		errs = append(errs, err)
	}

	a.logger.Info("Closing resources...")
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.WithError(err).WithField("component", "database").Error("Component close error")
			errs = append(errs, err)
		}
	}

	if sentry.IsEnabled() && !sentry.Flush(2*time.Second) {
		a.logger.Warn("Sentry flush timed out")
	}

	a.logger.Info("Shutdown complete")
	if err := a.logger.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("logger shutdown: %w", err))
	}
	return errors.Join(errs...)
}
