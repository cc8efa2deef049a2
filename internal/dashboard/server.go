// Package dashboard serves the Chargeyard JSON API, printable Gantt pages,
// health checks and Prometheus metrics over gin.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/chargeyard/internal/auth"
	"github.com/zulandar/chargeyard/internal/config"
	"github.com/zulandar/chargeyard/internal/notify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	DB     *gorm.DB
	Auth   *auth.Service
	Logger *zap.Logger
	Port   int
	Out    io.Writer
	Gantt  config.GanttConfig

	// SessionTimeout bounds the initial profile load of an event stream.
	SessionTimeout time.Duration

	// Notify receives permit, utility and progress status changes.
	Notify *notify.Dispatcher

	// Purge, when set, deletes expired token revocations on PurgeSchedule.
	Purge         *auth.DBRevoker
	PurgeSchedule string
}

// server carries the dependencies shared by all handlers.
type server struct {
	db     *gorm.DB
	auth   *auth.Service
	log    *zap.Logger
	gantt  config.GanttConfig
	notify *notify.Dispatcher

	sessionTimeout time.Duration
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(opts StartOpts) (*gin.Engine, error) {
	if opts.DB == nil {
		return nil, fmt.Errorf("dashboard: db is required")
	}
	if opts.Auth == nil {
		return nil, fmt.Errorf("dashboard: auth service is required")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &server{
		db:             opts.DB,
		auth:           opts.Auth,
		log:            opts.Logger,
		gantt:          opts.Gantt,
		notify:         opts.Notify,
		sessionTimeout: opts.SessionTimeout,
	}

	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(s.log), observeDuration())
	registerRoutes(router, s)
	return router, nil
}

// Start launches the dashboard HTTP server. It blocks until ctx is cancelled,
// then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Port <= 0 {
		opts.Port = 8080
	}
	gin.SetMode(gin.ReleaseMode)
	router, err := NewRouter(opts)
	if err != nil {
		return err
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	if opts.Purge != nil && opts.PurgeSchedule != "" {
		go func() {
			if err := auth.RunPurge(ctx, opts.Purge, opts.PurgeSchedule, log); err != nil {
				log.Error("revocation purge stopped", zap.Error(err))
			}
		}()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown on context cancellation.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("dashboard listening", zap.Int("port", opts.Port))
	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Dashboard running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
