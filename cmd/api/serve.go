// Package main is the schemascope command. It serves the graph console API
// and inspects graph documents from the command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/schemascope/core/cmd/api/middleware"
	"github.com/schemascope/core/internal/client"
	"github.com/schemascope/core/internal/config"
	"github.com/schemascope/core/internal/datasource"
	"github.com/schemascope/core/internal/detail"
	"github.com/schemascope/core/internal/engine"
	"github.com/schemascope/core/internal/handlers"
	"github.com/schemascope/core/internal/logging"
	"github.com/schemascope/core/internal/models"
	"github.com/schemascope/core/internal/progress"
	"github.com/schemascope/core/internal/render"
	"github.com/schemascope/core/internal/session"
	"github.com/schemascope/core/internal/telemetry"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the console API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.Telemetry.ServiceName,
	})
	slog.SetDefault(logger)

	shutdownTracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.Telemetry.Enabled,
		Exporter:    cfg.Telemetry.Exporter,
		Endpoint:    cfg.Telemetry.Endpoint,
		ServiceName: cfg.Telemetry.ServiceName,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	a := newApp(cfg, logger)
	defer a.close()
	a.watch(ctx)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// Streams and sockets end when their sessions and runs do.
	srv.RegisterOnShutdown(a.close)

	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Server.Addr, "datasource", cfg.DataSource.Kind, "discovery", cfg.Discovery.Mode)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// app holds the long-lived components behind the router.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	client   *client.Client
	file     *datasource.File
	sessions *session.Manager
	tracker  *progress.Tracker

	closeOnce sync.Once
}

func newApp(cfg *config.Config, logger *slog.Logger) *app {
	a := &app{
		cfg:    cfg,
		logger: logger,
		client: client.New(client.Config{
			OnboardingURL: cfg.Upstream.OnboardingURL,
			DiscoveryURL:  cfg.Upstream.DiscoveryURL,
			Timeout:       cfg.Upstream.Timeout.Duration,
		}, logger),
	}

	var source datasource.Source
	switch cfg.DataSource.Kind {
	case "file":
		a.file = datasource.NewFile(cfg.DataSource.Dir, cfg.DataSource.Debounce.Duration, logger)
		source = a.file
	case "static":
		static := datasource.NewStatic(nil)
		if cfg.DataSource.Sample {
			static = static.WithFallback(datasource.SampleGraph())
		}
		source = static
	default:
		env := cfg.DataSource.PasswordEnv
		source = datasource.NewRemote(a.client, models.DefaultGraphQuery(), func(string) string {
			return os.Getenv(env)
		})
	}

	var progressSource progress.Source
	switch cfg.Discovery.Mode {
	case "poll":
		progressSource = progress.NewPoller(a.client, cfg.Discovery.PollInterval.Duration, cfg.Discovery.MaxFailures, logger)
	default:
		sim := progress.NewSimulated()
		sim.Tick = cfg.Discovery.Tick.Duration
		progressSource = sim
	}
	a.tracker = progress.NewTracker(progressSource, logger)

	a.sessions = session.NewManager(render.NewAdapter(engine.Factory, logger), session.Options{
		Render:    cfg.Graph.Render(),
		Source:    source,
		Formatter: detail.NewFormatter(detail.ParseLanguage(cfg.Detail.Language)),
		Logger:    logger,
	}, cfg.Server.FrameBuffer)
	return a
}

func (a *app) router() *gin.Engine {
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(
		gin.Recovery(),
		otelgin.Middleware(a.cfg.Telemetry.ServiceName),
		middleware.RequestID(),
		middleware.AccessLog(a.logger),
		middleware.Cors(a.cfg.Server.AllowedOrigin),
	)

	h := handlers.New(handlers.Options{
		Sessions:      a.sessions,
		Tracker:       a.tracker,
		Connections:   a.client,
		AllowedOrigin: a.cfg.Server.AllowedOrigin,
		Logger:        a.logger,
	})
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterRoutes(router.Group("/api/v1"), h)
	return router
}

// watch reloads sessions when their graph file changes. It only runs for
// the file data source with watching enabled.
func (a *app) watch(ctx context.Context) {
	if a.file == nil || !a.cfg.DataSource.Watch {
		return
	}
	go func() {
		err := a.file.Watch(ctx, func(connectionID string) {
			a.sessions.Reload(ctx, connectionID)
		})
		if err != nil {
			a.logger.Error("graph directory watch stopped", "error", err)
		}
	}()
}

func (a *app) close() {
	a.closeOnce.Do(func() {
		a.tracker.Close()
		a.sessions.CloseAll()
	})
}
