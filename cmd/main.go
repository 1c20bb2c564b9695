package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/snapjudge/internal/adapters/catalog"
	"github.com/okian/snapjudge/internal/adapters/http/api"
	service "github.com/okian/snapjudge/internal/app"
	"github.com/okian/snapjudge/internal/config"
	"github.com/okian/snapjudge/internal/domain/model"
	"github.com/okian/snapjudge/internal/domain/rating"
	"github.com/okian/snapjudge/pkg/logger"
	"github.com/okian/snapjudge/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Event and photo data comes from the event service in production; the
	// standalone binary runs against a seeded in-memory catalog.
	cat := seedCatalog()

	// Create and start the service with configuration options
	engine := rating.NewEngine(
		rating.WithInitialScore(cfg.InitialScore),
		rating.WithInitialUncertainty(cfg.InitialUncertainty),
		rating.WithKFactorRange(cfg.InitialKFactor, cfg.MinKFactor),
		rating.WithUncertaintyDecay(cfg.UncertaintyDecay, cfg.UncertaintyFloor),
		rating.WithBootstrapThreshold(cfg.BootstrapThreshold),
		rating.WithStability(cfg.UncertaintyThreshold, cfg.MaxComparisonCount),
	)
	svc := service.New(cat, cat,
		service.WithLogger(loggerInstance),
		service.WithRatingEngine(engine),
		service.WithShardCount(cfg.ShardCount),
		service.WithSessionLimit(cfg.SessionLimit),
		service.WithExplorationRate(cfg.ExplorationRate),
		service.WithRecencyWindow(time.Duration(cfg.RecencyWindowHours)*time.Hour),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx, time.Duration(cfg.StatsRefreshSeconds)*time.Second)

	// Start service metrics updater
	go startServiceMetricsUpdater(ctx, svc)

	// HTTP mux and routes.
	mux := http.NewServeMux()

	// Register business API routes with the service dependency.
	apiServer := api.NewServer(svc, svc, cfg.MaxLeaderboardLimit)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		loggerInstance.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// seedCatalog builds the demo event used when the binary runs standalone.
func seedCatalog() *catalog.InMemory {
	cat := catalog.NewInMemory()
	cat.PutEvent(model.Event{
		ID:        "demo-event",
		Status:    model.StatusRanking,
		MemberIDs: []string{"alice", "bob", "carol", "dave"},
	})
	cat.AddPhoto(model.Photo{ID: "photo-1", EventID: "demo-event", UploadedBy: "alice", FilePath: "photos/photo-1.jpg", Caption: "Sunrise hike"})
	cat.AddPhoto(model.Photo{ID: "photo-2", EventID: "demo-event", UploadedBy: "bob", FilePath: "photos/photo-2.jpg", Caption: "Campfire"})
	cat.AddPhoto(model.Photo{ID: "photo-3", EventID: "demo-event", UploadedBy: "carol", FilePath: "photos/photo-3.jpg", Caption: "Group jump"})
	cat.AddPhoto(model.Photo{ID: "photo-4", EventID: "demo-event", UploadedBy: "dave", FilePath: "photos/photo-4.jpg", Caption: "Lake at dusk"})
	return cat
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = systemMetricsInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// GetStats refreshes the store gauges as a side effect.
			_ = svc.GetStats()
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
