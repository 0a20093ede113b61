// Command annotation-server serves an event-annotation project from a
// flat-file data directory over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Mohaimin66/event-annotation-tool/infrastructure/httpapi"
	"github.com/Mohaimin66/event-annotation-tool/infrastructure/middleware"
	"github.com/Mohaimin66/event-annotation-tool/infrastructure/storage"
	"github.com/Mohaimin66/event-annotation-tool/infrastructure/units"
	"github.com/Mohaimin66/event-annotation-tool/internal/application"
	"github.com/Mohaimin66/event-annotation-tool/internal/domain"
)

const version = "1.0.0"

var (
	listen     = flag.String("listen", "", "Listen address (overrides the config file)")
	dataDir    = flag.String("data", "", "Data directory (overrides DATA_DIR and the config file)")
	configPath = flag.String("config", "", "Optional YAML server config file")
)

func main() {
	flag.Parse()

	cfg, err := application.LoadServerConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load server config: %v", err)
	}

	// Precedence: flag > DATA_DIR env > config file > default.
	if env := os.Getenv("DATA_DIR"); env != "" {
		cfg.DataDir = env
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	store, err := storage.NewJSONStore(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open data directory %s: %v", cfg.DataDir, err)
	}

	// Probe the project files so a misconfigured deployment fails loudly
	// instead of serving errors for every request.
	if _, err := store.LoadProjectConfig(context.Background()); err != nil {
		if errors.Is(err, domain.ErrConfigMissing) {
			log.Printf("Warning: %s has no config.json yet; API requests will fail until it exists", cfg.DataDir)
		} else {
			log.Fatalf("Failed to read project config: %v", err)
		}
	}

	planner, err := units.NewSplitPlannerUnit("split_planner")
	if err != nil {
		log.Fatalf("Failed to create split planner: %v", err)
	}
	resolver, err := units.NewAssignmentResolverUnit("assignment_resolver")
	if err != nil {
		log.Fatalf("Failed to create assignment resolver: %v", err)
	}
	agreement, err := units.NewAgreementEngineUnit("agreement_engine")
	if err != nil {
		log.Fatalf("Failed to create agreement engine: %v", err)
	}
	merger, err := units.NewMergeResolverUnit("merge_resolver")
	if err != nil {
		log.Fatalf("Failed to create merge resolver: %v", err)
	}

	metrics := middleware.NewPrometheusMetrics()
	service, err := application.NewAnnotationService(store, planner, resolver, agreement, merger, metrics)
	if err != nil {
		log.Fatalf("Failed to create annotation service: %v", err)
	}

	sessions := httpapi.NewSessionManager(cfg.SessionTTL())
	server, err := httpapi.NewServer(service, store, sessions, metrics, httpapi.ServerOptions{
		Version:            version,
		LoginRatePerMinute: cfg.LoginRatePerMinute,
		LoginBurst:         cfg.LoginBurst,
	})
	if err != nil {
		log.Fatalf("Failed to create HTTP server: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("annotation server %s listening on %s (data dir %s)", version, cfg.Listen, cfg.DataDir)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for SIGINT/SIGTERM, then drain in-flight requests.
	<-ctx.Done()
	log.Println("shutting down HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
		if err := httpServer.Close(); err != nil {
			log.Printf("HTTP server force close error: %v", err)
		}
	}
	log.Println("shutdown complete")
}
