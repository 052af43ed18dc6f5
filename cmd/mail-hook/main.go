// Package main is the entry point for the inbound mail webhook service.
package main

import (
	"context"
	"crypto/tls"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shineum/mail-hook-lite/internal/config"
	"github.com/shineum/mail-hook-lite/internal/httpserver"
	"github.com/shineum/mail-hook-lite/internal/ingest"
	"github.com/shineum/mail-hook-lite/internal/metrics"
	"github.com/shineum/mail-hook-lite/internal/storage"
	"github.com/shineum/mail-hook-lite/internal/storage/localdir"
	"github.com/shineum/mail-hook-lite/internal/storage/s3"
	"github.com/shineum/mail-hook-lite/internal/store"
	hooktls "github.com/shineum/mail-hook-lite/internal/tls"
	"github.com/shineum/mail-hook-lite/internal/webhook"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	flag.Parse()

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	setupLogger(cfg.Logging.Level)

	// Load or generate TLS certificates when HTTPS is enabled
	var tlsConfig *tls.Config
	tlsMode := "disabled"
	if cfg.TLS.Enabled {
		tlsConfig, err = hooktls.LoadOrGenerateTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile)
		if err != nil {
			slog.Error("failed to setup TLS", "error", err)
			os.Exit(1)
		}
		tlsMode = "self-signed"
		if cfg.TLS.CertFile != "" && cfg.TLS.KeyFile != "" {
			tlsMode = "file"
		}
	}

	// Select attachment content sink
	sink := selectSink(cfg)

	// Open the metadata store if a database path is configured
	var st *store.Store
	if cfg.Database.Path != "" {
		st, err = store.Open(cfg.Database.Path)
		if err != nil {
			slog.Error("failed to open metadata store", "error", err, "path", cfg.Database.Path)
			os.Exit(1)
		}
		slog.Info("metadata store opened", "path", cfg.Database.Path)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	pipeline := ingest.New(sink, st, m)
	verifier := webhook.NewVerifier(cfg.Webhook.Key, cfg.Webhook.URL)

	mux := http.NewServeMux()
	mux.Handle("/webhooks/inbound", webhook.NewHandler(verifier, pipeline, cfg.Server.MaxBodySize))
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := httpserver.New(httpserver.ServerConfig{
		ListenAddr: cfg.Server.Listen,
		Handler:    mux,
		TLSConfig:  tlsConfig,
	})

	slog.Info("starting mail-hook-lite",
		"listen", cfg.Server.Listen,
		"sink", sink.Name(),
		"signature_enabled", cfg.SignatureEnabled(),
		"persistence_enabled", st != nil,
		"tls_mode", tlsMode,
	)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		slog.Info("received signal, initiating shutdown", "signal", sig)
		cancel()
	}()

	// Start the server (blocks until context is cancelled)
	if err := server.ListenAndServe(ctx); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("mail-hook-lite stopped")
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// selectSink chooses the attachment content backend based on configuration.
// If STORAGE_PROVIDER is set, it takes precedence. Otherwise it falls back
// to auto-detection (S3 if configured, else local directory).
func selectSink(cfg *config.Config) storage.Sink {
	switch cfg.Storage.Provider {
	case "s3":
		if !cfg.S3Configured() {
			slog.Error("S3 sink selected but S3_REGION and S3_BUCKET are required")
			os.Exit(1)
		}
		slog.Info("using S3 sink",
			"region", cfg.Storage.S3.Region,
			"bucket", cfg.Storage.S3.Bucket,
		)
		s, err := s3.New(context.Background(), s3.SinkConfig{
			Region:          cfg.Storage.S3.Region,
			Bucket:          cfg.Storage.S3.Bucket,
			AccessKeyID:     cfg.Storage.S3.AccessKeyID,
			SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
		})
		if err != nil {
			slog.Error("failed to create S3 sink", "error", err)
			os.Exit(1)
		}
		return s

	case "localdir":
		slog.Info("using local directory sink", "dir", cfg.Storage.LocalDir)
		return localdir.New(cfg.Storage.LocalDir)

	case "":
		// Auto-detection fallback
		if cfg.S3Configured() {
			slog.Info("using S3 sink (auto-detected)",
				"region", cfg.Storage.S3.Region,
				"bucket", cfg.Storage.S3.Bucket,
			)
			s, err := s3.New(context.Background(), s3.SinkConfig{
				Region:          cfg.Storage.S3.Region,
				Bucket:          cfg.Storage.S3.Bucket,
				AccessKeyID:     cfg.Storage.S3.AccessKeyID,
				SecretAccessKey: cfg.Storage.S3.SecretAccessKey,
			})
			if err != nil {
				slog.Error("failed to create S3 sink", "error", err)
				os.Exit(1)
			}
			return s
		}
		slog.Info("no sink configured, using local directory sink", "dir", cfg.Storage.LocalDir)
		return localdir.New(cfg.Storage.LocalDir)

	default:
		slog.Error("unknown storage provider", "provider", cfg.Storage.Provider)
		os.Exit(1)
		return nil
	}
}
