// Command segsvg serves POST /segment-svg: an uploaded image is segmented by
// the inference sidecar and returned as an SVG outline document.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/askiada/go-segsvg/internal/config"
	"github.com/askiada/go-segsvg/internal/inference"
	"github.com/askiada/go-segsvg/internal/provision"
	"github.com/askiada/go-segsvg/internal/server"
	"github.com/askiada/go-segsvg/pkg/vectorize"
)

const readyPollInterval = 2 * time.Second

// newLogger returns a JSON logger writing to w at the configured level.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	lvl, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg, os.Stdout)
	if err != nil {
		slog.Error("logger", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	vec, err := vectorize.New(cfg.Vectorize, vectorize.WithLogger(logger))
	if err != nil {
		slog.Error("vectorizer", "error", err)
		os.Exit(1)
	}

	if cfg.Debug.GraphDir != "" {
		err = os.MkdirAll(cfg.Debug.GraphDir, 0o755)
		if err != nil {
			slog.Error("graph dir", "error", err)
			os.Exit(1)
		}
	}

	svc := server.New(vec,
		server.WithMaxUploadBytes(cfg.MaxUploadBytes()),
		server.WithAllowOrigins(cfg.AllowOrigins),
		server.WithGraphDir(cfg.Debug.GraphDir),
		server.WithLogger(logger),
	)

	go loadModel(ctx, cfg, svc)

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           svc,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Inference.Timeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.Listen)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}

	slog.Info("server stopped")
}

// loadModel provisions the weights, waits for the sidecar and hands the
// segmenter to the server. Until then /segment-svg answers 503.
func loadModel(ctx context.Context, cfg *config.Config, svc *server.Server) {
	dlCtx, dlCancel := context.WithTimeout(ctx, cfg.Model.DownloadTimeout)
	defer dlCancel()

	err := provision.EnsureModel(dlCtx, &http.Client{}, cfg.Model.Path, cfg.Model.URL)
	if err != nil {
		slog.Error("model provisioning failed, segmentation stays unavailable", "path", cfg.Model.Path, "error", err)

		return
	}

	remote := inference.NewRemote(cfg.Inference.URL, cfg.Model.Path,
		inference.WithHTTPClient(&http.Client{Timeout: cfg.Inference.Timeout}),
		inference.WithMinConfidence(cfg.Inference.MinConfidence),
		inference.WithLogger(slog.Default()),
	)

	ticker := time.NewTicker(readyPollInterval)
	defer ticker.Stop()

	for {
		err := remote.Ready(ctx)
		if err == nil {
			break
		}

		slog.Debug("inference sidecar not ready", "url", cfg.Inference.URL, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}

	svc.SetSegmenter(remote)
	slog.Info("model ready", "path", cfg.Model.Path, "inference_url", cfg.Inference.URL)
}
