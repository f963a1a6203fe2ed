// Package bootstrap provides dependency initialization for the storybook
// export service.
package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/walidouda/storybook-export/internal/config"
	"github.com/walidouda/storybook-export/internal/engine"
	"github.com/walidouda/storybook-export/internal/export"
	"github.com/walidouda/storybook-export/internal/job"
	"github.com/walidouda/storybook-export/internal/storage"
)

// Dependencies holds all initialized dependencies for the HTTP server.
type Dependencies struct {
	ExportService *job.Service
}

// NewDependencies creates and initializes all dependencies for the application.
func NewDependencies(cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	// Initialize storage
	store, err := initStorage(cfg, logger)
	if err != nil {
		return nil, err
	}

	// Initialize transcoding engine and export pipeline
	eng := engine.NewFFmpegEngine(cfg.FFmpegPath, cfg.TempDir)

	pipeline, err := export.NewPipeline(
		eng,
		export.EncodeParams{
			Width:  cfg.VideoWidth,
			Height: cfg.VideoHeight,
			FPS:    cfg.VideoFPS,
		},
		logger,
		export.WithMaxConcurrentEncodes(cfg.MaxConcurrentEncodes),
	)
	if err != nil {
		return nil, fmt.Errorf("create export pipeline: %w", err)
	}

	// Initialize job repository and export service
	repo := job.NewMemoryRepository()

	svc := job.NewService(
		repo,
		pipeline,
		store,
		logger,
		job.WithDefaultTiming(export.TimingConfig{
			HoldSeconds: cfg.HoldSeconds,
			FadeSeconds: cfg.FadeSeconds,
		}),
	)

	return &Dependencies{
		ExportService: svc,
	}, nil
}

// initStorage creates the appropriate storage backend based on configuration.
func initStorage(cfg *config.Config, logger *slog.Logger) (storage.Storage, error) {
	if cfg.S3Enabled() {
		s3Cfg := storage.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		}
		s3Store, err := storage.NewS3Storage(cfg.TempDir, s3Cfg)
		if err != nil {
			return nil, fmt.Errorf("create S3 storage: %w", err)
		}
		logger.Info("S3 storage configured",
			slog.String("bucket", cfg.S3Bucket),
			slog.String("region", cfg.S3Region),
		)
		return s3Store, nil
	}

	localStore, err := storage.NewLocalStorage(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}
	logger.Info("local storage configured",
		slog.String("dir", cfg.TempDir),
	)
	return localStore, nil
}
