package job

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/walidouda/storybook-export/internal/export"
	"github.com/walidouda/storybook-export/internal/storage"
)

// ErrVideoNotReady is returned when a video download is requested for a job
// that has not completed.
var ErrVideoNotReady = errors.New("video not ready")

// PageInput carries the decoded media buffers for one page of an export
// request, in submission order.
type PageInput struct {
	// Image is the rendered page image.
	Image []byte
	// Audio is the page narration clip.
	Audio []byte
}

// ExportInput contains the parameters for one storybook export.
type ExportInput struct {
	// Title is the story title; it drives the download filename.
	Title string
	// HoldSeconds and FadeSeconds override the configured timing defaults
	// when positive; zero means "use the default".
	HoldSeconds float64
	FadeSeconds float64
	// PublishToS3 uploads the finished video to S3 in addition to local
	// retention.
	PublishToS3 bool
	// Pages are the page assets in playback order.
	Pages []PageInput
}

// Exporter is the port to the video assembly pipeline.
type Exporter interface {
	Export(ctx context.Context, pages []export.PageAsset, timing export.TimingConfig, onProgress func(done, total int)) ([]byte, error)
}

// Service orchestrates storybook exports: it tracks jobs, feeds page assets
// through the pipeline, stores the finished video, and optionally publishes
// it to S3.
type Service struct {
	repo     Repository
	pipeline Exporter
	store    storage.Storage
	logger   *slog.Logger

	// defaultTiming is applied when a request omits hold/fade.
	defaultTiming export.TimingConfig
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithDefaultTiming sets the timing applied when a request omits
// hold/fade values.
func WithDefaultTiming(timing export.TimingConfig) ServiceOption {
	return func(s *Service) {
		s.defaultTiming = timing
	}
}

// NewService creates a new export Service.
func NewService(repo Repository, pipeline Exporter, store storage.Storage, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:     repo,
		pipeline: pipeline,
		store:    store,
		logger:   logger,
		defaultTiming: export.TimingConfig{
			HoldSeconds: 6,
			FadeSeconds: 0.5,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateJob creates a new export job in QUEUED state and persists it.
// The resolved timing is validated here so a doomed request is rejected
// synchronously instead of failing in the background.
func (s *Service) CreateJob(ctx context.Context, input ExportInput) (*Job, error) {
	if err := s.timingFor(input).Validate(); err != nil {
		return nil, err
	}

	j := New()
	j.Title = input.Title
	j.PageCount = len(input.Pages)
	j.PublishToS3 = input.PublishToS3

	s.logger.Info("creating export job",
		slog.String("job_id", j.ID),
		slog.Int("pages", j.PageCount),
		slog.Bool("publish_to_s3", j.PublishToS3),
	)

	if err := s.repo.Save(ctx, j); err != nil {
		s.logger.Error("failed to save job",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	return j, nil
}

// GetJob retrieves a job by ID.
func (s *Service) GetJob(ctx context.Context, id string) (*Job, error) {
	return s.repo.FindByID(ctx, id)
}

// ProcessExistingJob runs the export pipeline for a previously created job.
// Any pipeline failure marks the job FAILED with the pipeline's diagnostic;
// no partial video is ever attached to the job.
func (s *Service) ProcessExistingJob(ctx context.Context, jobID string, input ExportInput) error {
	j, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return err
	}

	if err := j.Start(); err != nil {
		return fmt.Errorf("start job %s: %w", jobID, err)
	}
	if err := s.repo.Save(ctx, j); err != nil {
		return err
	}

	pages := make([]export.PageAsset, len(input.Pages))
	for i, page := range input.Pages {
		pages[i] = export.PageAsset{
			Index: i,
			Image: page.Image,
			Audio: page.Audio,
		}
	}

	timing := s.timingFor(input)

	// Encoding is the bulk of the work; reserve the last slice of the
	// progress bar for storage and publication.
	onProgress := func(done, total int) {
		j.UpdateProgress(done * 90 / total)
		if err := s.repo.Save(ctx, j); err != nil {
			s.logger.Warn("failed to persist progress",
				slog.String("job_id", jobID),
				slog.String("error", err.Error()),
			)
		}
	}

	video, err := s.pipeline.Export(ctx, pages, timing, onProgress)
	if err != nil {
		s.failJob(ctx, j, err)
		return err
	}

	path, err := s.store.SaveVideo(ctx, jobID+".mp4", bytes.NewReader(video))
	if err != nil {
		s.failJob(ctx, j, fmt.Errorf("store video: %w", err))
		return err
	}

	var videoURL string
	if j.PublishToS3 {
		key := fmt.Sprintf("exports/%s/%s", jobID, export.OutputFilename(j.Title))
		videoURL, err = s.store.Publish(ctx, key, bytes.NewReader(video))
		if err != nil {
			s.failJob(ctx, j, fmt.Errorf("publish video: %w", err))
			return err
		}
	}

	j.SetOutput(path, videoURL)
	j.UpdateProgress(100)
	if err := j.Complete(); err != nil {
		return fmt.Errorf("complete job %s: %w", jobID, err)
	}
	if err := s.repo.Save(ctx, j); err != nil {
		return err
	}

	s.logger.Info("export completed",
		slog.String("job_id", jobID),
		slog.String("output_path", path),
		slog.Int("video_bytes", len(video)),
	)

	return nil
}

// OpenVideo opens the finished video of a completed job for streaming and
// returns the download filename derived from the story title.
func (s *Service) OpenVideo(ctx context.Context, jobID string) (io.ReadCloser, string, error) {
	j, err := s.repo.FindByID(ctx, jobID)
	if err != nil {
		return nil, "", err
	}

	if j.Status != StatusCompleted || j.OutputPath == "" {
		return nil, "", fmt.Errorf("%w: job %s is %s", ErrVideoNotReady, jobID, j.Status)
	}

	rc, err := s.store.OpenVideo(ctx, j.OutputPath)
	if err != nil {
		return nil, "", err
	}

	return rc, export.OutputFilename(j.Title), nil
}

// timingFor resolves the effective timing for a request, falling back to
// the service defaults when values are omitted.
func (s *Service) timingFor(input ExportInput) export.TimingConfig {
	timing := s.defaultTiming
	if input.HoldSeconds > 0 {
		timing.HoldSeconds = input.HoldSeconds
	}
	if input.FadeSeconds > 0 {
		timing.FadeSeconds = input.FadeSeconds
	}
	return timing
}

// failJob marks the job FAILED, preserving the pipeline diagnostic for the
// caller.
func (s *Service) failJob(ctx context.Context, j *Job, cause error) {
	s.logger.Error("export failed",
		slog.String("job_id", j.ID),
		slog.String("error", cause.Error()),
	)
	if err := j.Fail(cause.Error()); err != nil {
		s.logger.Warn("failed to mark job as failed",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.repo.Save(ctx, j); err != nil {
		s.logger.Warn("failed to persist failed job",
			slog.String("job_id", j.ID),
			slog.String("error", err.Error()),
		)
	}
}
