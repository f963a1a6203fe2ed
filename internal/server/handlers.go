package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/walidouda/storybook-export/internal/export"
	"github.com/walidouda/storybook-export/internal/job"
)

// ExportService is the port the handlers use to drive exports.
type ExportService interface {
	CreateJob(ctx context.Context, input job.ExportInput) (*job.Job, error)
	ProcessExistingJob(ctx context.Context, jobID string, input job.ExportInput) error
	GetJob(ctx context.Context, id string) (*job.Job, error)
	OpenVideo(ctx context.Context, jobID string) (io.ReadCloser, string, error)
}

// Handlers contains the HTTP handlers for the API.
type Handlers struct {
	service            ExportService
	validator          *validator.Validate
	logger             *slog.Logger
	enableAsyncProcess bool
}

// HandlerOption is a function that configures a Handlers instance.
type HandlerOption func(*Handlers)

// WithAsyncProcessing enables or disables background processing.
// When disabled, CreateExport only creates the job and returns immediately
// without starting the pipeline; useful in tests.
func WithAsyncProcessing(enabled bool) HandlerOption {
	return func(h *Handlers) {
		h.enableAsyncProcess = enabled
	}
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service ExportService, logger *slog.Logger, opts ...HandlerOption) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handlers{
		service:            service,
		validator:          validator.New(),
		logger:             logger,
		enableAsyncProcess: true, // Default to enabled
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Health handles GET /health requests.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateExport handles POST /exports requests.
func (h *Handlers) CreateExport(w http.ResponseWriter, r *http.Request) {
	var req CreateExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to decode request body",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, "invalid JSON body", "INVALID_JSON")
		return
	}

	// Validate request
	if err := h.validator.Struct(req); err != nil {
		h.logger.Warn("request validation failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadRequest, err.Error(), "VALIDATION_ERROR")
		return
	}

	input, err := toExportInput(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_PAGE_DATA")
		return
	}

	// Create job first (synchronously); timing is validated here so a bad
	// hold/fade pair is rejected before anything runs.
	createdJob, err := h.service.CreateJob(r.Context(), input)
	if err != nil {
		if errors.Is(err, export.ErrInvalidTimingConfig) {
			writeError(w, http.StatusBadRequest, err.Error(), "INVALID_TIMING")
			return
		}
		h.logger.Error("failed to create export job",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to create export", "EXPORT_CREATION_FAILED")
		return
	}

	// Start processing in background with a detached context
	// Use context.WithoutCancel to prevent cancellation when the request ends
	if h.enableAsyncProcess {
		go func(ctx context.Context, jobID string, inp job.ExportInput) {
			if processErr := h.service.ProcessExistingJob(ctx, jobID, inp); processErr != nil {
				h.logger.Error("background export failed",
					slog.String("job_id", jobID),
					slog.String("error", processErr.Error()),
				)
			}
		}(context.WithoutCancel(r.Context()), createdJob.ID, input)
	}

	h.logger.Info("export accepted",
		slog.String("job_id", createdJob.ID),
		slog.Int("pages", len(req.Pages)),
	)

	writeJSON(w, http.StatusAccepted, CreateExportResponse{
		ID:     createdJob.ID,
		Status: string(createdJob.Status),
	})
}

// GetExport handles GET /exports/{id} requests.
func (h *Handlers) GetExport(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "export ID is required", "MISSING_EXPORT_ID")
		return
	}

	foundJob, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			writeError(w, http.StatusNotFound, "export not found", "EXPORT_NOT_FOUND")
			return
		}
		h.logger.Error("failed to get export",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get export", "EXPORT_FETCH_FAILED")
		return
	}

	writeJSON(w, http.StatusOK, ExportResponse{
		ID:        foundJob.ID,
		Status:    string(foundJob.Status),
		Progress:  foundJob.Progress,
		PageCount: foundJob.PageCount,
		Error:     foundJob.Error,
		VideoURL:  foundJob.VideoURL,
	})
}

// DownloadVideo handles GET /exports/{id}/video requests, streaming the
// finished video with a download filename derived from the story title.
func (h *Handlers) DownloadVideo(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "export ID is required", "MISSING_EXPORT_ID")
		return
	}

	video, filename, err := h.service.OpenVideo(r.Context(), jobID)
	if err != nil {
		switch {
		case errors.Is(err, job.ErrJobNotFound):
			writeError(w, http.StatusNotFound, "export not found", "EXPORT_NOT_FOUND")
		case errors.Is(err, job.ErrVideoNotReady):
			writeError(w, http.StatusConflict, "video not ready", "VIDEO_NOT_READY")
		default:
			h.logger.Error("failed to open video",
				slog.String("job_id", jobID),
				slog.String("error", err.Error()),
			)
			writeError(w, http.StatusInternalServerError, "failed to open video", "VIDEO_OPEN_FAILED")
		}
		return
	}
	defer func() { _ = video.Close() }()

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, video); err != nil {
		h.logger.Warn("video stream interrupted",
			slog.String("job_id", jobID),
			slog.String("error", err.Error()),
		)
	}
}

// toExportInput decodes the base64 page payloads into an ExportInput.
func toExportInput(req CreateExportRequest) (job.ExportInput, error) {
	pages := make([]job.PageInput, len(req.Pages))
	for i, page := range req.Pages {
		image, err := base64.StdEncoding.DecodeString(page.ImageBase64)
		if err != nil {
			return job.ExportInput{}, fmt.Errorf("page %d: decode image: %w", i, err)
		}
		audio, err := base64.StdEncoding.DecodeString(page.AudioBase64)
		if err != nil {
			return job.ExportInput{}, fmt.Errorf("page %d: decode audio: %w", i, err)
		}
		pages[i] = job.PageInput{Image: image, Audio: audio}
	}

	return job.ExportInput{
		Title:       req.Title,
		HoldSeconds: req.HoldSeconds,
		FadeSeconds: req.FadeSeconds,
		PublishToS3: req.PublishToS3,
		Pages:       pages,
	}, nil
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
	}
}

// writeError writes an error response in the standard format.
func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}
