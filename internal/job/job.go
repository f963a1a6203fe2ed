// Package job provides the export job aggregate for managing storybook
// video exports, along with repository ports for persistence and the
// service that drives the pipeline.
package job

import (
	"errors"
	"sync"
	"time"

	"github.com/walidouda/storybook-export/internal/job/id"
)

// Status represents the current state of an export job.
type Status string

const (
	// StatusQueued indicates the export is waiting to start.
	StatusQueued Status = "QUEUED"
	// StatusRunning indicates the export pipeline is running.
	StatusRunning Status = "RUNNING"
	// StatusCompleted indicates the export finished and the video is available.
	StatusCompleted Status = "COMPLETED"
	// StatusFailed indicates the export aborted with an error.
	StatusFailed Status = "FAILED"
	// StatusCancelled indicates the export was cancelled before completion.
	StatusCancelled Status = "CANCELLED"
)

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("invalid state transition")

// validTransitions defines which state transitions are allowed.
var validTransitions = map[Status][]Status{
	StatusQueued:    {StatusRunning, StatusCancelled},
	StatusRunning:   {StatusCompleted, StatusFailed, StatusCancelled},
	StatusCompleted: {},
	StatusFailed:    {},
	StatusCancelled: {},
}

func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Job represents one storybook export request from submission to finished
// video. Page assets themselves are not kept on the job; they live only for
// the duration of the pipeline run.
type Job struct {
	mu sync.RWMutex

	// ID is the unique identifier for this export.
	ID string
	// Status is the current state.
	Status Status
	// Title is the story title used to derive the download filename.
	Title string
	// PageCount is the number of pages in the export.
	PageCount int
	// Progress is the percentage of completion (0-100).
	Progress int
	// Error contains the failure message if the export aborted.
	Error string
	// OutputPath is the local path of the finished video.
	OutputPath string
	// PublishToS3 indicates whether to upload the result to S3.
	PublishToS3 bool
	// VideoURL is the S3 URL if the video was published.
	VideoURL string
	// CreatedAt is when the export was requested.
	CreatedAt time.Time
	// UpdatedAt is when the job was last updated.
	UpdatedAt time.Time
	// StartedAt is when the pipeline started.
	StartedAt time.Time
	// CompletedAt is when the pipeline finished.
	CompletedAt time.Time
}

// New creates a new Job with a generated ID in QUEUED state.
func New() *Job {
	now := time.Now()
	return &Job{
		ID:        id.Generate(),
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewWithID creates a new Job with the specified ID in QUEUED state.
// Useful for testing or when the ID is generated externally.
func NewWithID(jobID string) *Job {
	now := time.Now()
	return &Job{
		ID:        jobID,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !canTransition(j.Status, status) {
		return ErrInvalidTransition
	}

	j.Status = status
	j.UpdatedAt = time.Now()

	switch status {
	case StatusRunning:
		j.StartedAt = j.UpdatedAt
	case StatusCompleted, StatusFailed, StatusCancelled:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// Start transitions the job from QUEUED to RUNNING.
func (j *Job) Start() error {
	return j.TransitionTo(StatusRunning)
}

// Complete transitions the job to COMPLETED.
func (j *Job) Complete() error {
	return j.TransitionTo(StatusCompleted)
}

// Fail transitions the job to FAILED with an error message.
func (j *Job) Fail(errMsg string) error {
	j.mu.Lock()
	j.Error = errMsg
	j.mu.Unlock()
	return j.TransitionTo(StatusFailed)
}

// Cancel transitions the job to CANCELLED.
func (j *Job) Cancel() error {
	return j.TransitionTo(StatusCancelled)
}

// GetStatus returns the current job status (thread-safe).
func (j *Job) GetStatus() Status {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status
}

// UpdateProgress sets the progress percentage, clamped to 0-100.
func (j *Job) UpdateProgress(progress int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	j.Progress = progress
	j.UpdatedAt = time.Now()
}

// SetOutput records the finished video's local path and optional S3 URL.
func (j *Job) SetOutput(outputPath, videoURL string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.OutputPath = outputPath
	j.VideoURL = videoURL
	j.UpdatedAt = time.Now()
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.Status == StatusCompleted ||
		j.Status == StatusFailed ||
		j.Status == StatusCancelled
}

// Clone creates a copy of the job for safe reads.
func (j *Job) Clone() *Job {
	j.mu.RLock()
	defer j.mu.RUnlock()

	return &Job{
		ID:          j.ID,
		Status:      j.Status,
		Title:       j.Title,
		PageCount:   j.PageCount,
		Progress:    j.Progress,
		Error:       j.Error,
		OutputPath:  j.OutputPath,
		PublishToS3: j.PublishToS3,
		VideoURL:    j.VideoURL,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		StartedAt:   j.StartedAt,
		CompletedAt: j.CompletedAt,
	}
}
