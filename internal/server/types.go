// Package server provides the HTTP server for the storybook export API.
// It includes handlers, middleware, routes, and DTOs separated from domain types.
package server

// PageRequest is one page of an export request.
type PageRequest struct {
	// ImageBase64 is the base64-encoded rendered page image.
	ImageBase64 string `json:"image_base64" validate:"required,base64"`
	// AudioBase64 is the base64-encoded page narration clip.
	AudioBase64 string `json:"audio_base64" validate:"required,base64"`
}

// CreateExportRequest is the HTTP request body for starting an export.
type CreateExportRequest struct {
	// Title is the story title; it drives the download filename.
	Title string `json:"title" validate:"max=200"`
	// HoldSeconds is the on-screen duration per page; 0 uses the server default.
	HoldSeconds float64 `json:"hold_seconds" validate:"omitempty,gt=0"`
	// FadeSeconds is the fade-out duration per page; 0 uses the server default.
	FadeSeconds float64 `json:"fade_seconds" validate:"omitempty,gte=0"`
	// PublishToS3 uploads the finished video to S3 when enabled.
	PublishToS3 bool `json:"publish_to_s3"`
	// Pages are the story pages in playback order.
	Pages []PageRequest `json:"pages" validate:"required,min=1,max=100,dive"`
}

// CreateExportResponse is the HTTP response after starting an export.
type CreateExportResponse struct {
	// ID is the unique identifier for the created export.
	ID string `json:"id"`
	// Status is the initial export status.
	Status string `json:"status"`
}

// ExportResponse is the HTTP response for polling an export.
type ExportResponse struct {
	// ID is the unique identifier for the export.
	ID string `json:"id"`
	// Status is the current export status.
	Status string `json:"status"`
	// Progress is the percentage of completion (0-100).
	Progress int `json:"progress"`
	// PageCount is the number of pages in the export.
	PageCount int `json:"page_count"`
	// Error contains the failure message if the export aborted.
	Error string `json:"error,omitempty"`
	// VideoURL is the S3 URL of the finished video (if published).
	VideoURL string `json:"video_url,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
}
