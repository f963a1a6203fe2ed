// Package export implements the narrated-video assembly pipeline: per-page
// video segments (still image + narration + page-turn effect) concatenated
// into one playable storybook video.
package export

import (
	"fmt"
)

// PageAsset holds the rendered media for one story page. Assets are created
// once per export request, are immutable during it, and are discarded with
// the export's engine scope.
type PageAsset struct {
	// Index is the 0-based playback position. Indices must be contiguous
	// and unique across the page set.
	Index int
	// Image is the still-image buffer shown for the whole segment.
	Image []byte
	// Audio is the narration buffer. It may be silent but must be present.
	Audio []byte
}

// Validate checks that the asset can be encoded.
// A missing or empty buffer is an error, not a skippable page.
func (p PageAsset) Validate() error {
	if p.Index < 0 {
		return fmt.Errorf("%w: negative index %d", ErrInvalidPageAsset, p.Index)
	}
	if len(p.Image) == 0 {
		return fmt.Errorf("%w: page %d: empty image", ErrInvalidPageAsset, p.Index)
	}
	if len(p.Audio) == 0 {
		return fmt.Errorf("%w: page %d: empty audio", ErrInvalidPageAsset, p.Index)
	}
	return nil
}

// TimingConfig controls how long each page stays on screen and how it
// transitions to the next one.
type TimingConfig struct {
	// HoldSeconds is the total on-screen duration of a page's visual segment.
	HoldSeconds float64
	// FadeSeconds is the duration of the visual fade-out. The fade and the
	// page-turn effect both start at HoldSeconds - FadeSeconds.
	FadeSeconds float64
}

// Validate enforces HoldSeconds > 0 and 0 <= FadeSeconds < HoldSeconds,
// which keeps the fade start time non-negative.
func (t TimingConfig) Validate() error {
	if t.HoldSeconds <= 0 {
		return fmt.Errorf("%w: hold must be positive, got %.3f", ErrInvalidTimingConfig, t.HoldSeconds)
	}
	if t.FadeSeconds < 0 || t.FadeSeconds >= t.HoldSeconds {
		return fmt.Errorf("%w: fade must satisfy 0 <= fade < hold, got fade=%.3f hold=%.3f",
			ErrInvalidTimingConfig, t.FadeSeconds, t.HoldSeconds)
	}
	return nil
}

// FadeStart returns the offset at which the fade-out and the page-turn
// effect begin.
func (t TimingConfig) FadeStart() float64 {
	return t.HoldSeconds - t.FadeSeconds
}

// EncodeParams pins codec parameters for every segment of an export.
// All segments must share them so the final concatenation can stream-copy.
type EncodeParams struct {
	// Width and Height are the output resolution. Page images are scaled to
	// fit and padded with black.
	Width  int
	Height int
	// FPS is the output frame rate.
	FPS int
}

// Validate rejects unusable encode parameters before any engine call.
func (p EncodeParams) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: dimensions %dx%d", ErrInvalidEncodeParams, p.Width, p.Height)
	}
	if p.FPS <= 0 {
		return fmt.Errorf("%w: fps %d", ErrInvalidEncodeParams, p.FPS)
	}
	return nil
}

// Segment is one encoded per-page video, stored in the export's engine scope.
type Segment struct {
	// PageIndex is the index of the PageAsset the segment was built from.
	PageIndex int
	// Name is the segment's buffer name inside the engine scope.
	Name string
}

// Buffer names inside an export's engine scope. One scope serves exactly one
// export, so the names only need to be unique per page within it.
const (
	pageTurnName = "page_turn.wav"
	manifestName = "timeline.txt"
	finalName    = "storybook.mp4"
)

func segmentName(index int) string {
	return fmt.Sprintf("segment_%03d.mp4", index)
}

// The extensions are container hints for ffmpeg's demuxer selection; the
// actual codec is probed from the buffer content.
func pageImageName(index int) string {
	return fmt.Sprintf("page_%03d.png", index)
}

func pageAudioName(index int) string {
	return fmt.Sprintf("page_%03d.mp3", index)
}
