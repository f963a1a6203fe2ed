package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/walidouda/storybook-export/internal/engine"
)

// TimelineAssembler concatenates encoded segments, in page order, into the
// final storybook video.
type TimelineAssembler struct {
	logger *slog.Logger
}

// NewTimelineAssembler creates a TimelineAssembler.
func NewTimelineAssembler(logger *slog.Logger) *TimelineAssembler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TimelineAssembler{logger: logger}
}

// Assemble joins the segments into one video inside the scope and returns
// the name of the resulting buffer.
//
// Segments must be ordered strictly by ascending page index with no gaps,
// starting at 0. A single segment bypasses concatenation entirely and is
// returned as the final video. Two or more segments are stream-copied
// through ffmpeg's concat demuxer; no re-encoding happens here, which is
// why the builder pins codec parameters pipeline-wide.
func (a *TimelineAssembler) Assemble(ctx context.Context, scope engine.Scope, segments []Segment) (string, error) {
	if len(segments) == 0 {
		return "", fmt.Errorf("%w: no segments", ErrSegmentOrder)
	}
	for i, seg := range segments {
		if seg.PageIndex != i {
			return "", fmt.Errorf("%w: position %d holds page %d", ErrSegmentOrder, i, seg.PageIndex)
		}
	}

	// Degenerate case: one page needs no concatenation.
	if len(segments) == 1 {
		a.logger.Debug("single segment, skipping concatenation",
			slog.String("segment", segments[0].Name),
		)
		return segments[0].Name, nil
	}

	manifest := buildManifest(segments)
	if err := scope.WriteBuffer(manifestName, []byte(manifest)); err != nil {
		return "", fmt.Errorf("stage manifest: %w", err)
	}

	args := []string{
		"-y",
		"-f", "concat", // Use concat demuxer
		"-safe", "0",
		"-i", manifestName,
		"-c", "copy", // Stream copy, no re-encoding
		finalName,
	}

	a.logger.Debug("concatenating segments",
		slog.Int("count", len(segments)),
	)

	if err := scope.Run(ctx, args...); err != nil {
		return "", fmt.Errorf("%w: %w", ErrConcatenationFailed, err)
	}

	return finalName, nil
}

// buildManifest renders the concat demuxer file list: one line per segment,
// in order, no blank lines.
func buildManifest(segments []Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		// Buffer names never contain quotes; see engine name validation.
		fmt.Fprintf(&sb, "file '%s'\n", seg.Name)
	}
	return sb.String()
}
