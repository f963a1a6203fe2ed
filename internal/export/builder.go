package export

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/walidouda/storybook-export/internal/engine"
)

// SegmentBuilder produces exactly one encoded video segment per page. The
// visual track holds the page image for the configured duration with a
// fade-out at the end; the audio track mixes the narration with the
// page-turn effect delayed to the fade start.
//
// Encode parameters are fixed at construction so every segment of an export
// shares codec, resolution and frame rate, which the final stream-copy
// concatenation requires.
type SegmentBuilder struct {
	params EncodeParams
	logger *slog.Logger
}

// NewSegmentBuilder creates a SegmentBuilder. Unusable encode parameters are
// rejected here, before any engine invocation.
func NewSegmentBuilder(params EncodeParams, logger *slog.Logger) (*SegmentBuilder, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SegmentBuilder{params: params, logger: logger}, nil
}

// BuildSegment encodes one page into a video segment inside the given scope.
// The page-turn effect must already be staged in the scope under its shared
// buffer name; BuildSegment stages only the page's own buffers and touches
// no other page's entries.
//
// Invalid input fails before the engine is invoked. An engine failure is
// reported as *SegmentEncodeError carrying the page index and aborts the
// export; a linear narrative has no meaningful "skip a page" semantics.
func (b *SegmentBuilder) BuildSegment(ctx context.Context, scope engine.Scope, page PageAsset, timing TimingConfig) (Segment, error) {
	if err := timing.Validate(); err != nil {
		return Segment{}, err
	}
	if err := page.Validate(); err != nil {
		return Segment{}, err
	}

	imageName := pageImageName(page.Index)
	audioName := pageAudioName(page.Index)

	if err := scope.WriteBuffer(imageName, page.Image); err != nil {
		return Segment{}, fmt.Errorf("stage page %d image: %w", page.Index, err)
	}
	if err := scope.WriteBuffer(audioName, page.Audio); err != nil {
		return Segment{}, fmt.Errorf("stage page %d audio: %w", page.Index, err)
	}

	output := segmentName(page.Index)
	args := b.encodeArgs(imageName, audioName, output, timing)

	b.logger.Debug("encoding segment",
		slog.Int("page", page.Index),
		slog.Float64("hold_seconds", timing.HoldSeconds),
		slog.Float64("fade_start", timing.FadeStart()),
	)

	if err := scope.Run(ctx, args...); err != nil {
		return Segment{}, &SegmentEncodeError{PageIndex: page.Index, Err: err}
	}

	return Segment{PageIndex: page.Index, Name: output}, nil
}

// encodeArgs builds the ffmpeg invocation for one segment.
//
// Visual: the image is looped for HoldSeconds, scaled to the pipeline
// resolution with black padding, and faded out starting at FadeStart.
// Audio: the page-turn effect is delayed by FadeStart (adelay takes
// milliseconds) and mixed with the narration; amix uses duration=shortest,
// so the produced audio is never padded beyond the track that finishes
// first. The output is capped at HoldSeconds so every segment has the same
// visual length regardless of narration length.
func (b *SegmentBuilder) encodeArgs(imageName, audioName, output string, timing TimingConfig) []string {
	hold := fmt.Sprintf("%.3f", timing.HoldSeconds)
	delayMs := int(math.Round(timing.FadeStart() * 1000))

	videoChain := fmt.Sprintf(
		"[0:v]scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black,fps=%d,format=yuv420p",
		b.params.Width, b.params.Height,
		b.params.Width, b.params.Height,
		b.params.FPS,
	)
	if timing.FadeSeconds > 0 {
		videoChain += fmt.Sprintf(",fade=t=out:st=%.3f:d=%.3f", timing.FadeStart(), timing.FadeSeconds)
	}

	filter := fmt.Sprintf(
		"%s[v];[2:a]adelay=%d|%d[turn];[1:a][turn]amix=inputs=2:duration=shortest[mix]",
		videoChain, delayMs, delayMs,
	)

	return []string{
		"-y", // Overwrite output buffer without asking
		"-loop", "1", "-t", hold, "-i", imageName, // Input 0: looped still image
		"-i", audioName, // Input 1: narration
		"-i", pageTurnName, // Input 2: page-turn effect
		"-filter_complex", filter,
		"-map", "[v]", "-map", "[mix]",
		"-c:v", "libx264", // Video codec, shared by all segments
		"-preset", "fast",
		"-tune", "stillimage",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "192k",
		"-ar", "44100", // Uniform sample rate keeps segments concat-compatible
		"-t", hold, // Visual length equals the hold duration exactly
		output,
	}
}
