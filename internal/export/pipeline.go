package export

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/walidouda/storybook-export/internal/engine"
)

// Pipeline turns an ordered set of page assets into one playable video.
// It owns a fresh engine scope for the duration of each Export call;
// nothing is shared between concurrent exports.
type Pipeline struct {
	eng       engine.Engine
	builder   *SegmentBuilder
	assembler *TimelineAssembler
	logger    *slog.Logger

	// maxEncodes bounds concurrent segment encodes within one export.
	// Every encode is an independent engine invocation over uniquely named
	// buffers, so the bound is about resource pressure, not correctness.
	maxEncodes int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMaxConcurrentEncodes sets the maximum number of segment encodes
// running in parallel. Values below 1 are ignored; 1 serializes encodes.
func WithMaxConcurrentEncodes(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxEncodes = n
		}
	}
}

// NewPipeline creates an export pipeline with pipeline-wide encode
// parameters. Invalid parameters are rejected here so a misconfigured
// pipeline never reaches the engine.
func NewPipeline(eng engine.Engine, params EncodeParams, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if logger == nil {
		logger = slog.Default()
	}

	builder, err := NewSegmentBuilder(params, logger)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		eng:        eng,
		builder:    builder,
		assembler:  NewTimelineAssembler(logger),
		logger:     logger,
		maxEncodes: 1,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Export runs the full pipeline: validate everything up front, stage the
// page-turn effect, encode one segment per page, concatenate in page order,
// and return the final video buffer. onProgress, if non-nil, is invoked
// after each finished segment encode with the completed and total counts.
//
// Any failure aborts the export. Intermediate segments live only inside the
// export's private scope and are released with it, so a failed export never
// leaks partial output to the caller.
func (p *Pipeline) Export(ctx context.Context, pages []PageAsset, timing TimingConfig, onProgress func(done, total int)) ([]byte, error) {
	if err := timing.Validate(); err != nil {
		return nil, err
	}
	if len(pages) == 0 {
		return nil, ErrNoPages
	}

	// Fail fast on every page before the first engine call.
	ordered, err := orderPages(pages)
	if err != nil {
		return nil, err
	}
	for _, page := range ordered {
		if err := page.Validate(); err != nil {
			return nil, err
		}
	}

	scope, err := p.eng.NewScope("export")
	if err != nil {
		return nil, fmt.Errorf("create engine scope: %w", err)
	}
	defer func() {
		if cerr := scope.Close(); cerr != nil {
			p.logger.Warn("failed to release engine scope",
				slog.String("error", cerr.Error()),
			)
		}
	}()

	// The effect is a shared constant, but scopes are private per export,
	// so it is staged into each scope anew.
	if err := scope.WriteBuffer(pageTurnName, PageTurnEffect()); err != nil {
		return nil, fmt.Errorf("stage page-turn effect: %w", err)
	}

	segments, err := p.encodeSegments(ctx, scope, ordered, timing, onProgress)
	if err != nil {
		return nil, err
	}

	name, err := p.assembler.Assemble(ctx, scope, segments)
	if err != nil {
		return nil, err
	}

	video, err := scope.ReadBuffer(name)
	if err != nil {
		return nil, fmt.Errorf("read final video: %w", err)
	}

	p.logger.Info("export assembled",
		slog.Int("pages", len(ordered)),
		slog.Int("video_bytes", len(video)),
	)

	return video, nil
}

// encodeSegments builds one segment per page, up to maxEncodes in parallel.
// Concatenation is the single join point: this returns only once every
// encode has finished, and fails with the lowest-indexed error so the
// outcome is deterministic regardless of scheduling.
func (p *Pipeline) encodeSegments(ctx context.Context, scope engine.Scope, pages []PageAsset, timing TimingConfig, onProgress func(done, total int)) ([]Segment, error) {
	total := len(pages)
	segments := make([]Segment, total)
	errs := make([]error, total)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		done int
	)
	sem := make(chan struct{}, p.maxEncodes)

	for i, page := range pages {
		wg.Add(1)
		go func(slot int, page PageAsset) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			seg, err := p.builder.BuildSegment(ctx, scope, page, timing)
			if err != nil {
				errs[slot] = err
				return
			}
			segments[slot] = seg

			mu.Lock()
			done++
			completed := done
			mu.Unlock()
			if onProgress != nil {
				onProgress(completed, total)
			}
		}(i, page)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return segments, nil
}

// orderPages arranges pages by index and rejects gaps and duplicates.
// Playback order is defined by the indices, not by slice position.
func orderPages(pages []PageAsset) ([]PageAsset, error) {
	ordered := make([]PageAsset, len(pages))
	seen := make([]bool, len(pages))
	for _, page := range pages {
		if page.Index < 0 || page.Index >= len(pages) {
			return nil, fmt.Errorf("%w: index %d outside 0..%d", ErrPageOrder, page.Index, len(pages)-1)
		}
		if seen[page.Index] {
			return nil, fmt.Errorf("%w: duplicate index %d", ErrPageOrder, page.Index)
		}
		seen[page.Index] = true
		ordered[page.Index] = page
	}
	return ordered, nil
}
