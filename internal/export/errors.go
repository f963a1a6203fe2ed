package export

import (
	"errors"
	"fmt"
)

// Static errors for the export pipeline. Every failure aborts the whole
// export; there is no partial-success mode and no per-page skip.
var (
	// ErrInvalidPageAsset is returned when a page is missing its image or
	// narration buffer.
	ErrInvalidPageAsset = errors.New("invalid page asset")
	// ErrInvalidTimingConfig is returned when hold/fade durations violate
	// 0 <= fade < hold or hold <= 0.
	ErrInvalidTimingConfig = errors.New("invalid timing config")
	// ErrInvalidEncodeParams is returned when pipeline-wide codec parameters
	// are unusable.
	ErrInvalidEncodeParams = errors.New("invalid encode params")
	// ErrNoPages is returned when an export is requested with zero pages.
	ErrNoPages = errors.New("no pages to export")
	// ErrPageOrder is returned when page indices are not contiguous and
	// unique starting at 0.
	ErrPageOrder = errors.New("page indices must be contiguous and unique")
	// ErrSegmentOrder is returned when segments handed to the assembler are
	// not in ascending page order without gaps.
	ErrSegmentOrder = errors.New("segments out of order")
	// ErrConcatenationFailed is returned when the final concatenation step fails.
	ErrConcatenationFailed = errors.New("concatenation failed")
)

// SegmentEncodeError reports an engine failure while encoding one page's
// segment. It carries the page index so callers can tell which page broke
// the export, and wraps the engine diagnostic.
type SegmentEncodeError struct {
	PageIndex int
	Err       error
}

func (e *SegmentEncodeError) Error() string {
	return fmt.Sprintf("encode segment for page %d: %v", e.PageIndex, e.Err)
}

func (e *SegmentEncodeError) Unwrap() error {
	return e.Err
}
