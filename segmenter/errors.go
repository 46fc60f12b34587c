package segmenter

import "errors"

var (
	// ErrInvalidUTF8 is returned when input bytes are not valid UTF-8.
	ErrInvalidUTF8 = errors.New("input is not valid UTF-8")

	// ErrCancelled is returned when the cancellation hook (or the context)
	// fires between chunk scans or combine steps. No partial output is
	// returned alongside it.
	ErrCancelled = errors.New("segmentation cancelled")
)
