package port

import "errors"

var (
	// ErrSourceUnavailable means the video could not be opened or read.
	ErrSourceUnavailable = errors.New("frame source unavailable")

	// ErrMalformedFrame means decoding failed in the middle of the stream.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrWriteFailure means a keyframe or contact sheet could not be persisted.
	ErrWriteFailure = errors.New("artifact write failure")

	// ErrJobNotFound is returned by a JobRepository lookup with no match.
	ErrJobNotFound = errors.New("job not found")
)
