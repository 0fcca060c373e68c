package port

import (
	"context"

	"github.com/keysnap/keyframe-service/internal/domain/entity"
)

// FrameSource yields decoded frames in order. Next returns io.EOF once the
// stream is exhausted; any other error means the stream could not be read.
type FrameSource interface {
	Next(ctx context.Context) (entity.Frame, error)
	// FPS is the native frame rate of the stream.
	FPS() float64
	// FrameCount is the expected number of frames, 0 when unknown.
	FrameCount() int
	Close() error
}

type FrameSourceOpener interface {
	Open(ctx context.Context, videoPath string) (FrameSource, error)
}
