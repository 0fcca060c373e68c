package keyframe

import (
	"context"
	"image"
	"io"

	"github.com/keysnap/keyframe-service/internal/domain/entity"
)

// sliceSource replays frames from memory. When failAt >= 0, Next returns
// failErr instead of the frame at that position.
type sliceSource struct {
	frames  []entity.Frame
	fps     float64
	pos     int
	failAt  int
	failErr error
}

func newSliceSource(fps float64, frames []entity.Frame) *sliceSource {
	return &sliceSource{frames: frames, fps: fps, failAt: -1}
}

func (s *sliceSource) Next(ctx context.Context) (entity.Frame, error) {
	if s.pos == s.failAt {
		return entity.Frame{}, s.failErr
	}
	if s.pos >= len(s.frames) {
		return entity.Frame{}, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *sliceSource) FPS() float64    { return s.fps }
func (s *sliceSource) FrameCount() int { return len(s.frames) }
func (s *sliceSource) Close() error    { return nil }

// lumaImage builds a 1-row gray-valued RGBA image, one pixel per value.
func lumaImage(values ...uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, len(values), 1))
	for x, v := range values {
		i := x * 4
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, v, v, 255
	}
	return img
}

// framesAt builds frames at 1/fps spacing from per-frame pixel rows.
func framesAt(fps float64, rows ...[]uint8) []entity.Frame {
	frames := make([]entity.Frame, len(rows))
	for i, r := range rows {
		frames[i] = entity.Frame{Index: i, Timestamp: float64(i) / fps, Image: lumaImage(r...)}
	}
	return frames
}

func px(v ...uint8) []uint8 { return v }
