package keyframe

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"github.com/keysnap/keyframe-service/internal/domain/entity"
	"github.com/keysnap/keyframe-service/internal/domain/port"
	"go.uber.org/zap"
)

const defaultProgressEvery = 30

// ProgressFunc receives the number of raw frames read so far and the expected
// total (0 when unknown). It is called synchronously and must not block.
type ProgressFunc func(processed, total int)

// Selector picks keyframes at the moments a video settles into stillness.
type Selector struct {
	cfg           Config
	progressEvery int
	logger        *zap.Logger
}

// NewSelector returns a Selector. progressEvery is the number of raw frames
// between progress reports; values <= 0 use the default.
func NewSelector(cfg Config, progressEvery int, logger *zap.Logger) *Selector {
	if progressEvery <= 0 {
		progressEvery = defaultProgressEvery
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Selector{cfg: cfg, progressEvery: progressEvery, logger: logger}
}

func (s *Selector) Config() Config { return s.cfg }

// Select scans src to exhaustion and returns the keyframes in emission order.
// It fails on the first read or decode error; no keyframe is forced at the end
// of the stream.
func (s *Selector) Select(ctx context.Context, src port.FrameSource, progress ProgressFunc) ([]entity.Keyframe, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid selector config: %w", err)
	}

	interval := s.cfg.FrameInterval(src.FPS())
	total := src.FrameCount()
	detector := NewDetector(s.cfg)

	s.logger.Debug("stillness scan starting",
		zap.Float64("native_fps", src.FPS()),
		zap.Int("frame_interval", interval),
		zap.Int("total_frames", total),
		zap.Float64("diff_threshold", s.cfg.DiffThreshold),
		zap.Float64("stillness_threshold", s.cfg.StillnessThreshold),
		zap.Int("stillness_frames", s.cfg.StillnessFrames),
		zap.Float64("min_interval", s.cfg.MinInterval),
	)

	var (
		keyframes []entity.Keyframe
		prev      *SampledFrame
		processed int
		sampled   int
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, classifyReadError(err)
		}
		processed++
		if progress != nil && processed%s.progressEvery == 0 {
			progress(processed, total)
		}

		if frame.Index%interval != 0 {
			continue
		}
		if frame.Image == nil {
			return nil, fmt.Errorf("%w: frame %d has no pixels", port.ErrMalformedFrame, frame.Index)
		}

		cur := &SampledFrame{Sequence: frame.Index, Timestamp: frame.Timestamp, Gray: ToGray(frame.Image)}
		diff := 0.0
		if prev != nil {
			diff, err = MeanAbsDiff(prev.Gray, cur.Gray)
			if err != nil {
				return nil, fmt.Errorf("%w: frame %d: %w", port.ErrMalformedFrame, frame.Index, err)
			}
		}
		prev = cur
		sampled++

		dec := detector.Observe(diff, cur.Timestamp)
		switch {
		case dec.Emit:
			keyframes = append(keyframes, entity.Keyframe{
				Index:     dec.Index,
				Timestamp: cur.Timestamp,
				Image:     cloneRGBA(frame.Image),
			})
			s.logger.Debug("keyframe selected",
				zap.Int("index", dec.Index),
				zap.Int("frame", frame.Index),
				zap.Float64("timestamp", cur.Timestamp),
			)
		case dec.Suppressed:
			s.logger.Debug("stillness edge within min interval, skipped",
				zap.Int("frame", frame.Index),
				zap.Float64("timestamp", cur.Timestamp),
			)
		}
	}

	if progress != nil {
		progress(processed, total)
	}

	s.logger.Info("stillness scan finished",
		zap.Int("frames_read", processed),
		zap.Int("frames_sampled", sampled),
		zap.Int("keyframes", len(keyframes)),
	)
	return keyframes, nil
}

func classifyReadError(err error) error {
	if errors.Is(err, port.ErrSourceUnavailable) || errors.Is(err, port.ErrMalformedFrame) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", port.ErrSourceUnavailable, err)
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		off := src.PixOffset(b.Min.X, b.Min.Y+y)
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+b.Dx()*4], src.Pix[off:off+b.Dx()*4])
	}
	return dst
}
