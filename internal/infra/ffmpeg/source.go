package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/keysnap/keyframe-service/internal/domain/entity"
	"github.com/keysnap/keyframe-service/internal/domain/port"
	"go.uber.org/zap"
)

// Decoder opens videos as frame sources by piping ffmpeg rawvideo output.
type Decoder struct {
	ffmpegPath  string
	ffprobePath string
	logger      *zap.Logger
}

func NewDecoder(ffmpegPath, ffprobePath string, logger *zap.Logger) *Decoder {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Decoder{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath, logger: logger}
}

func (d *Decoder) Open(ctx context.Context, videoPath string) (port.FrameSource, error) {
	info, err := probe(ctx, d.ffprobePath, videoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: probe %s: %w", port.ErrSourceUnavailable, videoPath, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(runCtx, d.ffmpegPath, decodeArgs(videoPath, info)...)
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return nil, fmt.Errorf("%w: ffmpeg stdout: %w", port.ErrSourceUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("%w: start ffmpeg: %w", port.ErrSourceUnavailable, err)
	}

	d.logger.Info("video opened",
		zap.String("path", videoPath),
		zap.Int("width", info.Width),
		zap.Int("height", info.Height),
		zap.Int("rotation", info.Rotation),
		zap.Float64("fps", info.FPS),
		zap.Int("frame_count", info.FrameCount),
		zap.Float64("duration", info.Duration),
	)

	return &Stream{
		info:   info,
		frames: newRawFrameReader(stdout, info.Width, info.Height, info.FPS),
		cmd:    cmd,
		stderr: stderr,
		cancel: cancel,
	}, nil
}

// decodeArgs has ffmpeg emit packed RGBA frames of info's displayed size at a
// constant info.FPS. Variable frame rate input is resampled (frames repeated
// or dropped) so that frame index / FPS is the presentation time.
func decodeArgs(videoPath string, info StreamInfo) []string {
	return []string{
		"-v", "error",
		"-i", videoPath,
		"-map", "0:v:0",
		"-vsync", "cfr",
		"-r", strconv.FormatFloat(info.FPS, 'f', -1, 64),
		"-s", fmt.Sprintf("%dx%d", info.Width, info.Height),
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-",
	}
}

// Stream is a running ffmpeg decode of one video.
type Stream struct {
	info   StreamInfo
	frames *rawFrameReader
	cmd    *exec.Cmd
	stderr *bytes.Buffer
	cancel context.CancelFunc

	waitOnce sync.Once
	waitErr  error
}

func (s *Stream) Info() StreamInfo { return s.info }
func (s *Stream) FPS() float64     { return s.info.FPS }
func (s *Stream) FrameCount() int  { return s.info.FrameCount }

func (s *Stream) Next(ctx context.Context) (entity.Frame, error) {
	if err := ctx.Err(); err != nil {
		return entity.Frame{}, err
	}
	frame, err := s.frames.Read()
	if !errors.Is(err, io.EOF) {
		return frame, err
	}
	// A clean end of the pipe is only end-of-stream if ffmpeg exited cleanly.
	if werr := s.wait(); werr != nil {
		return entity.Frame{}, fmt.Errorf("%w: ffmpeg: %w: %s", port.ErrSourceUnavailable, werr, strings.TrimSpace(s.stderr.String()))
	}
	return entity.Frame{}, io.EOF
}

func (s *Stream) Close() error {
	s.cancel()
	err := s.wait()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// killed by cancel after an early stop
		return nil
	}
	return err
}

func (s *Stream) wait() error {
	s.waitOnce.Do(func() { s.waitErr = s.cmd.Wait() })
	return s.waitErr
}

// rawFrameReader splits a packed RGBA byte stream into frames.
type rawFrameReader struct {
	r      io.Reader
	width  int
	height int
	fps    float64
	next   int
}

func newRawFrameReader(r io.Reader, width, height int, fps float64) *rawFrameReader {
	return &rawFrameReader{r: r, width: width, height: height, fps: fps}
}

func (r *rawFrameReader) Read() (entity.Frame, error) {
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	_, err := io.ReadFull(r.r, img.Pix)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		return entity.Frame{}, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		return entity.Frame{}, fmt.Errorf("%w: frame %d truncated", port.ErrMalformedFrame, r.next)
	default:
		return entity.Frame{}, fmt.Errorf("%w: read frame %d: %w", port.ErrSourceUnavailable, r.next, err)
	}

	frame := entity.Frame{Index: r.next, Image: img}
	if r.fps > 0 {
		frame.Timestamp = float64(r.next) / r.fps
	}
	r.next++
	return frame, nil
}
