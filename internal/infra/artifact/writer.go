package artifact

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/keysnap/keyframe-service/internal/domain/entity"
	"github.com/keysnap/keyframe-service/internal/domain/port"
)

const DefaultSheetName = "keyframes_merged.png"

// KeyframeFileName is the deterministic file name of a keyframe image,
// e.g. keyframe_003_12.34.png.
func KeyframeFileName(kf entity.Keyframe) string {
	return fmt.Sprintf("keyframe_%03d_%.2f.png", kf.Index, kf.Timestamp)
}

// PNGWriter writes keyframes and contact sheets as PNG files.
// Files already written are left in place when a later write fails.
type PNGWriter struct {
	encoder png.Encoder
}

func NewPNGWriter() *PNGWriter {
	return &PNGWriter{encoder: png.Encoder{CompressionLevel: png.BestSpeed}}
}

func (w *PNGWriter) WriteKeyframe(dir string, kf entity.Keyframe) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create output dir %s: %w", port.ErrWriteFailure, dir, err)
	}
	path := filepath.Join(dir, KeyframeFileName(kf))
	if err := w.write(path, kf.Image); err != nil {
		return "", err
	}
	return path, nil
}

func (w *PNGWriter) WriteSheet(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: create output dir for %s: %w", port.ErrWriteFailure, path, err)
	}
	return w.write(path, img)
}

func (w *PNGWriter) write(path string, img image.Image) (err error) {
	if img == nil {
		return fmt.Errorf("%w: %s: no image", port.ErrWriteFailure, path)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", port.ErrWriteFailure, path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("%w: close %s: %w", port.ErrWriteFailure, path, cerr)
		}
	}()
	if err := w.encoder.Encode(f, img); err != nil {
		return fmt.Errorf("%w: encode %s: %w", port.ErrWriteFailure, path, err)
	}
	return nil
}
