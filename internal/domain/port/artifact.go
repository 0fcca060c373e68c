package port

import (
	"image"

	"github.com/keysnap/keyframe-service/internal/domain/entity"
)

// ArtifactWriter persists selected keyframes and the composed contact sheet.
type ArtifactWriter interface {
	WriteKeyframe(dir string, kf entity.Keyframe) (string, error)
	WriteSheet(path string, img image.Image) error
}
