package contactsheet

import (
	"fmt"
	"image"
	"image/color"

	"github.com/keysnap/keyframe-service/internal/domain/entity"
	"go.uber.org/zap"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const DefaultLabelPadding = 20

var (
	backgroundColor = color.RGBA{0, 0, 0, 255}
	labelBackground = color.NRGBA{0, 0, 0, 180}
	labelColor      = color.RGBA{255, 255, 0, 255}
)

// Composer tiles keyframes into a single labeled image.
type Composer struct {
	face    font.Face
	padding int
	logger  *zap.Logger
}

// NewComposer returns a Composer drawing labels with face. A nil face uses
// the built-in bitmap font.
func NewComposer(face font.Face, padding int, logger *zap.Logger) *Composer {
	if face == nil {
		face = LoadLabelFace("", 0, nil).Face
	}
	if padding < 0 {
		padding = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Composer{face: face, padding: padding, logger: logger}
}

// FormatTimestamp renders a label such as "12.34s".
func FormatTimestamp(ts float64) string {
	return fmt.Sprintf("%.2fs", ts)
}

// Compose lays keyframes out row-major, maxPerRow per row, on a black canvas.
// Every tile takes the size of the first keyframe that has pixels; images are
// not resized. It returns false when there is nothing to compose.
func (c *Composer) Compose(keyframes []entity.Keyframe, maxPerRow int) (*image.RGBA, bool) {
	first, ok := tileBounds(keyframes)
	if !ok {
		c.logger.Info("no keyframes to compose", zap.Int("keyframes", len(keyframes)))
		return nil, false
	}

	layout := ComputeLayout(len(keyframes), maxPerRow, first.Dx(), first.Dy())
	canvas := image.NewRGBA(layout.Bounds())
	draw.Draw(canvas, canvas.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	for i, kf := range keyframes {
		cell := layout.Cell(i)
		if kf.Image != nil {
			draw.Draw(canvas, cell, kf.Image, kf.Image.Bounds().Min, draw.Src)
		}
		c.drawLabel(canvas, cell, FormatTimestamp(kf.Timestamp))
	}

	c.logger.Debug("contact sheet composed",
		zap.Int("tiles", len(keyframes)),
		zap.Int("columns", layout.Columns),
		zap.Int("rows", layout.Rows),
		zap.Int("width", canvas.Bounds().Dx()),
		zap.Int("height", canvas.Bounds().Dy()),
	)
	return canvas, true
}

func tileBounds(keyframes []entity.Keyframe) (image.Rectangle, bool) {
	for _, kf := range keyframes {
		if kf.Image != nil {
			return kf.Image.Bounds(), true
		}
	}
	return image.Rectangle{}, false
}

// drawLabel puts text in the bottom-left corner of cell over a translucent
// box. Both are clipped to the cell and never cross its bottom edge.
func (c *Composer) drawLabel(canvas *image.RGBA, cell image.Rectangle, text string) {
	ink, _ := font.BoundString(c.face, text)
	textW := (ink.Max.X - ink.Min.X).Ceil()
	textH := (ink.Max.Y - ink.Min.Y).Ceil()
	pad := c.padding

	box := image.Rect(cell.Min.X, cell.Max.Y-textH-2*pad, cell.Min.X+textW+2*pad, cell.Max.Y).Intersect(cell)
	draw.Draw(canvas, box, image.NewUniform(labelBackground), image.Point{}, draw.Over)

	tile, ok := canvas.SubImage(cell).(*image.RGBA)
	if !ok {
		return
	}
	textX := cell.Min.X + pad
	textTop := cell.Max.Y - textH - pad
	d := &font.Drawer{
		Dst:  tile,
		Src:  image.NewUniform(labelColor),
		Face: c.face,
		Dot:  fixed.Point26_6{X: fixed.I(textX) - ink.Min.X, Y: fixed.I(textTop) - ink.Min.Y},
	}
	d.DrawString(text)
}
