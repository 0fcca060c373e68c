package contactsheet

import (
	"image"
	"image/color"
	"testing"

	"github.com/keysnap/keyframe-service/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"
)

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func keyframesOf(n, w, h int) []entity.Keyframe {
	kfs := make([]entity.Keyframe, n)
	for i := range kfs {
		v := uint8(40 + 20*i)
		kfs[i] = entity.Keyframe{Index: i, Timestamp: float64(i) * 1.25, Image: solid(w, h, color.RGBA{v, v, 255 - v, 255})}
	}
	return kfs
}

func TestComposeEmptyIsNoop(t *testing.T) {
	img, ok := NewComposer(basicfont.Face7x13, 2, nil).Compose(nil, 5)
	assert.False(t, ok)
	assert.Nil(t, img)
}

func TestComposeSkipsMissingFirstImage(t *testing.T) {
	kfs := keyframesOf(3, 60, 40)
	kfs[0].Image = nil

	img, ok := NewComposer(basicfont.Face7x13, 2, nil).Compose(kfs, 5)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 180, 40), img.Bounds())
	// the empty tile stays black above its label
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(30, 2))
}

func TestComposeWithoutAnyImageIsNoop(t *testing.T) {
	kfs := []entity.Keyframe{{Index: 0, Timestamp: 1}, {Index: 1, Timestamp: 2}}
	img, ok := NewComposer(basicfont.Face7x13, 2, nil).Compose(kfs, 5)
	assert.False(t, ok)
	assert.Nil(t, img)
}

func TestComposeCanvasSize(t *testing.T) {
	c := NewComposer(basicfont.Face7x13, 2, nil)
	for _, tc := range []struct{ n, perRow, wantW, wantH int }{
		{1, 5, 60, 40},
		{3, 5, 180, 40},
		{5, 5, 300, 40},
		{6, 5, 300, 80},
		{8, 3, 180, 120},
	} {
		img, ok := c.Compose(keyframesOf(tc.n, 60, 40), tc.perRow)
		require.True(t, ok)
		assert.Equal(t, image.Pt(tc.wantW, tc.wantH), img.Bounds().Size(), "n=%d perRow=%d", tc.n, tc.perRow)
	}
}

func TestComposePlacesTilesRowMajor(t *testing.T) {
	kfs := keyframesOf(5, 60, 40)
	img, ok := NewComposer(basicfont.Face7x13, 2, nil).Compose(kfs, 2)
	require.True(t, ok)

	layout := ComputeLayout(len(kfs), 2, 60, 40)
	for i, kf := range kfs {
		cell := layout.Cell(i)
		// The top-right corner is never covered by the label.
		assert.Equal(t, kf.Image.RGBAAt(0, 0), img.RGBAAt(cell.Max.X-1, cell.Min.Y), "tile %d", i)
	}
	// The unused cell of the last row stays black.
	assert.Equal(t, color.RGBA{0, 0, 0, 255}, img.RGBAAt(60+30, 80+5))
}

func TestComposeDrawsLabelInBottomLeft(t *testing.T) {
	kfs := []entity.Keyframe{{Index: 0, Timestamp: 3.5, Image: solid(80, 40, color.RGBA{200, 200, 200, 255})}}
	img, ok := NewComposer(basicfont.Face7x13, 2, nil).Compose(kfs, 5)
	require.True(t, ok)

	corner := img.RGBAAt(0, 39)
	assert.Less(t, corner.R, uint8(100), "label box darkens the bottom-left corner")

	yellow := 0
	for y := 20; y < 40; y++ {
		for x := 0; x < 40; x++ {
			if img.RGBAAt(x, y) == (color.RGBA{255, 255, 0, 255}) {
				yellow++
			}
		}
	}
	assert.Positive(t, yellow, "label text is drawn in yellow")
	assert.Equal(t, color.RGBA{200, 200, 200, 255}, img.RGBAAt(79, 0))
}

func TestDrawLabelStaysInsideCell(t *testing.T) {
	layout := ComputeLayout(4, 2, 10, 8)
	canvas := solid(20, 16, color.RGBA{255, 255, 255, 255})
	c := NewComposer(basicfont.Face7x13, DefaultLabelPadding, nil)

	c.drawLabel(canvas, layout.Cell(0), FormatTimestamp(123.45))

	for _, i := range []int{1, 2, 3} {
		cell := layout.Cell(i)
		for y := cell.Min.Y; y < cell.Max.Y; y++ {
			for x := cell.Min.X; x < cell.Max.X; x++ {
				require.Equal(t, color.RGBA{255, 255, 255, 255}, canvas.RGBAAt(x, y), "pixel %d,%d in cell %d", x, y, i)
			}
		}
	}
}

func TestComposeAcceptsHeterogeneousSizes(t *testing.T) {
	kfs := []entity.Keyframe{
		{Index: 0, Timestamp: 0, Image: solid(30, 20, color.RGBA{10, 10, 10, 255})},
		{Index: 1, Timestamp: 1, Image: solid(50, 50, color.RGBA{90, 90, 90, 255})},
	}
	img, ok := NewComposer(nil, 1, nil).Compose(kfs, 5)
	require.True(t, ok)
	assert.Equal(t, image.Pt(60, 20), img.Bounds().Size())
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "0.00s", FormatTimestamp(0))
	assert.Equal(t, "12.34s", FormatTimestamp(12.34))
	assert.Equal(t, "3.50s", FormatTimestamp(3.5))
}
