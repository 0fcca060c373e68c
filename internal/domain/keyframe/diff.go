package keyframe

import (
	"fmt"
	"image"
)

// SampledFrame is a frame chosen by decimation, reduced to grayscale.
type SampledFrame struct {
	Sequence  int
	Timestamp float64
	Gray      *image.Gray
}

// ToGray converts RGBA pixels to 8-bit luma using the BT.601 weights.
func ToGray(src *image.RGBA) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		off := src.PixOffset(b.Min.X, b.Min.Y+y)
		row := src.Pix[off : off+w*4]
		out := dst.Pix[y*dst.Stride : y*dst.Stride+w]
		for x := 0; x < w; x++ {
			i := x * 4
			r, g, bb := uint32(row[i]), uint32(row[i+1]), uint32(row[i+2])
			out[x] = uint8((19595*r + 38470*g + 7471*bb + 1<<15) >> 16)
		}
	}
	return dst
}

// MeanAbsDiff is the mean absolute per-pixel difference of two equally sized
// grayscale images, in [0, 255].
func MeanAbsDiff(a, b *image.Gray) (float64, error) {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return 0, fmt.Errorf("frame size changed from %dx%d to %dx%d", ab.Dx(), ab.Dy(), bb.Dx(), bb.Dy())
	}
	w, h := ab.Dx(), ab.Dy()
	if w == 0 || h == 0 {
		return 0, nil
	}
	var sum uint64
	for y := 0; y < h; y++ {
		oa := a.PixOffset(ab.Min.X, ab.Min.Y+y)
		ob := b.PixOffset(bb.Min.X, bb.Min.Y+y)
		ra := a.Pix[oa : oa+w]
		rb := b.Pix[ob : ob+w]
		for x := 0; x < w; x++ {
			d := int(ra[x]) - int(rb[x])
			if d < 0 {
				d = -d
			}
			sum += uint64(d)
		}
	}
	return float64(sum) / float64(w*h), nil
}
