package contactsheet

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeLayoutCanvasSize(t *testing.T) {
	cases := []struct {
		n, perRow, w, h int
		want            image.Point
	}{
		{n: 1, perRow: 5, w: 10, h: 6, want: image.Pt(10, 6)},
		{n: 2, perRow: 5, w: 10, h: 6, want: image.Pt(20, 6)},
		{n: 5, perRow: 5, w: 10, h: 6, want: image.Pt(50, 6)},
		{n: 6, perRow: 5, w: 10, h: 6, want: image.Pt(50, 12)},
		{n: 7, perRow: 3, w: 4, h: 2, want: image.Pt(12, 6)},
		{n: 3, perRow: 1, w: 4, h: 2, want: image.Pt(4, 6)},
	}
	for _, tc := range cases {
		l := ComputeLayout(tc.n, tc.perRow, tc.w, tc.h)
		assert.Equal(t, tc.want, l.Bounds().Size(), "n=%d perRow=%d", tc.n, tc.perRow)
	}
}

func TestComputeLayoutClampsPerRow(t *testing.T) {
	l := ComputeLayout(3, 0, 4, 4)
	assert.Equal(t, 1, l.Columns)
	assert.Equal(t, 3, l.Rows)
}

func TestLayoutCellIsRowMajor(t *testing.T) {
	l := ComputeLayout(7, 3, 10, 5)
	assert.Equal(t, image.Rect(0, 0, 10, 5), l.Cell(0))
	assert.Equal(t, image.Rect(20, 0, 30, 5), l.Cell(2))
	assert.Equal(t, image.Rect(0, 5, 10, 10), l.Cell(3))
	assert.Equal(t, image.Rect(0, 10, 10, 15), l.Cell(6))
}
