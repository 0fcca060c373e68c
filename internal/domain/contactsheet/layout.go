package contactsheet

import "image"

// Layout is the grid geometry of a contact sheet.
type Layout struct {
	Columns    int
	Rows       int
	TileWidth  int
	TileHeight int
	perRow     int
}

// ComputeLayout returns the grid for n tiles of tileW x tileH with at most
// maxPerRow tiles per row. maxPerRow below 1 is treated as 1.
func ComputeLayout(n, maxPerRow, tileW, tileH int) Layout {
	if maxPerRow < 1 {
		maxPerRow = 1
	}
	if n <= 0 {
		return Layout{TileWidth: tileW, TileHeight: tileH, perRow: maxPerRow}
	}
	return Layout{
		Columns:    min(n, maxPerRow),
		Rows:       (n + maxPerRow - 1) / maxPerRow,
		TileWidth:  tileW,
		TileHeight: tileH,
		perRow:     maxPerRow,
	}
}

// Bounds is the full canvas rectangle.
func (l Layout) Bounds() image.Rectangle {
	return image.Rect(0, 0, l.Columns*l.TileWidth, l.Rows*l.TileHeight)
}

// Cell is the rectangle of the i-th tile in row-major order.
func (l Layout) Cell(i int) image.Rectangle {
	row, col := i/l.perRow, i%l.perRow
	x, y := col*l.TileWidth, row*l.TileHeight
	return image.Rect(x, y, x+l.TileWidth, y+l.TileHeight)
}
