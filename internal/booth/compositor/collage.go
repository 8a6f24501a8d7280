package compositor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"

	xdraw "golang.org/x/image/draw"

	"github.com/jo-hoe/gobooth/internal/booth/catalog"
)

// Collage geometry in logical units.
const (
	cellWidth    = 300
	cellHeight   = 225
	cellSpacing  = 10
	framedBorder = 40
	plainBorder  = 20
)

// CanvasSize returns the collage dimensions for a grid shape. It is a pure
// function of (rows, cols, framed).
func CanvasSize(rows, cols int, framed bool) (width, height int) {
	border := plainBorder
	if framed {
		border = framedBorder
	}
	width = cols*cellWidth + (cols-1)*cellSpacing + 2*border
	height = rows*cellHeight + (rows-1)*cellSpacing + 2*border
	return width, height
}

// Collage composes the captured snapshots into one framed PNG. Cells fill
// row-major from index 0; snapshots beyond the grid capacity are ignored and
// cells beyond the snapshot count stay blank. All sources are decoded before
// any drawing so cell order never depends on decode timing.
func (c *Compositor) Collage(photos [][]byte, layout catalog.Layout, frame catalog.FrameTemplate) ([]byte, error) {
	framed := frame.Theme != "none"
	width, height := CanvasSize(layout.Rows, layout.Cols, framed)
	border := plainBorder
	if framed {
		border = framedBorder
	}

	count := len(photos)
	if max := layout.ShotCount(); count > max {
		count = max
	}

	// Decode-then-draw: every source is decoded up front, in index order.
	decoded := make([]image.Image, count)
	for i := 0; i < count; i++ {
		img, _, err := image.Decode(bytes.NewReader(photos[i]))
		if err != nil {
			return nil, fmt.Errorf("%w: photo %d: %v", ErrDecodeFailed, i, err)
		}
		decoded[i] = img
	}

	canvas := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{color.RGBA{255, 255, 255, 255}}, image.Point{}, draw.Src)

	for i, img := range decoded {
		row := i / layout.Cols
		col := i % layout.Cols
		x := border + col*(cellWidth+cellSpacing)
		y := border + row*(cellHeight+cellSpacing)
		cell := image.Rect(x, y, x+cellWidth, y+cellHeight)
		xdraw.ApproxBiLinear.Scale(canvas, cell, img, img.Bounds(), xdraw.Src, nil)
	}

	if framed {
		if err := c.paintBorder(canvas, frame.Theme); err != nil {
			return nil, err
		}
	}

	slog.Debug("compositor: collage composed",
		"rows", layout.Rows,
		"cols", layout.Cols,
		"frame", frame.ID,
		"width", width,
		"height", height,
		"photos", count)

	return encodePNG(canvas)
}
