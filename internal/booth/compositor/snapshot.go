// Package compositor renders booth imagery: per-shot snapshots of the live
// frame with filter and sticker overlays, and the final collage with its
// decorative border. All operations are deterministic given their inputs.
package compositor

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"log/slog"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/jo-hoe/gobooth/internal/booth/camera"
)

var (
	// ErrNotReady indicates no live frame was available to snapshot.
	ErrNotReady = errors.New("no ready frame to capture")
	// ErrDecodeFailed indicates a source image could not be decoded.
	ErrDecodeFailed = errors.New("failed to decode source image")
)

// Overlay coordinates live in a fixed logical canvas; they are rescaled
// proportionally onto the capture surface.
const (
	logicalWidth  = 640
	logicalHeight = 480
	glyphBaseSize = 40
)

// Placement positions a sticker glyph on the logical canvas.
type Placement struct {
	Glyph string
	X     float64
	Y     float64
	Scale float64
}

// Compositor renders snapshots and collages. Safe for concurrent use.
type Compositor struct {
	glyphs *GlyphSet
}

// New creates a Compositor with an empty glyph cache.
func New() *Compositor {
	return &Compositor{
		glyphs: NewGlyphSet(),
	}
}

// Snapshot produces a PNG still of the given live frame at its native
// resolution: the filter effect is applied to the raw frame, then each
// placement is stamped in insertion order with its position rescaled from the
// logical canvas.
func (c *Compositor) Snapshot(frame *camera.Frame, filterID string, placements []Placement) ([]byte, error) {
	if frame == nil || len(frame.Data) == 0 {
		return nil, ErrNotReady
	}

	src, format, err := image.Decode(bytes.NewReader(frame.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	slog.Debug("compositor: decoded live frame",
		"format", format,
		"width", src.Bounds().Dx(),
		"height", src.Bounds().Dy())

	canvas := toRGBA(src)

	effect, err := EffectFor(filterID)
	if err != nil {
		return nil, err
	}
	if effect != nil {
		effect.Apply(canvas)
	}

	surfaceW := canvas.Bounds().Dx()
	surfaceH := canvas.Bounds().Dy()
	for _, p := range placements {
		if err := c.stampGlyph(canvas, p, surfaceW, surfaceH); err != nil {
			return nil, err
		}
	}

	return encodePNG(canvas)
}

// stampGlyph draws a single sticker centered at the placement's rescaled
// position.
func (c *Compositor) stampGlyph(canvas *image.RGBA, p Placement, surfaceW, surfaceH int) error {
	size := int(glyphBaseSize*p.Scale + 0.5)
	if size <= 0 {
		return nil
	}
	glyph, err := c.glyphs.Render(p.Glyph, size)
	if err != nil {
		return err
	}

	centerX := int(p.X*float64(surfaceW)/logicalWidth + 0.5)
	centerY := int(p.Y*float64(surfaceH)/logicalHeight + 0.5)
	target := image.Rect(centerX-size/2, centerY-size/2, centerX-size/2+size, centerY-size/2+size)
	draw.Draw(canvas, target, glyph, image.Point{}, draw.Over)
	return nil
}

func toRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return rgba
	}
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Src)
	return dst
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	bb := img.Bounds()
	// Pre-grow buffer to reduce re-allocations; rough heuristic: 1 byte per pixel
	buf.Grow(bb.Dx() * bb.Dy())
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
