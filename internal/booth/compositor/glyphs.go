package compositor

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

//go:embed glyphs/*.svg
var glyphFS embed.FS

// GlyphSet rasterizes the embedded SVG glyphs (stickers and frame ornaments)
// at arbitrary sizes, caching each rendered size.
type GlyphSet struct {
	mu    sync.Mutex
	cache map[string]*image.RGBA
}

// NewGlyphSet creates an empty glyph cache over the embedded assets.
func NewGlyphSet() *GlyphSet {
	return &GlyphSet{
		cache: make(map[string]*image.RGBA),
	}
}

// Render returns the glyph with the given id rendered as a size×size image
// with a transparent background. Unknown ids are an error.
func (g *GlyphSet) Render(id string, size int) (*image.RGBA, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid glyph size %d", size)
	}

	key := fmt.Sprintf("%s@%d", id, size)
	g.mu.Lock()
	if cached, ok := g.cache[key]; ok {
		g.mu.Unlock()
		return cached, nil
	}
	g.mu.Unlock()

	data, err := glyphFS.ReadFile("glyphs/" + id + ".svg")
	if err != nil {
		return nil, fmt.Errorf("unknown glyph %q: %w", id, err)
	}

	rendered, err := rasterizeSVG(data, size, size)
	if err != nil {
		return nil, fmt.Errorf("failed to rasterize glyph %q: %w", id, err)
	}

	g.mu.Lock()
	g.cache[key] = rendered
	g.mu.Unlock()
	return rendered, nil
}

// rasterizeSVG renders an SVG byte slice onto a transparent canvas of the
// given target dimensions.
func rasterizeSVG(svgData []byte, targetW, targetH int) (*image.RGBA, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(svgData))
	if err != nil {
		return nil, fmt.Errorf("failed to parse SVG: %w", err)
	}

	icon.SetTarget(0, 0, float64(targetW), float64(targetH))

	dst := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	scanner := rasterx.NewScannerGV(targetW, targetH, dst, dst.Bounds())
	dasher := rasterx.NewDasher(targetW, targetH, scanner)
	icon.Draw(dasher, 1.0)

	return dst, nil
}
