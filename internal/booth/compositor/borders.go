package compositor

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// Each theme is a fixed, deterministic sequence of fills, strokes and glyph
// stamps along the four edges; only the canvas dimensions vary.
func (c *Compositor) paintBorder(canvas *image.RGBA, theme string) error {
	switch theme {
	case "heart":
		return c.glyphEdgeBorder(canvas, color.RGBA{255, 105, 180, 255}, "heart", 30, 60)
	case "rainbow":
		rainbowBorder(canvas)
		return nil
	case "star":
		return c.glyphEdgeBorder(canvas, color.RGBA{255, 215, 0, 255}, "star", 25, 50)
	case "flower":
		return c.glyphEdgeBorder(canvas, color.RGBA{255, 182, 193, 255}, "flower", 25, 50)
	case "party":
		partyGradientBorder(canvas)
		return c.stampEdges(canvas, "confetti", "confetti", 25, 50)
	case "cute":
		return c.glyphEdgeBorder(canvas, color.RGBA{255, 204, 203, 255}, "loved", 25, 50)
	case "cool":
		if err := c.glyphEdgeBorder(canvas, color.RGBA{135, 206, 235, 255}, "cool", 25, 50); err != nil {
			return err
		}
		return c.stampBottomEdge(canvas, "fire", 25, 50)
	case "vintage":
		fillEdges(canvas, color.RGBA{222, 184, 135, 255}, framedBorder)
		return c.stampTopCenter(canvas, "sparkle", 25, 3)
	case "modern":
		modernBorder(canvas)
		return nil
	default:
		return fmt.Errorf("unknown frame theme: %s", theme)
	}
}

// glyphEdgeBorder fills all four edges with a solid band and stamps the glyph
// along the top and bottom edges.
func (c *Compositor) glyphEdgeBorder(canvas *image.RGBA, band color.RGBA, glyph string, glyphSize, step int) error {
	fillEdges(canvas, band, framedBorder)
	return c.stampEdges(canvas, glyph, glyph, glyphSize, step)
}

// stampEdges stamps topGlyph along the top band and bottomGlyph along the
// bottom band at the given horizontal step.
func (c *Compositor) stampEdges(canvas *image.RGBA, topGlyph, bottomGlyph string, glyphSize, step int) error {
	if err := c.stampRow(canvas, topGlyph, glyphSize, step, framedBorder/2); err != nil {
		return err
	}
	height := canvas.Bounds().Dy()
	return c.stampRow(canvas, bottomGlyph, glyphSize, step, height-framedBorder/2)
}

func (c *Compositor) stampBottomEdge(canvas *image.RGBA, glyph string, glyphSize, step int) error {
	height := canvas.Bounds().Dy()
	return c.stampRow(canvas, glyph, glyphSize, step, height-framedBorder/2)
}

// stampRow stamps a glyph repeatedly along a horizontal line centered at
// centerY, starting at x=0 like the booth's classic edge patterns.
func (c *Compositor) stampRow(canvas *image.RGBA, glyph string, glyphSize, step, centerY int) error {
	rendered, err := c.glyphs.Render(glyph, glyphSize)
	if err != nil {
		return err
	}
	width := canvas.Bounds().Dx()
	for x := 0; x < width; x += step {
		target := image.Rect(
			x-glyphSize/2,
			centerY-glyphSize/2,
			x-glyphSize/2+glyphSize,
			centerY-glyphSize/2+glyphSize,
		)
		draw.Draw(canvas, target, rendered, image.Point{}, draw.Over)
	}
	return nil
}

// stampTopCenter stamps count glyphs centered in the top band.
func (c *Compositor) stampTopCenter(canvas *image.RGBA, glyph string, glyphSize, count int) error {
	rendered, err := c.glyphs.Render(glyph, glyphSize)
	if err != nil {
		return err
	}
	width := canvas.Bounds().Dx()
	spacing := glyphSize + 10
	startX := width/2 - (count*spacing)/2 + spacing/2
	for i := 0; i < count; i++ {
		centerX := startX + i*spacing
		target := image.Rect(
			centerX-glyphSize/2,
			framedBorder/2-glyphSize/2,
			centerX-glyphSize/2+glyphSize,
			framedBorder/2-glyphSize/2+glyphSize,
		)
		draw.Draw(canvas, target, rendered, image.Point{}, draw.Over)
	}
	return nil
}

// fillEdges fills the four border bands with a solid color.
func fillEdges(canvas *image.RGBA, c color.RGBA, border int) {
	width := canvas.Bounds().Dx()
	height := canvas.Bounds().Dy()
	fill := &image.Uniform{c}
	draw.Draw(canvas, image.Rect(0, 0, width, border), fill, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(0, height-border, width, height), fill, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(0, 0, border, height), fill, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(width-border, 0, width, height), fill, image.Point{}, draw.Src)
}

// rainbowBorder splits every band into six colored segments.
func rainbowBorder(canvas *image.RGBA) {
	colors := []color.RGBA{
		{255, 0, 0, 255},
		{255, 128, 0, 255},
		{255, 255, 0, 255},
		{0, 255, 0, 255},
		{0, 128, 255, 255},
		{128, 0, 255, 255},
	}
	width := canvas.Bounds().Dx()
	height := canvas.Bounds().Dy()
	segment := framedBorder / len(colors)

	for i, col := range colors {
		fill := &image.Uniform{col}
		// Horizontal stripes along the top and bottom bands.
		draw.Draw(canvas, image.Rect(0, i*segment, width, (i+1)*segment), fill, image.Point{}, draw.Src)
		draw.Draw(canvas, image.Rect(0, height-framedBorder+i*segment, width, height-framedBorder+(i+1)*segment), fill, image.Point{}, draw.Src)
		// Vertical stripes along the left and right bands.
		draw.Draw(canvas, image.Rect(i*segment, 0, (i+1)*segment, height), fill, image.Point{}, draw.Src)
		draw.Draw(canvas, image.Rect(width-framedBorder+i*segment, 0, width-framedBorder+(i+1)*segment, height), fill, image.Point{}, draw.Src)
	}
}

// partyGradientBorder fills the bands with a horizontal three-stop gradient.
func partyGradientBorder(canvas *image.RGBA) {
	stops := []color.RGBA{
		{255, 107, 107, 255},
		{78, 205, 196, 255},
		{69, 183, 209, 255},
	}
	width := canvas.Bounds().Dx()
	height := canvas.Bounds().Dy()

	colorAt := func(x int) color.RGBA {
		t := float64(x) / float64(width-1)
		if t <= 0.5 {
			return lerpColor(stops[0], stops[1], t*2)
		}
		return lerpColor(stops[1], stops[2], (t-0.5)*2)
	}

	parallelFor(height, func(y int) {
		inBand := y < framedBorder || y >= height-framedBorder
		for x := 0; x < width; x++ {
			if inBand || x < framedBorder || x >= width-framedBorder {
				canvas.SetRGBA(x, y, colorAt(x))
			}
		}
	})
}

// modernBorder draws a double stroked rectangle: a thick dark outline with a
// thinner white inline.
func modernBorder(canvas *image.RGBA) {
	bounds := canvas.Bounds()
	strokeRect(canvas, bounds.Inset(4), 8, color.RGBA{51, 51, 51, 255})
	strokeRect(canvas, bounds.Inset(8), 4, color.RGBA{255, 255, 255, 255})
}

// strokeRect draws a rectangle outline of the given stroke width centered on
// the rectangle's edges.
func strokeRect(canvas *image.RGBA, r image.Rectangle, strokeWidth int, col color.RGBA) {
	half := strokeWidth / 2
	fill := &image.Uniform{col}
	draw.Draw(canvas, image.Rect(r.Min.X-half, r.Min.Y-half, r.Max.X+half, r.Min.Y+half), fill, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(r.Min.X-half, r.Max.Y-half, r.Max.X+half, r.Max.Y+half), fill, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(r.Min.X-half, r.Min.Y-half, r.Min.X+half, r.Max.Y+half), fill, image.Point{}, draw.Src)
	draw.Draw(canvas, image.Rect(r.Max.X-half, r.Min.Y-half, r.Max.X+half, r.Max.Y+half), fill, image.Point{}, draw.Src)
}

func lerpColor(a, b color.RGBA, t float64) color.RGBA {
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return color.RGBA{
		R: uint8(float64(a.R)*(1-t) + float64(b.R)*t + 0.5),
		G: uint8(float64(a.G)*(1-t) + float64(b.G)*t + 0.5),
		B: uint8(float64(a.B)*(1-t) + float64(b.B)*t + 0.5),
		A: 255,
	}
}
