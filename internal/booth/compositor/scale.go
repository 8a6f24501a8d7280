package compositor

import (
	"bytes"
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

// ScaleToWidth scales an image to the given width, preserving aspect ratio.
// Used for gallery thumbnails.
func ScaleToWidth(imageData []byte, width int) ([]byte, error) {
	if width <= 0 {
		return nil, fmt.Errorf("width must be positive, got %d", width)
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == width {
		return imageData, nil
	}
	height := int(float64(bounds.Dy())*float64(width)/float64(bounds.Dx()) + 0.5)
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)

	return encodePNG(dst)
}
