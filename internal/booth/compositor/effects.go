package compositor

import (
	"fmt"
	"image"
	"math"
)

// colorMatrix is a 4x5 row-major color transform as used by SVG/CSS filter
// effects. The fifth column is an offset in the 0..255 range.
type colorMatrix [20]float64

func identityMatrix() colorMatrix {
	return colorMatrix{
		1, 0, 0, 0, 0,
		0, 1, 0, 0, 0,
		0, 0, 1, 0, 0,
		0, 0, 0, 1, 0,
	}
}

// mulMatrix composes two transforms; the result applies b first, then a.
func mulMatrix(a, b colorMatrix) colorMatrix {
	var out colorMatrix
	for row := 0; row < 4; row++ {
		for col := 0; col < 5; col++ {
			sum := 0.0
			for k := 0; k < 4; k++ {
				sum += a[row*5+k] * b[k*5+col]
			}
			if col == 4 {
				sum += a[row*5+4]
			}
			out[row*5+col] = sum
		}
	}
	return out
}

// The matrices below follow the CSS Filter Effects specification so that the
// server-side capture matches the CSS preview string of each catalog filter.

func grayscaleMatrix(amount float64) colorMatrix {
	s := 1 - amount
	return colorMatrix{
		0.2126 + 0.7874*s, 0.7152 - 0.7152*s, 0.0722 - 0.0722*s, 0, 0,
		0.2126 - 0.2126*s, 0.7152 + 0.2848*s, 0.0722 - 0.0722*s, 0, 0,
		0.2126 - 0.2126*s, 0.7152 - 0.7152*s, 0.0722 + 0.9278*s, 0, 0,
		0, 0, 0, 1, 0,
	}
}

func sepiaMatrix(amount float64) colorMatrix {
	s := 1 - amount
	return colorMatrix{
		0.393 + 0.607*s, 0.769 - 0.769*s, 0.189 - 0.189*s, 0, 0,
		0.349 - 0.349*s, 0.686 + 0.314*s, 0.168 - 0.168*s, 0, 0,
		0.272 - 0.272*s, 0.534 - 0.534*s, 0.131 + 0.869*s, 0, 0,
		0, 0, 0, 1, 0,
	}
}

func saturateMatrix(amount float64) colorMatrix {
	s := amount
	return colorMatrix{
		0.213 + 0.787*s, 0.715 - 0.715*s, 0.072 - 0.072*s, 0, 0,
		0.213 - 0.213*s, 0.715 + 0.285*s, 0.072 - 0.072*s, 0, 0,
		0.213 - 0.213*s, 0.715 - 0.715*s, 0.072 + 0.928*s, 0, 0,
		0, 0, 0, 1, 0,
	}
}

func hueRotateMatrix(degrees float64) colorMatrix {
	rad := degrees * math.Pi / 180
	c := math.Cos(rad)
	s := math.Sin(rad)
	return colorMatrix{
		0.213 + c*0.787 - s*0.213, 0.715 - c*0.715 - s*0.715, 0.072 - c*0.072 + s*0.928, 0, 0,
		0.213 - c*0.213 + s*0.143, 0.715 + c*0.285 + s*0.140, 0.072 - c*0.072 - s*0.283, 0, 0,
		0.213 - c*0.213 - s*0.787, 0.715 - c*0.715 + s*0.715, 0.072 + c*0.928 + s*0.072, 0, 0,
		0, 0, 0, 1, 0,
	}
}

func brightnessMatrix(amount float64) colorMatrix {
	return colorMatrix{
		amount, 0, 0, 0, 0,
		0, amount, 0, 0, 0,
		0, 0, amount, 0, 0,
		0, 0, 0, 1, 0,
	}
}

func contrastMatrix(amount float64) colorMatrix {
	offset := (0.5 - 0.5*amount) * 255
	return colorMatrix{
		amount, 0, 0, 0, offset,
		0, amount, 0, 0, offset,
		0, 0, amount, 0, offset,
		0, 0, 0, 1, 0,
	}
}

// Effect is a named pixel transform applied uniformly to a frame.
type Effect struct {
	name   string
	matrix colorMatrix
}

// Name returns the effect name.
func (e *Effect) Name() string {
	return e.name
}

// Apply transforms the image in place, row-parallel.
func (e *Effect) Apply(img *image.RGBA) {
	bounds := img.Bounds()
	width := bounds.Dx()
	m := e.matrix

	parallelFor(bounds.Dy(), func(y int) {
		rowStart := img.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		for x := 0; x < width; x++ {
			i := rowStart + x*4
			r := float64(img.Pix[i])
			g := float64(img.Pix[i+1])
			b := float64(img.Pix[i+2])
			a := float64(img.Pix[i+3])

			img.Pix[i] = clampChannel(m[0]*r + m[1]*g + m[2]*b + m[3]*a + m[4])
			img.Pix[i+1] = clampChannel(m[5]*r + m[6]*g + m[7]*b + m[8]*a + m[9])
			img.Pix[i+2] = clampChannel(m[10]*r + m[11]*g + m[12]*b + m[13]*a + m[14])
			img.Pix[i+3] = clampChannel(m[15]*r + m[16]*g + m[17]*b + m[18]*a + m[19])
		}
	})
}

func clampChannel(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}

// effectRegistry maps filter ids to their effects. The identity filter has no
// entry; EffectFor returns nil for it.
var effectRegistry = map[string]*Effect{}

func registerEffect(name string, matrix colorMatrix) {
	if _, exists := effectRegistry[name]; exists {
		panic(fmt.Sprintf("effect %s is already registered", name))
	}
	effectRegistry[name] = &Effect{name: name, matrix: matrix}
}

func init() {
	registerEffect("grayscale", grayscaleMatrix(1.0))
	registerEffect("sepia", sepiaMatrix(1.0))
	// vintage mirrors "sepia(50%) contrast(120%) brightness(110%)"
	registerEffect("vintage", mulMatrix(brightnessMatrix(1.1), mulMatrix(contrastMatrix(1.2), sepiaMatrix(0.5))))
	// cool mirrors "hue-rotate(180deg) saturate(120%)"
	registerEffect("cool", mulMatrix(saturateMatrix(1.2), hueRotateMatrix(180)))
}

// EffectFor resolves the effect for a catalog filter id. The identity filter
// (empty id) yields nil, nil; unknown ids are an error.
func EffectFor(filterID string) (*Effect, error) {
	if filterID == "" {
		return nil, nil
	}
	effect, ok := effectRegistry[filterID]
	if !ok {
		return nil, fmt.Errorf("unknown filter: %s", filterID)
	}
	return effect, nil
}
