package filters

import (
	"image"
	"image/color"
	"math"
)

// ColorMatrix is a 4x5 row-major matrix applied to straight-alpha RGBA in
// [0, 1]. Elements 4, 9, 14 and 19 are offsets.
type ColorMatrix [20]float64

var identityMatrix = ColorMatrix{
	1, 0, 0, 0, 0,
	0, 1, 0, 0, 0,
	0, 0, 1, 0, 0,
	0, 0, 0, 1, 0,
}

var grayscaleMatrix = ColorMatrix{
	0.2125, 0.7154, 0.0721, 0, 0,
	0.2125, 0.7154, 0.0721, 0, 0,
	0.2125, 0.7154, 0.0721, 0, 0,
	0, 0, 0, 1, 0,
}

var invertMatrix = ColorMatrix{
	-1, 0, 0, 0, 1,
	0, -1, 0, 0, 1,
	0, 0, -1, 0, 1,
	0, 0, 0, 1, 0,
}

var sepiaMatrix = ColorMatrix{
	0.3588, 0.7044, 0.1368, 0, 0,
	0.2990, 0.5870, 0.1140, 0, 0,
	0.2392, 0.4696, 0.0912, 0, 0,
	0, 0, 0, 1, 0,
}

// RGB returns the 3x3 color part of the matrix, row-major
func (m ColorMatrix) RGB() [9]float64 {
	return [9]float64{
		m[0], m[1], m[2],
		m[5], m[6], m[7],
		m[10], m[11], m[12],
	}
}

// Offsets returns the constant term added to each channel
func (m ColorMatrix) Offsets() [4]float64 {
	return [4]float64{m[4], m[9], m[14], m[19]}
}

// Transform applies the matrix to one straight-alpha color
func (m ColorMatrix) Transform(c color.NRGBA) color.NRGBA {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255
	a := float64(c.A) / 255
	return color.NRGBA{
		R: toByte(m[0]*r + m[1]*g + m[2]*b + m[3]*a + m[4]),
		G: toByte(m[5]*r + m[6]*g + m[7]*b + m[8]*a + m[9]),
		B: toByte(m[10]*r + m[11]*g + m[12]*b + m[13]*a + m[14]),
		A: toByte(m[15]*r + m[16]*g + m[17]*b + m[18]*a + m[19]),
	}
}

// Apply runs the matrix over every pixel of src, the way the fragment
// shader does on the GPU. The result has the same bounds as src.
func (m ColorMatrix) Apply(src image.Image) *image.NRGBA {
	bounds := src.Bounds()
	dst := image.NewNRGBA(bounds)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			dst.SetNRGBA(x, y, m.Transform(c))
		}
	}
	return dst
}

func toByte(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(math.Round(v * 255))
}
