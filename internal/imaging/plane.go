package imaging

import (
	"image"
	"image/color"
)

// Plane is a single-channel image with float64 samples, stored row-major.
//
// Sample values are normally in [0,1] where 0 is black and 1 is white, but
// intermediate results (e.g. gradients) may fall outside that range.
type Plane struct {
	Width  int
	Height int
	Pix    []float64
}

// NewPlane allocates a zero-filled plane.
func NewPlane(width, height int) *Plane {
	return &Plane{
		Width:  width,
		Height: height,
		Pix:    make([]float64, width*height),
	}
}

// At returns the sample at (x, y). Coordinates must be inside the plane.
func (p *Plane) At(x, y int) float64 {
	return p.Pix[y*p.Width+x]
}

// Set stores v at (x, y).
func (p *Plane) Set(x, y int, v float64) {
	p.Pix[y*p.Width+x] = v
}

// clampedAt replicates edge pixels for reads outside the plane.
func (p *Plane) clampedAt(x, y int) float64 {
	return p.At(clamp(x, 0, p.Width-1), clamp(y, 0, p.Height-1))
}

// Map returns a new plane with fn applied to every sample.
func (p *Plane) Map(fn func(float64) float64) *Plane {
	out := NewPlane(p.Width, p.Height)
	for i, v := range p.Pix {
		out.Pix[i] = fn(v)
	}
	return out
}

// Stretch scales every sample away from center by factor and clamps the
// result to [0,1]: v' = clamp((v-center)*factor + center).
func (p *Plane) Stretch(center, factor float64) *Plane {
	return p.Map(func(v float64) float64 {
		return clamp01((v-center)*factor + center)
	})
}

// Threshold returns a plane holding 1 where the sample is strictly greater
// than t and 0 elsewhere.
func (p *Plane) Threshold(t float64) *Plane {
	return p.Map(func(v float64) float64 {
		if v > t {
			return 1
		}
		return 0
	})
}

// Gray converts the plane to an 8-bit grayscale image, clamping samples to [0,1].
func (p *Plane) Gray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, p.Width, p.Height))
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(clamp01(p.At(x, y))*255 + 0.5)})
		}
	}
	return img
}

// Luminance converts any image to a plane of luminance values in [0,1]
// using ITU-R BT.601 weights (0.299*R + 0.587*G + 0.114*B).
//
// A grayscale source yields its gray level unchanged.
func Luminance(img image.Image) *Plane {
	bounds := img.Bounds()
	p := NewPlane(bounds.Dx(), bounds.Dy())

	if gray, ok := img.(*image.Gray); ok {
		for y := 0; y < p.Height; y++ {
			for x := 0; x < p.Width; x++ {
				p.Set(x, y, float64(gray.GrayAt(x+bounds.Min.X, y+bounds.Min.Y).Y)/255.0)
			}
		}
		return p
	}

	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			rf := float64(r) / 65535.0
			gf := float64(g) / 65535.0
			bf := float64(b) / 65535.0
			p.Set(x, y, 0.299*rf+0.587*gf+0.114*bf)
		}
	}
	return p
}

// Kernel3 is a 3x3 convolution kernel indexed [row][column].
type Kernel3 [3][3]float64

// Scale returns the kernel with every weight multiplied by f.
func (k Kernel3) Scale(f float64) Kernel3 {
	var out Kernel3
	for i := range k {
		for j := range k[i] {
			out[i][j] = k[i][j] * f
		}
	}
	return out
}

// Transpose returns the kernel mirrored about its main diagonal.
func (k Kernel3) Transpose() Kernel3 {
	var out Kernel3
	for i := range k {
		for j := range k[i] {
			out[j][i] = k[i][j]
		}
	}
	return out
}

var (
	// SmoothingKernel is the normalized 1-2-1 binomial kernel (divisor 16).
	SmoothingKernel = Kernel3{
		{1, 2, 1},
		{2, 4, 2},
		{1, 2, 1},
	}.Scale(1.0 / 16.0)

	// SobelX responds to horizontal intensity changes (vertical edges).
	SobelX = Kernel3{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}

	// SobelY responds to vertical intensity changes (horizontal edges).
	SobelY = SobelX.Transpose()
)

// Convolve3x3 correlates the plane with k. Reads outside the plane replicate
// the nearest edge pixel, so the output has the same size as the input.
func Convolve3x3(p *Plane, k Kernel3) *Plane {
	out := NewPlane(p.Width, p.Height)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			var sum float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					sum += p.clampedAt(x+kx, y+ky) * k[ky+1][kx+1]
				}
			}
			out.Set(x, y, sum)
		}
	}
	return out
}

// BoxMean returns the local mean of every size x size neighbourhood centred on
// each pixel. Only pixels inside the plane contribute to the mean, so border
// pixels average over a smaller window.
//
// The implementation uses a summed-area table and runs in O(width*height)
// regardless of the window size.
func BoxMean(p *Plane, size int) *Plane {
	if size < 1 {
		size = 1
	}
	w, h := p.Width, p.Height
	sat := make([]float64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var row float64
		for x := 0; x < w; x++ {
			row += p.At(x, y)
			sat[(y+1)*(w+1)+x+1] = sat[y*(w+1)+x+1] + row
		}
	}

	before := (size - 1) / 2
	after := size - 1 - before

	out := NewPlane(w, h)
	for y := 0; y < h; y++ {
		y0 := max(0, y-before)
		y1 := min(h, y+after+1)
		for x := 0; x < w; x++ {
			x0 := max(0, x-before)
			x1 := min(w, x+after+1)
			sum := sat[y1*(w+1)+x1] - sat[y0*(w+1)+x1] - sat[y1*(w+1)+x0] + sat[y0*(w+1)+x0]
			out.Set(x, y, sum/float64((x1-x0)*(y1-y0)))
		}
	}
	return out
}

// MaxPool2x2 is a stride-1 dilation with a 2x2 structuring element anchored at
// the top-left: each output pixel is the maximum of itself and its right,
// lower and lower-right neighbours that exist.
func MaxPool2x2(p *Plane) *Plane {
	out := NewPlane(p.Width, p.Height)
	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			m := p.At(x, y)
			if x+1 < p.Width {
				m = max(m, p.At(x+1, y))
			}
			if y+1 < p.Height {
				m = max(m, p.At(x, y+1))
				if x+1 < p.Width {
					m = max(m, p.At(x+1, y+1))
				}
			}
			out.Set(x, y, m)
		}
	}
	return out
}

// clamp constrains an integer value to the range [lo, hi].
// Used for boundary handling in convolution operations.
func clamp(val, lo, hi int) int {
	if val < lo {
		return lo
	}
	if val > hi {
		return hi
	}
	return val
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
