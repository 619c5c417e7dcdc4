package imaging

import (
	"image"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// EdgeContrastFactor is the contrast gain applied around the mean luminance
// before smoothing.
const EdgeContrastFactor = 1.5

// BuildEdgeMap converts an image to a normalized edge-magnitude map.
//
// The returned plane has the same dimensions as img and every sample lies in
// [0,1]. An image without any intensity change (e.g. solid black) yields an
// all-zero map.
//
// # Algorithm
//
//  1. Luminance: RGB -> gray using BT.601 weights
//  2. Contrast: v' = clamp((v-mean)*1.5 + mean) with the mean over the whole image
//  3. Smoothing: 3x3 binomial kernel (1-2-1 / 2-4-2 / 1-2-1, divisor 16)
//  4. Gradients: Sobel X and Sobel Y
//  5. Magnitude: sqrt(Gx² + Gy²)
//  6. Normalization: divide by the maximum magnitude
func BuildEdgeMap(img image.Image) *Plane {
	gray := Luminance(img)
	if len(gray.Pix) == 0 {
		return gray
	}

	mean := stat.Mean(gray.Pix, nil)
	contrasted := gray.Stretch(mean, EdgeContrastFactor)

	smoothed := Convolve3x3(contrasted, SmoothingKernel)
	gx := Convolve3x3(smoothed, SobelX)
	gy := Convolve3x3(smoothed, SobelY)

	magnitude := NewPlane(gray.Width, gray.Height)
	for i := range magnitude.Pix {
		magnitude.Pix[i] = math.Hypot(gx.Pix[i], gy.Pix[i])
	}

	peak := floats.Max(magnitude.Pix)
	if peak <= 0 {
		return magnitude
	}
	floats.Scale(1/peak, magnitude.Pix)
	return magnitude
}
