package detection

import (
	"math"

	"github.com/ironsheep/plate-tools-mcp/internal/imaging"
)

// Plate geometry limits. Widths and heights are relative to the source image.
const (
	MinAspectRatio = 1.5
	MaxAspectRatio = 5.0

	MinWidthRatio  = 0.05
	MaxWidthRatio  = 0.9
	MinHeightRatio = 0.01
	MaxHeightRatio = 0.3
)

// Region is a candidate plate window in source pixel coordinates.
type Region struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Score is the window's edge density for scanned regions, the model
	// confidence for model regions and a nominal value for fallbacks.
	Score float64 `json:"score"`
}

// Rect returns the region geometry for the cropper.
func (r Region) Rect() imaging.Rect {
	return imaging.Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// AspectRatio returns width / height.
func (r Region) AspectRatio() float64 {
	return r.Width / r.Height
}

// plateShaped reports whether a window of the given size can hold a plate in
// an image of imgW x imgH pixels.
func plateShaped(width, height float64, imgW, imgH int) bool {
	if width <= 0 || height <= 0 {
		return false
	}
	aspect := width / height
	if aspect < MinAspectRatio || aspect > MaxAspectRatio {
		return false
	}
	if width < float64(imgW)*MinWidthRatio || width > float64(imgW)*MaxWidthRatio {
		return false
	}
	if height < float64(imgH)*MinHeightRatio || height > float64(imgH)*MaxHeightRatio {
		return false
	}
	return true
}

// PrimaryFallback is used when the scan yields no candidates: a band starting
// at 20% of the width and 40% of the height, 60% wide and 30% tall.
func PrimaryFallback(width, height int) Region {
	w, h := float64(width), float64(height)
	return Region{
		X:      math.Floor(w * 0.2),
		Y:      math.Floor(h * 0.4),
		Width:  math.Floor(w * 0.6),
		Height: math.Floor(h * 0.3),
		Score:  0.5,
	}
}

// EmergencyFallback is used when detection fails unexpectedly: a band 60% wide
// and 40% tall, centred horizontally and vertically.
func EmergencyFallback(width, height int) Region {
	w, h := float64(width), float64(height)
	regionW := math.Floor(w * 0.6)
	regionH := math.Floor(h * 0.4)
	return Region{
		X:      math.Floor((w - regionW) / 2),
		Y:      math.Floor(h*0.5 - regionH/2),
		Width:  regionW,
		Height: regionH,
		Score:  0.1,
	}
}
