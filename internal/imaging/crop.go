package imaging

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

const (
	// DefaultMarginRatio is the fraction of the region size added on every side.
	DefaultMarginRatio = 0.25

	// DefaultMinDimension is the smallest usable crop width or height in pixels.
	DefaultMinDimension = 100

	// SafeCropRatio sizes the safe crop relative to the source image.
	SafeCropRatio = 0.3
)

// ErrInvalidCrop is returned when a crop has non-positive width or height.
var ErrInvalidCrop = errors.New("invalid crop dimensions")

// Rect is a region in source pixel coordinates. Values may be fractional;
// they are floored when converted to pixel bounds.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CropResult contains the cropped image data
type CropResult struct {
	// Bounds is the crop rectangle in source image coordinates.
	Bounds image.Rectangle `json:"-"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// Safe is true when the margin-expanded box was too small and the
	// centred safe crop was used instead.
	Safe bool `json:"safe"`

	// Image is the cropped sub-image.
	Image *image.NRGBA `json:"-"`

	// Data is Image encoded as PNG.
	Data     []byte `json:"-"`
	MimeType string `json:"mime_type"`
}

// Cropper turns a detected (or fallback) region into final crop bounds.
type Cropper struct {
	// MarginRatio is the fraction of the clamped region width/height added
	// on each side.
	MarginRatio float64

	// MinDimension is the minimum crop width and height. Smaller boxes are
	// replaced by the safe crop.
	MinDimension int
}

// NewCropper creates a cropper. Non-positive minDimension and negative
// marginRatio fall back to the defaults.
func NewCropper(marginRatio float64, minDimension int) *Cropper {
	if marginRatio < 0 {
		marginRatio = DefaultMarginRatio
	}
	if minDimension <= 0 {
		minDimension = DefaultMinDimension
	}
	return &Cropper{MarginRatio: marginRatio, MinDimension: minDimension}
}

// Bounds computes the crop rectangle for r inside an image of the given size.
//
// The region is first clamped to the image, then grown by MarginRatio on every
// side and clamped again. If either side of that box is below MinDimension, a
// safe box of max(MinDimension, 30% of the image) per axis is centred on the
// region instead and kept inside the image. The returned bool reports whether
// the safe box was used.
//
// Returns ErrInvalidCrop if the clamped region or the final box is empty.
func (c *Cropper) Bounds(size image.Point, r Rect) (image.Rectangle, bool, error) {
	imgW, imgH := size.X, size.Y

	x := max(0, int(math.Floor(r.X)))
	y := max(0, int(math.Floor(r.Y)))
	w := min(int(math.Floor(r.Width)), imgW-x)
	h := min(int(math.Floor(r.Height)), imgH-y)
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, false, fmt.Errorf("%w: region %dx%d at (%d,%d)", ErrInvalidCrop, w, h, x, y)
	}

	marginX := int(float64(w) * c.MarginRatio)
	marginY := int(float64(h) * c.MarginRatio)
	fx := max(0, x-marginX)
	fy := max(0, y-marginY)
	fw := min(w+2*marginX, imgW-fx)
	fh := min(h+2*marginY, imgH-fy)
	if fw <= 0 || fh <= 0 {
		return image.Rectangle{}, false, fmt.Errorf("%w: expanded box %dx%d", ErrInvalidCrop, fw, fh)
	}

	if fw >= c.MinDimension && fh >= c.MinDimension {
		return image.Rect(fx, fy, fx+fw, fy+fh), false, nil
	}

	safeW := max(c.MinDimension, int(float64(imgW)*SafeCropRatio))
	safeH := max(c.MinDimension, int(float64(imgH)*SafeCropRatio))
	safeX := int(math.Floor(math.Max(0, math.Min(float64(x)+float64(w)/2-float64(safeW)/2, float64(imgW-safeW)))))
	safeY := int(math.Floor(math.Max(0, math.Min(float64(y)+float64(h)/2-float64(safeH)/2, float64(imgH-safeH)))))

	// Images smaller than the safe box are cropped to their own bounds.
	safe := image.Rect(safeX, safeY, safeX+safeW, safeY+safeH).Intersect(image.Rect(0, 0, imgW, imgH))
	if safe.Empty() {
		return image.Rectangle{}, true, fmt.Errorf("%w: safe box %v", ErrInvalidCrop, safe)
	}
	return safe, true, nil
}

// Crop extracts the crop for r from img and encodes it as PNG.
func (c *Cropper) Crop(img image.Image, r Rect) (*CropResult, error) {
	bounds := img.Bounds()
	rect, safe, err := c.Bounds(bounds.Size(), r)
	if err != nil {
		return nil, err
	}

	cropped := imaging.Crop(img, rect.Add(bounds.Min))

	data, err := EncodePNG(cropped)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	return &CropResult{
		Bounds:   rect,
		Width:    cropped.Bounds().Dx(),
		Height:   cropped.Bounds().Dy(),
		Safe:     safe,
		Image:    cropped,
		Data:     data,
		MimeType: "image/png",
	}, nil
}
