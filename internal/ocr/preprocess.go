package ocr

import (
	"fmt"

	"github.com/anthonynsimon/bild/convolution"
	"github.com/disintegration/imaging"

	plateimg "github.com/ironsheep/plate-tools-mcp/internal/imaging"
)

// Recognition preprocessing parameters.
const (
	// PreprocessContrast stretches the smoothed grayscale around 0.5.
	PreprocessContrast = 2.0

	// AdaptiveWindow is the side of the local-mean window used for binarization.
	AdaptiveWindow = 15

	// AdaptiveOffset lowers the local mean a pixel must exceed to be "on".
	AdaptiveOffset = 0.05

	// MinOCRWidth is the width narrower images are upscaled to.
	MinOCRWidth = 300
)

// Prepared is a plate image ready for the engine.
type Prepared struct {
	// Data is the encoded image handed to the engine.
	Data []byte

	// Plane is the preprocessed image the contrast sweep starts from. It is
	// nil when preprocessing failed and Data holds the unprocessed input.
	Plane *plateimg.Plane
}

// Preprocess prepares a cropped plate image for recognition: grayscale,
// 3x3 Gaussian smoothing, a contrast stretch, local-mean adaptive
// binarization, upscaling to MinOCRWidth and a 2x2 max-pool dilation.
func Preprocess(data []byte) (*plateimg.Plane, error) {
	src, err := plateimg.Decode(data)
	if err != nil {
		return nil, err
	}
	if src.Bounds().Empty() {
		return nil, fmt.Errorf("empty image")
	}

	gray := imaging.Grayscale(src)

	kernel := convolution.NewKernel(3, 3)
	kernel.Matrix = []float64{
		1, 2, 1,
		2, 4, 2,
		1, 2, 1,
	}
	smoothed := convolution.Convolve(gray, kernel.Normalized(), &convolution.Options{KeepAlpha: true})

	stretched := plateimg.Luminance(smoothed).Stretch(0.5, PreprocessContrast)
	binary := adaptiveThreshold(stretched, AdaptiveWindow, AdaptiveOffset)

	if binary.Width < MinOCRWidth {
		binary = upscale(binary, MinOCRWidth)
	}
	return plateimg.MaxPool2x2(binary), nil
}

// adaptiveThreshold marks a pixel 1 when it exceeds its local mean minus offset.
func adaptiveThreshold(p *plateimg.Plane, window int, offset float64) *plateimg.Plane {
	mean := plateimg.BoxMean(p, window)
	out := plateimg.NewPlane(p.Width, p.Height)
	for i, v := range p.Pix {
		if v > mean.Pix[i]-offset {
			out.Pix[i] = 1
		}
	}
	return out
}

// upscale resizes p to the given width with bilinear filtering, keeping the
// aspect ratio.
func upscale(p *plateimg.Plane, width int) *plateimg.Plane {
	height := max(1, p.Height*width/p.Width)
	resized := imaging.Resize(p.Gray(), width, height, imaging.Linear)
	return plateimg.Luminance(resized)
}

// prepare runs Preprocess and encodes the result. Any failure falls back to
// the unprocessed input.
func prepare(data []byte) (*Prepared, error) {
	plane, err := Preprocess(data)
	if err != nil {
		return &Prepared{Data: data}, err
	}
	encoded, err := plateimg.EncodePNG(plane.Gray())
	if err != nil {
		return &Prepared{Data: data}, err
	}
	return &Prepared{Data: encoded, Plane: plane}, nil
}

// withContrast applies (v-0.5)*factor+0.5, clamped to [0,1], and encodes the
// result for the engine.
func withContrast(p *plateimg.Plane, factor float64) ([]byte, error) {
	return plateimg.EncodePNG(p.Stretch(0.5, factor).Gray())
}
