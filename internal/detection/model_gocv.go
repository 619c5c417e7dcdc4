//go:build gocv

package detection

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// modelInputSize is the square input resolution of SSD-style detectors.
const modelInputSize = 300

// dnnDetector runs an SSD-style network through OpenCV's dnn module.
//
// The network output is expected in the [1, 1, N, 7] layout, one row per
// detection: [batch, class, confidence, x1, y1, x2, y2] with coordinates
// normalized to [0,1].
type dnnDetector struct {
	// gocv.Net is not safe for concurrent use
	mu            sync.Mutex
	net           gocv.Net
	minConfidence float64
}

// NewModelDetector loads the model described by cfg with OpenCV's dnn module.
func NewModelDetector(cfg ModelConfig) (ModelDetector, error) {
	if cfg.Path == "" {
		return nil, ErrModelUnavailable
	}
	if _, err := os.Stat(cfg.Path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	net := gocv.ReadNet(cfg.Path, cfg.Config)
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("%w: failed to load %s", ErrModelUnavailable, cfg.Path)
	}

	minConfidence := cfg.MinConfidence
	if minConfidence <= 0 {
		minConfidence = DefaultModelMinConfidence
	}
	return &dnnDetector{net: net, minConfidence: minConfidence}, nil
}

func (d *dnnDetector) Detect(ctx context.Context, img image.Image) (Region, error) {
	if err := ctx.Err(); err != nil {
		return Region{}, err
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return Region{}, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()

	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(modelInputSize, modelInputSize),
		gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	d.net.SetInput(blob, "")
	out := d.net.Forward("")
	d.mu.Unlock()
	defer out.Close()

	rows := out.Total() / 7
	if rows == 0 {
		return Region{}, ErrNoDetection
	}
	detections := out.Reshape(1, rows)
	defer detections.Close()

	width := float64(img.Bounds().Dx())
	height := float64(img.Bounds().Dy())

	best := Region{Score: -1}
	for i := 0; i < rows; i++ {
		confidence := float64(detections.GetFloatAt(i, 2))
		if confidence < d.minConfidence || confidence <= best.Score {
			continue
		}
		x1 := float64(detections.GetFloatAt(i, 3))
		y1 := float64(detections.GetFloatAt(i, 4))
		x2 := float64(detections.GetFloatAt(i, 5))
		y2 := float64(detections.GetFloatAt(i, 6))
		best = Region{
			X:      x1 * width,
			Y:      y1 * height,
			Width:  (x2 - x1) * width,
			Height: (y2 - y1) * height,
			Score:  confidence,
		}
	}
	if best.Score < 0 {
		return Region{}, ErrNoDetection
	}
	return best, nil
}

func (d *dnnDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}
