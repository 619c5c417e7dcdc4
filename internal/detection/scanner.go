package detection

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/plate-tools-mcp/internal/imaging"
)

const (
	// MinEdgeDensity is the edge density a window must exceed to qualify.
	MinEdgeDensity = 0.10

	// SampleStride samples every 4th pixel in both axes of a window.
	SampleStride = 4

	minStep     = 4
	stepDivisor = 12
)

// DefaultThresholds are the edge-map binarization thresholds, tried in order.
var DefaultThresholds = []float64{0.10, 0.15, 0.20, 0.25}

// WindowRatio is a window size relative to the image width and height.
type WindowRatio struct {
	Width  float64
	Height float64
}

// DefaultWindows are the sliding-window sizes, smallest first.
var DefaultWindows = []WindowRatio{
	{Width: 0.20, Height: 0.05},
	{Width: 0.30, Height: 0.08},
	{Width: 0.40, Height: 0.10},
	{Width: 0.50, Height: 0.12},
}

// Trial holds the candidates found at one binarization threshold.
type Trial struct {
	Threshold  float64  `json:"threshold"`
	Candidates []Region `json:"candidates"`
}

// Scanner slides candidate windows over an edge map.
//
// A Scanner has no mutable state and may be shared between goroutines.
type Scanner struct {
	Thresholds []float64
	Windows    []WindowRatio

	log logrus.FieldLogger
}

// NewScanner creates a scanner with the default thresholds and window sizes.
func NewScanner(log logrus.FieldLogger) *Scanner {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Scanner{
		Thresholds: DefaultThresholds,
		Windows:    DefaultWindows,
		log:        log,
	}
}

// Scan runs one trial per threshold, in threshold order.
//
// The context is checked before every threshold and window size; when it is
// done Scan stops and returns the context error.
func (s *Scanner) Scan(ctx context.Context, edges *imaging.Plane) ([]Trial, error) {
	trials := make([]Trial, 0, len(s.Thresholds))
	for _, threshold := range s.Thresholds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		trial, err := s.scanThreshold(ctx, edges, threshold)
		if err != nil {
			return nil, err
		}
		s.log.WithFields(logrus.Fields{
			"threshold":  threshold,
			"candidates": len(trial.Candidates),
		}).Debug("scanned edge map")
		trials = append(trials, trial)
	}
	return trials, nil
}

// ScanThreshold binarizes the edge map at threshold and collects every
// qualifying window across all window sizes.
func (s *Scanner) ScanThreshold(edges *imaging.Plane, threshold float64) Trial {
	trial, _ := s.scanThreshold(context.Background(), edges, threshold)
	return trial
}

func (s *Scanner) scanThreshold(ctx context.Context, edges *imaging.Plane, threshold float64) (Trial, error) {
	width, height := edges.Width, edges.Height
	mask := make([]bool, len(edges.Pix))
	for i, v := range edges.Pix {
		mask[i] = v > threshold
	}

	trial := Trial{Threshold: threshold, Candidates: make([]Region, 0)}
	for _, ratio := range s.Windows {
		if err := ctx.Err(); err != nil {
			return Trial{}, err
		}

		windowW := float64(width) * ratio.Width
		windowH := float64(height) * ratio.Height
		// Geometry depends only on the window size, not its position.
		if !plateShaped(windowW, windowH, width, height) {
			continue
		}

		stepX := max(minStep, int(windowW/stepDivisor))
		stepY := max(minStep, int(windowH/stepDivisor))

		for y := 0; float64(y) < float64(height)-windowH; y += stepY {
			for x := 0; float64(x) < float64(width)-windowW; x += stepX {
				density := windowDensity(mask, width, height, x, y, windowW, windowH)
				if density > MinEdgeDensity {
					trial.Candidates = append(trial.Candidates, Region{
						X:      float64(x),
						Y:      float64(y),
						Width:  windowW,
						Height: windowH,
						Score:  density,
					})
				}
			}
		}
	}
	return trial, nil
}

// windowDensity samples every SampleStride-th pixel of the window in both axes
// and returns the fraction of sampled pixels that are edges.
func windowDensity(mask []bool, width, height, x, y int, windowW, windowH float64) float64 {
	endX := min(float64(x)+windowW, float64(width))
	endY := min(float64(y)+windowH, float64(height))

	var edgeCount, sampled int
	for wy := y; float64(wy) < endY; wy += SampleStride {
		row := wy * width
		for wx := x; float64(wx) < endX; wx += SampleStride {
			sampled++
			if mask[row+wx] {
				edgeCount++
			}
		}
	}
	if sampled == 0 {
		return 0
	}
	return float64(edgeCount) / float64(sampled)
}
