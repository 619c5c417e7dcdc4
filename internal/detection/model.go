package detection

import (
	"context"
	"errors"
	"image"
)

var (
	// ErrModelUnavailable is returned by NewModelDetector when no model is
	// configured, it cannot be loaded, or model support was not compiled in.
	ErrModelUnavailable = errors.New("plate detection model unavailable")

	// ErrNoDetection is returned by a ModelDetector that found no plate above
	// its confidence threshold.
	ErrNoDetection = errors.New("no plate detected")
)

// DefaultModelMinConfidence is the minimum model score for a detection.
const DefaultModelMinConfidence = 0.5

// ModelConfig describes a trained plate detector on disk.
type ModelConfig struct {
	// Path is the model weights file (ONNX, TensorFlow .pb, Caffe, ...).
	Path string

	// Config is the optional network description (e.g. .pbtxt for TensorFlow).
	Config string

	// MinConfidence drops detections scoring below it.
	MinConfidence float64
}

// ModelDetector is a trained plate detector. It accelerates detection when
// present; Locate falls through to the heuristic scan when it reports
// ErrNoDetection or any other error.
type ModelDetector interface {
	// Detect returns the highest-confidence plate region in img.
	Detect(ctx context.Context, img image.Image) (Region, error)

	// Close releases the model.
	Close() error
}
