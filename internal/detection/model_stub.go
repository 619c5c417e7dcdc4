//go:build !gocv

package detection

// NewModelDetector always fails without the "gocv" build tag; detection then
// uses the heuristic scan only.
//
// To enable the trained-model path, rebuild with the "gocv" build tag:
//
//	go build -tags gocv ./...
//
// This requires OpenCV 4 with the dnn module to be installed.
func NewModelDetector(cfg ModelConfig) (ModelDetector, error) {
	return nil, ErrModelUnavailable
}
