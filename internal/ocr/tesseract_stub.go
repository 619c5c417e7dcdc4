//go:build !cgo

package ocr

import "fmt"

// NewTesseractEngine always fails without cgo.
//
// To enable Tesseract, build with CGO_ENABLED=1 and install tesseract and
// leptonica development headers:
//   - Ubuntu/Debian: apt-get install libtesseract-dev libleptonica-dev tesseract-ocr-eng
//   - macOS: brew install tesseract leptonica
//
// The rekognition backend works without cgo.
func NewTesseractEngine(opts Options) (Engine, error) {
	return nil, fmt.Errorf("%w: tesseract requires a cgo build", ErrEngineUnavailable)
}
