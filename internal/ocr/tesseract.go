//go:build cgo

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// tesseractEngine wraps a single gosseract client.
type tesseractEngine struct {
	client *gosseract.Client
}

// NewTesseractEngine creates a Tesseract engine with the language, tessdata
// location and character whitelist from opts.
//
// Tesseract and its language data must be installed:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
func NewTesseractEngine(opts Options) (Engine, error) {
	client := gosseract.NewClient()

	if opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(opts.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: failed to set tessdata prefix: %v", ErrEngineUnavailable, err)
		}
	}

	language := opts.Language
	if language == "" {
		language = "eng"
	}
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: failed to set language: %v", ErrEngineUnavailable, err)
	}

	if opts.Whitelist != "" {
		if err := client.SetWhitelist(opts.Whitelist); err != nil {
			client.Close()
			return nil, fmt.Errorf("%w: failed to set whitelist: %v", ErrEngineUnavailable, err)
		}
	}

	return &tesseractEngine{client: client}, nil
}

func (e *tesseractEngine) SetMode(mode SegMode) error {
	if err := e.client.SetPageSegMode(gosseract.PageSegMode(mode)); err != nil {
		return fmt.Errorf("failed to set page segmentation mode %s: %w", mode, err)
	}
	return nil
}

// Recognize returns the recognized text and the mean word confidence.
func (e *tesseractEngine) Recognize(ctx context.Context, image []byte) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}

	if err := e.client.SetImageFromBytes(image); err != nil {
		return "", 0, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := e.client.Text()
	if err != nil {
		return "", 0, fmt.Errorf("OCR failed: %w", err)
	}

	// Confidence is only available per word
	boxes, err := e.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return strings.TrimSpace(text), 0, nil
	}

	var sum float64
	var words int
	for _, box := range boxes {
		if strings.TrimSpace(box.Word) == "" {
			continue
		}
		sum += box.Confidence
		words++
	}
	if words == 0 {
		return strings.TrimSpace(text), 0, nil
	}
	return strings.TrimSpace(text), sum / float64(words), nil
}

func (e *tesseractEngine) Version() string {
	return e.client.Version()
}

func (e *tesseractEngine) Close() error {
	return e.client.Close()
}
