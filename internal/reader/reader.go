// Package reader runs the full plate pipeline: locate the plate in an image,
// then read its text.
package reader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/plate-tools-mcp/internal/detection"
	"github.com/ironsheep/plate-tools-mcp/internal/imaging"
	"github.com/ironsheep/plate-tools-mcp/internal/ocr"
)

// ErrTimeout is returned when a read does not finish within the pipeline
// timeout.
var ErrTimeout = errors.New("plate read timed out")

// Result is the outcome of a read.
type Result struct {
	Text       string      `json:"plate_text"`
	RawText    string      `json:"raw_text"`
	Confidence float64     `json:"confidence"`
	Mode       ocr.SegMode `json:"mode"`

	Detection   *detection.Detection `json:"detection"`
	Recognition *ocr.Recognition     `json:"-"`

	Elapsed time.Duration `json:"elapsed"`
}

// Reader chains a Locator and a Recognizer under a deadline.
type Reader struct {
	locator    *detection.Locator
	recognizer *ocr.Recognizer
	timeout    time.Duration
	log        logrus.FieldLogger
}

// New creates a reader. A non-positive timeout disables the deadline.
func New(locator *detection.Locator, recognizer *ocr.Recognizer, timeout time.Duration, log logrus.FieldLogger) *Reader {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Reader{
		locator:    locator,
		recognizer: recognizer,
		timeout:    timeout,
		log:        log,
	}
}

// Read locates and reads the plate in encoded image data.
//
// Detection and recognition degrade rather than fail, so a nil error does not
// mean a plate was found: see Result.Detection.Found and Result.Text. Errors
// are returned for empty input, for cancellation and when the read exceeds
// the timeout (wrapping ErrTimeout).
func (r *Reader) Read(ctx context.Context, data []byte) (*Result, error) {
	start := time.Now()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	det, err := r.locator.Locate(ctx, data)
	if err != nil {
		return nil, r.wrap(ctx, "plate detection", err)
	}

	rec, err := r.recognizer.Recognize(ctx, det.Data)
	if err != nil {
		return nil, r.wrap(ctx, "plate recognition", err)
	}

	res := &Result{
		Text:        rec.Text,
		RawText:     rec.RawText,
		Confidence:  rec.Confidence,
		Mode:        rec.Mode,
		Detection:   det,
		Recognition: rec,
		Elapsed:     time.Since(start),
	}
	r.log.WithFields(logrus.Fields{
		"text":       res.Text,
		"confidence": res.Confidence,
		"source":     det.Source,
		"found":      det.Found,
		"elapsed":    res.Elapsed,
	}).Info("plate read")
	return res, nil
}

// ReadFile reads the image at path (JPEG or PNG, at most
// imaging.MaxFileSize bytes) and runs Read on it.
func (r *Reader) ReadFile(ctx context.Context, path string) (*Result, error) {
	data, err := imaging.ReadImageFile(path)
	if err != nil {
		return nil, err
	}
	return r.Read(ctx, data)
}

func (r *Reader) wrap(ctx context.Context, stage string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		r.log.WithField("timeout", r.timeout).Error(stage + " timed out")
		return fmt.Errorf("%w after %v during %s: %w", ErrTimeout, r.timeout, stage, err)
	}
	return fmt.Errorf("%s failed: %w", stage, err)
}
