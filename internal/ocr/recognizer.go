package ocr

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	plateimg "github.com/ironsheep/plate-tools-mcp/internal/imaging"
)

// ErrRecognizerClosed is returned by Warm after Close.
var ErrRecognizerClosed = errors.New("recognizer closed")

// Recognition arbitration thresholds, on the engine's 0-100 confidence scale.
const (
	// EarlyStopConfidence ends the mode sequence once an attempt exceeds it.
	EarlyStopConfidence = 85.0

	// SweepMaxConfidence and SweepMinTextLength gate the contrast sweep: it
	// runs when the best attempt is below both.
	SweepMaxConfidence = 40.0
	SweepMinTextLength = 3
)

// SweepContrasts are the contrast factors tried by the sweep, in order.
var SweepContrasts = []float64{1.5, 2.0, 2.5}

// Attempt is one configure+recognize call.
type Attempt struct {
	Mode SegMode `json:"mode"`

	// Contrast is the sweep factor; zero for the mode sequence.
	Contrast float64 `json:"contrast,omitempty"`

	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`

	// Err is set when the engine failed. Failed attempts never win.
	Err string `json:"error,omitempty"`
}

// Recognition is the outcome of Recognizer.Recognize.
type Recognition struct {
	// Text is the normalized plate text; may be empty.
	Text string `json:"plate_text"`

	// RawText is the winning attempt's text before normalization.
	RawText string `json:"raw_text"`

	Confidence float64 `json:"confidence"`
	Mode       SegMode `json:"mode"`
	Contrast   float64 `json:"contrast,omitempty"`

	// Preprocessed is false when preprocessing failed and the engine saw
	// the unprocessed crop.
	Preprocessed bool `json:"preprocessed"`

	Attempts []Attempt `json:"attempts"`
}

// Recognizer owns the OCR engine and arbitrates between segmentation modes.
//
// The engine is created by the factory on first use and kept until Close.
// Every configure+recognize pair holds the recognizer's lock, so concurrent
// Recognize calls are serialized and one call's mode never leaks into another.
type Recognizer struct {
	mu      sync.Mutex
	factory EngineFactory
	engine  Engine
	closed  bool

	modes []SegMode
	log   logrus.FieldLogger
}

// NewRecognizer creates a recognizer. The engine is not created until Warm or
// the first Recognize call.
func NewRecognizer(factory EngineFactory, log logrus.FieldLogger) *Recognizer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Recognizer{
		factory: factory,
		modes:   DefaultModes,
		log:     log,
	}
}

// Warm creates the engine now instead of on the first request.
func (r *Recognizer) Warm(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.engineLocked(ctx)
	return err
}

// Info reports the engine's availability and version, creating it if needed.
func (r *Recognizer) Info(ctx context.Context) EngineInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	engine, err := r.engineLocked(ctx)
	if err != nil {
		return EngineInfo{Available: false, Error: err.Error()}
	}
	info := EngineInfo{Available: true}
	if v, ok := engine.(Versioner); ok {
		info.Version = v.Version()
	}
	return info
}

// engineLocked returns the engine, creating it on first use. A failed
// creation is retried on the next call. r.mu must be held.
func (r *Recognizer) engineLocked(ctx context.Context) (Engine, error) {
	if r.closed {
		return nil, ErrRecognizerClosed
	}
	if r.engine != nil {
		return r.engine, nil
	}
	if r.factory == nil {
		return nil, ErrEngineUnavailable
	}

	engine, err := r.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR engine: %w", err)
	}
	r.log.Info("OCR engine initialized")
	r.engine = engine
	return engine, nil
}

// Recognize reads the plate text in a cropped plate image.
//
// Engine failures and low confidence are not errors: the result then holds
// the best text found, possibly empty. The only error is the context error
// when ctx is done before recognition finishes.
func (r *Recognizer) Recognize(ctx context.Context, data []byte) (*Recognition, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		r.log.Warn("empty plate image, nothing to recognize")
		return &Recognition{Attempts: []Attempt{}}, nil
	}

	prepared, err := prepare(data)
	if err != nil {
		r.log.WithError(err).Warn("preprocessing failed, recognizing the unprocessed image")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	engine, err := r.engineLocked(ctx)
	if err != nil {
		r.log.WithError(err).Error("OCR engine unavailable")
		return &Recognition{Preprocessed: prepared.Plane != nil, Attempts: []Attempt{}}, nil
	}

	attempts := make([]Attempt, 0, len(r.modes)+len(SweepContrasts))
	for _, mode := range r.modes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		attempt := r.attempt(ctx, engine, mode, 0, prepared.Data)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
		if attempt.Err == "" && attempt.Confidence > EarlyStopConfidence {
			break
		}
	}

	best, _ := bestAttempt(attempts)
	if best.Confidence < SweepMaxConfidence && utf8.RuneCountInString(best.Text) < SweepMinTextLength {
		r.log.WithFields(logrus.Fields{
			"confidence": best.Confidence,
			"text":       best.Text,
		}).Debug("low confidence result, trying contrast adjustments")

		sweep, err := r.contrastSweep(ctx, engine, prepared, data)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, sweep...)
	}

	best, ok := bestAttempt(attempts)
	if !ok {
		r.log.Warn("every recognition attempt failed")
	}

	result := &Recognition{
		Text:         Normalize(best.Text),
		RawText:      best.Text,
		Confidence:   best.Confidence,
		Mode:         best.Mode,
		Contrast:     best.Contrast,
		Preprocessed: prepared.Plane != nil,
		Attempts:     attempts,
	}
	r.log.WithFields(logrus.Fields{
		"text":       result.Text,
		"raw_text":   result.RawText,
		"confidence": result.Confidence,
		"mode":       result.Mode,
		"attempts":   len(attempts),
	}).Info("plate text recognized")
	return result, nil
}

// contrastSweep re-runs single-line recognition on contrast-adjusted copies
// of the preprocessed image.
func (r *Recognizer) contrastSweep(ctx context.Context, engine Engine, prepared *Prepared, data []byte) ([]Attempt, error) {
	plane := prepared.Plane
	if plane == nil {
		img, err := plateimg.Decode(data)
		if err != nil {
			r.log.WithError(err).Warn("cannot decode plate image, skipping contrast sweep")
			return nil, nil
		}
		plane = plateimg.Luminance(img)
	}

	attempts := make([]Attempt, 0, len(SweepContrasts))
	for _, contrast := range SweepContrasts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		adjusted, err := withContrast(plane, contrast)
		if err != nil {
			r.log.WithError(err).WithField("contrast", contrast).Warn("contrast adjustment failed")
			continue
		}
		attempt := r.attempt(ctx, engine, ModeSingleLine, contrast, adjusted)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		attempts = append(attempts, attempt)
	}
	return attempts, nil
}

// attempt runs one configure+recognize pair. r.mu must be held.
func (r *Recognizer) attempt(ctx context.Context, engine Engine, mode SegMode, contrast float64, image []byte) Attempt {
	attempt := Attempt{Mode: mode, Contrast: contrast}
	log := r.log.WithFields(logrus.Fields{"mode": mode, "contrast": contrast})

	if err := engine.SetMode(mode); err != nil {
		log.WithError(err).Warn("failed to configure OCR engine")
		attempt.Err = err.Error()
		return attempt
	}

	text, confidence, err := engine.Recognize(ctx, image)
	if err != nil {
		log.WithError(err).Warn("recognition attempt failed")
		attempt.Err = err.Error()
		return attempt
	}

	attempt.Text = text
	attempt.Confidence = confidence
	log.WithFields(logrus.Fields{"text": text, "confidence": confidence}).Debug("recognition attempt")
	return attempt
}

// bestAttempt folds over attempts keeping the highest confidence. The
// comparison is strict, so the earliest attempt wins ties. Failed attempts
// are skipped; ok is false when every attempt failed.
func bestAttempt(attempts []Attempt) (best Attempt, ok bool) {
	for _, a := range attempts {
		if a.Err != "" {
			continue
		}
		if !ok || a.Confidence > best.Confidence {
			best, ok = a, true
		}
	}
	return best, ok
}

// Close waits for the in-flight recognition, if any, and closes the engine.
// Later Recognize calls return empty results.
func (r *Recognizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if r.engine == nil {
		return nil
	}
	err := r.engine.Close()
	r.engine = nil
	r.log.Info("OCR engine terminated")
	return err
}
