package detection

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/plate-tools-mcp/internal/imaging"
)

// Source names where a detection's crop came from.
type Source string

const (
	SourceModel     Source = "model"
	SourceScan      Source = "scan"
	SourceFallback  Source = "fallback"
	SourceEmergency Source = "emergency"
	SourceOriginal  Source = "original"
)

// Detection is the outcome of Locate. Data is never empty for a successful call.
type Detection struct {
	// Data is the cropped plate image (PNG), or the original bytes when the
	// crop could not be made.
	Data     []byte `json:"-"`
	MimeType string `json:"mime_type,omitempty"`

	// Found is true only when the model or the scan located the region.
	Found  bool   `json:"plate_found"`
	Source Source `json:"source"`

	// Region is the region handed to the cropper; nil for SourceOriginal.
	Region *Region `json:"region,omitempty"`

	// Crop is the final crop rectangle in source coordinates.
	Crop image.Rectangle `json:"-"`
	Safe bool            `json:"safe_crop"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// Threshold and Candidates describe the winning scan trial.
	Threshold  float64  `json:"threshold,omitempty"`
	Candidates []Region `json:"candidates,omitempty"`
}

// Locator implements the detect step of the pipeline.
type Locator struct {
	scanner *Scanner
	cropper *imaging.Cropper
	model   ModelDetector
	log     logrus.FieldLogger
}

// LocatorOption configures a Locator.
type LocatorOption func(*Locator)

// WithCropper replaces the default cropper (25% margin, 100 px minimum).
func WithCropper(c *imaging.Cropper) LocatorOption {
	return func(l *Locator) { l.cropper = c }
}

// WithModel enables the trained-model accelerator.
func WithModel(m ModelDetector) LocatorOption {
	return func(l *Locator) { l.model = m }
}

// WithScanner replaces the default scanner.
func WithScanner(s *Scanner) LocatorOption {
	return func(l *Locator) { l.scanner = s }
}

// WithLogger sets the logger used by the locator and its default scanner.
func WithLogger(log logrus.FieldLogger) LocatorOption {
	return func(l *Locator) { l.log = log }
}

// NewLocator creates a locator using the heuristic scan, unless a model is
// supplied with WithModel.
func NewLocator(opts ...LocatorOption) *Locator {
	l := &Locator{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(l)
	}
	if l.scanner == nil {
		l.scanner = NewScanner(l.log)
	}
	if l.cropper == nil {
		l.cropper = imaging.NewCropper(imaging.DefaultMarginRatio, imaging.DefaultMinDimension)
	}
	return l
}

// Locate finds the plate in encoded image data and returns the cropped region.
//
// Locate degrades instead of failing: an empty scan uses the primary fallback
// region, an unexpected failure uses the emergency region, and an invalid crop
// or undecodable data returns data itself. The only errors are
// imaging.ErrEmptyImage for empty input and the context error when ctx is done.
func (l *Locator) Locate(ctx context.Context, data []byte) (*Detection, error) {
	if len(data) == 0 {
		return nil, imaging.ErrEmptyImage
	}

	img, err := imaging.Decode(data)
	if err != nil {
		l.log.WithError(err).Warn("cannot decode image, returning it uncropped")
		return original(data), nil
	}

	det, err := l.detect(ctx, img, data)
	if err == nil {
		return det, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("plate detection aborted: %w", ctxErr)
	}

	l.log.WithError(err).Warn("detection failed, using emergency fallback region")
	det, err = l.emergency(img, data)
	if err != nil {
		l.log.WithError(err).Error("emergency fallback failed, returning original image")
		return original(data), nil
	}
	return det, nil
}

// detect runs the model (if any) and the scan. Panics from the image code are
// returned as errors so that Locate can use the emergency tier.
func (l *Locator) detect(ctx context.Context, img image.Image, data []byte) (det *Detection, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("detection panic: %v", r)
		}
	}()

	bounds := img.Bounds()

	if l.model != nil {
		region, err := l.model.Detect(ctx, img)
		switch {
		case err == nil:
			l.log.WithField("region", region).Info("plate located by model")
			return l.crop(img, data, region, SourceModel)
		case errors.Is(err, ErrNoDetection):
			l.log.Debug("model found no plate, scanning")
		case ctx.Err() != nil:
			return nil, err
		default:
			l.log.WithError(err).Warn("model detection failed, scanning")
		}
	}

	edges := imaging.BuildEdgeMap(img)
	trials, err := l.scanner.Scan(ctx, edges)
	if err != nil {
		return nil, err
	}

	best, top := Select(trials)
	if len(top) == 0 {
		region := PrimaryFallback(bounds.Dx(), bounds.Dy())
		l.log.WithField("region", region).Info("no candidate regions, using fallback region")
		return l.crop(img, data, region, SourceFallback)
	}

	l.log.WithFields(logrus.Fields{
		"threshold":  best.Threshold,
		"candidates": len(best.Candidates),
		"region":     top[0],
	}).Info("plate region located")

	det, err = l.crop(img, data, top[0], SourceScan)
	if err != nil {
		return nil, err
	}
	det.Threshold = best.Threshold
	det.Candidates = top
	return det, nil
}

func (l *Locator) emergency(img image.Image, data []byte) (det *Detection, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("emergency crop panic: %v", r)
		}
	}()
	bounds := img.Bounds()
	return l.crop(img, data, EmergencyFallback(bounds.Dx(), bounds.Dy()), SourceEmergency)
}

// crop applies the cropper. An invalid crop is not an error: the original
// bytes are returned unmodified.
func (l *Locator) crop(img image.Image, data []byte, region Region, source Source) (*Detection, error) {
	result, err := l.cropper.Crop(img, region.Rect())
	if errors.Is(err, imaging.ErrInvalidCrop) {
		l.log.WithError(err).WithField("region", region).Warn("invalid crop, returning original image")
		return original(data), nil
	}
	if err != nil {
		return nil, err
	}

	l.log.WithFields(logrus.Fields{
		"source": source,
		"crop":   result.Bounds.String(),
		"safe":   result.Safe,
	}).Debug("cropped plate region")

	return &Detection{
		Data:     result.Data,
		MimeType: result.MimeType,
		Found:    source == SourceModel || source == SourceScan,
		Source:   source,
		Region:   &region,
		Crop:     result.Bounds,
		Safe:     result.Safe,
		Width:    result.Width,
		Height:   result.Height,
	}, nil
}

// Close releases the model, if any.
func (l *Locator) Close() error {
	if l.model == nil {
		return nil
	}
	return l.model.Close()
}

func original(data []byte) *Detection {
	return &Detection{
		Data:   data,
		Source: SourceOriginal,
	}
}
