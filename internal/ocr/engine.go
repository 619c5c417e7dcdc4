package ocr

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrEngineUnavailable is returned when an OCR backend cannot be created,
// e.g. Tesseract support was not compiled in or AWS credentials are missing.
var ErrEngineUnavailable = errors.New("OCR engine unavailable")

// SegMode tells the engine how to interpret the layout of the text.
// Values match Tesseract's page segmentation modes.
type SegMode int

const (
	ModeSingleBlock SegMode = 6
	ModeSingleLine  SegMode = 7
	ModeSingleWord  SegMode = 8
	ModeSparseText  SegMode = 11
	ModeRawLine     SegMode = 13
)

// DefaultModes is the order in which segmentation modes are attempted.
var DefaultModes = []SegMode{
	ModeSingleLine,
	ModeSingleBlock,
	ModeSingleWord,
	ModeSparseText,
	ModeRawLine,
}

func (m SegMode) String() string {
	switch m {
	case ModeSingleBlock:
		return "single_block"
	case ModeSingleLine:
		return "single_line"
	case ModeSingleWord:
		return "single_word"
	case ModeSparseText:
		return "sparse_text"
	case ModeRawLine:
		return "raw_line"
	default:
		return fmt.Sprintf("psm_%d", int(m))
	}
}

// MarshalText encodes the mode by name in JSON output.
func (m SegMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (m *SegMode) UnmarshalText(text []byte) error {
	name := string(text)
	for _, mode := range DefaultModes {
		if mode.String() == name {
			*m = mode
			return nil
		}
	}
	if n, ok := strings.CutPrefix(name, "psm_"); ok {
		v, err := strconv.Atoi(n)
		if err == nil {
			*m = SegMode(v)
			return nil
		}
	}
	return fmt.Errorf("unknown segmentation mode %q", name)
}

// Engine is a configurable OCR backend.
//
// Engines hold mutable configuration and are not safe for concurrent use;
// Recognizer serializes every SetMode+Recognize pair.
type Engine interface {
	// SetMode configures the segmentation mode for the next Recognize call.
	SetMode(mode SegMode) error

	// Recognize reads the text in an encoded image. Confidence is on a
	// 0-100 scale.
	Recognize(ctx context.Context, image []byte) (text string, confidence float64, err error)

	// Close releases the engine.
	Close() error
}

// EngineInfo describes an OCR backend for diagnostics.
type EngineInfo struct {
	Backend   string `json:"backend"`
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Language  string `json:"language,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Versioner is implemented by engines that can report their version.
type Versioner interface {
	Version() string
}

// EngineFactory creates an engine. The Recognizer calls it at most once.
type EngineFactory func(ctx context.Context) (Engine, error)

// Backend names accepted by NewEngineFactory.
const (
	BackendTesseract   = "tesseract"
	BackendRekognition = "rekognition"
)

// Options configures the OCR backends.
type Options struct {
	// Backend is BackendTesseract or BackendRekognition.
	Backend string

	// Language is the Tesseract language code, e.g. "eng".
	Language string

	// TessdataPrefix is the directory holding the *.traineddata files.
	// Empty uses Tesseract's compiled-in default.
	TessdataPrefix string

	// Whitelist restricts the characters Tesseract may emit.
	Whitelist string

	// AWSRegion is the region of the Rekognition endpoint.
	AWSRegion string
}

// NewEngineFactory returns the factory for the configured backend.
func NewEngineFactory(opts Options) (EngineFactory, error) {
	switch strings.ToLower(opts.Backend) {
	case "", BackendTesseract:
		return func(ctx context.Context) (Engine, error) {
			return NewTesseractEngine(opts)
		}, nil
	case BackendRekognition:
		return func(ctx context.Context) (Engine, error) {
			return NewRekognitionEngine(ctx, opts)
		}, nil
	default:
		return nil, fmt.Errorf("unknown OCR backend %q", opts.Backend)
	}
}
