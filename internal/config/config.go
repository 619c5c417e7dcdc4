// Package config loads the server configuration from an optional YAML file,
// an optional .env file and PLATE_MCP_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ironsheep/plate-tools-mcp/internal/imaging"
	"github.com/ironsheep/plate-tools-mcp/internal/ocr"
)

// Config is the complete server configuration.
type Config struct {
	LogLevel string `yaml:"log_level"`

	Detection DetectionConfig `yaml:"detection"`
	OCR       OCRConfig       `yaml:"ocr"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Results   ResultsConfig   `yaml:"results"`
}

// DetectionConfig controls plate localisation and cropping.
type DetectionConfig struct {
	MarginRatio  float64 `yaml:"margin_ratio"`
	MinDimension int     `yaml:"min_dimension"`

	// ModelPath enables the trained detector (requires a gocv build).
	ModelPath          string  `yaml:"model_path"`
	ModelConfig        string  `yaml:"model_config"`
	ModelMinConfidence float64 `yaml:"model_min_confidence"`
}

// OCRConfig selects and configures the OCR backend.
type OCRConfig struct {
	Backend        string `yaml:"backend"`
	Language       string `yaml:"language"`
	TessdataPrefix string `yaml:"tessdata_prefix"`
	Whitelist      string `yaml:"whitelist"`
	AWSRegion      string `yaml:"aws_region"`
}

// PipelineConfig bounds a full detect+recognize call.
type PipelineConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// ResultsConfig enables result persistence when Dir is set.
type ResultsConfig struct {
	Dir string `yaml:"dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Detection: DetectionConfig{
			MarginRatio:        imaging.DefaultMarginRatio,
			MinDimension:       imaging.DefaultMinDimension,
			ModelMinConfidence: 0.5,
		},
		OCR: OCRConfig{
			Backend:  ocr.BackendTesseract,
			Language: "eng",
		},
		Pipeline: PipelineConfig{
			Timeout: 30 * time.Second,
		},
	}
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Detection.MarginRatio < 0 {
		errs = append(errs, fmt.Errorf("detection.margin_ratio must not be negative, got %v", c.Detection.MarginRatio))
	}
	if c.Detection.MinDimension < 1 {
		errs = append(errs, fmt.Errorf("detection.min_dimension must be at least 1, got %d", c.Detection.MinDimension))
	}
	if c.Detection.ModelMinConfidence < 0 || c.Detection.ModelMinConfidence > 1 {
		errs = append(errs, fmt.Errorf("detection.model_min_confidence must be in [0,1], got %v", c.Detection.ModelMinConfidence))
	}
	switch strings.ToLower(c.OCR.Backend) {
	case ocr.BackendTesseract, ocr.BackendRekognition:
	default:
		errs = append(errs, fmt.Errorf("ocr.backend must be %q or %q, got %q", ocr.BackendTesseract, ocr.BackendRekognition, c.OCR.Backend))
	}
	if c.Pipeline.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("pipeline.timeout must be positive, got %v", c.Pipeline.Timeout))
	}
	return errors.Join(errs...)
}

// OCROptions converts the OCR section for ocr.NewEngineFactory.
func (c *Config) OCROptions() ocr.Options {
	return ocr.Options{
		Backend:        strings.ToLower(c.OCR.Backend),
		Language:       c.OCR.Language,
		TessdataPrefix: c.OCR.TessdataPrefix,
		Whitelist:      c.OCR.Whitelist,
		AWSRegion:      c.OCR.AWSRegion,
	}
}
