package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"LOG_LEVEL", "MARGIN_RATIO", "MIN_DIMENSION", "MODEL_PATH", "MODEL_CONFIG",
		"MODEL_MIN_CONFIDENCE", "OCR_BACKEND", "OCR_LANGUAGE", "TESSDATA_PREFIX",
		"OCR_WHITELIST", "AWS_REGION", "TIMEOUT", "RESULTS_DIR",
	} {
		unsetEnv(t, EnvPrefix+key)
	}
	unsetEnv(t, "AWS_REGION")
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	if old, ok := os.LookupEnv(key); ok {
		t.Cleanup(func() { os.Setenv(key, old) })
	} else {
		t.Cleanup(func() { os.Unsetenv(key) })
	}
	os.Unsetenv(key)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 0.25, cfg.Detection.MarginRatio)
	assert.Equal(t, 100, cfg.Detection.MinDimension)
	assert.Equal(t, "tesseract", cfg.OCR.Backend)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.Timeout)
	assert.Empty(t, cfg.Results.Dir)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NoFile(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", `
log_level: debug
detection:
  margin_ratio: 0.1
  min_dimension: 64
  model_path: /models/plates.onnx
ocr:
  backend: rekognition
  aws_region: eu-west-1
pipeline:
  timeout: 5s
results:
  dir: /tmp/results
`)

	cfg, err := Load(path, "")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 0.1, cfg.Detection.MarginRatio)
	assert.Equal(t, 64, cfg.Detection.MinDimension)
	assert.Equal(t, "/models/plates.onnx", cfg.Detection.ModelPath)
	assert.Equal(t, 0.5, cfg.Detection.ModelMinConfidence, "unset keys keep defaults")
	assert.Equal(t, "rekognition", cfg.OCR.Backend)
	assert.Equal(t, "eng", cfg.OCR.Language)
	assert.Equal(t, "eu-west-1", cfg.OCR.AWSRegion)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.Timeout)
	assert.Equal(t, "/tmp/results", cfg.Results.Dir)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "config.yaml", "log_level: debug\npipeline:\n  timeout: 5s\n")
	t.Setenv(EnvPrefix+"LOG_LEVEL", "warn")
	t.Setenv(EnvPrefix+"TIMEOUT", "2m")
	t.Setenv(EnvPrefix+"MIN_DIMENSION", "150")
	t.Setenv(EnvPrefix+"OCR_WHITELIST", "ABC123")

	cfg, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 2*time.Minute, cfg.Pipeline.Timeout)
	assert.Equal(t, 150, cfg.Detection.MinDimension)
	assert.Equal(t, "ABC123", cfg.OCR.Whitelist)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t)
	envFile := writeFile(t, ".env", "PLATE_MCP_RESULTS_DIR=/data/plates\nPLATE_MCP_OCR_LANGUAGE=deu\n")

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "/data/plates", cfg.Results.Dir)
	assert.Equal(t, "deu", cfg.OCR.Language)
}

func TestLoad_MissingDotEnvIsIgnored(t *testing.T) {
	clearEnv(t)
	_, err := Load("", filepath.Join(t.TempDir(), ".env"))
	assert.NoError(t, err)
}

func TestLoad_AWSRegionFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("AWS_REGION", "ap-southeast-1")

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "ap-southeast-1", cfg.OCR.AWSRegion)

	t.Setenv(EnvPrefix+"AWS_REGION", "us-east-2")
	cfg, err = Load("", "")
	require.NoError(t, err)
	assert.Equal(t, "us-east-2", cfg.OCR.AWSRegion)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
		want string
	}{
		{"bad yaml", "detection: [", nil, "failed to parse config"},
		{"bad env float", "", map[string]string{"MARGIN_RATIO": "wide"}, "PLATE_MCP_MARGIN_RATIO"},
		{"bad env int", "", map[string]string{"MIN_DIMENSION": "1.5"}, "PLATE_MCP_MIN_DIMENSION"},
		{"bad env duration", "", map[string]string{"TIMEOUT": "soon"}, "PLATE_MCP_TIMEOUT"},
		{"unknown backend", "ocr:\n  backend: easyocr\n", nil, "ocr.backend"},
		{"negative margin", "detection:\n  margin_ratio: -1\n", nil, "margin_ratio"},
		{"zero timeout", "pipeline:\n  timeout: 0s\n", nil, "pipeline.timeout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(EnvPrefix+k, v)
			}
			path := ""
			if tt.yaml != "" {
				path = writeFile(t, "config.yaml", tt.yaml)
			}

			_, err := Load(path, "")
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load("/nonexistent/config.yaml", "")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	cfg := Default()
	cfg.Detection.MinDimension = 0
	cfg.OCR.Backend = "paper"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_dimension")
	assert.Contains(t, err.Error(), "ocr.backend")
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := Default()
	cfg.Results.Dir = "/srv/results"

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestOCROptions(t *testing.T) {
	cfg := Default()
	cfg.OCR.Backend = "Rekognition"
	cfg.OCR.AWSRegion = "eu-central-1"

	opts := cfg.OCROptions()
	assert.Equal(t, "rekognition", opts.Backend)
	assert.Equal(t, "eu-central-1", opts.AWSRegion)
	assert.Equal(t, "eng", opts.Language)
}
