package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PLATE_MCP_"

// Load builds the configuration. Defaults are overlaid with the YAML file at
// path (skipped when path is empty), then with the environment after loading
// envFile (a missing envFile is not an error). The result is validated.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg as YAML, replacing path atomically.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.LogLevel, "LOG_LEVEL")

	if err := setFloat(&cfg.Detection.MarginRatio, "MARGIN_RATIO"); err != nil {
		return err
	}
	if err := setInt(&cfg.Detection.MinDimension, "MIN_DIMENSION"); err != nil {
		return err
	}
	setString(&cfg.Detection.ModelPath, "MODEL_PATH")
	setString(&cfg.Detection.ModelConfig, "MODEL_CONFIG")
	if err := setFloat(&cfg.Detection.ModelMinConfidence, "MODEL_MIN_CONFIDENCE"); err != nil {
		return err
	}

	setString(&cfg.OCR.Backend, "OCR_BACKEND")
	setString(&cfg.OCR.Language, "OCR_LANGUAGE")
	setString(&cfg.OCR.TessdataPrefix, "TESSDATA_PREFIX")
	setString(&cfg.OCR.Whitelist, "OCR_WHITELIST")
	// the SDK's own variable is the fallback for the Rekognition region
	if cfg.OCR.AWSRegion == "" {
		cfg.OCR.AWSRegion = os.Getenv("AWS_REGION")
	}
	setString(&cfg.OCR.AWSRegion, "AWS_REGION")

	if err := setDuration(&cfg.Pipeline.Timeout, "TIMEOUT"); err != nil {
		return err
	}
	setString(&cfg.Results.Dir, "RESULTS_DIR")
	return nil
}

func lookup(key string) (string, bool) {
	return os.LookupEnv(EnvPrefix + key)
}

func setString(dst *string, key string) {
	if v, ok := lookup(key); ok {
		*dst = v
	}
}

func setFloat(dst *float64, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
	}
	*dst = f
	return nil
}

func setInt(dst *int, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v, ok := lookup(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", EnvPrefix, key, err)
	}
	*dst = d
	return nil
}
