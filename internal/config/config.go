// Package config loads the service configuration from an optional YAML file
// and environment overrides.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/go-segsvg/pkg/vectorize"
)

var ErrInvalidConfig = errors.New("invalid config")

const DefaultModelPath = "/data/model/yolov11_instance_trained.pt"

// Config holds the full segsvg configuration.
type Config struct {
	Listen       string           `yaml:"listen"`
	MaxUploadMB  int              `yaml:"max_upload_mb"`
	AllowOrigins []string         `yaml:"allow_origins"`
	LogLevel     string           `yaml:"log_level"`
	Model        ModelConfig      `yaml:"model"`
	Inference    InferenceConfig  `yaml:"inference"`
	Vectorize    vectorize.Config `yaml:"vectorize"`
	Debug        DebugConfig      `yaml:"debug"`
}

// ModelConfig locates the model weights used by the inference sidecar.
type ModelConfig struct {
	Path            string        `yaml:"path"`
	URL             string        `yaml:"url"`
	DownloadTimeout time.Duration `yaml:"download_timeout"`
}

// InferenceConfig configures the segmentation sidecar.
type InferenceConfig struct {
	URL           string        `yaml:"url"`
	Timeout       time.Duration `yaml:"timeout"`
	MinConfidence float64       `yaml:"min_confidence"`
}

// DebugConfig enables per request diagnostics.
type DebugConfig struct {
	// GraphDir receives one DOT stage graph per request when set.
	GraphDir string `yaml:"graph_dir"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:       ":8000",
		MaxUploadMB:  20,
		AllowOrigins: []string{"http://localhost:3000"},
		LogLevel:     "info",
		Model: ModelConfig{
			Path:            DefaultModelPath,
			DownloadTimeout: 10 * time.Minute,
		},
		Inference: InferenceConfig{
			URL:     "http://localhost:9000",
			Timeout: time.Minute,
		},
		Vectorize: vectorize.DefaultConfig(),
	}
}

// Load reads path, when not empty, over DefaultConfig, applies the environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read config %s", path)
		}

		err = yaml.Unmarshal(data, cfg)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to parse config %s", path)
		}
	}

	cfg.applyEnv(lookup)

	err := cfg.Validate()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	env := func(key string) (string, bool) {
		v, ok := lookup(key)
		if !ok || v == "" {
			return "", false
		}

		return v, true
	}

	if v, ok := env("PORT"); ok {
		c.Listen = ":" + v
	}

	if v, ok := env("MODEL_PATH"); ok {
		c.Model.Path = v
	}

	if v, ok := env("MODEL_URL"); ok {
		c.Model.URL = v
	}

	if v, ok := env("INFERENCE_URL"); ok {
		c.Inference.URL = v
	}

	if v, ok := env("ALLOW_ORIGINS"); ok {
		c.AllowOrigins = splitOrigins(v)
	}

	if v, ok := env("LOG_LEVEL"); ok {
		c.LogLevel = v
	}
}

func splitOrigins(v string) []string {
	var res []string

	for _, origin := range strings.Split(v, ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			res = append(res, origin)
		}
	}

	return res
}

// Validate checks that required fields are present and values are sane.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.Wrap(ErrInvalidConfig, "listen is required")
	}

	if c.MaxUploadMB <= 0 {
		return errors.Wrap(ErrInvalidConfig, "max_upload_mb must be > 0")
	}

	if c.Model.Path == "" {
		return errors.Wrap(ErrInvalidConfig, "model.path is required")
	}

	if c.Model.URL != "" {
		if _, err := url.ParseRequestURI(c.Model.URL); err != nil {
			return errors.Wrapf(ErrInvalidConfig, "model.url: %v", err)
		}
	}

	if c.Model.DownloadTimeout <= 0 {
		return errors.Wrap(ErrInvalidConfig, "model.download_timeout must be > 0")
	}

	if c.Inference.Timeout <= 0 {
		return errors.Wrap(ErrInvalidConfig, "inference.timeout must be > 0")
	}

	if _, err := url.ParseRequestURI(c.Inference.URL); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "inference.url: %v", err)
	}

	if c.Inference.MinConfidence < 0 || c.Inference.MinConfidence > 1 {
		return errors.Wrapf(ErrInvalidConfig, "inference.min_confidence %v must be within [0, 1]", c.Inference.MinConfidence)
	}

	if _, err := c.SlogLevel(); err != nil {
		return err
	}

	err := c.Vectorize.Validate()
	if err != nil {
		return errors.WithStack(fmt.Errorf("%w: %w", ErrInvalidConfig, err))
	}

	return nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn" or "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level

	err := lvl.UnmarshalText([]byte(c.LogLevel))
	if err != nil {
		return lvl, errors.Wrapf(ErrInvalidConfig, "log_level %q", c.LogLevel)
	}

	return lvl, nil
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 { return int64(c.MaxUploadMB) * 1024 * 1024 }
