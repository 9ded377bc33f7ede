// Package config loads websum settings from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/fwojciec/websum"
	"github.com/fwojciec/websum/retry"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding a config file path.
const EnvConfigPath = "WEBSUM_CONFIG"

// Config is the complete websum configuration.
type Config struct {
	Model   ModelConfig   `yaml:"model"`
	Browser BrowserConfig `yaml:"browser"`
	Batch   BatchConfig   `yaml:"batch"`
	Summary SummaryConfig `yaml:"summary"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ModelConfig configures the language model and its rate limit.
type ModelConfig struct {
	Name string `yaml:"name"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv   string        `yaml:"api_key_env"`
	Temperature float64       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	// RequestsPerWindow model calls are admitted per Window.
	RequestsPerWindow int           `yaml:"requests_per_window"`
	Window            time.Duration `yaml:"window"`
}

// BrowserConfig configures page navigation.
type BrowserConfig struct {
	Headless     bool          `yaml:"headless"`
	Stealth      bool          `yaml:"stealth"`
	Timeout      time.Duration `yaml:"timeout"`
	RecycleEvery int           `yaml:"recycle_every"`
	// NoBrowser fetches static HTML over plain HTTP instead of Chrome.
	NoBrowser      bool     `yaml:"no_browser"`
	BlockResources []string `yaml:"block_resources"`
}

// BatchConfig configures pacing and retries for batch runs.
type BatchConfig struct {
	URLDelay       time.Duration `yaml:"url_delay"`
	LinkDelay      time.Duration `yaml:"link_delay"`
	MaxLinks       int           `yaml:"max_links"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
	Backoff        string        `yaml:"backoff"`
}

// SummaryConfig holds default summary options.
type SummaryConfig struct {
	Length        websum.Length     `yaml:"length"`
	Format        websum.Format     `yaml:"format"`
	MaxChunkChars int               `yaml:"max_chunk_chars"`
	Output        websum.OutputMode `yaml:"output"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr
// disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Model: ModelConfig{
			Name:              "gemini-2.5-flash",
			APIKeyEnv:         "GEMINI_API_KEY",
			Temperature:       0.4,
			Timeout:           2 * time.Minute,
			RequestsPerWindow: 10,
			Window:            time.Minute,
		},
		Browser: BrowserConfig{
			Headless:     true,
			Stealth:      true,
			Timeout:      30 * time.Second,
			RecycleEvery: 10,
		},
		Batch: BatchConfig{
			URLDelay:       2 * time.Second,
			LinkDelay:      time.Second,
			MaxLinks:       20,
			MaxRetries:     websum.DefaultMaxRetries,
			RetryBaseDelay: time.Second,
			Backoff:        "exponential",
		},
		Summary: SummaryConfig{
			Length:        websum.LengthMedium,
			Format:        websum.FormatParagraphs,
			MaxChunkChars: websum.DefaultMaxChunkChars,
			Output:        websum.OutputText,
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Model.Name == "" {
		return websum.Errorf(websum.EINVALID, "model.name is required")
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		return websum.Errorf(websum.EINVALID, "model.temperature must be between 0 and 2")
	}
	if c.Model.RequestsPerWindow <= 0 {
		return websum.Errorf(websum.EINVALID, "model.requests_per_window must be positive")
	}
	if c.Model.Window <= 0 {
		return websum.Errorf(websum.EINVALID, "model.window must be positive")
	}
	if c.Browser.RecycleEvery < 0 {
		return websum.Errorf(websum.EINVALID, "browser.recycle_every must not be negative")
	}
	if c.Batch.URLDelay < 0 {
		return websum.Errorf(websum.EINVALID, "batch.url_delay must not be negative")
	}
	if c.Batch.MaxLinks < 0 {
		return websum.Errorf(websum.EINVALID, "batch.max_links must not be negative")
	}
	if c.Batch.RetryBaseDelay < 0 {
		return websum.Errorf(websum.EINVALID, "batch.retry_base_delay must not be negative")
	}
	if _, err := retry.ParseStrategy(c.Batch.Backoff); err != nil {
		return err
	}
	return c.SummaryOptions().Validate()
}

// SummaryOptions returns the summary defaults as request options.
func (c *Config) SummaryOptions() websum.SummaryOptions {
	return websum.SummaryOptions{
		Length:        c.Summary.Length,
		Format:        c.Summary.Format,
		MaxRetries:    c.Batch.MaxRetries,
		Output:        c.Summary.Output,
		MaxChunkChars: c.Summary.MaxChunkChars,
	}.WithDefaults()
}

// RetryPolicy returns the navigation retry policy described by the batch
// section. Validate must have succeeded.
func (c *Config) RetryPolicy() retry.Policy {
	strategy, _ := retry.ParseStrategy(c.Batch.Backoff)
	p := retry.DefaultPolicy()
	p.MaxRetries = c.Batch.MaxRetries
	p.BaseDelay = c.Batch.RetryBaseDelay
	p.Strategy = strategy
	return p
}

// APIKey returns the model API key from the configured environment
// variable.
func (c *Config) APIKey() string {
	return os.Getenv(c.Model.APIKeyEnv)
}

// LoadFromFile loads configuration from a YAML file. Keys missing from
// the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, websum.WrapError(websum.EINVALID, err, "failed to parse config file %s", path)
	}

	return config, nil
}

// Load reads path, or the file named by WEBSUM_CONFIG when path is empty,
// and validates the result. With neither set it returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}

	config := DefaultConfig()
	if path != "" {
		var err error
		if config, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
