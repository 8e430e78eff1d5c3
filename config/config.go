package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds scraper configuration for one category run.
type Config struct {
	CategoryURL      string        `yaml:"category_url"`
	MaxPages         int           `yaml:"max_pages"` // 0 walks until the catalog ends
	Delay            time.Duration `yaml:"delay"`
	Timeout          time.Duration `yaml:"timeout"`
	DedupeMaxSize    int           `yaml:"dedupe_max_size"`
	OutputDir        string        `yaml:"output_dir"`
	OutputFile       string        `yaml:"output_file"`
	OutputFormat     string        `yaml:"output_format"` // xlsx, csv, or json
	UserAgent        string        `yaml:"user_agent"`
	Verbose          bool          `yaml:"verbose"`
	RespectRobotsTxt bool          `yaml:"respect_robots_txt"`
	MetricsAddr      string        `yaml:"metrics_addr"`
}

// DefaultConfig returns conservative defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxPages:         0,
		Delay:            0,
		Timeout:          10 * time.Second,
		DedupeMaxSize:    256,
		OutputDir:        ".",
		OutputFormat:     "xlsx",
		UserAgent:        "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Verbose:          false,
		RespectRobotsTxt: false,
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys missing from the
// file keep their current values.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %q: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode config %q: %w", path, err)
	}
	return nil
}

// NormalizeCategoryURL trims whitespace and trailing slashes.
func NormalizeCategoryURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// CategorySlug returns the last path segment of the category URL, decoded
// when it is percent-escaped.
func CategorySlug(categoryURL string) string {
	trimmed := NormalizeCategoryURL(categoryURL)
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = NormalizeCategoryURL(trimmed[:i])
	}
	slug := trimmed
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		slug = trimmed[i+1:]
	}
	if decoded, err := url.PathUnescape(slug); err == nil {
		return decoded
	}
	return slug
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.CategoryURL == "" {
		return fmt.Errorf("category URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.CategoryURL)
	if err != nil {
		return fmt.Errorf("invalid category URL: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("category URL must use http or https")
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("category URL must include a host")
	}

	if c.MaxPages < 0 {
		return fmt.Errorf("max pages cannot be negative")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}
	switch c.OutputFormat {
	case "xlsx", "csv", "json":
	default:
		return fmt.Errorf("output format must be xlsx, csv, or json")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}
