package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/itzender5820/crawl/internal/progress"
)

// Config defines configuration for the crawl CLI.
type Config struct {
	Method          string
	Headers         map[string]string
	Data            string
	Output          string
	IncludeHeaders  bool
	Verbose         bool
	FollowRedirects bool
	MaxTime         time.Duration
	UserAgent       string

	Retry     RetryConfig
	RateLimit float64

	ShowProgress bool
	NoCompress   bool
	DNSCache     bool
	DNSCacheTTL  time.Duration
	ShowStats    bool
	JSON         bool

	BatchFile string
	Parallel  int

	WarmupHosts []string
	MaxConns    int

	MaxResponseSize int64
	VerifyTLS       bool
}

// RetryConfig defines retry behavior.
type RetryConfig struct {
	Count              int
	Delay              time.Duration
	ExponentialBackoff bool
}

// Default returns a Config with the CLI's defaults.
func Default() Config {
	return Config{
		Method:      "GET",
		Headers:     make(map[string]string),
		MaxTime:     30 * time.Second,
		Parallel:    10,
		MaxConns:    200,
		DNSCacheTTL: 300 * time.Second,
		Retry: RetryConfig{
			Delay:              time.Second,
			ExponentialBackoff: true,
		},
	}
}

// LoadFromEnv overlays environment variables onto c. A .env file in the
// working directory is loaded first when present. Variables use the
// CRAWL_ prefix.
func (c *Config) LoadFromEnv() error {
	_ = godotenv.Load()

	if v := os.Getenv("CRAWL_USER_AGENT"); v != "" {
		c.UserAgent = v
	}
	if v := os.Getenv("CRAWL_MAX_TIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse CRAWL_MAX_TIME: %w", err)
		}
		c.MaxTime = d
	}
	if v := os.Getenv("CRAWL_RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("parse CRAWL_RATE_LIMIT: %w", err)
		}
		c.RateLimit = f
	}
	if v := os.Getenv("CRAWL_PARALLEL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse CRAWL_PARALLEL: %w", err)
		}
		c.Parallel = n
	}
	if v := os.Getenv("CRAWL_MAX_CONN"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse CRAWL_MAX_CONN: %w", err)
		}
		c.MaxConns = n
	}
	if v := os.Getenv("CRAWL_RETRY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse CRAWL_RETRY: %w", err)
		}
		c.Retry.Count = n
	}
	if v := os.Getenv("CRAWL_RETRY_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse CRAWL_RETRY_DELAY: %w", err)
		}
		c.Retry.Delay = d
	}
	if v := os.Getenv("CRAWL_DNS_CACHE"); v != "" {
		c.DNSCache = v == "true" || v == "1"
	}
	if v := os.Getenv("CRAWL_DNS_CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse CRAWL_DNS_CACHE_TTL: %w", err)
		}
		c.DNSCacheTTL = d
	}
	if v := os.Getenv("CRAWL_NO_COMPRESS"); v != "" {
		c.NoCompress = v == "true" || v == "1"
	}
	if v := os.Getenv("CRAWL_VERIFY_TLS"); v != "" {
		c.VerifyTLS = v == "true" || v == "1"
	}
	if v := os.Getenv("CRAWL_MAX_RESPONSE_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse CRAWL_MAX_RESPONSE_SIZE: %w", err)
		}
		c.MaxResponseSize = size
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Method == "" {
		return errors.New("config: method is required")
	}
	if c.MaxTime <= 0 {
		return errors.New("config: max time must be positive")
	}
	if c.Parallel <= 0 {
		return errors.New("config: parallel must be positive")
	}
	if c.MaxConns <= 0 {
		return errors.New("config: max connections must be positive")
	}
	if c.Retry.Count < 0 {
		return errors.New("config: retry count must not be negative")
	}
	return nil
}

// BatchEntry is one request from a batch file.
type BatchEntry struct {
	Method  string            `yaml:"method"`
	URL     string            `yaml:"url"`
	Headers map[string]string `yaml:"headers"`
	Body    string            `yaml:"body"`
}

// LoadBatchFile reads a batch of requests from path. Files ending in .yaml
// or .yml hold a list of request entries; anything else is treated as the
// original plain format, one URL per line with # comments.
func LoadBatchFile(path string) ([]BatchEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch file: %w", err)
	}

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		var entries []BatchEntry
		if err := yaml.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("parse batch file: %w", err)
		}
		return entries, nil
	}

	var entries []BatchEntry
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, BatchEntry{URL: line})
	}
	return entries, nil
}
