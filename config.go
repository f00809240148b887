// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rtrpc

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultTimeout = 30 * time.Second

// Config describes how to reach a server. It is usually loaded from YAML:
//
//	address: http://localhost:8080/RPC2
//	transport: xml
//	timeout: 10s
//	username: admin
//	password: secret
//	rate_limit:
//	  requests_per_second: 20
//	  burst: 5
//	circuit_breaker:
//	  max_failures: 3
//	  timeout: 15s
type Config struct {
	Address        string               `yaml:"address"`
	Transport      string               `yaml:"transport"`
	Timeout        time.Duration        `yaml:"timeout"`
	Username       string               `yaml:"username"`
	Password       string               `yaml:"password"`
	Headers        map[string]string    `yaml:"headers"`
	RateLimit      RateLimitConfig      `yaml:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	// EnableBreaker turns on the circuit breaker; CircuitBreaker only tunes it.
	EnableBreaker bool `yaml:"enable_breaker"`
}

// RateLimitConfig is disabled when RequestsPerSecond is zero.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// LoadConfig reads and validates a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML, fills defaults and validates.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Transport == "" {
		c.Transport = DefaultTransport
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.RateLimit.RequestsPerSecond > 0 && c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 1
	}
}

// Validate checks the config for values Dial would reject.
func (c *Config) Validate() error {
	var errs []error
	if c.Address == "" {
		errs = append(errs, errors.New("address is required"))
	}
	if !HasTransport(c.Transport) {
		errs = append(errs, fmt.Errorf("unknown transport %q (available: %v)", c.Transport, AvailableTransports()))
	}
	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	if c.RateLimit.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("rate_limit.requests_per_second must not be negative"))
	}
	if (c.Username == "") != (c.Password == "") {
		errs = append(errs, errors.New("username and password must be set together"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// DialOptions turns the config into options for Dial.
func (c *Config) DialOptions(logger *slog.Logger) []DialOption {
	if logger == nil {
		logger = slog.Default()
	}
	opts := []DialOption{
		WithTransport(c.Transport),
		WithLogger(logger),
		WithTimeout(c.Timeout),
		WithHTTPClient(&http.Client{Timeout: c.Timeout}),
	}

	var reqOpts []Option
	for k, v := range c.Headers {
		reqOpts = append(reqOpts, WithHeader(k, v))
	}
	if c.Username != "" {
		reqOpts = append(reqOpts, WithBasicAuth(c.Username, c.Password))
	}
	if len(reqOpts) > 0 {
		opts = append(opts, WithRequestOptions(reqOpts...))
	}

	mw := []Middleware{LoggingMiddleware(logger)}
	if c.EnableBreaker {
		mw = append(mw, CircuitBreakerMiddleware(c.Address, c.CircuitBreaker, logger))
	}
	if c.RateLimit.RequestsPerSecond > 0 {
		mw = append(mw, RateLimitMiddleware(c.RateLimit.RequestsPerSecond, c.RateLimit.Burst))
	}
	return append(opts, WithMiddleware(mw...))
}
