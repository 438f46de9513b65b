/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: config.go
Description: Session and engine configuration with validation. Built by the CLI from viper and
consumed by NewSession and NewEngine.
*/

package web

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Engine kinds accepted by NewEngine
const (
	EngineChrome = "chrome"
	EngineHTTP   = "http"
)

// SessionConfig holds everything one recon session needs
type SessionConfig struct {
	StartURL           string        `json:"start_url"`
	MinRequestInterval time.Duration `json:"min_request_interval"`
	Workers            int           `json:"workers"`
	MaxPages           int           `json:"max_pages"`
	MaxDepth           int           `json:"max_depth"`
	Exclude            []string      `json:"exclude"`

	Keywords    []string `json:"keywords"`
	FuzzVectors []string `json:"fuzz_vectors"`
	GuessPaths  []string `json:"guess_paths"`

	LoginURL      string `json:"login_url"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	SuccessSuffix string `json:"success_suffix"`
}

// Validate checks the SessionConfig for invalid or missing values
func (c *SessionConfig) Validate() error {
	if c.StartURL == "" {
		return fmt.Errorf("start url must not be empty")
	}
	if _, err := ParseCanonical(c.StartURL); err != nil {
		return fmt.Errorf("start url: %w", err)
	}
	if c.MinRequestInterval < 0 {
		return fmt.Errorf("min request interval must not be negative")
	}
	if c.Workers < 0 || c.MaxPages < 0 || c.MaxDepth < 0 {
		return fmt.Errorf("workers, max pages and max depth must not be negative")
	}
	if c.LoginURL != "" {
		if _, err := ParseCanonical(c.LoginURL); err != nil {
			return fmt.Errorf("login url: %w", err)
		}
		if c.SuccessSuffix == "" {
			return fmt.Errorf("success suffix is required with a login url")
		}
	}
	return nil
}

// EngineConfig selects and tunes the browser engine. Cookies are scoped to the
// host of TargetURL.
type EngineConfig struct {
	Kind           string            `json:"kind"`
	TargetURL      string            `json:"target_url"`
	Headless       bool              `json:"headless"`
	RequestTimeout time.Duration     `json:"request_timeout"`
	UserAgent      string            `json:"user_agent"`
	Cookies        map[string]string `json:"cookies"`
	Headers        map[string]string `json:"headers"`
}

// NewEngine builds the engine named by cfg.Kind
func NewEngine(cfg EngineConfig, logger logrus.FieldLogger) (BrowserEngine, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	switch strings.ToLower(cfg.Kind) {
	case "", EngineChrome:
		return NewChromeDPEngine(cfg, logger), nil
	case EngineHTTP:
		return NewHTTPEngine(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported engine: %s", cfg.Kind)
	}
}

// ParseKeyValues turns "key=value" items into a map, ignoring malformed items
func ParseKeyValues(items []string) map[string]string {
	out := make(map[string]string)
	for _, item := range items {
		k, v, ok := strings.Cut(item, "=")
		if !ok {
			k, v, ok = strings.Cut(item, ":")
		}
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			continue
		}
		out[k] = strings.TrimSpace(v)
	}
	return out
}
