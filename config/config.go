// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides the model configuration shared by every
// completion request.
//
// Supports both TOML and JSON configuration files, with sensible
// defaults, environment variable overrides, and validation. The
// configuration is a value object: the client hands an immutable copy
// into each request, so there is no global mutable state to race on.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// DefaultAPIURL is the completions endpoint used unless overridden.
	DefaultAPIURL = "https://api.openai.com/v1/chat/completions"

	// DefaultModel is the engine requested unless overridden.
	DefaultModel = "gpt-3.5-turbo"

	// DefaultTimeout bounds non-streamed requests. Streamed requests
	// are bounded by the caller's context instead.
	DefaultTimeout = 30 * time.Second
)

// =============================================================================
// MODEL CONFIGURATION
// =============================================================================

// ModelConfiguration carries the transport parameters attached to every
// completion request.
type ModelConfiguration struct {
	// APIURL is the completions endpoint.
	APIURL string `toml:"api_url" json:"api_url"`

	// Model is the engine identifier, e.g. "gpt-4".
	Model string `toml:"model" json:"model"`

	// Temperature controls sampling randomness (0..2).
	Temperature float32 `toml:"temperature" json:"temperature"`

	// TopP controls nucleus sampling (0..1].
	TopP float32 `toml:"top_p" json:"top_p"`

	// MaxTokens caps the completion length; 0 lets the backend decide.
	MaxTokens int `toml:"max_tokens" json:"max_tokens"`

	// FrequencyPenalty discourages verbatim repetition (-2..2).
	FrequencyPenalty float32 `toml:"frequency_penalty" json:"frequency_penalty"`

	// PresencePenalty discourages reuse of mentioned topics (-2..2).
	PresencePenalty float32 `toml:"presence_penalty" json:"presence_penalty"`

	// ReplyCount is the number of parallel candidate completions to
	// request. Streamed deltas carry a response index when it is
	// greater than one.
	ReplyCount int `toml:"reply_count" json:"reply_count"`

	// Timeout bounds non-streamed requests.
	Timeout time.Duration `toml:"timeout" json:"timeout"`
}

// Default returns the configuration used when nothing is loaded.
func Default() ModelConfiguration {
	return ModelConfiguration{
		APIURL:      DefaultAPIURL,
		Model:       DefaultModel,
		Temperature: 0.5,
		TopP:        1.0,
		ReplyCount:  1,
		Timeout:     DefaultTimeout,
	}
}

// =============================================================================
// LOADING
// =============================================================================

// LoadFromPath loads a configuration file, dispatching on extension:
// ".toml" is decoded as TOML, anything else as JSON. Missing fields keep
// their defaults; environment overrides are applied last.
func LoadFromPath(path string) (ModelConfiguration, error) {
	cfg := Default()

	var err error
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = loadTOML(&cfg, path)
	} else {
		err = loadJSON(&cfg, path)
	}
	if err != nil {
		return ModelConfiguration{}, err
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return ModelConfiguration{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadTOML decodes a TOML configuration file over cfg.
func loadTOML(cfg *ModelConfiguration, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// loadJSON decodes a JSON configuration file over cfg.
func loadJSON(cfg *ModelConfiguration, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// Save writes the configuration as TOML or JSON, dispatching on the
// target extension the same way LoadFromPath does.
func Save(cfg ModelConfiguration, path string) error {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
		defer f.Close()
		return toml.NewEncoder(f).Encode(cfg)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies CONVERSE_* environment variables on top of
// the loaded values. Unparsable numeric values are ignored.
func (c *ModelConfiguration) ApplyEnvOverrides() {
	if url := os.Getenv("CONVERSE_API_URL"); url != "" {
		c.APIURL = url
	}
	if model := os.Getenv("CONVERSE_MODEL"); model != "" {
		c.Model = model
	}
	if raw := os.Getenv("CONVERSE_TEMPERATURE"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 32); err == nil {
			c.Temperature = float32(v)
		}
	}
	if raw := os.Getenv("CONVERSE_MAX_TOKENS"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			c.MaxTokens = v
		}
	}
	if raw := os.Getenv("CONVERSE_TIMEOUT"); raw != "" {
		if v, err := time.ParseDuration(raw); err == nil {
			c.Timeout = v
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks every parameter against the ranges the backend
// accepts and returns all violations at once.
func (c *ModelConfiguration) Validate() error {
	var errs ValidateErrors

	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		errs = append(errs, ValidationError{
			Field:   "api_url",
			Message: fmt.Sprintf("invalid URL %q, must start with http:// or https://", c.APIURL),
		})
	}
	if c.Model == "" {
		errs = append(errs, ValidationError{
			Field:   "model",
			Message: "model must not be empty",
		})
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "temperature",
			Message: fmt.Sprintf("value %v out of range 0..2", c.Temperature),
		})
	}
	if c.TopP <= 0 || c.TopP > 1 {
		errs = append(errs, ValidationError{
			Field:   "top_p",
			Message: fmt.Sprintf("value %v out of range (0..1]", c.TopP),
		})
	}
	if c.MaxTokens < 0 {
		errs = append(errs, ValidationError{
			Field:   "max_tokens",
			Message: "must not be negative",
		})
	}
	if c.FrequencyPenalty < -2 || c.FrequencyPenalty > 2 {
		errs = append(errs, ValidationError{
			Field:   "frequency_penalty",
			Message: fmt.Sprintf("value %v out of range -2..2", c.FrequencyPenalty),
		})
	}
	if c.PresencePenalty < -2 || c.PresencePenalty > 2 {
		errs = append(errs, ValidationError{
			Field:   "presence_penalty",
			Message: fmt.Sprintf("value %v out of range -2..2", c.PresencePenalty),
		})
	}
	if c.ReplyCount < 1 {
		errs = append(errs, ValidationError{
			Field:   "reply_count",
			Message: "must request at least one completion",
		})
	}
	if c.Timeout < 0 {
		errs = append(errs, ValidationError{
			Field:   "timeout",
			Message: "must not be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
