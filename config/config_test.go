// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// =============================================================================
// DEFAULT TESTS
// =============================================================================

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL = %q, want %q", cfg.APIURL, DefaultAPIURL)
	}
	if cfg.Model != DefaultModel {
		t.Errorf("Model = %q, want %q", cfg.Model, DefaultModel)
	}
	if cfg.Temperature != 0.5 {
		t.Errorf("Temperature = %v, want 0.5", cfg.Temperature)
	}
	if cfg.TopP != 1.0 {
		t.Errorf("TopP = %v, want 1.0", cfg.TopP)
	}
	if cfg.ReplyCount != 1 {
		t.Errorf("ReplyCount = %d, want 1", cfg.ReplyCount)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want %v", cfg.Timeout, DefaultTimeout)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

// =============================================================================
// LOAD/SAVE TESTS
// =============================================================================

func TestLoadFromPath_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
model = "gpt-4"
temperature = 0.9
max_tokens = 512
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Model != "gpt-4" {
		t.Errorf("Model = %q, want %q", cfg.Model, "gpt-4")
	}
	if cfg.Temperature != 0.9 {
		t.Errorf("Temperature = %v, want 0.9", cfg.Temperature)
	}
	if cfg.MaxTokens != 512 {
		t.Errorf("MaxTokens = %d, want 512", cfg.MaxTokens)
	}
	// Fields absent from the file keep their defaults.
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL = %q, want default", cfg.APIURL)
	}
	if cfg.ReplyCount != 1 {
		t.Errorf("ReplyCount = %d, want 1", cfg.ReplyCount)
	}
}

func TestLoadFromPath_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"model": "gpt-4", "top_p": 0.8}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.Model != "gpt-4" {
		t.Errorf("Model = %q, want %q", cfg.Model, "gpt-4")
	}
	if cfg.TopP != 0.8 {
		t.Errorf("TopP = %v, want 0.8", cfg.TopP)
	}
}

func TestLoadFromPath_Missing(t *testing.T) {
	_, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("expected an error for a missing file")
	}
}

func TestLoadFromPath_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(`temperature = 9.0`), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	_, err := LoadFromPath(path)
	if err == nil {
		t.Fatal("expected a validation error for temperature = 9.0")
	}
}

func TestSave_RoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Model = "gpt-4"
	cfg.MaxTokens = 256

	for _, name := range []string{"config.toml", "config.json"} {
		path := filepath.Join(t.TempDir(), name)
		if err := Save(cfg, path); err != nil {
			t.Fatalf("%s: Save failed: %v", name, err)
		}
		loaded, err := LoadFromPath(path)
		if err != nil {
			t.Fatalf("%s: LoadFromPath failed: %v", name, err)
		}
		if loaded != cfg {
			t.Errorf("%s: round trip mismatch:\n got %+v\nwant %+v", name, loaded, cfg)
		}
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDE TESTS
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("CONVERSE_MODEL", "gpt-4")
	t.Setenv("CONVERSE_TEMPERATURE", "1.2")
	t.Setenv("CONVERSE_MAX_TOKENS", "100")
	t.Setenv("CONVERSE_TIMEOUT", "45s")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Model != "gpt-4" {
		t.Errorf("Model = %q, want %q", cfg.Model, "gpt-4")
	}
	if cfg.Temperature != 1.2 {
		t.Errorf("Temperature = %v, want 1.2", cfg.Temperature)
	}
	if cfg.MaxTokens != 100 {
		t.Errorf("MaxTokens = %d, want 100", cfg.MaxTokens)
	}
	if cfg.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v, want 45s", cfg.Timeout)
	}
}

func TestApplyEnvOverrides_IgnoresUnparsable(t *testing.T) {
	t.Setenv("CONVERSE_TEMPERATURE", "hot")
	t.Setenv("CONVERSE_MAX_TOKENS", "many")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Temperature != 0.5 {
		t.Errorf("Temperature = %v, want default", cfg.Temperature)
	}
	if cfg.MaxTokens != 0 {
		t.Errorf("MaxTokens = %d, want default", cfg.MaxTokens)
	}
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ModelConfiguration)
		field  string
	}{
		{"bad url", func(c *ModelConfiguration) { c.APIURL = "ftp://example.com" }, "api_url"},
		{"empty model", func(c *ModelConfiguration) { c.Model = "" }, "model"},
		{"temperature high", func(c *ModelConfiguration) { c.Temperature = 2.5 }, "temperature"},
		{"temperature negative", func(c *ModelConfiguration) { c.Temperature = -0.1 }, "temperature"},
		{"top_p zero", func(c *ModelConfiguration) { c.TopP = 0 }, "top_p"},
		{"top_p high", func(c *ModelConfiguration) { c.TopP = 1.1 }, "top_p"},
		{"negative max_tokens", func(c *ModelConfiguration) { c.MaxTokens = -1 }, "max_tokens"},
		{"frequency penalty", func(c *ModelConfiguration) { c.FrequencyPenalty = 3 }, "frequency_penalty"},
		{"presence penalty", func(c *ModelConfiguration) { c.PresencePenalty = -3 }, "presence_penalty"},
		{"zero replies", func(c *ModelConfiguration) { c.ReplyCount = 0 }, "reply_count"},
		{"negative timeout", func(c *ModelConfiguration) { c.Timeout = -time.Second }, "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			var errs ValidateErrors
			if !errors.As(err, &errs) {
				t.Fatalf("expected ValidateErrors, got %T", err)
			}
			found := false
			for _, ve := range errs {
				if ve.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %q in %v", tt.field, errs)
			}
		})
	}
}

func TestValidate_CollectsAllViolations(t *testing.T) {
	cfg := Default()
	cfg.Model = ""
	cfg.Temperature = 5
	cfg.ReplyCount = 0

	err := cfg.Validate()
	var errs ValidateErrors
	if !errors.As(err, &errs) {
		t.Fatalf("expected ValidateErrors, got %T", err)
	}
	if len(errs) != 3 {
		t.Errorf("got %d violations, want 3: %v", len(errs), errs)
	}
}
