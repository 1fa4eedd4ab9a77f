// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package config loads organizer configuration from an optional YAML file
// with environment overrides.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/SceneOrganizer/services/organizer/archive"
	"github.com/AleutianAI/SceneOrganizer/services/organizer/backend"
)

// Config is the top-level organizer configuration.
//
// Thread Safety: safe to read concurrently, not safe to modify after Load.
type Config struct {
	// Backend selects the reasoning backend implementation.
	Backend string `yaml:"backend" json:"backend" validate:"oneof=openai ollama"`

	// Retry bounds the backend retry policy.
	Retry backend.RetryConfig `yaml:"retry" json:"retry"`

	// Archive configures the run audit store. An empty path with InMemory
	// unset disables archival.
	Archive archive.Config `yaml:"archive" json:"archive"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level" validate:"oneof=debug info warn error"`

	// LogDir enables JSON file logging alongside stderr when set.
	LogDir string `yaml:"log_dir" json:"log_dir"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Backend:  "openai",
		Retry:    backend.DefaultRetryConfig(),
		LogLevel: "info",
	}
}

// Load builds a Config from defaults, an optional YAML file, and environment
// overrides, then validates it. path may be empty.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays SCENEORG_* environment variables. Backend credentials
// (OPENAI_API_KEY, OLLAMA_BASE_URL, ...) are read by the client constructors
// themselves.
func applyEnv(cfg *Config) {
	if v := os.Getenv("SCENEORG_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("SCENEORG_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("SCENEORG_ARCHIVE_PATH"); v != "" {
		cfg.Archive.Path = v
		cfg.Archive.SyncWrites = true
	}
}

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Retry.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// NewBackendClient constructs the configured backend client.
func (c Config) NewBackendClient() (backend.Client, error) {
	switch c.Backend {
	case "openai":
		return backend.NewOpenAIClient()
	case "ollama":
		return backend.NewOllamaClient()
	default:
		return nil, fmt.Errorf("config: unknown backend %q", c.Backend)
	}
}
