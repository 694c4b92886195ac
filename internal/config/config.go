// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the process configuration document (config.yaml)
// used by cmd/odata-server, the way cmd/aleutian's root command loads its
// own config.yaml at startup.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config is the top-level process configuration.
type Config struct {
	ListenAddr string `yaml:"listen_addr" validate:"required,hostname_port"`
	ModelPath  string `yaml:"model_path" validate:"required,file"`

	Tracing TracingConfig `yaml:"tracing"`
	Archive ArchiveConfig `yaml:"archive"`
	Logging LoggingConfig `yaml:"logging"`

	MaxResourceNestingDepth int `yaml:"max_resource_nesting_depth" validate:"gte=0"`
}

// TracingConfig configures the OTLP gRPC exporter.
type TracingConfig struct {
	Enabled        bool   `yaml:"enabled"`
	CollectorAddr  string `yaml:"collector_addr" validate:"omitempty,hostname_port"`
	ServiceName    string `yaml:"service_name"`
}

// ArchiveConfig configures payload archival to Google Cloud Storage.
type ArchiveConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Bucket     string `yaml:"bucket" validate:"omitempty"`
	KeyPrefix  string `yaml:"key_prefix"`
}

// LoggingConfig configures the shared logger.
type LoggingConfig struct {
	Level    string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	FilePath string `yaml:"file_path"`
	JSON     bool   `yaml:"json"`
}

var validate = validator.New()

// Load reads and validates a Config document from path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if cfg.MaxResourceNestingDepth == 0 {
		cfg.MaxResourceNestingDepth = 64
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return &cfg, nil
}
