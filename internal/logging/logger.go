// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging builds the structured slog.Logger the service and engine
// back-ends share: stderr by default, an optional additional file sink, and
// a WithError helper that attaches the error_kind, request_id and error
// fields this domain logs repeatedly.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Config controls where logs go and at what level.
type Config struct {
	Level    slog.Level
	FilePath string // optional, in addition to stderr
	JSON     bool
}

// New builds a slog.Logger per cfg. A FilePath that cannot be opened is
// reported as an error rather than silently dropped.
func New(cfg Config) (*slog.Logger, error) {
	writers := []io.Writer{os.Stderr}
	if cfg.FilePath != "" {
		f, err := os.OpenFile(cfg.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, err
		}
		writers = append(writers, f)
	}
	var out io.Writer = writers[0]
	if len(writers) > 1 {
		out = io.MultiWriter(writers...)
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}
	var handler slog.Handler
	if cfg.JSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler), nil
}

// WithError returns logger attributes carrying a domain error's kind,
// suitable for a single log call: logger.Error("write failed", logging.WithError(err)...).
func WithError(kind, requestID string, err error) []any {
	return []any{"error_kind", kind, "request_id", requestID, "error", err}
}
