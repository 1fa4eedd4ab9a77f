// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package backend is the opaque boundary to the reasoning service that turns
// a scene description into a hierarchy proposal.
//
// The requester is a pure function of the snapshot plus backend state: it
// never reads or mutates the live scene. Transient failures are retried with
// bounded exponential backoff; exhausting the budget surfaces the last error.
package backend

import (
	"context"
	"errors"
)

// GenerationParams tunes a single completion request. Nil fields use the
// client's defaults.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	MaxTokens   *int     `json:"max_tokens"`
}

// Client defines the standard interface for any reasoning backend.
//
// Implementations must honor ctx cancellation and map transport failures to
// the package error taxonomy so retry decisions stay uniform:
//
//   - ErrUnavailable: connection refused, 5xx, rate limited (retryable)
//   - ErrTimeout: request deadline exceeded (retryable)
//   - ErrInvalidRequest: bad request/auth (not retryable)
//
// Thread Safety: implementations must be safe for concurrent use.
type Client interface {
	// Generate sends a prompt and returns the raw model text.
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
}

var (
	// ErrUnavailable indicates the backend could not be reached or refused
	// service transiently.
	ErrUnavailable = errors.New("backend: unavailable")

	// ErrTimeout indicates the request exceeded its deadline.
	ErrTimeout = errors.New("backend: timeout")

	// ErrInvalidRequest indicates the backend rejected the request itself;
	// retrying the same request cannot succeed.
	ErrInvalidRequest = errors.New("backend: invalid request")
)

// IsRetryable reports whether err is worth another attempt. Context
// cancellation and invalid requests are terminal.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrTimeout)
}
