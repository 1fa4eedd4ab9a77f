// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/SceneOrganizer/services/organizer/scene"
)

// Requester wraps a Client with prompt construction and a bounded retry
// policy. It holds no scene state; Request is a pure function of the
// snapshot and the backend.
type Requester struct {
	client Client
	retry  RetryConfig
	params GenerationParams
}

// NewRequester builds a requester around client. An invalid retry config is
// rejected up front so the ceiling is always a concrete value.
func NewRequester(client Client, retry RetryConfig) (*Requester, error) {
	if err := retry.Validate(); err != nil {
		return nil, err
	}
	temperature := float32(0.2)
	return &Requester{
		client: client,
		retry:  retry,
		params: GenerationParams{Temperature: &temperature},
	}, nil
}

// Request serializes the snapshot into the organization prompt, sends it to
// the backend, and returns the raw response text.
//
// Transient failures (per IsRetryable) are retried with exponential backoff
// up to the configured attempt ceiling; the last error is returned after
// exhaustion. Non-retryable failures return immediately.
func (r *Requester) Request(ctx context.Context, snap *scene.Snapshot) (string, error) {
	prompt, err := BuildPrompt(snap)
	if err != nil {
		return "", fmt.Errorf("backend: building prompt: %w", err)
	}

	state := retryState{attempt: 1, nextWait: r.retry.InitialBackoff}
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		start := time.Now()
		raw, err := r.client.Generate(ctx, prompt, r.params)
		if err == nil {
			slog.Info("backend proposal received",
				"attempt", state.attempt,
				"bytes", len(raw),
				"elapsed", time.Since(start))
			return raw, nil
		}
		state.lastErr = err

		if !IsRetryable(err) {
			return "", err
		}
		if state.attempt >= r.retry.MaxAttempts {
			slog.Error("backend retries exhausted",
				"attempts", state.attempt, "error", state.lastErr)
			return "", fmt.Errorf("backend: %d attempts exhausted: %w",
				state.attempt, state.lastErr)
		}

		wait := state.advance(r.retry)
		slog.Warn("backend request failed, retrying",
			"attempt", state.attempt-1, "wait", wait, "error", err)
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(wait):
		}
	}
}
