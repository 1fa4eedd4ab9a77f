// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package backend

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRetryConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RetryConfig)
		wantErr bool
	}{
		{"defaults valid", func(c *RetryConfig) {}, false},
		{"zero attempts", func(c *RetryConfig) { c.MaxAttempts = 0 }, true},
		{"negative backoff", func(c *RetryConfig) { c.InitialBackoff = -time.Second }, true},
		{"max below initial", func(c *RetryConfig) { c.MaxBackoff = time.Millisecond }, true},
		{"shrinking factor", func(c *RetryConfig) { c.BackoffFactor = 0.5 }, true},
		{"single attempt ok", func(c *RetryConfig) { c.MaxAttempts = 1 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultRetryConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidRetryConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidRetryConfig", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestRetryState_AdvanceDoublesAndCaps(t *testing.T) {
	cfg := RetryConfig{
		MaxAttempts:    10,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     4 * time.Second,
		BackoffFactor:  2.0,
		JitterFactor:   0, // deterministic
	}
	state := retryState{attempt: 1, nextWait: cfg.InitialBackoff}

	waits := []time.Duration{}
	for i := 0; i < 4; i++ {
		waits = append(waits, state.advance(cfg))
	}
	want := []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second, 4 * time.Second}
	for i := range want {
		if waits[i] != want[i] {
			t.Errorf("wait %d = %v, want %v", i, waits[i], want[i])
		}
	}
	if state.attempt != 5 {
		t.Errorf("attempt = %d, want 5", state.attempt)
	}
}

func TestJitter_StaysWithinBounds(t *testing.T) {
	base := 100 * time.Millisecond
	for i := 0; i < 200; i++ {
		got := jitter(base, 0.2)
		if got < 80*time.Millisecond || got > 120*time.Millisecond {
			t.Fatalf("jitter(%v, 0.2) = %v, outside [80ms, 120ms]", base, got)
		}
	}
	if jitter(base, 0) != base {
		t.Errorf("zero factor must return the base wait")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unavailable", ErrUnavailable, true},
		{"timeout", ErrTimeout, true},
		{"wrapped unavailable", fmt.Errorf("openai: %w", ErrUnavailable), true},
		{"invalid request", ErrInvalidRequest, false},
		{"context canceled", context.Canceled, false},
		{"context deadline", context.DeadlineExceeded, false},
		{"plain error", errors.New("boom"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
