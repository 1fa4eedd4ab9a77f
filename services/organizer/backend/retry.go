// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package backend

import (
	"errors"
	"math/rand"
	"time"
)

// RetryConfig configures retry behavior with exponential backoff.
//
// Backoff waits use time.After, which runs on the monotonic clock; wall
// clock changes never stretch or shrink the waits.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts (including initial).
	// Default: 3
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`

	// InitialBackoff is the wait before the first retry. Default: 1s
	InitialBackoff time.Duration `yaml:"initial_backoff" json:"initial_backoff"`

	// MaxBackoff caps the wait between retries. Default: 30s
	MaxBackoff time.Duration `yaml:"max_backoff" json:"max_backoff"`

	// BackoffFactor multiplies the wait after each attempt. Default: 2.0
	BackoffFactor float64 `yaml:"backoff_factor" json:"backoff_factor"`

	// JitterFactor is the maximum jitter as a fraction of the wait (0-1).
	// Default: 0.2
	JitterFactor float64 `yaml:"jitter_factor" json:"jitter_factor"`
}

// DefaultRetryConfig returns sensible defaults for retry behavior.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:    3,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     30 * time.Second,
		BackoffFactor:  2.0,
		JitterFactor:   0.2,
	}
}

// ErrInvalidRetryConfig is returned by Validate for out-of-range settings.
var ErrInvalidRetryConfig = errors.New("backend: invalid retry config")

// Validate checks the retry configuration.
func (c RetryConfig) Validate() error {
	if c.MaxAttempts < 1 {
		return ErrInvalidRetryConfig
	}
	if c.InitialBackoff <= 0 {
		return ErrInvalidRetryConfig
	}
	if c.MaxBackoff < c.InitialBackoff {
		return ErrInvalidRetryConfig
	}
	if c.BackoffFactor < 1.0 {
		return ErrInvalidRetryConfig
	}
	return nil
}

// retryState is the explicit state carried between attempts: the attempt
// counter, the next wait, and the last error. Each decision reads this state
// rather than recursing.
type retryState struct {
	attempt  int
	nextWait time.Duration
	lastErr  error
}

// advance moves the state to the next attempt and returns the wait to apply
// before it, with jitter.
func (s *retryState) advance(cfg RetryConfig) time.Duration {
	wait := jitter(s.nextWait, cfg.JitterFactor)
	next := time.Duration(float64(s.nextWait) * cfg.BackoffFactor)
	if next > cfg.MaxBackoff {
		next = cfg.MaxBackoff
	}
	s.nextWait = next
	s.attempt++
	return wait
}

// jitter spreads a wait into [base*(1-f), base*(1+f)].
func jitter(base time.Duration, factor float64) time.Duration {
	if factor <= 0 {
		return base
	}
	mult := 1.0 + (rand.Float64()*2-1)*factor
	return time.Duration(float64(base) * mult)
}
