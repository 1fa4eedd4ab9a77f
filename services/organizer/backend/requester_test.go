// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package backend

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/SceneOrganizer/services/organizer/scene"
)

// scriptedClient returns one canned result per call, in order. The last
// script entry repeats once the script is exhausted.
type scriptedClient struct {
	script []struct {
		text string
		err  error
	}
	calls int
}

func (c *scriptedClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	i := c.calls
	if i >= len(c.script) {
		i = len(c.script) - 1
	}
	c.calls++
	return c.script[i].text, c.script[i].err
}

func scripted(steps ...struct {
	text string
	err  error
}) *scriptedClient {
	return &scriptedClient{script: steps}
}

func step(text string, err error) struct {
	text string
	err  error
} {
	return struct {
		text string
		err  error
	}{text, err}
}

func fastRetry(attempts int) RetryConfig {
	return RetryConfig{
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		BackoffFactor:  2.0,
		JitterFactor:   0,
	}
}

func testSnapshot() *scene.Snapshot {
	return &scene.Snapshot{
		Objects: []scene.ObjectRecord{
			{ID: "chair", Name: "Chair", Kind: scene.KindGeometry, World: scene.IdentityTransform()},
		},
		Edges: map[scene.ObjectID]*scene.ObjectID{"chair": nil},
	}
}

func TestRequester_FirstAttemptSucceeds(t *testing.T) {
	client := scripted(step(`{"hierarchy": {}}`, nil))
	requester, err := NewRequester(client, fastRetry(3))
	require.NoError(t, err)

	raw, err := requester.Request(context.Background(), testSnapshot())
	require.NoError(t, err)
	assert.Equal(t, `{"hierarchy": {}}`, raw)
	assert.Equal(t, 1, client.calls)
}

func TestRequester_RetriesTransientFailure(t *testing.T) {
	client := scripted(
		step("", ErrUnavailable),
		step(`{"hierarchy": {}}`, nil),
	)
	requester, err := NewRequester(client, fastRetry(3))
	require.NoError(t, err)

	raw, err := requester.Request(context.Background(), testSnapshot())
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
	assert.Equal(t, 2, client.calls)
}

func TestRequester_ExhaustionSurfacesLastError(t *testing.T) {
	client := scripted(step("", ErrUnavailable))
	requester, err := NewRequester(client, fastRetry(3))
	require.NoError(t, err)

	_, err = requester.Request(context.Background(), testSnapshot())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 3, client.calls, "must stop at the attempt ceiling")
}

func TestRequester_NonRetryableFailsImmediately(t *testing.T) {
	client := scripted(step("", ErrInvalidRequest))
	requester, err := NewRequester(client, fastRetry(5))
	require.NoError(t, err)

	_, err = requester.Request(context.Background(), testSnapshot())
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, 1, client.calls)
}

func TestRequester_CancelledContext(t *testing.T) {
	client := scripted(step("", ErrUnavailable))
	requester, err := NewRequester(client, fastRetry(5))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = requester.Request(ctx, testSnapshot())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRequester_RejectsBadConfig(t *testing.T) {
	_, err := NewRequester(scripted(step("", nil)), RetryConfig{})
	assert.ErrorIs(t, err, ErrInvalidRetryConfig)
}
