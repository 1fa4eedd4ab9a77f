// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package archive

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_PutGet(t *testing.T) {
	store := openTestStore(t)

	started := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	rec := Record{
		RunID:      "run-1",
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Second),
		RawRequest: "prompt text",
		RawReply:   `{"hierarchy": {}}`,
		Report:     json.RawMessage(`{"applied": 3}`),
	}
	require.NoError(t, store.Put(rec))

	got, err := store.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, rec.RunID, got.RunID)
	assert.Equal(t, rec.RawReply, got.RawReply)
	assert.True(t, rec.StartedAt.Equal(got.StartedAt))
	assert.JSONEq(t, `{"applied": 3}`, string(got.Report))
}

func TestStore_GetMissing(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Get("nope")
	assert.Error(t, err)
}

func TestStore_PutRejectsEmptyRunID(t *testing.T) {
	store := openTestStore(t)
	assert.Error(t, store.Put(Record{}))
}

func TestStore_RunIDs(t *testing.T) {
	store := openTestStore(t)
	for _, id := range []string{"run-a", "run-b", "run-c"} {
		require.NoError(t, store.Put(Record{RunID: id}))
	}
	ids, err := store.RunIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"run-a", "run-b", "run-c"}, ids)
}

func TestOpen_PersistentRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

func TestRecorder_NilSafe(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() { r.Record(Record{RunID: "x"}) })
	assert.NotPanics(t, func() { NewRecorder(nil).Record(Record{RunID: "x"}) })
}

func TestRecorder_WritesThrough(t *testing.T) {
	store := openTestStore(t)
	NewRecorder(store).Record(Record{RunID: "run-9", RawReply: "ok"})
	got, err := store.Get("run-9")
	require.NoError(t, err)
	assert.Equal(t, "ok", got.RawReply)
}
