// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package archive persists per-run audit records: the raw backend request
// and response, the validated proposal, and the apply report.
//
// Archival is best effort by contract. The Recorder logs failures and
// returns; a broken archive never fails a run.
//
// Storage is BadgerDB, used as local low-latency embedded storage.
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
package archive

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Config holds configuration for the archive store.
type Config struct {
	// Path is the directory for archive files. Ignored when InMemory is set.
	Path string `yaml:"path" json:"path"`

	// InMemory enables in-memory mode (no disk persistence). For testing.
	InMemory bool `yaml:"in_memory" json:"in_memory"`

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool `yaml:"sync_writes" json:"sync_writes"`
}

// DefaultConfig returns production defaults: durable writes under path.
func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

// InMemoryConfig returns configuration for tests.
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// Record is one run's audit trail. Payload fields hold JSON produced by the
// owning components; the archive does not interpret them.
type Record struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	RawRequest string          `json:"raw_request,omitempty"`
	RawReply   string          `json:"raw_reply,omitempty"`
	Validated  json.RawMessage `json:"validated,omitempty"`
	Report     json.RawMessage `json:"report,omitempty"`
}

// Store is a badger-backed archive of run records.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the archive store.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("archive: path required for persistent store")
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("archive: opening store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func runKey(runID string) []byte {
	return []byte("run/" + runID)
}

// Put writes one run record.
func (s *Store) Put(rec Record) error {
	if rec.RunID == "" {
		return fmt.Errorf("archive: record without run id")
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("archive: marshaling record: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(runKey(rec.RunID), data)
	})
	if err != nil {
		return fmt.Errorf("archive: writing record: %w", err)
	}
	return nil
}

// Get reads one run record back.
func (s *Store) Get(runID string) (Record, error) {
	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(runKey(runID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return Record{}, fmt.Errorf("archive: reading record %q: %w", runID, err)
	}
	return rec, nil
}

// RunIDs lists the archived run ids.
func (s *Store) RunIDs() ([]string, error) {
	var ids []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte("run/")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			ids = append(ids, string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("archive: listing runs: %w", err)
	}
	return ids, nil
}

// Recorder is the fire-and-forget surface handed to the run coordinator.
// A nil Recorder or a Recorder without a store silently discards records.
type Recorder struct {
	store *Store
}

// NewRecorder wraps a store. store may be nil to disable archival.
func NewRecorder(store *Store) *Recorder {
	return &Recorder{store: store}
}

// Record archives a run. Failures are logged, never returned.
func (r *Recorder) Record(rec Record) {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.Put(rec); err != nil {
		slog.Warn("run archival failed", "run_id", rec.RunID, "error", err)
	}
}
