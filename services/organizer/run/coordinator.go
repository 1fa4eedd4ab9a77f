// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package run orchestrates one reorganization pass: extract, request,
// validate, reconcile, report.
//
// The coordinator owns the run lifecycle and its failure policy. Anything
// before the first scene mutation is all-or-nothing; the apply phase is best
// effort with every skip reported. Validation problems are never fatal: they
// degrade the run to fewer (or zero) changes.
package run

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/SceneOrganizer/services/organizer/archive"
	"github.com/AleutianAI/SceneOrganizer/services/organizer/backend"
	"github.com/AleutianAI/SceneOrganizer/services/organizer/extract"
	"github.com/AleutianAI/SceneOrganizer/services/organizer/proposal"
	"github.com/AleutianAI/SceneOrganizer/services/organizer/reconcile"
	"github.com/AleutianAI/SceneOrganizer/services/organizer/scene"
)

// Stage is a phase of the run state machine.
type Stage int

const (
	StageIdle Stage = iota
	StageExtracting
	StageRequesting
	StageValidating
	StageReconciling
	StageReporting
	StageFailed
)

// String returns the stage name for logs and reports.
func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageExtracting:
		return "extracting"
	case StageRequesting:
		return "requesting"
	case StageValidating:
		return "validating"
	case StageReconciling:
		return "reconciling"
	case StageReporting:
		return "reporting"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler for JSON reports.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrRunInProgress is returned when a run is requested while another run on
// the same coordinator is still in flight. Runs are rejected, not queued.
var ErrRunInProgress = errors.New("run: a run is already in progress")

// Requester is the backend boundary the coordinator depends on.
type Requester interface {
	Request(ctx context.Context, snap *scene.Snapshot) (string, error)
}

// Result summarizes one finished run.
type Result struct {
	RunID    string                `json:"run_id"`
	Stage    Stage                 `json:"stage"`
	Objects  int                   `json:"objects"`
	Planned  int                   `json:"planned"`
	Applied  int                   `json:"applied"`
	Skipped  []reconcile.SkippedOp `json:"skipped,omitempty"`
	Warnings []proposal.Warning    `json:"warnings,omitempty"`
	Err      error                 `json:"-"`
	ErrStr   string                `json:"error,omitempty"`
	Duration time.Duration         `json:"duration"`
	DryRun   bool                  `json:"dry_run,omitempty"`
}

// Summary renders the one-line user-visible outcome, distinguishing "nothing
// changed because of error X" from "N applied, M skipped".
func (r Result) Summary() string {
	if r.Err != nil {
		return fmt.Sprintf("nothing changed: %v", r.Err)
	}
	return fmt.Sprintf("%d changes applied, %d skipped, %d warnings",
		r.Applied, len(r.Skipped), len(r.Warnings))
}

// Options tunes one run.
type Options struct {
	// DryRun computes and reports the plan without touching the scene.
	DryRun bool
}

// Coordinator drives runs against one host scene. It is re-entrant across
// runs and carries no state between them beyond the in-flight guard.
type Coordinator struct {
	host      scene.Host
	requester Requester
	recorder  *archive.Recorder

	mu     sync.Mutex
	active bool
}

// New builds a coordinator. recorder may be nil to disable archival.
func New(host scene.Host, requester Requester, recorder *archive.Recorder) *Coordinator {
	return &Coordinator{host: host, requester: requester, recorder: recorder}
}

// Run executes one full reorganization pass.
//
// Fatal outcomes (Result.Err non-nil, stage "failed") leave the scene
// untouched: extraction failure, corrupt hierarchy, backend exhaustion.
// Everything after a successful backend response degrades instead of
// failing; the scene may then be partially reorganized and the result says
// exactly what happened.
func (c *Coordinator) Run(ctx context.Context, opts Options) (Result, error) {
	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return Result{}, ErrRunInProgress
	}
	c.active = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.active = false
		c.mu.Unlock()
	}()

	start := time.Now()
	result := Result{RunID: uuid.NewString(), DryRun: opts.DryRun}
	rec := archive.Record{RunID: result.RunID, StartedAt: start}
	logger := slog.With("run_id", result.RunID)
	logger.Info("reorganization run starting", "dry_run", opts.DryRun)

	fail := func(stage Stage, err error) (Result, error) {
		result.Stage = StageFailed
		result.Err = err
		result.ErrStr = err.Error()
		result.Duration = time.Since(start)
		logger.Error("run failed", "stage", stage.String(), "error", err)
		rec.FinishedAt = time.Now()
		c.recorder.Record(rec)
		return result, err
	}

	// Extract.
	snap, err := extract.Extract(c.host)
	if err != nil {
		return fail(StageExtracting, err)
	}
	result.Objects = len(snap.Objects)
	logger.Info("snapshot extracted", "objects", result.Objects)

	// Request. The archived request is the prompt as transmitted, not the
	// snapshot it was built from.
	if prompt, err := backend.BuildPrompt(snap); err == nil {
		rec.RawRequest = prompt
	} else {
		logger.Warn("request text not archived", "error", err)
	}
	raw, err := c.requester.Request(ctx, snap)
	if err != nil {
		return fail(StageRequesting, err)
	}
	rec.RawReply = raw

	// Validate. Never fatal from here on.
	parsed := proposal.Parse(raw)
	validated, warnings := proposal.Validate(parsed, snap)
	result.Warnings = warnings
	if data, err := json.Marshal(validated.Entries); err == nil {
		rec.Validated = data
	} else {
		logger.Warn("validated entries not archived", "error", err)
	}
	logger.Info("proposal validated",
		"entries", len(validated.Entries), "warnings", len(warnings))

	// Reconcile.
	plan, err := reconcile.Compute(snap, validated)
	if err != nil {
		// A compute failure means no valid edit survived; degrade to a
		// zero-change run rather than aborting.
		logger.Warn("reconcile planning failed, no changes applied", "error", err)
		result.Warnings = append(result.Warnings, proposal.Warning{
			Kind:   proposal.WarnMalformedResponse,
			Detail: fmt.Sprintf("plan rejected: %v", err),
		})
		plan = reconcile.Plan{}
	}
	result.Planned = len(plan.Ops)

	if !opts.DryRun {
		report := reconcile.Apply(ctx, plan, c.host)
		result.Applied = report.Applied
		result.Skipped = report.Skipped
		if data, err := json.Marshal(report); err == nil {
			rec.Report = data
		} else {
			logger.Warn("apply report not archived", "error", err)
		}
	}

	result.Stage = StageReporting
	result.Duration = time.Since(start)
	rec.FinishedAt = time.Now()
	c.recorder.Record(rec)
	logger.Info("run finished", "summary", result.Summary(),
		"duration", result.Duration)
	return result, nil
}
