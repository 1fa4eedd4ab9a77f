// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package reconcile

import (
	"context"
	"log/slog"

	"github.com/AleutianAI/SceneOrganizer/services/organizer/scene"
)

// SkippedOp records one operation that could not be applied, with the reason.
type SkippedOp struct {
	Op     Op     `json:"op"`
	Reason string `json:"reason"`
}

// Report summarizes one apply pass. Partial application is a valid terminal
// state: failures are reported, never rolled back.
type Report struct {
	Applied int         `json:"applied"`
	Skipped []SkippedOp `json:"skipped,omitempty"`
}

// Apply executes the plan against the live scene in plan order.
//
// Each operation re-checks object existence at apply time; the snapshot may
// be stale if the host mutated concurrently. A failed operation is skipped
// and recorded, and the remaining operations still run. Context cancellation
// stops the pass, recording the unexecuted tail as skipped.
func Apply(ctx context.Context, plan Plan, host scene.Host) Report {
	var report Report
	for i, op := range plan.Ops {
		if err := ctx.Err(); err != nil {
			for _, rest := range plan.Ops[i:] {
				report.Skipped = append(report.Skipped, SkippedOp{
					Op:     rest,
					Reason: err.Error(),
				})
			}
			break
		}
		if !host.Exists(op.Object) {
			report.Skipped = append(report.Skipped, SkippedOp{
				Op:     op,
				Reason: "object no longer exists",
			})
			slog.Warn("skipping re-parent, object gone", "object", op.Object)
			continue
		}
		if op.NewParent != nil && !host.Exists(*op.NewParent) {
			report.Skipped = append(report.Skipped, SkippedOp{
				Op:     op,
				Reason: "target parent no longer exists",
			})
			slog.Warn("skipping re-parent, parent gone",
				"object", op.Object, "parent", *op.NewParent)
			continue
		}
		if err := host.SetParentAndLocal(op.Object, op.NewParent, op.NewLocal); err != nil {
			report.Skipped = append(report.Skipped, SkippedOp{
				Op:     op,
				Reason: err.Error(),
			})
			slog.Warn("re-parent rejected by host",
				"object", op.Object, "error", err)
			continue
		}
		report.Applied++
	}
	slog.Info("apply pass finished",
		"applied", report.Applied, "skipped", len(report.Skipped))
	return report
}
