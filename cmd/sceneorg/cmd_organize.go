// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/SceneOrganizer/pkg/ux"
	"github.com/AleutianAI/SceneOrganizer/services/organizer/archive"
	"github.com/AleutianAI/SceneOrganizer/services/organizer/backend"
	"github.com/AleutianAI/SceneOrganizer/services/organizer/run"
	"github.com/AleutianAI/SceneOrganizer/services/organizer/scene"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	organizeScenePath string
	organizeBackend   string
	organizeDryRun    bool
	organizeJSON      bool
	organizeNoSave    bool
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var organizeCmd = &cobra.Command{
	Use:   "organize",
	Short: "Run one reorganization pass against a scene file",
	Long: `Run the full reorganization pipeline against a JSON scene file:
extract a snapshot, request a hierarchy proposal from the configured backend,
validate it, and apply the safe subset of edits back to the file.

The run always ends with a summary. A fatal error (unreadable scene, corrupt
hierarchy, backend exhaustion) leaves the scene file untouched; apply-phase
failures are skipped per operation and reported.

Examples:
  sceneorg organize --scene room.json
  sceneorg organize --scene room.json --backend ollama --dry-run
  sceneorg organize --scene room.json --json > result.json`,
	RunE: runOrganize,
}

func init() {
	organizeCmd.Flags().StringVar(&organizeScenePath, "scene", "",
		"path to the JSON scene file (required)")
	organizeCmd.Flags().StringVar(&organizeBackend, "backend", "",
		"reasoning backend: openai or ollama (overrides config)")
	organizeCmd.Flags().BoolVar(&organizeDryRun, "dry-run", false,
		"compute and report the plan without modifying the scene")
	organizeCmd.Flags().BoolVar(&organizeJSON, "json", false,
		"emit the full result as JSON")
	organizeCmd.Flags().BoolVar(&organizeNoSave, "no-save", false,
		"apply in memory but do not write the scene file back")
	organizeCmd.MarkFlagRequired("scene")
}

// =============================================================================
// COMMAND IMPLEMENTATION
// =============================================================================

func runOrganize(cmd *cobra.Command, args []string) error {
	if organizeBackend != "" {
		cfg.Backend = organizeBackend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	host, err := scene.LoadFile(organizeScenePath)
	if err != nil {
		return err
	}

	client, err := cfg.NewBackendClient()
	if err != nil {
		return err
	}
	requester, err := backend.NewRequester(client, cfg.Retry)
	if err != nil {
		return err
	}

	var recorder *archive.Recorder
	if cfg.Archive.Path != "" || cfg.Archive.InMemory {
		store, err := archive.Open(cfg.Archive)
		if err != nil {
			// Archival is best effort; a broken store must not block the run.
			fmt.Fprintln(os.Stderr, ux.Styled(ux.Styles.Warning,
				fmt.Sprintf("archive disabled: %v", err)))
		} else {
			defer store.Close()
			recorder = archive.NewRecorder(store)
		}
	}

	coordinator := run.New(host, requester, recorder)
	result, err := coordinator.Run(cmd.Context(), run.Options{DryRun: organizeDryRun})
	if err != nil {
		printResult(result)
		return err
	}

	if !organizeDryRun && !organizeNoSave && result.Applied > 0 {
		if err := host.SaveFile(organizeScenePath); err != nil {
			return fmt.Errorf("scene modified but not saved: %w", err)
		}
	}

	printResult(result)
	return nil
}

func printResult(result run.Result) {
	if organizeJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err == nil {
			fmt.Println(string(data))
		}
		return
	}

	header := fmt.Sprintf("run %s  [%s]", result.RunID, result.Stage)
	fmt.Println(ux.Styled(ux.Styles.Title, header))
	if result.Err != nil {
		fmt.Println(ux.Styled(ux.Styles.Error, result.Summary()))
		return
	}
	line := result.Summary()
	if result.DryRun {
		line = fmt.Sprintf("dry run: %d operations planned, %d warnings",
			result.Planned, len(result.Warnings))
	}
	fmt.Println(ux.Styled(ux.Styles.Success, line))
	for _, warning := range result.Warnings {
		fmt.Println(ux.Styled(ux.Styles.Warning, "  warning: "+warning.String()))
	}
	for _, skipped := range result.Skipped {
		fmt.Println(ux.Styled(ux.Styles.Muted,
			fmt.Sprintf("  skipped %s: %s", skipped.Op.Object, skipped.Reason)))
	}
}
