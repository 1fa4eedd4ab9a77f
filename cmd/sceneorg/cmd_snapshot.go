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
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/SceneOrganizer/pkg/ux"
	"github.com/AleutianAI/SceneOrganizer/services/organizer/extract"
	"github.com/AleutianAI/SceneOrganizer/services/organizer/scene"
)

var (
	snapshotScenePath string
	snapshotJSON      bool
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Extract and print a scene snapshot",
	Long: `Extract a snapshot from a JSON scene file and print the hierarchy.
Useful for checking what the backend would be asked to reorganize.

Examples:
  sceneorg snapshot --scene room.json
  sceneorg snapshot --scene room.json --json`,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVar(&snapshotScenePath, "scene", "",
		"path to the JSON scene file (required)")
	snapshotCmd.Flags().BoolVar(&snapshotJSON, "json", false,
		"emit the snapshot as JSON")
	snapshotCmd.MarkFlagRequired("scene")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	host, err := scene.LoadFile(snapshotScenePath)
	if err != nil {
		return err
	}
	snap, err := extract.Extract(host)
	if err != nil {
		return err
	}

	if snapshotJSON {
		data, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Println(ux.Styled(ux.Styles.Title,
		fmt.Sprintf("%d objects", len(snap.Objects))))
	printTree(snap, nil, 0)
	return nil
}

// printTree walks the snapshot forest depth-first under parent.
func printTree(snap *scene.Snapshot, parent *scene.ObjectID, depth int) {
	var children []scene.ObjectID
	for id, p := range snap.Edges {
		if sameID(p, parent) {
			children = append(children, id)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i] < children[j] })
	for _, id := range children {
		record := snap.Record(id)
		label := fmt.Sprintf("%s%s (%s)", strings.Repeat("  ", depth), record.Name, record.Kind)
		fmt.Println(label)
		printTree(snap, &id, depth+1)
	}
}

func sameID(a, b *scene.ObjectID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
