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
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/SceneOrganizer/pkg/logging"
	"github.com/AleutianAI/SceneOrganizer/services/organizer/config"
)

// =============================================================================
// GLOBAL FLAGS
// =============================================================================

var (
	flagConfigPath string
	flagLogLevel   string
)

var (
	cfg    config.Config
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sceneorg",
	Short: "AI-driven 3D scene hierarchy reorganization",
	Long: `sceneorg extracts a snapshot of a 3D scene, asks a reasoning backend
for a better object hierarchy, validates the answer, and applies the safe
subset back onto the scene without disturbing any object's world transform.

Backends are configured via environment variables:
  OPENAI_API_KEY, OPENAI_MODEL, OPENAI_BASE_URL   (backend: openai)
  OLLAMA_BASE_URL, OLLAMA_MODEL                   (backend: ollama)`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "",
		"path to a YAML config file (optional)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "",
		"log level: debug, info, warn, error (overrides config)")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(flagConfigPath)
		if err != nil {
			return err
		}
		if flagLogLevel != "" {
			loaded.LogLevel = flagLogLevel
		}
		cfg = loaded

		logger = logging.New(logging.Config{
			Level:   logging.ParseLevel(cfg.LogLevel),
			LogDir:  cfg.LogDir,
			Service: "sceneorg",
		})
		logger.Install()
		return nil
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Close()
		}
	}

	rootCmd.AddCommand(organizeCmd)
	rootCmd.AddCommand(snapshotCmd)
}
