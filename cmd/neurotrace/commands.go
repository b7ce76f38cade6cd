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
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/neurotrace/pkg/logging"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// --- Global Command Variables ---
var (
	serverURL    string
	projectID    int
	apiToken     string
	apiUser      string
	apiPass      string
	storeDir     string
	logLevel     string
	jsonLogs     bool
	quiet        bool
	traceStdout  bool
	outputJSON   bool
	outputFile   string
	downsampleBy int

	logger *logging.Logger

	rootCmd = &cobra.Command{
		Use:   "neurotrace",
		Short: "A cli for neuron reconstruction data on CATMAID-style servers",
		Long: `Neurotrace fetches, summarizes and transforms skeletonized neuron
reconstructions, with a local cache so repeated fetches skip the network.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger = logging.Setup(logging.Config{
				Level:   logging.ParseLevel(logLevel),
				Service: "neurotrace",
				JSON:    jsonLogs,
				Quiet:   quiet,
			})
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				logger.Close()
			}
			shutdownTracing()
		},
	}

	// --- Summaries ---
	summaryCmd = &cobra.Command{
		Use:   "summary [skeleton_id...]",
		Short: "Fetch neurons and print a morphology summary table",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSummary, // Defined in cmd_summary.go
	}

	// --- Selection files ---
	selectionCmd = &cobra.Command{
		Use:   "selection",
		Short: "Save and load CATMAID selection files",
	}
	selectionSaveCmd = &cobra.Command{
		Use:   "save [skeleton_id...]",
		Short: "Write a selection file for the given skeletons",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runSelectionSave, // Defined in cmd_selection.go
	}
	selectionLoadCmd = &cobra.Command{
		Use:   "load [file]",
		Short: "Read a selection file and summarize its neurons",
		Args:  cobra.ExactArgs(1),
		RunE:  runSelectionLoad, // Defined in cmd_selection.go
	}

	// --- SWC files ---
	swcCmd = &cobra.Command{
		Use:   "swc",
		Short: "Work with local SWC reconstruction files",
	}
	swcInfoCmd = &cobra.Command{
		Use:   "info [file.swc]",
		Short: "Import an SWC file and print its morphology summary",
		Args:  cobra.ExactArgs(1),
		RunE:  runSWCInfo, // Defined in cmd_swc.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the neurotrace version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("neurotrace", Version)
		},
	}
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&serverURL, "server", "", "CATMAID server base URL")
	pf.IntVar(&projectID, "project", 0, "CATMAID project ID")
	pf.StringVar(&apiToken, "token", "", "API token (X-Authorization)")
	pf.StringVar(&apiUser, "user", "", "HTTP basic auth username")
	pf.StringVar(&apiPass, "pass", "", "HTTP basic auth password")
	pf.StringVar(&storeDir, "store", "", "Directory for the local skeleton cache (disabled when empty)")
	pf.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	pf.BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON")
	pf.BoolVar(&quiet, "quiet", false, "Suppress stderr logging")
	pf.BoolVar(&traceStdout, "trace", false, "Print OpenTelemetry spans to stdout")

	summaryCmd.Flags().BoolVar(&outputJSON, "json", false, "Print summaries as JSON")
	summaryCmd.Flags().IntVar(&downsampleBy, "downsample", 0, "Downsample skeletons by this factor before summarizing")

	selectionSaveCmd.Flags().StringVarP(&outputFile, "output", "o", "selection.json", "Output file path")
	selectionLoadCmd.Flags().BoolVar(&outputJSON, "json", false, "Print summaries as JSON")

	swcInfoCmd.Flags().BoolVar(&outputJSON, "json", false, "Print the summary as JSON")

	selectionCmd.AddCommand(selectionSaveCmd, selectionLoadCmd)
	swcCmd.AddCommand(swcInfoCmd)
	rootCmd.AddCommand(summaryCmd, selectionCmd, swcCmd, versionCmd)
}
