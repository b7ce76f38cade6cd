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
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/neurotrace/neuron"
	"github.com/AleutianAI/neurotrace/pkg/ux"
	"github.com/AleutianAI/neurotrace/pkg/validation"
)

func runSummary(cmd *cobra.Command, args []string) error {
	if err := validation.ValidateSkeletonIDs(args); err != nil {
		return err
	}
	client, cleanup, err := newSession()
	if err != nil {
		return err
	}
	defer cleanup()

	var summaries []neuron.Summary
	err = ux.WithSpinner(fmt.Sprintf("fetching %d skeletons", len(args)), func() error {
		var err error
		summaries, err = fetchSummaries(cmd.Context(), client, args, downsampleBy)
		return err
	})
	if err != nil {
		return err
	}
	return printSummaries(summaries)
}

// fetchSummaries fetches the skeletons, optionally downsampling them in
// parallel first. Pooled bulk ops return detached members, so the session
// is re-attached before the metadata fetches that Summaries performs.
func fetchSummaries(ctx context.Context, f neuron.Fetcher, ids []string, factor int) ([]neuron.Summary, error) {
	list := neuron.FromIDs(f, ids...)
	if factor > 1 {
		list.Parallel = true
		if err := list.Downsample(ctx, factor, true); err != nil {
			return nil, fmt.Errorf("downsample: %w", err)
		}
		for _, n := range list.Neurons() {
			n.SetFetcher(f)
		}
	}
	return list.Summaries(ctx)
}

func printSummaries(summaries []neuron.Summary) error {
	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	// Headers only when a human is watching; piped output stays clean TSV.
	if isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		fmt.Fprintln(w, "SKELETON\tNAME\tNODES\tCONNECTORS\tBRANCHES\tENDS\tOPEN ENDS\tCABLE (um)\tSOMA\tREVIEW")
	}
	for _, s := range summaries {
		review := "-"
		if s.ReviewKnown {
			review = fmt.Sprintf("%.1f%%", s.ReviewPercent)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%.2f\t%s\t%s\n",
			s.SkeletonID, s.Name, s.NNodes, s.NConnectors, s.NBranchNodes,
			s.NEndNodes, s.NOpenEnds, s.CableLength, formatSoma(s.Soma), review)
	}
	return w.Flush()
}

func formatSoma(ids []int64) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}
