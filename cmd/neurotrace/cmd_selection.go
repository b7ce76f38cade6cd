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

	"github.com/AleutianAI/neurotrace/neuron"
	"github.com/AleutianAI/neurotrace/pkg/validation"
)

func runSelectionSave(cmd *cobra.Command, args []string) error {
	if err := validation.ValidateSkeletonIDs(args); err != nil {
		return err
	}
	list := neuron.FromIDs(nil, args...)
	if err := list.SaveSelectionFile(outputFile); err != nil {
		return fmt.Errorf("write selection: %w", err)
	}
	fmt.Printf("Wrote %d skeletons to %s\n", list.Len(), outputFile)
	return nil
}

func runSelectionLoad(cmd *cobra.Command, args []string) error {
	path := args[0]

	// A server session is optional here: without one the command just
	// lists the file's contents instead of summarizing the neurons.
	client, cleanup, err := newSession()
	if err != nil {
		list, loadErr := neuron.LoadSelectionFile(path)
		if loadErr != nil {
			return loadErr
		}
		for _, n := range list.Neurons() {
			fmt.Printf("%s\t%s\n", n.SkeletonID(), n.Color.Hex())
		}
		return nil
	}
	defer cleanup()

	list, err := neuron.LoadSelectionFile(path, neuron.WithFetcher(client))
	if err != nil {
		return err
	}
	summaries, err := list.Summaries(cmd.Context())
	if err != nil {
		return err
	}
	return printSummaries(summaries)
}
