// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command neurotrace is a CLI for neuron reconstruction data on
// CATMAID-style annotation servers.
//
// Usage:
//
//	neurotrace summary --server https://catmaid.example.org --project 1 --token $TOKEN 16 3094 5721
//	neurotrace selection save -o picks.json 16 3094
//	neurotrace selection load picks.json
//	neurotrace swc info reconstruction.swc
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
