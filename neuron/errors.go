// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package neuron

import "errors"

// ----- Errors -----

var (
	// ErrNoSession indicates an operation needing remote data on an
	// entity without an attached fetcher. There is no ambient fallback;
	// sessions are always injected explicitly.
	ErrNoSession = errors.New("neuron: no session attached")

	// ErrNotFound indicates a skeleton-ID lookup with zero matches.
	ErrNotFound = errors.New("neuron: skeleton id not found")

	// ErrInvalidIndex indicates a positional access with an unusable
	// index (out of range, or a natural key that is not an integer).
	ErrInvalidIndex = errors.New("neuron: invalid index")

	// ErrLengthMismatch indicates a bulk argument slice that is neither
	// length 1 (broadcast) nor the collection length (per-member).
	ErrLengthMismatch = errors.New("neuron: argument length mismatch")

	// ErrTagNotFound indicates a node reference by tag where no node
	// carries the tag.
	ErrTagNotFound = errors.New("neuron: tag not found")

	// ErrAmbiguousTag indicates a node reference by tag matching more
	// than one node. Tag references must be unique to resolve.
	ErrAmbiguousTag = errors.New("neuron: tag matches multiple nodes")
)
