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

import (
	"context"

	"github.com/AleutianAI/neurotrace/skeleton"
	"github.com/AleutianAI/neurotrace/volume"
)

// Fetcher is the remote boundary: everything a neuron or collection needs
// from an annotation server. The catmaid package provides the production
// implementation; tests use in-memory fakes.
//
// Batch methods take the full set of wanted skeleton IDs and return one map
// entry per ID the server knows. A missing key is not an error at this
// boundary; callers decide whether absence is fatal. Any transport or server
// failure fails the whole batch; there are no partial results.
type Fetcher interface {
	// FetchSkeletons returns the full structural payload (nodes,
	// connectors, tags, name) for each requested skeleton.
	FetchSkeletons(ctx context.Context, skeletonIDs []string) (map[string]*skeleton.Skeleton, error)

	// FetchNames returns display names without structural data.
	FetchNames(ctx context.Context, skeletonIDs []string) (map[string]string, error)

	// FetchReviewStatus returns percent-reviewed per skeleton (0-100).
	FetchReviewStatus(ctx context.Context, skeletonIDs []string) (map[string]float64, error)

	// FetchAnnotations returns annotation labels per skeleton.
	FetchAnnotations(ctx context.Context, skeletonIDs []string) (map[string][]string, error)

	// FetchVolume returns a neuropil mesh by name.
	FetchVolume(ctx context.Context, name string) (*volume.Mesh, error)
}
