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
	"time"
)

// Summary is a flat snapshot of one neuron's headline numbers.
type Summary struct {
	SkeletonID   string
	Name         string
	NNodes       int
	NConnectors  int
	NBranchNodes int
	NEndNodes    int
	NOpenEnds    int
	CableLength  float64 // micrometers
	Soma         []int64

	// ReviewPercent is only meaningful when ReviewKnown is set; review
	// status lives server-side and is not implied by structural data.
	ReviewPercent float64
	ReviewKnown   bool

	RetrievedAt time.Time
}

// Summary computes the snapshot, fetching the structural payload when
// missing. Review status is taken from cache only; use ReviewPercent or
// List.Summaries for a batched review fetch.
func (n *Neuron) Summary(ctx context.Context) (Summary, error) {
	s, err := n.Skeleton(ctx)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{
		SkeletonID:  n.skeletonID,
		Name:        s.Name,
		NNodes:      len(s.Nodes),
		NConnectors: len(s.Connectors),
		RetrievedAt: n.retrievedAt,
	}
	if v, ok := n.name.get(); ok {
		sum.Name = v
	}
	if v, ok := n.review.get(); ok {
		sum.ReviewPercent = v
		sum.ReviewKnown = true
	}

	if sum.NBranchNodes, err = n.NBranchNodes(ctx); err != nil {
		return Summary{}, err
	}
	if sum.NEndNodes, err = n.NEndNodes(ctx); err != nil {
		return Summary{}, err
	}
	if sum.NOpenEnds, err = n.NOpenEnds(ctx); err != nil {
		return Summary{}, err
	}
	if sum.CableLength, err = n.CableLength(ctx); err != nil {
		return Summary{}, err
	}
	if sum.Soma, err = n.Soma(ctx); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

// Summaries computes snapshots for every member in collection order,
// batching skeleton, name and review fetches. Review enrichment is skipped
// when no member has a session (entities already holding payloads can still
// be summarized offline).
func (l *List) Summaries(ctx context.Context) ([]Summary, error) {
	if l.Empty() {
		return []Summary{}, nil
	}
	if err := l.prefetchSkeletons(ctx, true); err != nil {
		return nil, err
	}
	if l.session() != nil {
		if err := l.prefetchNames(ctx); err != nil {
			return nil, err
		}
		if err := l.prefetchReviews(ctx); err != nil {
			return nil, err
		}
	}
	out := make([]Summary, 0, l.Len())
	for _, n := range l.neurons {
		sum, err := n.Summary(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, nil
}
