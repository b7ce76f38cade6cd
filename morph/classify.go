// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package morph applies structural transforms to skeletons in place:
// classification, rerooting, cutting, pruning and downsampling. Every
// transform leaves the skeleton internally consistent; cache invalidation
// is the caller's job (the neuron package wires that).
package morph

import (
	"math"

	"github.com/AleutianAI/neurotrace/skeleton"
)

// ClassifyNodes stamps each node's Type from its tree position: parentless
// nodes are roots, childless nodes are ends, nodes with two or more children
// are branches, the rest are slabs. Runs after every structural mutation.
func ClassifyNodes(s *skeleton.Skeleton) {
	kids := s.Children()
	for i := range s.Nodes {
		n := &s.Nodes[i]
		switch {
		case n.ParentID == skeleton.RootParentID:
			n.Type = skeleton.NodeTypeRoot
		case len(kids[n.ID]) == 0:
			n.Type = skeleton.NodeTypeEnd
		case len(kids[n.ID]) > 1:
			n.Type = skeleton.NodeTypeBranch
		default:
			n.Type = skeleton.NodeTypeSlab
		}
	}
}

// CableLength returns the summed parent-child edge length in micrometers.
// Coordinates are stored in nanometers; the sum is divided by 1000.
// Empty skeletons yield 0.
func CableLength(s *skeleton.Skeleton) float64 {
	if s.Empty() {
		return 0
	}
	idx := s.Index()
	var nm float64
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if n.ParentID == skeleton.RootParentID {
			continue
		}
		pi, ok := idx[n.ParentID]
		if !ok {
			continue
		}
		p := &s.Nodes[pi]
		dx, dy, dz := n.X-p.X, n.Y-p.Y, n.Z-p.Z
		nm += math.Sqrt(dx*dx + dy*dy + dz*dz)
	}
	return nm / 1000
}
