// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package morph

import (
	"github.com/AleutianAI/neurotrace/skeleton"
	"github.com/AleutianAI/neurotrace/topology"
)

// Downsample thins slab nodes in place, keeping every factor-th node.
//
// Description:
//
//	Topology-defining nodes always survive: the root, branch points and
//	ends, plus connector-bearing nodes when preserveConnectors is set. Slab
//	interiors keep every factor-th node counted from the distal end of each
//	slab; survivors are reattached to their nearest surviving ancestor.
//	Connectors on removed nodes are dropped (they cannot happen when
//	preserveConnectors is set); tags on removed nodes are dropped.
//
// Inputs:
//   - factor: 1 or less is a no-op. A factor of n keeps roughly 1/n of the
//     slab interior.
func Downsample(s *skeleton.Skeleton, factor int, preserveConnectors bool) error {
	if s.Empty() || factor <= 1 {
		return nil
	}
	slabs, err := topology.Slabs(s)
	if err != nil {
		return err
	}

	kids := s.Children()
	fixed := make(map[int64]bool, len(s.Nodes))
	for i := range s.Nodes {
		id := s.Nodes[i].ID
		if s.Nodes[i].ParentID == skeleton.RootParentID || len(kids[id]) != 1 {
			fixed[id] = true
		}
	}
	if preserveConnectors {
		for i := range s.Connectors {
			fixed[s.Connectors[i].NodeID] = true
		}
	}

	kept := make(map[int64]bool, len(s.Nodes))
	for id := range fixed {
		kept[id] = true
	}
	for _, slab := range slabs {
		// slab[0] and slab[len-1] are fixed by construction; thin the
		// interior counting from the distal side.
		for i := 1; i < len(slab)-1; i++ {
			if fixed[slab[i]] || i%factor == 0 {
				kept[slab[i]] = true
			}
		}
	}

	idx := s.Index()
	newParent := make(map[int64]int64, len(kept))
	for id := range kept {
		p := s.Nodes[idx[id]].ParentID
		for p != skeleton.RootParentID && !kept[p] {
			p = s.Nodes[idx[p]].ParentID
		}
		newParent[id] = p
	}

	out := subset(s, func(id int64) bool { return kept[id] })
	for i := range out.Nodes {
		out.Nodes[i].ParentID = newParent[out.Nodes[i].ID]
	}
	return replaceWith(s, out)
}
