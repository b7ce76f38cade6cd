// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package topology

import "github.com/AleutianAI/neurotrace/skeleton"

// Slabs decomposes the skeleton into maximal unbranched paths.
//
// Description:
//
//	Each slab runs from an end or branch node toward the root until it hits
//	the next branch node or the root, inclusive on both sides. Branch nodes
//	therefore appear in every slab they terminate. Node order within a slab
//	is distal to proximal.
//
// Outputs:
//   - [][]int64: slab node IDs, ordered by the seed's position in the node
//     table so output is deterministic.
//   - error: skeleton root/parent violations surfaced from the walk.
func Slabs(s *skeleton.Skeleton) ([][]int64, error) {
	if s.Empty() {
		return nil, nil
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	kids := s.Children()
	parent := make(map[int64]int64, len(s.Nodes))
	for i := range s.Nodes {
		parent[s.Nodes[i].ID] = s.Nodes[i].ParentID
	}

	isStop := func(id int64) bool {
		return parent[id] == skeleton.RootParentID || len(kids[id]) > 1
	}

	var slabs [][]int64
	for i := range s.Nodes {
		id := s.Nodes[i].ID
		// Seeds are leaves and branch points; each seed starts the slab
		// running proximally from it.
		if len(kids[id]) == 1 {
			continue
		}
		if parent[id] == skeleton.RootParentID {
			if len(kids[id]) == 0 {
				// Single-node skeleton: one degenerate slab.
				slabs = append(slabs, []int64{id})
			}
			continue
		}
		slab := []int64{id}
		cur := parent[id]
		for {
			slab = append(slab, cur)
			if isStop(cur) {
				break
			}
			cur = parent[cur]
		}
		slabs = append(slabs, slab)
	}
	return slabs, nil
}
