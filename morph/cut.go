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

// Cut splits the skeleton at a node into a distal and a proximal part.
//
// Description:
//
//	The distal part is the subtree rooted at the cut node; its copy of the
//	cut node becomes the new root. The proximal part is everything else plus
//	a copy of the cut node as an end, so the cut point exists in both
//	halves. Connectors and tags follow node membership, which means entries
//	on the cut node appear in both parts. The input skeleton is not
//	modified.
//
// Outputs:
//   - distal, proximal: new skeletons sharing no memory with s.
//   - error: unknown cut node or structural violations.
func Cut(s *skeleton.Skeleton, at int64) (distal, proximal *skeleton.Skeleton, err error) {
	distalSet, err := topology.DistalNodes(s, at)
	if err != nil {
		return nil, nil, err
	}

	inDistal := func(id int64) bool { return distalSet[id] }
	inProximal := func(id int64) bool { return !distalSet[id] || id == at }

	distal = subset(s, inDistal)
	proximal = subset(s, inProximal)

	// The cut node roots the distal half and dangles as an end proximally.
	if n, ok := distal.Node(at); ok {
		n.ParentID = skeleton.RootParentID
	}

	ClassifyNodes(distal)
	ClassifyNodes(proximal)
	return distal, proximal, nil
}

// subset copies the nodes passing keep, with their tags and connectors.
// Parent pointers are preserved as-is; callers fix up roots.
func subset(s *skeleton.Skeleton, keep func(int64) bool) *skeleton.Skeleton {
	out := &skeleton.Skeleton{Name: s.Name, Tags: skeleton.Tags{}}
	for i := range s.Nodes {
		if keep(s.Nodes[i].ID) {
			out.Nodes = append(out.Nodes, s.Nodes[i])
		}
	}
	for i := range s.Connectors {
		if keep(s.Connectors[i].NodeID) {
			out.Connectors = append(out.Connectors, s.Connectors[i])
		}
	}
	for label, ids := range s.Tags {
		var kept []int64
		for _, id := range ids {
			if keep(id) {
				kept = append(kept, id)
			}
		}
		if len(kept) > 0 {
			out.Tags[label] = kept
		}
	}
	return out
}
