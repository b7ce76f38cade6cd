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
	"fmt"

	"github.com/AleutianAI/neurotrace/skeleton"
)

// Reroot makes newRoot the skeleton's root by reversing the parent pointers
// along the path from newRoot to the old root. All other edges keep their
// orientation. No-op when newRoot already is the root.
//
// Outputs:
//   - error: skeleton.ErrNodeNotFound for an unknown ID; root violations
//     from the skeleton itself.
func Reroot(s *skeleton.Skeleton, newRoot int64) error {
	target, ok := s.Node(newRoot)
	if !ok {
		return fmt.Errorf("%w: %d", skeleton.ErrNodeNotFound, newRoot)
	}
	if _, err := s.Root(); err != nil {
		return err
	}
	if target.ParentID == skeleton.RootParentID {
		return nil
	}

	// Walk newRoot -> old root, then flip each edge on the path.
	idx := s.Index()
	var path []int64
	for cur := newRoot; ; {
		path = append(path, cur)
		p := s.Nodes[idx[cur]].ParentID
		if p == skeleton.RootParentID {
			break
		}
		cur = p
	}

	s.Nodes[idx[newRoot]].ParentID = skeleton.RootParentID
	for i := 1; i < len(path); i++ {
		s.Nodes[idx[path[i]]].ParentID = path[i-1]
	}

	ClassifyNodes(s)
	return nil
}
