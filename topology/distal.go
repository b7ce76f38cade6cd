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

import (
	"fmt"

	"github.com/AleutianAI/neurotrace/skeleton"
)

// DistalNodes returns the subtree rooted at start, start included.
//
// Outputs:
//   - map[int64]bool: membership set of start and every node downstream
//     of it (away from the root).
//   - error: wrapped skeleton.ErrNodeNotFound when start is unknown.
func DistalNodes(s *skeleton.Skeleton, start int64) (map[int64]bool, error) {
	if _, ok := s.Node(start); !ok {
		return nil, fmt.Errorf("%w: %d", skeleton.ErrNodeNotFound, start)
	}
	kids := s.Children()
	distal := make(map[int64]bool)
	stack := []int64{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if distal[cur] {
			continue
		}
		distal[cur] = true
		stack = append(stack, kids[cur]...)
	}
	return distal, nil
}
