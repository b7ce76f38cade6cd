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

// StrahlerOrders assigns each node its Strahler stream order.
//
// Description:
//
//	Leaves get order 1. A node with children gets the max child order, or
//	max+1 when two or more children share the max. Computed iteratively
//	(post-order on an explicit stack) so deep arbors cannot overflow the
//	goroutine stack.
//
// Outputs:
//   - map[int64]int: node ID -> order. Empty map for an empty skeleton.
//   - error: root/parent violations from Validate.
func StrahlerOrders(s *skeleton.Skeleton) (map[int64]int, error) {
	if s.Empty() {
		return map[int64]int{}, nil
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	root, err := s.Root()
	if err != nil {
		return nil, err
	}

	kids := s.Children()
	orders := make(map[int64]int, len(s.Nodes))

	type frame struct {
		id       int64
		expanded bool
	}
	stack := []frame{{id: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		children := kids[f.id]
		if len(children) == 0 {
			orders[f.id] = 1
			continue
		}
		if !f.expanded {
			stack = append(stack, frame{id: f.id, expanded: true})
			for _, c := range children {
				stack = append(stack, frame{id: c})
			}
			continue
		}
		maxOrder, maxCount := 0, 0
		for _, c := range children {
			switch o := orders[c]; {
			case o > maxOrder:
				maxOrder, maxCount = o, 1
			case o == maxOrder:
				maxCount++
			}
		}
		if maxCount > 1 {
			maxOrder++
		}
		orders[f.id] = maxOrder
	}
	return orders, nil
}
