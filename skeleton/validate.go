// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package skeleton

import "fmt"

// Validate checks the referential integrity of the skeleton.
//
// Description:
//
//	A valid skeleton is either empty, or a single rooted tree: exactly one
//	parentless node, every non-root parent ID resolvable, no duplicate node
//	IDs, and every tag and connector entry pointing at an existing node.
//
// Outputs:
//   - error: nil when valid; otherwise a wrapped sentinel identifying the
//     first violation found (ErrDuplicateNode, ErrNoRoot, ErrMultipleRoots,
//     ErrUnknownParent, ErrUnknownTagNode, ErrUnknownConnectorNode).
func (s *Skeleton) Validate() error {
	if s.Empty() {
		return nil
	}

	seen := make(map[int64]bool, len(s.Nodes))
	for i := range s.Nodes {
		id := s.Nodes[i].ID
		if seen[id] {
			return fmt.Errorf("%w: %d", ErrDuplicateNode, id)
		}
		seen[id] = true
	}

	if _, err := s.Root(); err != nil {
		return err
	}

	for i := range s.Nodes {
		n := &s.Nodes[i]
		if n.ParentID == RootParentID {
			continue
		}
		if !seen[n.ParentID] {
			return fmt.Errorf("%w: node %d -> parent %d", ErrUnknownParent, n.ID, n.ParentID)
		}
	}

	for label, ids := range s.Tags {
		for _, id := range ids {
			if !seen[id] {
				return fmt.Errorf("%w: tag %q -> node %d", ErrUnknownTagNode, label, id)
			}
		}
	}

	for i := range s.Connectors {
		c := &s.Connectors[i]
		if !seen[c.NodeID] {
			return fmt.Errorf("%w: connector %d -> node %d", ErrUnknownConnectorNode, c.ConnectorID, c.NodeID)
		}
	}

	return nil
}
