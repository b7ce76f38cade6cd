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
	"fmt"

	"github.com/AleutianAI/neurotrace/skeleton"
)

// NodeRef names a node either by ID or by a tag expected to be unique.
// The two cases are explicit constructors rather than an overloaded
// any-typed parameter, so misuse fails at compile time.
type NodeRef struct {
	id    int64
	tag   string
	byTag bool
}

// NodeID references a node by its treenode ID.
func NodeID(id int64) NodeRef {
	return NodeRef{id: id}
}

// NodeTag references the single node carrying tag.
func NodeTag(tag string) NodeRef {
	return NodeRef{tag: tag, byTag: true}
}

// Resolve maps the reference to a concrete node ID within s.
//
// Outputs:
//   - int64: the resolved node ID.
//   - error: skeleton.ErrNodeNotFound for an unknown ID, ErrTagNotFound
//     for an absent tag, ErrAmbiguousTag when the tag marks several nodes.
func (r NodeRef) Resolve(s *skeleton.Skeleton) (int64, error) {
	if !r.byTag {
		if _, ok := s.Node(r.id); !ok {
			return 0, fmt.Errorf("%w: %d", skeleton.ErrNodeNotFound, r.id)
		}
		return r.id, nil
	}
	ids := s.Tags.Nodes(r.tag)
	switch len(ids) {
	case 0:
		return 0, fmt.Errorf("%w: %q", ErrTagNotFound, r.tag)
	case 1:
		return ids[0], nil
	default:
		return 0, fmt.Errorf("%w: %q marks %d nodes", ErrAmbiguousTag, r.tag, len(ids))
	}
}

// String renders the reference for logs.
func (r NodeRef) String() string {
	if r.byTag {
		return fmt.Sprintf("tag:%q", r.tag)
	}
	return fmt.Sprintf("node:%d", r.id)
}
