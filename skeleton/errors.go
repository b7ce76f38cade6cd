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

import "errors"

// ----- Errors -----

var (
	// ErrNoRoot indicates a non-empty skeleton without any parentless node.
	ErrNoRoot = errors.New("skeleton: no root node")

	// ErrMultipleRoots indicates more than one parentless node.
	ErrMultipleRoots = errors.New("skeleton: multiple root nodes")

	// ErrUnknownParent indicates a node whose parent ID is not in the
	// node table.
	ErrUnknownParent = errors.New("skeleton: parent references unknown node")

	// ErrUnknownTagNode indicates a tag entry pointing at a node ID that
	// is not in the node table.
	ErrUnknownTagNode = errors.New("skeleton: tag references unknown node")

	// ErrUnknownConnectorNode indicates a connector link pointing at a
	// node ID that is not in the node table.
	ErrUnknownConnectorNode = errors.New("skeleton: connector references unknown node")

	// ErrDuplicateNode indicates two nodes sharing one ID.
	ErrDuplicateNode = errors.New("skeleton: duplicate node id")

	// ErrNodeNotFound indicates a lookup for a node ID absent from the
	// node table.
	ErrNodeNotFound = errors.New("skeleton: node not found")
)
