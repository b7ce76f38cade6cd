// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package skeleton holds the structural payload of a reconstructed neuron:
// treenodes, connector links, node tags and the skeleton name. It is a leaf
// package with no fetch or cache concerns; higher layers (topology, morph,
// neuron) derive everything else from it.
package skeleton

// RootParentID marks a node without a parent. The wire format uses null;
// decoding maps null to this sentinel.
const RootParentID int64 = -1

// NodeType classifies a treenode by its position in the tree.
type NodeType string

const (
	// NodeTypeUnset means classification has not run since the last
	// structural change.
	NodeTypeUnset NodeType = ""
	NodeTypeRoot  NodeType = "root"
	NodeTypeSlab  NodeType = "slab"
	// NodeTypeBranch marks nodes with two or more children.
	NodeTypeBranch NodeType = "branch"
	NodeTypeEnd    NodeType = "end"
)

// Node is a single treenode. Coordinates are in nanometers.
type Node struct {
	ID         int64
	ParentID   int64 // RootParentID when the node has no parent
	X, Y, Z    float64
	Radius     float64 // nanometers; negative when unmeasured
	CreatorID  int64
	Confidence int
	Type       NodeType
}

// Relation distinguishes the direction of a connector link.
type Relation int

const (
	RelationPresynaptic  Relation = 0
	RelationPostsynaptic Relation = 1
)

// Connector links a treenode to a synaptic connector object.
type Connector struct {
	NodeID      int64
	ConnectorID int64
	Relation    Relation
	X, Y, Z     float64
}

// Tags maps a tag label to the treenode IDs carrying it.
type Tags map[string][]int64

// Nodes returns the node IDs tagged with label, nil when absent.
func (t Tags) Nodes(label string) []int64 {
	if t == nil {
		return nil
	}
	return t[label]
}

// Has reports whether at least one node carries label.
func (t Tags) Has(label string) bool {
	return len(t.Nodes(label)) > 0
}

// Copy returns a deep copy of the tag map.
func (t Tags) Copy() Tags {
	if t == nil {
		return nil
	}
	out := make(Tags, len(t))
	for label, ids := range t {
		dup := make([]int64, len(ids))
		copy(dup, ids)
		out[label] = dup
	}
	return out
}

// Skeleton is the full structural payload fetched in one unit: the name,
// every treenode, every connector link and the tag table. All four parts
// travel together so a partially populated skeleton never exists.
type Skeleton struct {
	Name       string
	Nodes      []Node
	Connectors []Connector
	Tags       Tags
}

// Empty reports whether the skeleton holds no treenodes. A fetched-but-empty
// skeleton is a valid state and distinct from "never fetched".
func (s *Skeleton) Empty() bool {
	return s == nil || len(s.Nodes) == 0
}

// Copy returns a deep copy sharing no memory with s.
func (s *Skeleton) Copy() *Skeleton {
	if s == nil {
		return nil
	}
	out := &Skeleton{
		Name:       s.Name,
		Nodes:      make([]Node, len(s.Nodes)),
		Connectors: make([]Connector, len(s.Connectors)),
		Tags:       s.Tags.Copy(),
	}
	copy(out.Nodes, s.Nodes)
	copy(out.Connectors, s.Connectors)
	return out
}

// Index returns a node-ID -> slice-position lookup for s.Nodes.
func (s *Skeleton) Index() map[int64]int {
	idx := make(map[int64]int, len(s.Nodes))
	for i, n := range s.Nodes {
		idx[n.ID] = i
	}
	return idx
}

// Node returns a pointer to the node with the given ID, or false.
// The pointer aliases s.Nodes; mutations through it are visible.
func (s *Skeleton) Node(id int64) (*Node, bool) {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i], true
		}
	}
	return nil, false
}

// Roots returns the IDs of all parentless nodes in node order.
func (s *Skeleton) Roots() []int64 {
	var roots []int64
	for i := range s.Nodes {
		if s.Nodes[i].ParentID == RootParentID {
			roots = append(roots, s.Nodes[i].ID)
		}
	}
	return roots
}

// Root returns the single root node ID.
//
// Outputs:
//   - int64: the root ID when exactly one parentless node exists.
//   - error: ErrNoRoot on an empty or rootless skeleton, ErrMultipleRoots
//     when more than one parentless node exists. Multiplicity is never
//     resolved by picking one arbitrarily.
func (s *Skeleton) Root() (int64, error) {
	roots := s.Roots()
	switch len(roots) {
	case 0:
		return 0, ErrNoRoot
	case 1:
		return roots[0], nil
	default:
		return 0, ErrMultipleRoots
	}
}

// Children returns a parent -> children adjacency map in node order.
func (s *Skeleton) Children() map[int64][]int64 {
	kids := make(map[int64][]int64, len(s.Nodes))
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if n.ParentID != RootParentID {
			kids[n.ParentID] = append(kids[n.ParentID], n.ID)
		}
	}
	return kids
}
