// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package topology derives graph-theoretic views from a skeleton: weighted
// adjacency, geodesic distances, slab decomposition, Strahler orders and
// distal node sets. Everything here is a pure function of the skeleton;
// callers own cache lifetime.
package topology

import (
	"fmt"
	"math"

	"github.com/AleutianAI/neurotrace/skeleton"
)

// Edge is one undirected adjacency entry. Weight is the 3D distance between
// the two nodes in nanometers.
type Edge struct {
	To     int64
	Weight float64
}

// Graph is an undirected weighted view of a skeleton's parent-child edges.
type Graph struct {
	ids []int64 // node order of the source skeleton
	adj map[int64][]Edge
}

// Build constructs the adjacency graph for a skeleton.
//
// Inputs:
//   - s: source skeleton. Must pass skeleton.Validate; Build re-checks the
//     parts it depends on (resolvable parents) and fails otherwise.
//
// Outputs:
//   - *Graph: one vertex per node, one undirected weighted edge per
//     parent-child pair. Empty skeletons yield an empty graph.
//   - error: wrapped skeleton.ErrUnknownParent on a dangling parent.
func Build(s *skeleton.Skeleton) (*Graph, error) {
	g := &Graph{
		ids: make([]int64, 0, len(s.Nodes)),
		adj: make(map[int64][]Edge, len(s.Nodes)),
	}
	pos := make(map[int64]int, len(s.Nodes))
	for i := range s.Nodes {
		g.ids = append(g.ids, s.Nodes[i].ID)
		pos[s.Nodes[i].ID] = i
	}
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if n.ParentID == skeleton.RootParentID {
			continue
		}
		pi, ok := pos[n.ParentID]
		if !ok {
			return nil, fmt.Errorf("%w: node %d -> parent %d", skeleton.ErrUnknownParent, n.ID, n.ParentID)
		}
		p := &s.Nodes[pi]
		w := dist3(n.X, n.Y, n.Z, p.X, p.Y, p.Z)
		g.adj[n.ID] = append(g.adj[n.ID], Edge{To: p.ID, Weight: w})
		g.adj[p.ID] = append(g.adj[p.ID], Edge{To: n.ID, Weight: w})
	}
	return g, nil
}

// NodeCount returns the number of vertices.
func (g *Graph) NodeCount() int {
	return len(g.ids)
}

// Neighbors returns the adjacency list of a node, nil for unknown IDs.
func (g *Graph) Neighbors(id int64) []Edge {
	return g.adj[id]
}

// GeodesicFrom returns along-the-arbor distances from start to every
// reachable node, in nanometers. The start node maps to 0.
func (g *Graph) GeodesicFrom(start int64) map[int64]float64 {
	out := make(map[int64]float64, len(g.ids))
	if _, ok := g.adj[start]; !ok {
		if len(g.ids) == 1 && g.ids[0] == start {
			out[start] = 0
		}
		return out
	}
	out[start] = 0
	// Trees have unique paths, so a plain stack walk suffices.
	stack := []int64{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range g.adj[cur] {
			if _, seen := out[e.To]; seen {
				continue
			}
			out[e.To] = out[cur] + e.Weight
			stack = append(stack, e.To)
		}
	}
	return out
}

// DistanceMatrix holds all-pairs geodesic distances in nanometers.
type DistanceMatrix struct {
	ids   []int64
	index map[int64]int
	d     [][]float64
}

// Distances computes the all-pairs geodesic matrix. O(n^2) space; intended
// for single-neuron scale, not whole-brain graphs.
func (g *Graph) Distances() *DistanceMatrix {
	m := &DistanceMatrix{
		ids:   g.ids,
		index: make(map[int64]int, len(g.ids)),
		d:     make([][]float64, len(g.ids)),
	}
	for i, id := range g.ids {
		m.index[id] = i
	}
	for i, id := range g.ids {
		row := make([]float64, len(g.ids))
		for j := range row {
			row[j] = math.Inf(1)
		}
		for to, w := range g.GeodesicFrom(id) {
			row[m.index[to]] = w
		}
		m.d[i] = row
	}
	return m
}

// Between returns the geodesic distance between two nodes, false when either
// ID is unknown.
func (m *DistanceMatrix) Between(a, b int64) (float64, bool) {
	i, ok := m.index[a]
	if !ok {
		return 0, false
	}
	j, ok := m.index[b]
	if !ok {
		return 0, false
	}
	return m.d[i][j], true
}

// Size returns the matrix dimension.
func (m *DistanceMatrix) Size() int {
	return len(m.ids)
}

func dist3(x1, y1, z1, x2, y2, z2 float64) float64 {
	dx, dy, dz := x1-x2, y1-y2, z1-z2
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
