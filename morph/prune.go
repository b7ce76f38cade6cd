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
	"errors"
	"fmt"
	"log/slog"

	"github.com/AleutianAI/neurotrace/skeleton"
	"github.com/AleutianAI/neurotrace/topology"
	"github.com/AleutianAI/neurotrace/volume"
)

// ErrNothingLeft indicates a prune that would remove every node.
var ErrNothingLeft = errors.New("morph: prune removes entire skeleton")

// PruneByStrahler removes all nodes of the given Strahler orders in place.
//
// Description:
//
//	Orders are 1-based. A negative value v prunes every order up to
//	max+v, so PruneByStrahler(s, -1) strips everything except the
//	highest-order backbone. Because Strahler order never decreases toward
//	the root, surviving nodes always stay connected and no reparenting is
//	needed.
//
// Outputs:
//   - error: ErrNothingLeft when nothing would survive; classification and
//     validation errors otherwise.
func PruneByStrahler(s *skeleton.Skeleton, orders ...int) error {
	if s.Empty() || len(orders) == 0 {
		return nil
	}
	so, err := topology.StrahlerOrders(s)
	if err != nil {
		return err
	}
	maxOrder := 0
	for _, o := range so {
		if o > maxOrder {
			maxOrder = o
		}
	}

	prune := make(map[int]bool, len(orders))
	for _, o := range orders {
		if o < 0 {
			// -1 keeps only the max order: prune 1..max-1.
			cutoff := maxOrder + o
			for k := 1; k <= cutoff; k++ {
				prune[k] = true
			}
			continue
		}
		prune[o] = true
	}

	keep := func(id int64) bool { return !prune[so[id]] }
	return replaceWith(s, subset(s, keep))
}

// PruneToLongestNeurite reduces the skeleton in place to the geodesically
// longest root-to-leaf path.
func PruneToLongestNeurite(s *skeleton.Skeleton) error {
	if s.Empty() {
		return nil
	}
	root, err := s.Root()
	if err != nil {
		return err
	}
	g, err := topology.Build(s)
	if err != nil {
		return err
	}

	kids := s.Children()
	dist := g.GeodesicFrom(root)
	farthest, best := root, -1.0
	for i := range s.Nodes {
		id := s.Nodes[i].ID
		if len(kids[id]) > 0 {
			continue
		}
		if d := dist[id]; d > best {
			farthest, best = id, d
		}
	}

	// Path membership: walk parents from the farthest leaf back to root.
	idx := s.Index()
	onPath := make(map[int64]bool)
	for cur := farthest; ; {
		onPath[cur] = true
		p := s.Nodes[idx[cur]].ParentID
		if p == skeleton.RootParentID {
			break
		}
		cur = p
	}

	keep := func(id int64) bool { return onPath[id] }
	return replaceWith(s, subset(s, keep))
}

// VolumeMode selects which side of a volume boundary survives pruning.
type VolumeMode int

const (
	// KeepInside retains nodes inside the mesh.
	KeepInside VolumeMode = iota
	// KeepOutside retains nodes outside the mesh.
	KeepOutside
)

// PruneByVolume removes nodes on one side of a mesh boundary in place.
//
// Description:
//
//	Each node is tested for containment. Surviving nodes whose parents were
//	removed are reattached to their nearest surviving ancestor, which keeps
//	arbors connected across pruned gaps. When the root itself is pruned the
//	surviving forest can have several candidate roots; the largest fragment
//	wins and the others are dropped with a warning.
//
// Outputs:
//   - error: ErrNothingLeft when no node survives.
func PruneByVolume(s *skeleton.Skeleton, m *volume.Mesh, mode VolumeMode) error {
	if s.Empty() {
		return nil
	}

	kept := make(map[int64]bool, len(s.Nodes))
	for i := range s.Nodes {
		n := &s.Nodes[i]
		inside := m.Contains(n.X, n.Y, n.Z)
		if (mode == KeepInside) == inside {
			kept[n.ID] = true
		}
	}
	if len(kept) == 0 {
		return fmt.Errorf("%w: volume %q", ErrNothingLeft, m.Name)
	}

	// Reattach survivors to their nearest kept ancestor.
	idx := s.Index()
	newParent := make(map[int64]int64, len(kept))
	for id := range kept {
		p := s.Nodes[idx[id]].ParentID
		for p != skeleton.RootParentID && !kept[p] {
			p = s.Nodes[idx[p]].ParentID
		}
		newParent[id] = p
	}

	out := subset(s, func(id int64) bool { return kept[id] })
	for i := range out.Nodes {
		out.Nodes[i].ParentID = newParent[out.Nodes[i].ID]
	}

	if roots := out.Roots(); len(roots) > 1 {
		largest := largestFragment(out, roots)
		slog.Warn("volume prune split the arbor, keeping largest fragment",
			slog.String("volume", m.Name),
			slog.Int("fragments", len(roots)),
			slog.Int("kept_nodes", len(largest)),
		)
		out = subset(out, func(id int64) bool { return largest[id] })
	}

	ClassifyNodes(out)
	*s = *out
	return nil
}

// largestFragment returns the node set of the biggest rooted component.
func largestFragment(s *skeleton.Skeleton, roots []int64) map[int64]bool {
	var best map[int64]bool
	for _, r := range roots {
		frag, err := topology.DistalNodes(s, r)
		if err != nil {
			continue
		}
		if best == nil || len(frag) > len(best) {
			best = frag
		}
	}
	return best
}

// replaceWith swaps the contents of s for pruned, reclassifying. Fails
// without touching s when pruned is empty.
func replaceWith(s, pruned *skeleton.Skeleton) error {
	if pruned.Empty() {
		return ErrNothingLeft
	}
	ClassifyNodes(pruned)
	*s = *pruned
	return nil
}
