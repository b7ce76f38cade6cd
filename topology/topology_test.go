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
	"errors"
	"math"
	"testing"

	"github.com/AleutianAI/neurotrace/skeleton"
)

// forked builds:
//
//	1 -- 2 -- 3 -- 4
//	           \
//	            5 -- 6
//
// with 100nm spacing on the main axis.
func forked() *skeleton.Skeleton {
	return &skeleton.Skeleton{
		Nodes: []skeleton.Node{
			{ID: 1, ParentID: skeleton.RootParentID, X: 0},
			{ID: 2, ParentID: 1, X: 100},
			{ID: 3, ParentID: 2, X: 200},
			{ID: 4, ParentID: 3, X: 300},
			{ID: 5, ParentID: 3, X: 200, Y: 100},
			{ID: 6, ParentID: 5, X: 200, Y: 200},
		},
	}
}

func TestBuild(t *testing.T) {
	t.Run("edge weights are 3d distance", func(t *testing.T) {
		g, err := Build(forked())
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if g.NodeCount() != 6 {
			t.Fatalf("NodeCount() = %d, want 6", g.NodeCount())
		}
		for _, e := range g.Neighbors(2) {
			if math.Abs(e.Weight-100) > 1e-9 {
				t.Errorf("edge 2-%d weight = %v, want 100", e.To, e.Weight)
			}
		}
		if got := len(g.Neighbors(3)); got != 3 {
			t.Errorf("degree of branch node 3 = %d, want 3", got)
		}
	})

	t.Run("dangling parent", func(t *testing.T) {
		s := forked()
		s.Nodes[5].ParentID = 42
		if _, err := Build(s); !errors.Is(err, skeleton.ErrUnknownParent) {
			t.Errorf("Build() error = %v, want ErrUnknownParent", err)
		}
	})

	t.Run("empty skeleton", func(t *testing.T) {
		g, err := Build(&skeleton.Skeleton{})
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if g.NodeCount() != 0 {
			t.Errorf("NodeCount() = %d, want 0", g.NodeCount())
		}
	})
}

func TestGeodesicFrom(t *testing.T) {
	g, err := Build(forked())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	d := g.GeodesicFrom(1)
	want := map[int64]float64{1: 0, 2: 100, 3: 200, 4: 300, 5: 300, 6: 400}
	for id, w := range want {
		if math.Abs(d[id]-w) > 1e-9 {
			t.Errorf("distance 1->%d = %v, want %v", id, d[id], w)
		}
	}
}

func TestDistances(t *testing.T) {
	g, err := Build(forked())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	m := g.Distances()
	if m.Size() != 6 {
		t.Fatalf("Size() = %d, want 6", m.Size())
	}

	t.Run("symmetric", func(t *testing.T) {
		ab, _ := m.Between(4, 6)
		ba, _ := m.Between(6, 4)
		if ab != ba {
			t.Errorf("Between(4,6)=%v != Between(6,4)=%v", ab, ba)
		}
		// 4 -> 3 is 100, 3 -> 5 -> 6 is 200.
		if math.Abs(ab-300) > 1e-9 {
			t.Errorf("Between(4,6) = %v, want 300", ab)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, ok := m.Between(1, 99); ok {
			t.Error("Between with unknown id reported ok")
		}
	})
}

func TestSlabs(t *testing.T) {
	t.Run("fork yields three slabs", func(t *testing.T) {
		slabs, err := Slabs(forked())
		if err != nil {
			t.Fatalf("Slabs() error = %v", err)
		}
		if len(slabs) != 3 {
			t.Fatalf("Slabs() = %d slabs, want 3", len(slabs))
		}
		// Each slab terminates at branch node 3 or the root.
		for _, slab := range slabs {
			last := slab[len(slab)-1]
			if last != 3 && last != 1 {
				t.Errorf("slab %v ends at %d, want branch 3 or root 1", slab, last)
			}
		}
	})

	t.Run("branch node shared", func(t *testing.T) {
		slabs, err := Slabs(forked())
		if err != nil {
			t.Fatalf("Slabs() error = %v", err)
		}
		count := 0
		for _, slab := range slabs {
			for _, id := range slab {
				if id == 3 {
					count++
					break
				}
			}
		}
		if count != 3 {
			t.Errorf("branch node 3 appears in %d slabs, want 3", count)
		}
	})

	t.Run("single node", func(t *testing.T) {
		s := &skeleton.Skeleton{Nodes: []skeleton.Node{{ID: 7, ParentID: skeleton.RootParentID}}}
		slabs, err := Slabs(s)
		if err != nil {
			t.Fatalf("Slabs() error = %v", err)
		}
		if len(slabs) != 1 || len(slabs[0]) != 1 || slabs[0][0] != 7 {
			t.Errorf("Slabs() = %v, want [[7]]", slabs)
		}
	})

	t.Run("empty", func(t *testing.T) {
		slabs, err := Slabs(&skeleton.Skeleton{})
		if err != nil || slabs != nil {
			t.Errorf("Slabs() = %v, %v; want nil, nil", slabs, err)
		}
	})
}

func TestStrahlerOrders(t *testing.T) {
	t.Run("fork", func(t *testing.T) {
		orders, err := StrahlerOrders(forked())
		if err != nil {
			t.Fatalf("StrahlerOrders() error = %v", err)
		}
		want := map[int64]int{4: 1, 6: 1, 5: 1, 3: 2, 2: 2, 1: 2}
		for id, o := range want {
			if orders[id] != o {
				t.Errorf("order[%d] = %d, want %d", id, orders[id], o)
			}
		}
	})

	t.Run("unequal children keep max", func(t *testing.T) {
		// Order-2 child joined by an order-1 child: parent stays 2.
		s := forked()
		s.Nodes = append(s.Nodes, skeleton.Node{ID: 7, ParentID: 2, Y: 50})
		orders, err := StrahlerOrders(s)
		if err != nil {
			t.Fatalf("StrahlerOrders() error = %v", err)
		}
		if orders[2] != 2 {
			t.Errorf("order[2] = %d, want 2", orders[2])
		}
	})

	t.Run("empty", func(t *testing.T) {
		orders, err := StrahlerOrders(&skeleton.Skeleton{})
		if err != nil {
			t.Fatalf("StrahlerOrders() error = %v", err)
		}
		if len(orders) != 0 {
			t.Errorf("orders = %v, want empty", orders)
		}
	})
}

func TestDistalNodes(t *testing.T) {
	t.Run("subtree", func(t *testing.T) {
		distal, err := DistalNodes(forked(), 3)
		if err != nil {
			t.Fatalf("DistalNodes() error = %v", err)
		}
		want := []int64{3, 4, 5, 6}
		if len(distal) != len(want) {
			t.Fatalf("distal = %v, want %v", distal, want)
		}
		for _, id := range want {
			if !distal[id] {
				t.Errorf("missing %d in distal set", id)
			}
		}
	})

	t.Run("leaf", func(t *testing.T) {
		distal, err := DistalNodes(forked(), 6)
		if err != nil {
			t.Fatalf("DistalNodes() error = %v", err)
		}
		if len(distal) != 1 || !distal[6] {
			t.Errorf("distal = %v, want {6}", distal)
		}
	})

	t.Run("unknown start", func(t *testing.T) {
		if _, err := DistalNodes(forked(), 99); !errors.Is(err, skeleton.ErrNodeNotFound) {
			t.Errorf("DistalNodes() error = %v, want ErrNodeNotFound", err)
		}
	})
}
