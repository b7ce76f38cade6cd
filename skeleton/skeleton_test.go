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

import (
	"errors"
	"testing"
)

// linear returns 1 -> 2 -> 3 with node 1 as root.
func linear() *Skeleton {
	return &Skeleton{
		Name: "linear",
		Nodes: []Node{
			{ID: 1, ParentID: RootParentID},
			{ID: 2, ParentID: 1, X: 100},
			{ID: 3, ParentID: 2, X: 200},
		},
		Tags: Tags{"soma": {1}},
	}
}

func TestRoot(t *testing.T) {
	t.Run("single root", func(t *testing.T) {
		root, err := linear().Root()
		if err != nil {
			t.Fatalf("Root() error = %v", err)
		}
		if root != 1 {
			t.Errorf("Root() = %d, want 1", root)
		}
	})

	t.Run("empty skeleton", func(t *testing.T) {
		s := &Skeleton{}
		if _, err := s.Root(); !errors.Is(err, ErrNoRoot) {
			t.Errorf("Root() error = %v, want ErrNoRoot", err)
		}
	})

	t.Run("multiple roots", func(t *testing.T) {
		s := linear()
		s.Nodes[2].ParentID = RootParentID
		if _, err := s.Root(); !errors.Is(err, ErrMultipleRoots) {
			t.Errorf("Root() error = %v, want ErrMultipleRoots", err)
		}
	})
}

func TestValidate(t *testing.T) {
	t.Run("valid tree", func(t *testing.T) {
		if err := linear().Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("empty is valid", func(t *testing.T) {
		if err := (&Skeleton{}).Validate(); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("multiple roots rejected", func(t *testing.T) {
		s := linear()
		s.Nodes[1].ParentID = RootParentID
		if err := s.Validate(); !errors.Is(err, ErrMultipleRoots) {
			t.Errorf("Validate() error = %v, want ErrMultipleRoots", err)
		}
	})

	t.Run("dangling parent rejected", func(t *testing.T) {
		s := linear()
		s.Nodes[2].ParentID = 99
		if err := s.Validate(); !errors.Is(err, ErrUnknownParent) {
			t.Errorf("Validate() error = %v, want ErrUnknownParent", err)
		}
	})

	t.Run("dangling tag rejected", func(t *testing.T) {
		s := linear()
		s.Tags["ends"] = []int64{42}
		if err := s.Validate(); !errors.Is(err, ErrUnknownTagNode) {
			t.Errorf("Validate() error = %v, want ErrUnknownTagNode", err)
		}
	})

	t.Run("dangling connector rejected", func(t *testing.T) {
		s := linear()
		s.Connectors = append(s.Connectors, Connector{NodeID: 42, ConnectorID: 7})
		if err := s.Validate(); !errors.Is(err, ErrUnknownConnectorNode) {
			t.Errorf("Validate() error = %v, want ErrUnknownConnectorNode", err)
		}
	})

	t.Run("duplicate node rejected", func(t *testing.T) {
		s := linear()
		s.Nodes = append(s.Nodes, Node{ID: 2, ParentID: 1})
		if err := s.Validate(); !errors.Is(err, ErrDuplicateNode) {
			t.Errorf("Validate() error = %v, want ErrDuplicateNode", err)
		}
	})
}

func TestCopyIsDeep(t *testing.T) {
	s := linear()
	dup := s.Copy()

	dup.Nodes[0].X = 999
	dup.Tags["soma"][0] = 999
	dup.Name = "changed"

	if s.Nodes[0].X == 999 {
		t.Error("node mutation leaked through Copy()")
	}
	if s.Tags["soma"][0] == 999 {
		t.Error("tag mutation leaked through Copy()")
	}
	if s.Name == "changed" {
		t.Error("name mutation leaked through Copy()")
	}
}

func TestChildren(t *testing.T) {
	s := &Skeleton{
		Nodes: []Node{
			{ID: 1, ParentID: RootParentID},
			{ID: 2, ParentID: 1},
			{ID: 3, ParentID: 1},
			{ID: 4, ParentID: 3},
		},
	}
	kids := s.Children()
	if got := len(kids[1]); got != 2 {
		t.Errorf("children of 1 = %d, want 2", got)
	}
	if got := len(kids[3]); got != 1 {
		t.Errorf("children of 3 = %d, want 1", got)
	}
	if _, ok := kids[4]; ok {
		t.Error("leaf node 4 should have no children entry")
	}
}

func TestColorHexRoundTrip(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Color
		ok   bool
	}{
		{"yellow", "#ffff00", Color{255, 255, 0}, true},
		{"uppercase", "#FF00AA", Color{255, 0, 170}, true},
		{"missing hash", "ffff00", Color{}, false},
		{"short", "#fff", Color{}, false},
		{"bad digits", "#zzzzzz", Color{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseHexColor(tc.in)
			if tc.ok && err != nil {
				t.Fatalf("ParseHexColor(%q) error = %v", tc.in, err)
			}
			if !tc.ok {
				if !errors.Is(err, ErrBadColor) {
					t.Fatalf("ParseHexColor(%q) error = %v, want ErrBadColor", tc.in, err)
				}
				return
			}
			if got != tc.want {
				t.Errorf("ParseHexColor(%q) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}

	if got := (Color{255, 255, 0}).Hex(); got != "#ffff00" {
		t.Errorf("Hex() = %q, want #ffff00", got)
	}
}

func TestTags(t *testing.T) {
	tags := Tags{"soma": {1}, "ends": {2, 3}}
	if !tags.Has("soma") {
		t.Error("Has(soma) = false")
	}
	if tags.Has("missing") {
		t.Error("Has(missing) = true")
	}
	if got := tags.Nodes("ends"); len(got) != 2 {
		t.Errorf("Nodes(ends) = %v, want 2 entries", got)
	}
	var nilTags Tags
	if nilTags.Has("soma") {
		t.Error("nil Tags Has() = true")
	}
}
