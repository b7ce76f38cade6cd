// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package volume

import (
	"errors"
	"math"
	"testing"

	"github.com/AleutianAI/neurotrace/skeleton"
)

// unitCube returns a closed cube spanning [0,1] on each axis.
func unitCube(t *testing.T) *Mesh {
	t.Helper()
	vertices := [][3]float64{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
	faces := [][3]int{
		{0, 1, 2}, {0, 2, 3}, // z=0
		{4, 6, 5}, {4, 7, 6}, // z=1
		{0, 5, 1}, {0, 4, 5}, // y=0
		{3, 2, 6}, {3, 6, 7}, // y=1
		{0, 3, 7}, {0, 7, 4}, // x=0
		{1, 5, 6}, {1, 6, 2}, // x=1
	}
	m, err := New("cube", vertices, faces, skeleton.Color{R: 200})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return m
}

func TestValidate(t *testing.T) {
	t.Run("valid mesh", func(t *testing.T) {
		unitCube(t)
	})

	t.Run("face out of range", func(t *testing.T) {
		_, err := New("bad", [][3]float64{{0, 0, 0}}, [][3]int{{0, 0, 5}}, skeleton.Color{})
		if !errors.Is(err, ErrFaceOutOfRange) {
			t.Errorf("New() error = %v, want ErrFaceOutOfRange", err)
		}
	})

	t.Run("negative index", func(t *testing.T) {
		_, err := New("bad", [][3]float64{{0, 0, 0}}, [][3]int{{0, -1, 0}}, skeleton.Color{})
		if !errors.Is(err, ErrFaceOutOfRange) {
			t.Errorf("New() error = %v, want ErrFaceOutOfRange", err)
		}
	})
}

func TestCombine(t *testing.T) {
	t.Run("rebases face indices", func(t *testing.T) {
		a := unitCube(t)
		b := unitCube(t)
		got, err := Combine([]*Mesh{a, b}, "both", skeleton.Color{})
		if err != nil {
			t.Fatalf("Combine() error = %v", err)
		}
		if len(got.Vertices) != 16 {
			t.Errorf("vertices = %d, want 16", len(got.Vertices))
		}
		if len(got.Faces) != 24 {
			t.Errorf("faces = %d, want 24", len(got.Faces))
		}
		// Second cube's first face must reference the offset block.
		f := got.Faces[12]
		for _, idx := range f {
			if idx < 8 {
				t.Errorf("face %v not rebased past vertex offset 8", f)
			}
		}
		if err := got.Validate(); err != nil {
			t.Errorf("combined mesh invalid: %v", err)
		}
	})

	t.Run("inputs untouched", func(t *testing.T) {
		a := unitCube(t)
		b := unitCube(t)
		if _, err := Combine([]*Mesh{a, b}, "both", skeleton.Color{}); err != nil {
			t.Fatalf("Combine() error = %v", err)
		}
		if a.Faces[0] != [3]int{0, 1, 2} || b.Faces[0] != [3]int{0, 1, 2} {
			t.Error("Combine mutated an input mesh")
		}
	})

	t.Run("empty input", func(t *testing.T) {
		if _, err := Combine(nil, "none", skeleton.Color{}); !errors.Is(err, ErrNoMeshes) {
			t.Errorf("Combine() error = %v, want ErrNoMeshes", err)
		}
	})
}

func TestResize(t *testing.T) {
	m := unitCube(t)
	m.Resize(2)

	box := m.BBox()
	for a := 0; a < 3; a++ {
		if math.Abs(box[a][0]-(-0.5)) > 1e-9 || math.Abs(box[a][1]-1.5) > 1e-9 {
			t.Errorf("axis %d bbox = %v, want [-0.5, 1.5]", a, box[a])
		}
	}

	c := m.Centroid()
	for a := 0; a < 3; a++ {
		if math.Abs(c[a]-0.5) > 1e-9 {
			t.Errorf("centroid moved: %v", c)
		}
	}
}

func TestContains(t *testing.T) {
	m := unitCube(t)

	cases := []struct {
		name    string
		x, y, z float64
		want    bool
	}{
		{"center", 0.5, 0.5, 0.5, true},
		{"near corner inside", 0.1, 0.1, 0.1, true},
		{"outside bbox", 2, 2, 2, false},
		{"outside near face", 1.01, 0.5, 0.5, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := m.Contains(tc.x, tc.y, tc.z); got != tc.want {
				t.Errorf("Contains(%v,%v,%v) = %v, want %v", tc.x, tc.y, tc.z, got, tc.want)
			}
		})
	}
}

func TestBBoxEmpty(t *testing.T) {
	m := &Mesh{}
	if box := m.BBox(); box != ([3][2]float64{}) {
		t.Errorf("empty BBox() = %v, want zeros", box)
	}
}
