// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package volume models 3D neuropil volumes as triangular meshes. Meshes are
// value objects: no lazy loading and no cache invalidation; geometric
// operations either mutate in place (Resize) or build a new mesh (Combine).
package volume

import (
	"errors"
	"fmt"
	"math"

	"github.com/AleutianAI/neurotrace/skeleton"
)

// ----- Errors -----

var (
	// ErrFaceOutOfRange indicates a face index >= vertex count.
	ErrFaceOutOfRange = errors.New("volume: face index out of range")

	// ErrNoMeshes indicates Combine was called with nothing to combine.
	ErrNoMeshes = errors.New("volume: no meshes to combine")
)

// Mesh is a named triangular mesh. Vertices are XYZ triples in nanometers;
// each face holds three indices into Vertices.
type Mesh struct {
	Name     string
	Color    skeleton.Color
	Vertices [][3]float64
	Faces    [][3]int
}

// New builds a validated mesh.
func New(name string, vertices [][3]float64, faces [][3]int, color skeleton.Color) (*Mesh, error) {
	m := &Mesh{Name: name, Color: color, Vertices: vertices, Faces: faces}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks that every face index resolves to a vertex.
func (m *Mesh) Validate() error {
	n := len(m.Vertices)
	for fi, f := range m.Faces {
		for _, v := range f {
			if v < 0 || v >= n {
				return fmt.Errorf("%w: face %d references vertex %d of %d", ErrFaceOutOfRange, fi, v, n)
			}
		}
	}
	return nil
}

// Copy returns a deep copy of the mesh.
func (m *Mesh) Copy() *Mesh {
	out := &Mesh{
		Name:     m.Name,
		Color:    m.Color,
		Vertices: make([][3]float64, len(m.Vertices)),
		Faces:    make([][3]int, len(m.Faces)),
	}
	copy(out.Vertices, m.Vertices)
	copy(out.Faces, m.Faces)
	return out
}

// Combine merges meshes into one by concatenating vertex lists and re-basing
// each mesh's face indices by the running vertex offset. Input meshes are
// not modified.
func Combine(meshes []*Mesh, name string, color skeleton.Color) (*Mesh, error) {
	if len(meshes) == 0 {
		return nil, ErrNoMeshes
	}
	out := &Mesh{Name: name, Color: color}
	for _, m := range meshes {
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("combine %q: %w", m.Name, err)
		}
		offset := len(out.Vertices)
		out.Vertices = append(out.Vertices, m.Vertices...)
		for _, f := range m.Faces {
			out.Faces = append(out.Faces, [3]int{f[0] + offset, f[1] + offset, f[2] + offset})
		}
	}
	return out, nil
}

// Centroid returns the mean vertex position.
func (m *Mesh) Centroid() [3]float64 {
	var c [3]float64
	if len(m.Vertices) == 0 {
		return c
	}
	for _, v := range m.Vertices {
		c[0] += v[0]
		c[1] += v[1]
		c[2] += v[2]
	}
	n := float64(len(m.Vertices))
	c[0] /= n
	c[1] /= n
	c[2] /= n
	return c
}

// Resize scales the mesh in place around its centroid. A factor of 2 doubles
// every vertex offset from the centroid; face topology is untouched.
func (m *Mesh) Resize(factor float64) {
	c := m.Centroid()
	for i := range m.Vertices {
		m.Vertices[i][0] = c[0] + (m.Vertices[i][0]-c[0])*factor
		m.Vertices[i][1] = c[1] + (m.Vertices[i][1]-c[1])*factor
		m.Vertices[i][2] = c[2] + (m.Vertices[i][2]-c[2])*factor
	}
}

// BBox returns per-axis [min, max] over all vertices. Zero values for an
// empty mesh.
func (m *Mesh) BBox() [3][2]float64 {
	var box [3][2]float64
	if len(m.Vertices) == 0 {
		return box
	}
	for a := 0; a < 3; a++ {
		box[a][0] = math.Inf(1)
		box[a][1] = math.Inf(-1)
	}
	for _, v := range m.Vertices {
		for a := 0; a < 3; a++ {
			box[a][0] = math.Min(box[a][0], v[a])
			box[a][1] = math.Max(box[a][1], v[a])
		}
	}
	return box
}

// Contains reports whether the point lies inside the mesh.
//
// Description:
//
//	Casts a ray in +X from the point and counts triangle crossings; an odd
//	count means inside. Points outside the bounding box short-circuit to
//	false. Watertightness of the mesh is assumed, matching how annotation
//	servers export neuropil volumes.
func (m *Mesh) Contains(x, y, z float64) bool {
	box := m.BBox()
	if x < box[0][0] || x > box[0][1] ||
		y < box[1][0] || y > box[1][1] ||
		z < box[2][0] || z > box[2][1] {
		return false
	}
	origin := [3]float64{x, y, z}
	crossings := 0
	for _, f := range m.Faces {
		if rayHitsTriangle(origin, m.Vertices[f[0]], m.Vertices[f[1]], m.Vertices[f[2]]) {
			crossings++
		}
	}
	return crossings%2 == 1
}

// rayHitsTriangle tests a +X ray against one triangle (Moller-Trumbore).
func rayHitsTriangle(origin, v0, v1, v2 [3]float64) bool {
	const eps = 1e-9
	dir := [3]float64{1, 0, 0}

	e1 := sub(v1, v0)
	e2 := sub(v2, v0)
	p := cross(dir, e2)
	det := dot(e1, p)
	if math.Abs(det) < eps {
		return false
	}
	inv := 1 / det
	tv := sub(origin, v0)
	u := dot(tv, p) * inv
	if u < 0 || u > 1 {
		return false
	}
	q := cross(tv, e1)
	v := dot(dir, q) * inv
	if v < 0 || u+v > 1 {
		return false
	}
	t := dot(e2, q) * inv
	return t > eps
}

func sub(a, b [3]float64) [3]float64 {
	return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func cross(a, b [3]float64) [3]float64 {
	return [3]float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}
