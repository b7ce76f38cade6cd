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
	"log/slog"
	"strconv"
)

// PositionalIndexer accesses members by position. Negative indices count
// from the end. Anything other than in-range integers is ErrInvalidIndex;
// positional access never falls back to key semantics.
type PositionalIndexer struct {
	list *List
}

// normalize maps i (possibly negative) into [0, len).
func (ix *PositionalIndexer) normalize(i int) (int, error) {
	n := ix.list.Len()
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%w: position %d of %d", ErrInvalidIndex, i, n)
	}
	return i, nil
}

// At returns the member at position i.
func (ix *PositionalIndexer) At(i int) (*Neuron, error) {
	i, err := ix.normalize(i)
	if err != nil {
		return nil, err
	}
	return ix.list.neurons[i], nil
}

// Slice returns members in [from, to) as a new collection, honoring
// CopyOnSubset. Negative bounds count from the end.
func (ix *PositionalIndexer) Slice(from, to int) (*List, error) {
	n := ix.list.Len()
	if from < 0 {
		from += n
	}
	if to < 0 {
		to += n
	}
	if from < 0 || to > n || from > to {
		return nil, fmt.Errorf("%w: slice [%d:%d] of %d", ErrInvalidIndex, from, to, n)
	}
	return ix.list.subset(ix.list.neurons[from:to]), nil
}

// Select returns the members at the given positions, in argument order.
func (ix *PositionalIndexer) Select(indices ...int) (*List, error) {
	members := make([]*Neuron, 0, len(indices))
	for _, i := range indices {
		j, err := ix.normalize(i)
		if err != nil {
			return nil, err
		}
		members = append(members, ix.list.neurons[j])
	}
	return ix.list.subset(members), nil
}

// SkidIndexer accesses members by skeleton ID. Keys must be
// integer-coercible strings; anything else is ErrInvalidIndex so numeric
// keys can never be mistaken for positions.
type SkidIndexer struct {
	list *List
}

// canonical parses a key into its integer form.
func canonicalSkid(key string) (int64, error) {
	v, err := strconv.ParseInt(key, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: skeleton id %q is not an integer", ErrInvalidIndex, key)
	}
	return v, nil
}

// Get returns the first member with the given skeleton ID.
//
// Outputs:
//   - *Neuron: the first match in collection order. Duplicate keys log a
//     warning; they are legal and the first wins.
//   - error: ErrInvalidIndex for non-integer keys, ErrNotFound for zero
//     matches.
func (sx *SkidIndexer) Get(key string) (*Neuron, error) {
	want, err := canonicalSkid(key)
	if err != nil {
		return nil, err
	}
	var first *Neuron
	matches := 0
	for _, n := range sx.list.neurons {
		id, err := canonicalSkid(n.SkeletonID())
		if err != nil {
			continue
		}
		if id == want {
			if first == nil {
				first = n
			}
			matches++
		}
	}
	if first == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if matches > 1 {
		slog.Warn("duplicate skeleton id in collection, returning first",
			slog.String("skeleton_id", key),
			slog.Int("matches", matches),
		)
	}
	return first, nil
}

// GetInt is Get for callers already holding an integer ID.
func (sx *SkidIndexer) GetInt(id int64) (*Neuron, error) {
	return sx.Get(strconv.FormatInt(id, 10))
}

// Select returns a new collection of the first match per key, in argument
// order, honoring CopyOnSubset. Any missing key fails the whole call.
func (sx *SkidIndexer) Select(keys ...string) (*List, error) {
	members := make([]*Neuron, 0, len(keys))
	for _, key := range keys {
		n, err := sx.Get(key)
		if err != nil {
			return nil, err
		}
		members = append(members, n)
	}
	return sx.list.subset(members), nil
}
