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
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"runtime"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/neurotrace/skeleton"
)

var listTracer = otel.Tracer("neurotrace.neuron.list")

// List is an ordered collection of neurons. Order is preserved through
// every operation and duplicate skeleton IDs are allowed.
//
// Vectorized accessors batch all cache misses into a single remote call per
// attribute class and return results in collection order. Bulk mutations
// run sequentially by default; set Parallel to use a worker pool operating
// on detached copies.
//
// Thread Safety: NOT safe for concurrent use. Parallel bulk mutation is
// safe because workers only touch detached copies.
type List struct {
	neurons []*Neuron

	// Parallel switches bulk mutations to the worker pool.
	Parallel bool

	// Workers caps pool size. Defaults to NumCPU-1, minimum 1.
	Workers int

	// CopyOnSubset makes subsetting operations deep-copy their members
	// instead of sharing entities with the parent collection.
	CopyOnSubset bool

	// IX indexes by position, Skid by natural key.
	IX   *PositionalIndexer
	Skid *SkidIndexer
}

// NewList builds a collection over the given entities.
func NewList(neurons ...*Neuron) *List {
	l := &List{
		neurons: neurons,
		Workers: defaultWorkers(),
	}
	l.IX = &PositionalIndexer{list: l}
	l.Skid = &SkidIndexer{list: l}
	return l
}

// FromIDs builds a collection of bare entities sharing one session.
// Nothing is fetched.
func FromIDs(f Fetcher, skeletonIDs ...string) *List {
	neurons := make([]*Neuron, len(skeletonIDs))
	for i, id := range skeletonIDs {
		neurons[i] = New(id, WithFetcher(f))
	}
	return NewList(neurons...)
}

func defaultWorkers() int {
	w := runtime.NumCPU() - 1
	if w < 1 {
		w = 1
	}
	return w
}

// Len returns the member count.
func (l *List) Len() int {
	return len(l.neurons)
}

// Empty reports a zero-member collection.
func (l *List) Empty() bool {
	return len(l.neurons) == 0
}

// Neurons returns the members in order. The slice is a copy; the entities
// are shared.
func (l *List) Neurons() []*Neuron {
	out := make([]*Neuron, len(l.neurons))
	copy(out, l.neurons)
	return out
}

// SkeletonIDs returns member IDs in collection order, duplicates included.
func (l *List) SkeletonIDs() []string {
	out := make([]string, len(l.neurons))
	for i, n := range l.neurons {
		out[i] = n.SkeletonID()
	}
	return out
}

// Contains reports whether any member carries the skeleton ID.
func (l *List) Contains(skeletonID string) bool {
	for _, n := range l.neurons {
		if n.SkeletonID() == skeletonID {
			return true
		}
	}
	return false
}

// session returns the first attached fetcher, nil when every member is
// detached. Collections do not hold their own session.
func (l *List) session() Fetcher {
	for _, n := range l.neurons {
		if f := n.Fetcher(); f != nil {
			return f
		}
	}
	return nil
}

// subset wraps members in a new collection inheriting flags, deep-copying
// when CopyOnSubset is set.
func (l *List) subset(members []*Neuron) *List {
	if l.CopyOnSubset {
		dup := make([]*Neuron, len(members))
		for i, n := range members {
			dup[i] = n.Copy()
		}
		members = dup
	}
	out := NewList(members...)
	out.Parallel = l.Parallel
	out.Workers = l.Workers
	out.CopyOnSubset = l.CopyOnSubset
	return out
}

// ----- Composition -----

// Add returns a new collection with other's members appended.
func (l *List) Add(other *List) *List {
	return l.subset(append(l.Neurons(), other.Neurons()...))
}

// Subtract returns a new collection without members whose skeleton ID
// appears in other.
func (l *List) Subtract(other *List) *List {
	drop := make(map[string]bool, other.Len())
	for _, id := range other.SkeletonIDs() {
		drop[id] = true
	}
	var kept []*Neuron
	for _, n := range l.neurons {
		if !drop[n.SkeletonID()] {
			kept = append(kept, n)
		}
	}
	return l.subset(kept)
}

// Head returns the first n members (all of them when n exceeds Len).
func (l *List) Head(n int) *List {
	if n > len(l.neurons) {
		n = len(l.neurons)
	}
	if n < 0 {
		n = 0
	}
	return l.subset(l.neurons[:n])
}

// Sample returns n members drawn without replacement in random order.
func (l *List) Sample(n int) *List {
	if n > len(l.neurons) {
		n = len(l.neurons)
	}
	if n < 0 {
		n = 0
	}
	perm := rand.Perm(len(l.neurons))
	members := make([]*Neuron, n)
	for i := 0; i < n; i++ {
		members[i] = l.neurons[perm[i]]
	}
	return l.subset(members)
}

// SortBy orders the collection in place. The sort is stable so equal
// members keep their relative order.
func (l *List) SortBy(less func(a, b *Neuron) bool) {
	sort.SliceStable(l.neurons, func(i, j int) bool {
		return less(l.neurons[i], l.neurons[j])
	})
}

// Filter returns the members passing pred, honoring CopyOnSubset.
func (l *List) Filter(pred func(*Neuron) bool) *List {
	var kept []*Neuron
	for _, n := range l.neurons {
		if pred(n) {
			kept = append(kept, n)
		}
	}
	return l.subset(kept)
}

// FilterByName returns members whose name matches the regular expression.
// Names are batch-fetched for members missing them.
func (l *List) FilterByName(ctx context.Context, pattern string) (*List, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("name pattern: %w", err)
	}
	names, err := l.Names(ctx)
	if err != nil {
		return nil, err
	}
	var kept []*Neuron
	for i, n := range l.neurons {
		if re.MatchString(names[i]) {
			kept = append(kept, n)
		}
	}
	return l.subset(kept), nil
}

// MatchMode selects annotation filter semantics.
type MatchMode int

const (
	// MatchAny keeps members carrying at least one wanted annotation.
	MatchAny MatchMode = iota
	// MatchAll keeps members carrying every wanted annotation.
	MatchAll
)

// FilterByAnnotation returns members matching the wanted annotations.
// Annotations are batch-fetched for members missing them.
func (l *List) FilterByAnnotation(ctx context.Context, mode MatchMode, wanted ...string) (*List, error) {
	all, err := l.Annotations(ctx)
	if err != nil {
		return nil, err
	}
	var kept []*Neuron
	for i, n := range l.neurons {
		have := make(map[string]bool, len(all[i]))
		for _, a := range all[i] {
			have[a] = true
		}
		matches := 0
		for _, w := range wanted {
			if have[w] {
				matches++
			}
		}
		switch mode {
		case MatchAll:
			if matches == len(wanted) {
				kept = append(kept, n)
			}
		default:
			if matches > 0 {
				kept = append(kept, n)
			}
		}
	}
	return l.subset(kept), nil
}

// ----- Batched vectorized access -----

// prefetch batches one remote call over every member missing the field.
// skipExisting=false refetches members regardless of cache state. Members
// the server does not return simply stay unfetched; per-member collection
// surfaces ErrNotFound later.
func prefetch[T any](
	ctx context.Context,
	l *List,
	field string,
	skipExisting bool,
	isCached func(*Neuron) bool,
	fetch func(context.Context, Fetcher, []string) (map[string]T, error),
	apply func(*Neuron, T),
) error {
	var want []*Neuron
	seen := make(map[string]bool)
	for _, n := range l.neurons {
		if skipExisting && isCached(n) {
			continue
		}
		if seen[n.SkeletonID()] {
			continue
		}
		seen[n.SkeletonID()] = true
		want = append(want, n)
	}
	if len(want) == 0 {
		return nil
	}

	ctx, span := listTracer.Start(ctx, "neuron.List.prefetch")
	defer span.End()
	span.SetAttributes(
		attribute.String("field", field),
		attribute.Int("batch_size", len(want)),
		attribute.Int("collection_size", l.Len()),
	)

	f := l.session()
	if f == nil {
		span.SetStatus(codes.Error, ErrNoSession.Error())
		return ErrNoSession
	}

	ids := make([]string, len(want))
	for i, n := range want {
		ids[i] = n.SkeletonID()
	}
	batchFetchSize.WithLabelValues(field).Observe(float64(len(ids)))

	got, err := fetch(ctx, f, ids)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("batch fetch %s (%d ids): %w", field, len(ids), err)
	}

	// Duplicates share the payload; each entity gets its own application
	// so mutation on one member never leaks into another.
	for _, n := range l.neurons {
		if skipExisting && isCached(n) {
			continue
		}
		if v, ok := got[n.SkeletonID()]; ok {
			apply(n, v)
		}
	}
	span.SetStatus(codes.Ok, "")
	slog.Debug("batched fetch",
		slog.String("field", field),
		slog.Int("requested", len(ids)),
		slog.Int("returned", len(got)),
	)
	return nil
}

func (l *List) prefetchSkeletons(ctx context.Context, skipExisting bool) error {
	return prefetch(ctx, l, "skeleton", skipExisting,
		func(n *Neuron) bool { return n.HasSkeleton() },
		func(ctx context.Context, f Fetcher, ids []string) (map[string]*skeleton.Skeleton, error) {
			got, err := f.FetchSkeletons(ctx, ids)
			if err != nil {
				return nil, err
			}
			// Whole batch fails on one malformed payload, keeping the
			// no-partial-success contract.
			for id, s := range got {
				if err := s.Validate(); err != nil {
					return nil, fmt.Errorf("skeleton %s: %w", id, err)
				}
			}
			return got, nil
		},
		func(n *Neuron, s *skeleton.Skeleton) { n.installSkeleton(s.Copy()) },
	)
}

func (l *List) prefetchNames(ctx context.Context) error {
	return prefetch(ctx, l, "name", true,
		func(n *Neuron) bool { _, ok := n.name.get(); return ok },
		func(ctx context.Context, f Fetcher, ids []string) (map[string]string, error) {
			return f.FetchNames(ctx, ids)
		},
		func(n *Neuron, v string) { n.name.set(v) },
	)
}

func (l *List) prefetchReviews(ctx context.Context) error {
	return prefetch(ctx, l, "review", true,
		func(n *Neuron) bool { _, ok := n.review.get(); return ok },
		func(ctx context.Context, f Fetcher, ids []string) (map[string]float64, error) {
			return f.FetchReviewStatus(ctx, ids)
		},
		func(n *Neuron, v float64) { n.review.set(v) },
	)
}

func (l *List) prefetchAnnotations(ctx context.Context) error {
	return prefetch(ctx, l, "annotations", true,
		func(n *Neuron) bool { _, ok := n.annotations.get(); return ok },
		func(ctx context.Context, f Fetcher, ids []string) (map[string][]string, error) {
			return f.FetchAnnotations(ctx, ids)
		},
		func(n *Neuron, v []string) {
			dup := make([]string, len(v))
			copy(dup, v)
			n.annotations.set(dup)
		},
	)
}

// Skeletons returns every member's structural payload in collection order,
// batching all cache misses into one remote call. Empty collections return
// an empty slice without a call.
func (l *List) Skeletons(ctx context.Context) ([]*skeleton.Skeleton, error) {
	if err := l.prefetchSkeletons(ctx, true); err != nil {
		return nil, err
	}
	out := make([]*skeleton.Skeleton, 0, l.Len())
	for _, n := range l.neurons {
		s, err := n.Skeleton(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Names returns member names in collection order, batching misses.
func (l *List) Names(ctx context.Context) ([]string, error) {
	if err := l.prefetchNames(ctx); err != nil {
		return nil, err
	}
	out := make([]string, 0, l.Len())
	for _, n := range l.neurons {
		v, err := n.Name(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ReviewPercents returns review status in collection order, batching misses.
func (l *List) ReviewPercents(ctx context.Context) ([]float64, error) {
	if err := l.prefetchReviews(ctx); err != nil {
		return nil, err
	}
	out := make([]float64, 0, l.Len())
	for _, n := range l.neurons {
		v, err := n.ReviewPercent(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Annotations returns per-member annotation labels in collection order,
// batching misses.
func (l *List) Annotations(ctx context.Context) ([][]string, error) {
	if err := l.prefetchAnnotations(ctx); err != nil {
		return nil, err
	}
	out := make([][]string, 0, l.Len())
	for _, n := range l.neurons {
		v, err := n.Annotations(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// CableLengths returns member cable lengths (um) in collection order.
func (l *List) CableLengths(ctx context.Context) ([]float64, error) {
	if err := l.prefetchSkeletons(ctx, true); err != nil {
		return nil, err
	}
	out := make([]float64, 0, l.Len())
	for _, n := range l.neurons {
		v, err := n.CableLength(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Reload discards every member's caches and refetches structural payloads
// in one batched call. Metadata refetches lazily afterwards.
func (l *List) Reload(ctx context.Context) error {
	if l.Empty() {
		return nil
	}
	for _, n := range l.neurons {
		n.skel.clear()
		n.name.clear()
		n.review.clear()
		n.annotations.clear()
		n.invalidateDerived()
	}
	return l.prefetchSkeletons(ctx, false)
}
