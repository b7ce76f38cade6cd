// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package neuron is the client-side object model over reconstruction data:
// lazily populated Neuron entities, the ordered List collection with batched
// fetch and parallel bulk mutation, selection-file round trips and SWC
// import. Remote access goes through the Fetcher interface; the catmaid
// package implements it.
package neuron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AleutianAI/neurotrace/morph"
	"github.com/AleutianAI/neurotrace/skeleton"
	"github.com/AleutianAI/neurotrace/topology"
)

const (
	// DefaultSomaRadius is the node radius (nm) above which a node is a
	// soma candidate.
	DefaultSomaRadius = 500.0

	// DefaultSomaTag is the tag narrowing soma candidates when present.
	DefaultSomaTag = "soma"
)

// openEndExcludeTags mark leaf nodes that a human already inspected; such
// leaves do not count as open ends.
var openEndExcludeTags = []string{
	"ends",
	"uncertain end",
	"uncertain continuation",
	"not a branch",
	"soma",
}

// Neuron is a single reconstructed neuron identified by its skeleton ID.
//
// Every data field is lazy: unset until first accessed, then cached until a
// structural mutation or Reload purges it. The structural payload (nodes,
// connectors, tags, name) is fetched atomically in one call; name, review
// status and annotations can also be fetched independently without pulling
// the full skeleton.
//
// Thread Safety: NOT safe for concurrent use. The List collection hands
// detached copies to its workers instead of sharing entities.
type Neuron struct {
	skeletonID string
	fetcher    Fetcher

	// SomaRadius and SomaTag steer soma detection; Color travels through
	// selection files. All three are plain fields, not lazy state.
	SomaRadius float64
	SomaTag    string
	Color      skeleton.Color

	retrievedAt time.Time

	skel        lazy[*skeleton.Skeleton]
	name        lazy[string]
	review      lazy[float64]
	annotations lazy[[]string]

	// Derived caches, purged on every structural mutation.
	graph lazy[*topology.Graph]
	dists lazy[*topology.DistanceMatrix]
	slabs lazy[[][]int64]
}

// Option configures a Neuron at construction.
type Option func(*Neuron)

// WithFetcher attaches the remote session.
func WithFetcher(f Fetcher) Option {
	return func(n *Neuron) { n.fetcher = f }
}

// WithColor sets the display color.
func WithColor(c skeleton.Color) Option {
	return func(n *Neuron) { n.Color = c }
}

// WithSomaRadius overrides the soma candidate radius threshold (nm).
func WithSomaRadius(nm float64) Option {
	return func(n *Neuron) { n.SomaRadius = nm }
}

// WithSomaTag overrides the soma tag. Empty disables tag narrowing.
func WithSomaTag(tag string) Option {
	return func(n *Neuron) { n.SomaTag = tag }
}

// WithName pre-populates the name cache.
func WithName(name string) Option {
	return func(n *Neuron) { n.name.set(name) }
}

// New builds a bare entity around a skeleton ID. Nothing is fetched.
func New(skeletonID string, opts ...Option) *Neuron {
	n := &Neuron{
		skeletonID: skeletonID,
		SomaRadius: DefaultSomaRadius,
		SomaTag:    DefaultSomaTag,
		Color:      skeleton.DefaultColor,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// FromSkeleton builds an entity around already-loaded structural data, for
// SWC imports and tests. The payload is validated and classified; no
// fetcher is required until remote metadata is accessed.
func FromSkeleton(skeletonID string, s *skeleton.Skeleton, opts ...Option) (*Neuron, error) {
	n := New(skeletonID, opts...)
	if err := n.adoptSkeleton(s); err != nil {
		return nil, err
	}
	return n, nil
}

// SkeletonID returns the immutable identity.
func (n *Neuron) SkeletonID() string {
	return n.skeletonID
}

// Fetcher returns the attached session, nil when detached.
func (n *Neuron) Fetcher() Fetcher {
	return n.fetcher
}

// SetFetcher attaches or detaches (nil) the remote session.
func (n *Neuron) SetFetcher(f Fetcher) {
	n.fetcher = f
}

// RetrievedAt reports when the structural payload was last fetched or
// adopted; zero when never loaded.
func (n *Neuron) RetrievedAt() time.Time {
	return n.retrievedAt
}

// HasSkeleton reports whether structural data is cached, without fetching.
func (n *Neuron) HasSkeleton() bool {
	_, ok := n.skel.get()
	return ok
}

// adoptSkeleton validates and installs a structural payload. A payload
// violating the single-root or referential-integrity invariants is rejected
// without touching cached state.
func (n *Neuron) adoptSkeleton(s *skeleton.Skeleton) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("skeleton %s: %w", n.skeletonID, err)
	}
	n.installSkeleton(s)
	return nil
}

// installSkeleton installs an already-validated payload: classify, stamp,
// purge derived caches, and take over the payload's name.
func (n *Neuron) installSkeleton(s *skeleton.Skeleton) {
	morph.ClassifyNodes(s)
	n.skel.set(s)
	if s.Name != "" {
		n.name.set(s.Name)
	}
	n.retrievedAt = time.Now()
	n.invalidateDerived()
}

// invalidateDerived purges graph, distance and slab caches.
func (n *Neuron) invalidateDerived() {
	n.graph.clear()
	n.dists.clear()
	n.slabs.clear()
	cacheInvalidationsTotal.Inc()
}

// Skeleton returns the structural payload, fetching it on first access.
//
// Outputs:
//   - *skeleton.Skeleton: cached or freshly fetched payload. Callers share
//     the cached instance; use morph helpers or the Neuron mutation API
//     instead of editing it directly, or derived caches go stale.
//   - error: ErrNoSession without a fetcher, ErrNotFound when the server
//     does not know the ID, transport errors wrapped.
func (n *Neuron) Skeleton(ctx context.Context) (*skeleton.Skeleton, error) {
	if s, ok := n.skel.get(); ok {
		cacheHitsTotal.WithLabelValues("skeleton").Inc()
		return s, nil
	}
	cacheMissesTotal.WithLabelValues("skeleton").Inc()
	if n.fetcher == nil {
		slog.Error("skeleton access without session", slog.String("skeleton_id", n.skeletonID))
		return nil, ErrNoSession
	}
	got, err := n.fetcher.FetchSkeletons(ctx, []string{n.skeletonID})
	if err != nil {
		return nil, fmt.Errorf("fetch skeleton %s: %w", n.skeletonID, err)
	}
	s, ok := got[n.skeletonID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, n.skeletonID)
	}
	if err := n.adoptSkeleton(s); err != nil {
		return nil, err
	}
	slog.Debug("skeleton fetched",
		slog.String("skeleton_id", n.skeletonID),
		slog.Int("nodes", len(s.Nodes)),
		slog.Int("connectors", len(s.Connectors)),
	)
	return s, nil
}

// Name returns the display name, fetching only the name when the skeleton
// is not already cached.
func (n *Neuron) Name(ctx context.Context) (string, error) {
	if v, ok := n.name.get(); ok {
		cacheHitsTotal.WithLabelValues("name").Inc()
		return v, nil
	}
	cacheMissesTotal.WithLabelValues("name").Inc()
	if n.fetcher == nil {
		slog.Error("name access without session", slog.String("skeleton_id", n.skeletonID))
		return "", ErrNoSession
	}
	got, err := n.fetcher.FetchNames(ctx, []string{n.skeletonID})
	if err != nil {
		return "", fmt.Errorf("fetch name %s: %w", n.skeletonID, err)
	}
	v, ok := got[n.skeletonID]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, n.skeletonID)
	}
	n.name.set(v)
	return v, nil
}

// ReviewPercent returns the percent-reviewed status (0-100).
func (n *Neuron) ReviewPercent(ctx context.Context) (float64, error) {
	if v, ok := n.review.get(); ok {
		cacheHitsTotal.WithLabelValues("review").Inc()
		return v, nil
	}
	cacheMissesTotal.WithLabelValues("review").Inc()
	if n.fetcher == nil {
		slog.Error("review access without session", slog.String("skeleton_id", n.skeletonID))
		return 0, ErrNoSession
	}
	got, err := n.fetcher.FetchReviewStatus(ctx, []string{n.skeletonID})
	if err != nil {
		return 0, fmt.Errorf("fetch review %s: %w", n.skeletonID, err)
	}
	v, ok := got[n.skeletonID]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, n.skeletonID)
	}
	n.review.set(v)
	return v, nil
}

// Annotations returns the skeleton's annotation labels.
func (n *Neuron) Annotations(ctx context.Context) ([]string, error) {
	if v, ok := n.annotations.get(); ok {
		cacheHitsTotal.WithLabelValues("annotations").Inc()
		return v, nil
	}
	cacheMissesTotal.WithLabelValues("annotations").Inc()
	if n.fetcher == nil {
		slog.Error("annotations access without session", slog.String("skeleton_id", n.skeletonID))
		return nil, ErrNoSession
	}
	got, err := n.fetcher.FetchAnnotations(ctx, []string{n.skeletonID})
	if err != nil {
		return nil, fmt.Errorf("fetch annotations %s: %w", n.skeletonID, err)
	}
	v, ok := got[n.skeletonID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, n.skeletonID)
	}
	n.annotations.set(v)
	return v, nil
}

// Graph returns the weighted adjacency view, deriving and caching it.
func (n *Neuron) Graph(ctx context.Context) (*topology.Graph, error) {
	if g, ok := n.graph.get(); ok {
		cacheHitsTotal.WithLabelValues("graph").Inc()
		return g, nil
	}
	cacheMissesTotal.WithLabelValues("graph").Inc()
	s, err := n.Skeleton(ctx)
	if err != nil {
		return nil, err
	}
	g, err := topology.Build(s)
	if err != nil {
		return nil, fmt.Errorf("build graph %s: %w", n.skeletonID, err)
	}
	n.graph.set(g)
	return g, nil
}

// Distances returns the all-pairs geodesic matrix, deriving and caching it.
func (n *Neuron) Distances(ctx context.Context) (*topology.DistanceMatrix, error) {
	if m, ok := n.dists.get(); ok {
		cacheHitsTotal.WithLabelValues("distances").Inc()
		return m, nil
	}
	cacheMissesTotal.WithLabelValues("distances").Inc()
	g, err := n.Graph(ctx)
	if err != nil {
		return nil, err
	}
	m := g.Distances()
	n.dists.set(m)
	return m, nil
}

// Slabs returns the maximal unbranched paths, deriving and caching them.
func (n *Neuron) Slabs(ctx context.Context) ([][]int64, error) {
	if v, ok := n.slabs.get(); ok {
		cacheHitsTotal.WithLabelValues("slabs").Inc()
		return v, nil
	}
	cacheMissesTotal.WithLabelValues("slabs").Inc()
	s, err := n.Skeleton(ctx)
	if err != nil {
		return nil, err
	}
	v, err := topology.Slabs(s)
	if err != nil {
		return nil, fmt.Errorf("slabs %s: %w", n.skeletonID, err)
	}
	n.slabs.set(v)
	return v, nil
}

// Root returns the single root node ID, surfacing skeleton.ErrMultipleRoots
// instead of guessing when the payload is malformed.
func (n *Neuron) Root(ctx context.Context) (int64, error) {
	s, err := n.Skeleton(ctx)
	if err != nil {
		return 0, err
	}
	return s.Root()
}

// Tags returns the tag table.
func (n *Neuron) Tags(ctx context.Context) (skeleton.Tags, error) {
	s, err := n.Skeleton(ctx)
	if err != nil {
		return nil, err
	}
	return s.Tags, nil
}

// NNodes returns the treenode count.
func (n *Neuron) NNodes(ctx context.Context) (int, error) {
	s, err := n.Skeleton(ctx)
	if err != nil {
		return 0, err
	}
	return len(s.Nodes), nil
}

// NConnectors returns the connector link count.
func (n *Neuron) NConnectors(ctx context.Context) (int, error) {
	s, err := n.Skeleton(ctx)
	if err != nil {
		return 0, err
	}
	return len(s.Connectors), nil
}

// NPresynapses counts presynaptic connector links.
func (n *Neuron) NPresynapses(ctx context.Context) (int, error) {
	return n.countRelation(ctx, skeleton.RelationPresynaptic)
}

// NPostsynapses counts postsynaptic connector links.
func (n *Neuron) NPostsynapses(ctx context.Context) (int, error) {
	return n.countRelation(ctx, skeleton.RelationPostsynaptic)
}

func (n *Neuron) countRelation(ctx context.Context, rel skeleton.Relation) (int, error) {
	s, err := n.Skeleton(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for i := range s.Connectors {
		if s.Connectors[i].Relation == rel {
			count++
		}
	}
	return count, nil
}

// NBranchNodes counts branch points. 0 for a fetched-but-empty skeleton.
func (n *Neuron) NBranchNodes(ctx context.Context) (int, error) {
	return n.countType(ctx, skeleton.NodeTypeBranch)
}

// NEndNodes counts leaf nodes. 0 for a fetched-but-empty skeleton.
func (n *Neuron) NEndNodes(ctx context.Context) (int, error) {
	return n.countType(ctx, skeleton.NodeTypeEnd)
}

func (n *Neuron) countType(ctx context.Context, t skeleton.NodeType) (int, error) {
	s, err := n.Skeleton(ctx)
	if err != nil {
		return 0, err
	}
	count := 0
	for i := range s.Nodes {
		if s.Nodes[i].Type == t {
			count++
		}
	}
	return count, nil
}

// NOpenEnds counts leaves not excused by a reviewer tag (ends, uncertain
// end, uncertain continuation, not a branch, soma).
func (n *Neuron) NOpenEnds(ctx context.Context) (int, error) {
	s, err := n.Skeleton(ctx)
	if err != nil {
		return 0, err
	}
	if s.Empty() {
		return 0, nil
	}
	excused := make(map[int64]bool)
	for _, tag := range openEndExcludeTags {
		for _, id := range s.Tags.Nodes(tag) {
			excused[id] = true
		}
	}
	kids := s.Children()
	count := 0
	for i := range s.Nodes {
		id := s.Nodes[i].ID
		if len(kids[id]) == 0 && !excused[id] {
			count++
		}
	}
	return count, nil
}

// CableLength returns the summed edge length in micrometers.
func (n *Neuron) CableLength(ctx context.Context) (float64, error) {
	s, err := n.Skeleton(ctx)
	if err != nil {
		return 0, err
	}
	return morph.CableLength(s), nil
}

// Soma returns all soma candidate node IDs.
//
// Description:
//
//	Candidates are nodes with radius above SomaRadius; when SomaTag is
//	configured and present in the tag table, candidates are narrowed to
//	tagged nodes. Ambiguity is preserved: multiple candidates are all
//	returned with a warning rather than resolved arbitrarily.
func (n *Neuron) Soma(ctx context.Context) ([]int64, error) {
	s, err := n.Skeleton(ctx)
	if err != nil {
		return nil, err
	}
	tagged := map[int64]bool{}
	useTag := n.SomaTag != "" && s.Tags.Has(n.SomaTag)
	if useTag {
		for _, id := range s.Tags.Nodes(n.SomaTag) {
			tagged[id] = true
		}
	}
	var candidates []int64
	for i := range s.Nodes {
		nd := &s.Nodes[i]
		if nd.Radius <= n.SomaRadius {
			continue
		}
		if useTag && !tagged[nd.ID] {
			continue
		}
		candidates = append(candidates, nd.ID)
	}
	if len(candidates) > 1 {
		slog.Warn("multiple soma candidates",
			slog.String("skeleton_id", n.skeletonID),
			slog.Int("candidates", len(candidates)),
		)
	}
	return candidates, nil
}

// Copy returns a deep copy sharing no cache state with n. The fetcher
// reference (an intentionally shared handle) is carried over; use
// SetFetcher(nil) on the copy to detach it.
func (n *Neuron) Copy() *Neuron {
	out := &Neuron{
		skeletonID:  n.skeletonID,
		fetcher:     n.fetcher,
		SomaRadius:  n.SomaRadius,
		SomaTag:     n.SomaTag,
		Color:       n.Color,
		retrievedAt: n.retrievedAt,
	}
	if s, ok := n.skel.get(); ok {
		out.skel.set(s.Copy())
	}
	if v, ok := n.name.get(); ok {
		out.name.set(v)
	}
	if v, ok := n.review.get(); ok {
		out.review.set(v)
	}
	if v, ok := n.annotations.get(); ok {
		dup := make([]string, len(v))
		copy(dup, v)
		out.annotations.set(dup)
	}
	// Derived caches are cheap to rebuild and stay unset on the copy.
	return out
}
