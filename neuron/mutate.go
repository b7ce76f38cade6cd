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

	"github.com/AleutianAI/neurotrace/morph"
	"github.com/AleutianAI/neurotrace/skeleton"
	"github.com/AleutianAI/neurotrace/volume"
)

// Mutations follow one contract: load the skeleton (fetching if needed),
// delegate the structural change to morph, then unconditionally purge the
// derived caches. Classification is re-stamped by the morph layer.

// Reroot makes the referenced node the new root.
func (n *Neuron) Reroot(ctx context.Context, ref NodeRef) error {
	s, err := n.Skeleton(ctx)
	if err != nil {
		return err
	}
	id, err := ref.Resolve(s)
	if err != nil {
		return err
	}
	if err := morph.Reroot(s, id); err != nil {
		return fmt.Errorf("reroot %s at %s: %w", n.skeletonID, ref, err)
	}
	n.invalidateDerived()
	return nil
}

// PruneDistalTo cuts at each reference in order, keeping the proximal part
// after every cut. References are resolved against the current remainder,
// so later refs may already be gone; that is an error.
func (n *Neuron) PruneDistalTo(ctx context.Context, refs ...NodeRef) error {
	s, err := n.Skeleton(ctx)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		id, err := ref.Resolve(s)
		if err != nil {
			return fmt.Errorf("prune distal %s at %s: %w", n.skeletonID, ref, err)
		}
		_, proximal, err := morph.Cut(s, id)
		if err != nil {
			return fmt.Errorf("prune distal %s at %s: %w", n.skeletonID, ref, err)
		}
		*s = *proximal
	}
	n.invalidateDerived()
	return nil
}

// PruneProximalTo cuts at each reference in order, keeping the distal part.
// The referenced node becomes the new root of the remainder.
func (n *Neuron) PruneProximalTo(ctx context.Context, refs ...NodeRef) error {
	s, err := n.Skeleton(ctx)
	if err != nil {
		return err
	}
	for _, ref := range refs {
		id, err := ref.Resolve(s)
		if err != nil {
			return fmt.Errorf("prune proximal %s at %s: %w", n.skeletonID, ref, err)
		}
		distal, _, err := morph.Cut(s, id)
		if err != nil {
			return fmt.Errorf("prune proximal %s at %s: %w", n.skeletonID, ref, err)
		}
		*s = *distal
	}
	n.invalidateDerived()
	return nil
}

// Downsample thins slab nodes in place by the given factor.
func (n *Neuron) Downsample(ctx context.Context, factor int, preserveConnectors bool) error {
	s, err := n.Skeleton(ctx)
	if err != nil {
		return err
	}
	before := len(s.Nodes)
	if err := morph.Downsample(s, factor, preserveConnectors); err != nil {
		return fmt.Errorf("downsample %s: %w", n.skeletonID, err)
	}
	n.invalidateDerived()
	slog.Debug("downsampled",
		slog.String("skeleton_id", n.skeletonID),
		slog.Int("factor", factor),
		slog.Int("nodes_before", before),
		slog.Int("nodes_after", len(s.Nodes)),
	)
	return nil
}

// DownsampleCopy returns a thinned copy, leaving n untouched.
func (n *Neuron) DownsampleCopy(ctx context.Context, factor int, preserveConnectors bool) (*Neuron, error) {
	if _, err := n.Skeleton(ctx); err != nil {
		return nil, err
	}
	out := n.Copy()
	if err := out.Downsample(ctx, factor, preserveConnectors); err != nil {
		return nil, err
	}
	return out, nil
}

// PruneByStrahler removes the given Strahler orders (negative counts from
// the top; -1 keeps only the highest order).
func (n *Neuron) PruneByStrahler(ctx context.Context, orders ...int) error {
	s, err := n.Skeleton(ctx)
	if err != nil {
		return err
	}
	if err := morph.PruneByStrahler(s, orders...); err != nil {
		return fmt.Errorf("prune strahler %s: %w", n.skeletonID, err)
	}
	n.invalidateDerived()
	return nil
}

// PruneToLongestNeurite reduces the arbor to its longest root-to-leaf path.
func (n *Neuron) PruneToLongestNeurite(ctx context.Context) error {
	s, err := n.Skeleton(ctx)
	if err != nil {
		return err
	}
	if err := morph.PruneToLongestNeurite(s); err != nil {
		return fmt.Errorf("prune longest neurite %s: %w", n.skeletonID, err)
	}
	n.invalidateDerived()
	return nil
}

// PruneToLongestNeuriteFromSoma reroots to the soma before pruning, so the
// kept neurite is measured from the soma rather than the current root.
// Without exactly one soma candidate the root is left unchanged.
func (n *Neuron) PruneToLongestNeuriteFromSoma(ctx context.Context) error {
	soma, err := n.Soma(ctx)
	if err != nil {
		return err
	}
	if len(soma) == 1 {
		if err := n.Reroot(ctx, NodeID(soma[0])); err != nil {
			return err
		}
	}
	return n.PruneToLongestNeurite(ctx)
}

// PruneByVolume keeps only nodes on the chosen side of the mesh boundary.
func (n *Neuron) PruneByVolume(ctx context.Context, m *volume.Mesh, mode morph.VolumeMode) error {
	s, err := n.Skeleton(ctx)
	if err != nil {
		return err
	}
	if err := morph.PruneByVolume(s, m, mode); err != nil {
		return fmt.Errorf("prune by volume %s: %w", n.skeletonID, err)
	}
	n.invalidateDerived()
	return nil
}

// PruneByVolumeName fetches the named mesh through the session, then prunes.
func (n *Neuron) PruneByVolumeName(ctx context.Context, name string, mode morph.VolumeMode) error {
	if n.fetcher == nil {
		return ErrNoSession
	}
	m, err := n.fetcher.FetchVolume(ctx, name)
	if err != nil {
		return fmt.Errorf("fetch volume %q: %w", name, err)
	}
	return n.PruneByVolume(ctx, m, mode)
}

// Reload discards every cached field and re-fetches the structural payload.
// Local mutations are lost.
func (n *Neuron) Reload(ctx context.Context) error {
	if n.fetcher == nil {
		return ErrNoSession
	}
	n.skel.clear()
	n.name.clear()
	n.review.clear()
	n.annotations.clear()
	n.invalidateDerived()
	_, err := n.Skeleton(ctx)
	return err
}

// AddTag attaches a tag to a node locally. The server is not informed;
// tags added here exist only in the cached payload.
func (n *Neuron) AddTag(ctx context.Context, label string, ref NodeRef) error {
	s, err := n.Skeleton(ctx)
	if err != nil {
		return err
	}
	id, err := ref.Resolve(s)
	if err != nil {
		return err
	}
	if s.Tags == nil {
		s.Tags = skeleton.Tags{}
	}
	s.Tags[label] = append(s.Tags[label], id)
	return nil
}
