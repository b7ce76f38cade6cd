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
	"runtime"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/AleutianAI/neurotrace/morph"
	"github.com/AleutianAI/neurotrace/volume"
)

// broadcast expands a bulk ref argument: one ref applies to every member,
// a per-member slice must match the collection length exactly.
func broadcastRefs(refs []NodeRef, n int) ([]NodeRef, error) {
	switch len(refs) {
	case 1:
		out := make([]NodeRef, n)
		for i := range out {
			out[i] = refs[0]
		}
		return out, nil
	case n:
		return refs, nil
	default:
		return nil, fmt.Errorf("%w: got %d refs for %d members", ErrLengthMismatch, len(refs), n)
	}
}

// applyBulk runs op over every member.
//
// Description:
//
//	Sequential mode mutates members in place. Parallel mode prefetches all
//	skeletons in one batch, then hands each worker a deep copy WITHOUT the
//	session attached; on success the copies replace the originals at their
//	indices, so callers must re-attach a session to returned entities
//	before further remote access. Any member error aborts the whole call
//	and leaves the collection untouched in parallel mode.
func (l *List) applyBulk(ctx context.Context, opName string, op func(ctx context.Context, i int, n *Neuron) error) error {
	if l.Empty() {
		return nil
	}

	ctx, span := listTracer.Start(ctx, "neuron.List.bulk")
	defer span.End()
	span.SetAttributes(
		attribute.String("op", opName),
		attribute.Int("members", l.Len()),
		attribute.Bool("parallel", l.Parallel),
	)

	// Batch the network round trip up front; workers never fetch.
	if err := l.prefetchSkeletons(ctx, true); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if !l.Parallel {
		for i, n := range l.neurons {
			if err := op(ctx, i, n); err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return fmt.Errorf("%s [%d] %s: %w", opName, i, n.SkeletonID(), err)
			}
		}
		span.SetStatus(codes.Ok, "")
		return nil
	}

	workers := l.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > l.Len() {
		workers = l.Len()
	}
	span.SetAttributes(attribute.Int("workers", workers))

	work := make(chan int, l.Len())
	results := make([]*Neuron, l.Len())

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	setErr := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
		}
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					buf := make([]byte, 64<<10)
					buf = buf[:runtime.Stack(buf, false)]
					slog.Error("bulk worker panic",
						slog.String("op", opName),
						slog.Any("panic", r),
						slog.String("stack", string(buf)),
					)
					setErr(fmt.Errorf("%s: worker panic: %v", opName, r))
				}
			}()
			for i := range work {
				dup := l.neurons[i].Copy()
				dup.SetFetcher(nil)
				if err := op(ctx, i, dup); err != nil {
					setErr(fmt.Errorf("%s [%d] %s: %w", opName, i, dup.SkeletonID(), err))
					continue
				}
				results[i] = dup
			}
		}()
	}
	for i := range l.neurons {
		work <- i
	}
	close(work)
	wg.Wait()

	if firstErr != nil {
		span.RecordError(firstErr)
		span.SetStatus(codes.Error, firstErr.Error())
		return firstErr
	}
	copy(l.neurons, results)
	span.SetStatus(codes.Ok, "")
	return nil
}

// Reroot reroots every member. One ref broadcasts; a per-member slice must
// match the collection length.
func (l *List) Reroot(ctx context.Context, refs ...NodeRef) error {
	perMember, err := broadcastRefs(refs, l.Len())
	if err != nil {
		return err
	}
	return l.applyBulk(ctx, "reroot", func(ctx context.Context, i int, n *Neuron) error {
		return n.Reroot(ctx, perMember[i])
	})
}

// PruneDistalTo prunes distal to one ref per member (broadcast or
// per-member, like Reroot).
func (l *List) PruneDistalTo(ctx context.Context, refs ...NodeRef) error {
	perMember, err := broadcastRefs(refs, l.Len())
	if err != nil {
		return err
	}
	return l.applyBulk(ctx, "prune_distal", func(ctx context.Context, i int, n *Neuron) error {
		return n.PruneDistalTo(ctx, perMember[i])
	})
}

// PruneProximalTo prunes proximal to one ref per member.
func (l *List) PruneProximalTo(ctx context.Context, refs ...NodeRef) error {
	perMember, err := broadcastRefs(refs, l.Len())
	if err != nil {
		return err
	}
	return l.applyBulk(ctx, "prune_proximal", func(ctx context.Context, i int, n *Neuron) error {
		return n.PruneProximalTo(ctx, perMember[i])
	})
}

// Downsample thins every member by the same factor.
func (l *List) Downsample(ctx context.Context, factor int, preserveConnectors bool) error {
	return l.applyBulk(ctx, "downsample", func(ctx context.Context, _ int, n *Neuron) error {
		return n.Downsample(ctx, factor, preserveConnectors)
	})
}

// PruneByStrahler prunes the same Strahler orders on every member.
func (l *List) PruneByStrahler(ctx context.Context, orders ...int) error {
	return l.applyBulk(ctx, "prune_strahler", func(ctx context.Context, _ int, n *Neuron) error {
		return n.PruneByStrahler(ctx, orders...)
	})
}

// PruneToLongestNeurite reduces every member to its longest neurite.
func (l *List) PruneToLongestNeurite(ctx context.Context) error {
	return l.applyBulk(ctx, "prune_longest_neurite", func(ctx context.Context, _ int, n *Neuron) error {
		return n.PruneToLongestNeurite(ctx)
	})
}

// PruneToLongestNeuriteFromSoma reroots each member to its soma before
// pruning to the longest neurite.
func (l *List) PruneToLongestNeuriteFromSoma(ctx context.Context) error {
	return l.applyBulk(ctx, "prune_longest_neurite_soma", func(ctx context.Context, _ int, n *Neuron) error {
		return n.PruneToLongestNeuriteFromSoma(ctx)
	})
}

// PruneByVolume prunes every member against the same mesh.
func (l *List) PruneByVolume(ctx context.Context, m *volume.Mesh, mode morph.VolumeMode) error {
	return l.applyBulk(ctx, "prune_by_volume", func(ctx context.Context, _ int, n *Neuron) error {
		return n.PruneByVolume(ctx, m, mode)
	})
}
