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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for lazy-cache behavior and batched fetches.
var (
	cacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neuron_cache_hits_total",
		Help: "Lazy field accesses served from cache, by field",
	}, []string{"field"})

	cacheMissesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neuron_cache_misses_total",
		Help: "Lazy field accesses requiring a fetch or derivation, by field",
	}, []string{"field"})

	cacheInvalidationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "neuron_cache_invalidations_total",
		Help: "Derived-cache purges triggered by structural mutation",
	})

	batchFetchSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "neuron_batch_fetch_size",
		Help:    "Skeleton IDs per batched fetch, by attribute class",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
	}, []string{"field"})
)
