// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package catmaid

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for request outcomes and the local skeleton store.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catmaid_requests_total",
		Help: "API requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catmaid_request_duration_seconds",
		Help:    "API request latency by endpoint, retries included",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"endpoint"})

	retriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catmaid_request_retries_total",
		Help: "Retry attempts across all requests",
	})

	storeHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catmaid_store_hits_total",
		Help: "Skeleton fetches served from the local store",
	})

	storeMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catmaid_store_misses_total",
		Help: "Skeleton fetches that went to the server",
	})
)
