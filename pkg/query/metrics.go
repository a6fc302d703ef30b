// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package query

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var searchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "klask_search_duration_seconds",
	Help:    "Latency of search queries, including post-filtering and snippets.",
	Buckets: prometheus.DefBuckets,
})
