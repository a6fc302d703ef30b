// Copyright (c) 2025 Archmagece
// SPDX-License-Identifier: MIT

package crawler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	crawlsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "klask_crawls_started_total",
		Help: "Number of crawls started.",
	})

	crawlsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "klask_crawls_completed_total",
		Help: "Number of crawls that ran to completion.",
	})

	crawlsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "klask_crawls_failed_total",
		Help: "Number of crawls that failed before completion.",
	})

	documentsIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "klask_documents_indexed_total",
		Help: "Number of documents upserted into the search index.",
	})
)
