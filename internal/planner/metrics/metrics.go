// Package metrics defines the Prometheus collectors for the planner.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Resolver Metrics
var (
	NodesResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameNodesResolved,
			Help: HelpTextNodesResolved,
		},
		[]string{LabelKind},
	)

	NodeCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameNodeCache,
			Help: HelpTextNodeCache,
		},
		[]string{LabelResult},
	)

	CatalogCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameCatalogCache,
			Help: HelpTextCatalogCache,
		},
		[]string{LabelLookup, LabelResult},
	)
)

// Plan Metrics
var (
	EditsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEdits,
			Help: HelpTextEdits,
		},
		[]string{LabelOp, LabelStatus},
	)

	EditDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameEditDuration,
			Help:    HelpTextEditDuration,
			Buckets: EditLatencyBuckets,
		},
		[]string{LabelOp},
	)

	CascadeSteps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: MetricNameCascadeSteps,
			Help: HelpTextCascadeSteps,
		},
	)

	ImportRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameImportRejections,
			Help: HelpTextImportRejections,
		},
		[]string{LabelReason},
	)
)
