package metrics

// Metric names
const (
	MetricNameNodesResolved    = "planner_nodes_resolved_total"
	MetricNameNodeCache        = "planner_node_cache_total"
	MetricNameCatalogCache     = "planner_catalog_cache_total"
	MetricNameEdits            = "planner_edits_total"
	MetricNameEditDuration     = "planner_edit_duration_seconds"
	MetricNameCascadeSteps     = "planner_cascade_steps_total"
	MetricNameImportRejections = "planner_import_rejections_total"
)

// Help text
const (
	HelpTextNodesResolved    = "Production nodes computed by the resolver, by node kind"
	HelpTextNodeCache        = "Node cache lookups during incremental resolution, by result"
	HelpTextCatalogCache     = "Catalog cache lookups, by lookup kind and result"
	HelpTextEdits            = "Plan edits, by operation and outcome"
	HelpTextEditDuration     = "Time to apply a plan edit including its cascade"
	HelpTextCascadeSteps     = "Deferred import cascade steps processed"
	HelpTextImportRejections = "Rejected import transitions, by reason"
)

// Labels
const (
	LabelKind   = "kind"
	LabelResult = "result"
	LabelLookup = "lookup"
	LabelOp     = "op"
	LabelStatus = "status"
	LabelReason = "reason"
)

// Label values
const (
	ResultHit  = "hit"
	ResultMiss = "miss"

	StatusOK    = "ok"
	StatusError = "error"

	KindRecipe     = "recipe"
	KindRaw        = "raw"
	KindByproduct  = "byproduct"
	KindImport     = "import"
	KindUnresolved = "unresolved"
)

// EditLatencyBuckets covers sub-millisecond edits up to large cascades.
var EditLatencyBuckets = []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5}
