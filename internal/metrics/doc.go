// Package metrics provides observability hooks for codemap runs.
//
// Components receive a Recorder through injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	orch := build.NewOrchestrator().WithRecorder(metrics.NewPrometheusRecorder(reg))
//
// When monitoring.metrics.enabled is set, the engine writes the registry to a
// Prometheus textfile after each run for node_exporter style collection.
package metrics
