// Package build runs module generation for a BuildPlan on a bounded worker
// pool. Each module is retried per its retry.Policy and fails in isolation;
// the caller receives one GenerationResult per planned module.
package build
