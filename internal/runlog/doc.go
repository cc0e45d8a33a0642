// Package runlog keeps a durable history of update runs and their per-module
// generation results in SQLite.
package runlog
