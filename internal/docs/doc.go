// Package docs publishes module documents and the overview.
//
// Documents are rendered in memory, written into a staging directory next to
// modules/ and renamed into place only after every document of the run was
// staged. Each document carries an mdfp fingerprint in its frontmatter so
// hand edits can be detected by `codemap status`.
package docs
