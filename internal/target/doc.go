// Package target validates archival URLs and derives the filesystem-safe base
// names used for local captures and their sidecar files.
package target
