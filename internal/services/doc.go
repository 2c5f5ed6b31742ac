// Package services defines shared utilities consumed by the archival backends
// and the orchestrator.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and action names for logging.
//   - Structured error markers plus the Wrap helper that let every backend
//     report failures with a consistent ErrorKind (network, process, timeout,
//     validation, io, unavailable).
//
// The concrete backends live in subpackages (wayback, archiveis, wget,
// opentimestamps, s3upload). Each exposes a narrow client that accepts a URL
// or file path and returns a location string or an error wrapped with one of
// the markers here.
package services
