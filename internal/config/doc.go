// Package config loads, normalizes, and validates saitan configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads .env files, and honours environment
// fallbacks such as SAITAN_OUTPUT_DIR, SAITAN_S3_BUCKET and the standard AWS
// credential variables. The Config type centralizes every knob the CLI and the
// archival backends need.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
