// Package main hosts the saitan CLI entrypoint and command graph.
//
// The root command takes a single URL and the flags selecting which archival
// actions to run, then prints the fixed-order report on stdout. Logs go to
// stderr so the report can be piped. Subcommands expose the run history,
// external tool availability, and sample configuration scaffolding.
//
// Keep this package lean: behaviour lives in the internal packages and the
// commands here only resolve configuration and wire backends together.
package main
