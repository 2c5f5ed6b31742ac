// Package archive sequences the archival actions for one URL.
//
// An Orchestrator validates the target, runs the selected backends one after
// another in a fixed order, feeds the local capture into the post-capture
// actions (timestamp, checksum, upload), and collects one Result per action.
// Backend failures never abort a run: each is logged as it happens and
// recorded as a failed Result so the report always renders. Post-capture
// actions requested after a failed capture are recorded as skipped instead of
// being run against a missing file.
package archive
