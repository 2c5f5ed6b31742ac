// Package history keeps a local SQLite ledger of archival runs.
//
// Each run stores its ID, URL and timing plus one row per action outcome,
// including the error kind and message that the printed report leaves out.
// The ledger is written after a run completes and is read back by
// `saitan history`; it never influences how a run behaves. Schema changes
// bump ledgerVersion; older ledgers must be moved aside to adopt them.
package history
