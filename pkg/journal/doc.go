// Package journal keeps an append-only history of reconciliation
// commands in a local SQLite database: which command ran, what it
// acted on, and how it ended. The journal is best-effort bookkeeping
// for the history command; it never gates or fails a reconciliation.
package journal
