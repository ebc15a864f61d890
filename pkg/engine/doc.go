// Package engine orchestrates plugin reconciliation.
//
// The engine implements the user-facing operations (try, sync, adopt,
// status, and diff) on top of the rc file extractor, the state store,
// and the drift calculator. Fetching and loading are abstracted behind
// the Fetcher and Loader interfaces so the core stays testable without
// network or shell access.
//
// Error handling follows a batch-tolerant model: invalid rc file
// entries and per-plugin fetch failures are reported and skipped, while
// state-file and rc-file I/O errors always abort the operation.
package engine
