package engine

import (
	"github.com/plugsync/plugsync/pkg/drift"
	"github.com/plugsync/plugsync/pkg/spec"
	"github.com/plugsync/plugsync/pkg/state"
)

// Decision is the terminal action a command asks its caller to take.
// The engine itself never restarts the process; it returns the
// decision and the enclosing process layer carries it out, which keeps
// the core testable without spawning processes.
type Decision string

const (
	// DecisionNone means the command is complete as-is.
	DecisionNone Decision = "none"

	// DecisionRestart means reconciliation was applied and the session
	// must restart so the new process re-derives its state purely from
	// the rc file. Performing the restart must be the caller's last
	// action.
	DecisionRestart Decision = "restart"
)

// SyncOutcome reports what a sync did (or, under dry-run, would do).
type SyncOutcome struct {
	// Decision is the terminal action for the caller.
	Decision Decision `json:"decision"`

	// Drift is the computed difference that drove the sync.
	Drift drift.Result `json:"drift"`

	// Installed lists specifications fetched and recorded during apply.
	Installed []string `json:"installed,omitempty"`

	// Removed lists names whose experimental records were dropped.
	Removed []string `json:"removed,omitempty"`

	// Failed lists declared entries whose fetch failed; they were
	// skipped and the rest of the sync continued.
	Failed []EntryError `json:"failed,omitempty"`

	// Invalid lists rc file entries rejected by the validator.
	Invalid []EntryError `json:"invalid,omitempty"`

	// DryRun marks a preview-only outcome.
	DryRun bool `json:"dry_run"`
}

// InSync reports whether there was nothing to reconcile.
func (o *SyncOutcome) InSync() bool {
	return o.Drift.InSync
}

// EntryError is an entry-level failure that did not abort the batch.
type EntryError struct {
	// Entry is the offending specification string.
	Entry string `json:"entry"`

	// Reason says why it was skipped.
	Reason string `json:"reason"`
}

// TryStatus describes how a try ended.
type TryStatus string

const (
	// TryStatusLoaded means the plugin was fetched and loaded as a new
	// experimental record.
	TryStatusLoaded TryStatus = "loaded"

	// TryStatusReplaced means an existing experimental record for the
	// same plugin was replaced with a different specification.
	TryStatusReplaced TryStatus = "replaced"

	// TryStatusAlreadyDeclared means the exact specification is already
	// declared; nothing was done.
	TryStatusAlreadyDeclared TryStatus = "already_declared"

	// TryStatusAlreadyLoaded means the exact specification is already
	// tracked; nothing was done.
	TryStatusAlreadyLoaded TryStatus = "already_loaded"
)

// NoOp reports whether the try changed nothing.
func (s TryStatus) NoOp() bool {
	return s == TryStatusAlreadyDeclared || s == TryStatusAlreadyLoaded
}

// TryResult reports the outcome of a try.
type TryResult struct {
	Spec   spec.Spec    `json:"spec"`
	Status TryStatus    `json:"status"`
	Record state.Record `json:"record,omitempty"`
}

// AdoptResult reports the outcome of adopting one plugin.
type AdoptResult struct {
	// Name is the adopted plugin.
	Name string `json:"name"`

	// Spec is the specification written into the rc file.
	Spec string `json:"spec"`

	// BackupPath is the rc file backup created before editing, empty
	// under dry-run or when no rc file existed yet.
	BackupPath string `json:"backup_path,omitempty"`

	// AlreadyDeclared means the rc file already carried the entry, so
	// only the record's lifecycle changed.
	AlreadyDeclared bool `json:"already_declared,omitempty"`

	// DryRun marks a preview-only outcome.
	DryRun bool `json:"dry_run"`
}

// StatusReport is a read-only projection of declared and tracked state.
type StatusReport struct {
	// DeclaredEntries are the valid specification strings extracted
	// from the rc file, in load order.
	DeclaredEntries []string `json:"declared_entries"`

	// Invalid lists rc file entries rejected by the validator.
	Invalid []EntryError `json:"invalid,omitempty"`

	// Records are all tracked records, sorted by name.
	Records []state.Record `json:"records"`

	// DeclaredCount and ExperimentalCount break Records down by lifecycle.
	DeclaredCount     int `json:"declared_count"`
	ExperimentalCount int `json:"experimental_count"`
}

// DiffReport is a read-only drift projection.
type DiffReport struct {
	// Drift is the computed difference between declared and current state.
	Drift drift.Result `json:"drift"`

	// Invalid lists rc file entries rejected by the validator.
	Invalid []EntryError `json:"invalid,omitempty"`
}
