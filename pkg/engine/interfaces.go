package engine

import (
	"context"

	"github.com/plugsync/plugsync/pkg/journal"
	"github.com/plugsync/plugsync/pkg/spec"
	"github.com/plugsync/plugsync/pkg/state"
)

// FetchResult describes where a fetched plugin landed.
type FetchResult struct {
	// InstallPath is the on-disk location of the fetched plugin.
	InstallPath string

	// ResolvedVersion is the concrete version that was checked out
	// (e.g. a commit hash), which may be more specific than the
	// version reference in the specification.
	ResolvedVersion string
}

// Fetcher retrieves a plugin's artifact by its specification. The
// engine bounds every call with a timeout context; implementations
// must honor cancellation and never hang.
type Fetcher interface {
	Fetch(ctx context.Context, s spec.Spec) (*FetchResult, error)
}

// Loader makes a fetched plugin available to the running session.
type Loader interface {
	Load(ctx context.Context, rec state.Record) error
}

// Auditor records command invocations for the history journal. The
// engine treats auditing as best-effort: append failures are logged,
// never propagated.
type Auditor interface {
	Append(ctx context.Context, action journal.Action, subject string, outcome journal.Outcome, cmdErr error) error
}
