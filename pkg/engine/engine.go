package engine

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/plugsync/plugsync/pkg/drift"
	"github.com/plugsync/plugsync/pkg/journal"
	"github.com/plugsync/plugsync/pkg/rcfile"
	"github.com/plugsync/plugsync/pkg/spec"
	"github.com/plugsync/plugsync/pkg/state"
	"github.com/plugsync/plugsync/pkg/telemetry"
)

// Engine orchestrates reconciliation between the rc file's declared
// plugin set and the tracked state. All collaborators are explicit
// references handed in at construction; the engine holds no ambient
// or static state.
type Engine struct {
	rcPath       string
	store        *state.Store
	fetcher      Fetcher
	loader       Loader
	auditor      Auditor
	logger       *telemetry.Logger
	fetchTimeout time.Duration
}

// Options configures an Engine.
type Options struct {
	// RCPath is the shell rc file carrying the plugins array.
	RCPath string

	// Store persists plugin records.
	Store *state.Store

	// Fetcher retrieves plugin artifacts. Required by Try and Sync.
	Fetcher Fetcher

	// Loader makes fetched plugins available to the session.
	Loader Loader

	// Auditor records command history. Optional; nil disables auditing.
	Auditor Auditor

	// Logger receives structured engine logs. Optional.
	Logger *telemetry.Logger

	// FetchTimeout bounds each fetcher call.
	FetchTimeout time.Duration
}

// New creates an Engine from options.
func New(opts Options) (*Engine, error) {
	if opts.RCPath == "" {
		return nil, fmt.Errorf("rc file path is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("state store is required")
	}
	if opts.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if opts.Loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if opts.Logger == nil {
		opts.Logger = telemetry.NewNopLogger()
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 60 * time.Second
	}

	return &Engine{
		rcPath:       opts.RCPath,
		store:        opts.Store,
		fetcher:      opts.Fetcher,
		loader:       opts.Loader,
		auditor:      opts.Auditor,
		logger:       opts.Logger.NewComponentLogger("engine"),
		fetchTimeout: opts.FetchTimeout,
	}, nil
}

// readRC returns the rc file text. A missing file reads as empty: it
// simply declares nothing.
func (e *Engine) readRC() (string, error) {
	data, err := os.ReadFile(e.rcPath)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", NewIOError("failed to read rc file", err).WithCode(ErrCodeRCFileIO).WithSubject(e.rcPath)
	}
	return string(data), nil
}

// declared extracts and validates the rc file's plugin entries. A
// single invalid entry never aborts the batch: it is logged, reported,
// and skipped while the rest continue.
func (e *Engine) declared() ([]spec.Spec, []EntryError, error) {
	text, err := e.readRC()
	if err != nil {
		return nil, nil, err
	}

	var specs []spec.Spec
	var invalid []EntryError
	for _, raw := range rcfile.Extract(text) {
		s, err := spec.ParseChecked(raw)
		if err != nil {
			e.logger.WithError(err).WithSpec(raw).Warn("Skipping invalid plugin entry in rc file")
			invalid = append(invalid, EntryError{Entry: raw, Reason: err.Error()})
			continue
		}
		specs = append(specs, s)
	}

	return specs, invalid, nil
}

// audit appends to the journal if one is configured. Journal failures
// are logged and swallowed; bookkeeping never fails a command.
func (e *Engine) audit(ctx context.Context, action journal.Action, subject string, outcome journal.Outcome, cmdErr error) {
	if e.auditor == nil {
		return
	}
	if err := e.auditor.Append(ctx, action, subject, outcome, cmdErr); err != nil {
		e.logger.WithError(err).Warn("Failed to append journal entry")
	}
}

// Try loads a plugin for the current session only. The record it
// creates is experimental: the next sync removes it, and it never
// survives a session restart.
func (e *Engine) Try(ctx context.Context, raw string) (*TryResult, error) {
	s, err := spec.ParseChecked(raw)
	if err != nil {
		verr := NewValidationError("specification rejected", err).WithCode(ErrCodeInvalidSpec).WithSubject(raw)
		e.audit(ctx, journal.ActionTry, raw, journal.OutcomeFailure, verr)
		return nil, verr
	}

	log := e.logger.WithSpec(s.String())

	declared, _, err := e.declared()
	if err != nil {
		return nil, err
	}
	for _, d := range declared {
		if d.Name() != s.Name() {
			continue
		}
		if d.String() == s.String() {
			log.Info("Plugin already declared in rc file; nothing to do")
			e.audit(ctx, journal.ActionTry, raw, journal.OutcomeNoop, nil)
			return &TryResult{Spec: s, Status: TryStatusAlreadyDeclared}, nil
		}
		cerr := NewConflictError(
			fmt.Sprintf("plugin is declared as %q; edit the rc file to change its specification", d.String()),
			nil).WithCode(ErrCodeAlreadyDeclared).WithSubject(s.Name())
		e.audit(ctx, journal.ActionTry, raw, journal.OutcomeFailure, cerr)
		return nil, cerr
	}

	records, err := e.store.Load()
	if err != nil {
		return nil, NewIOError("failed to load state", err).WithCode(ErrCodeStateIO)
	}

	status := TryStatusLoaded
	if existing, ok := records[s.Name()]; ok {
		if existing.Spec == s.String() {
			log.Info("Plugin already loaded; nothing to do")
			e.audit(ctx, journal.ActionTry, raw, journal.OutcomeNoop, nil)
			return &TryResult{Spec: s, Status: TryStatusAlreadyLoaded, Record: existing}, nil
		}
		if existing.Lifecycle == state.LifecycleDeclared {
			cerr := NewConflictError(
				fmt.Sprintf("plugin is tracked as declared %q; edit the rc file to change its specification", existing.Spec),
				nil).WithCode(ErrCodeAlreadyDeclared).WithSubject(s.Name())
			e.audit(ctx, journal.ActionTry, raw, journal.OutcomeFailure, cerr)
			return nil, cerr
		}
		status = TryStatusReplaced
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	fetched, err := e.fetcher.Fetch(fetchCtx, s)
	if err != nil {
		ferr := NewCollaboratorError("failed to fetch plugin", err).WithCode(ErrCodeFetchFailed).WithSubject(s.String())
		e.audit(ctx, journal.ActionTry, raw, journal.OutcomeFailure, ferr)
		return nil, ferr
	}

	rec := state.Record{
		Name:            s.Name(),
		Lifecycle:       state.LifecycleExperimental,
		Spec:            s.String(),
		CreatedAt:       time.Now(),
		InstallPath:     fetched.InstallPath,
		ResolvedVersion: fetched.ResolvedVersion,
		Origin:          state.OriginTry,
	}

	if err := e.loader.Load(ctx, rec); err != nil {
		lerr := NewCollaboratorError("failed to load plugin", err).WithCode(ErrCodeLoadFailed).WithSubject(s.String())
		e.audit(ctx, journal.ActionTry, raw, journal.OutcomeFailure, lerr)
		return nil, lerr
	}

	records.Add(rec)
	if err := e.store.Save(records); err != nil {
		return nil, NewIOError("failed to save state", err).WithCode(ErrCodeStateIO)
	}

	log.Infof("Loaded %s for this session", s.String())
	e.audit(ctx, journal.ActionTry, raw, journal.OutcomeSuccess, nil)
	return &TryResult{Spec: s, Status: status, Record: rec}, nil
}

// Adopt promotes an experimental plugin to a declared one by editing
// the rc file: timestamped backup first, then a structural insert into
// the plugins array, then an atomic replace that preserves permission
// bits.
func (e *Engine) Adopt(ctx context.Context, name string, dryRun bool) (*AdoptResult, error) {
	records, err := e.store.Load()
	if err != nil {
		return nil, NewIOError("failed to load state", err).WithCode(ErrCodeStateIO)
	}

	rec, ok := records[name]
	if !ok || rec.Lifecycle != state.LifecycleExperimental {
		cerr := NewConflictError("no experimental plugin with that name; try it first", nil).
			WithCode(ErrCodeNotExperimental).WithSubject(name)
		e.audit(ctx, journal.ActionAdopt, name, journal.OutcomeFailure, cerr)
		return nil, cerr
	}

	res := &AdoptResult{Name: name, Spec: rec.Spec, DryRun: dryRun}

	text, err := e.readRC()
	if err != nil {
		return nil, err
	}

	// If the entry is already in the array the edit is redundant; only
	// the record's lifecycle needs to change.
	for _, raw := range rcfile.Extract(text) {
		if raw == rec.Spec {
			res.AlreadyDeclared = true
			break
		}
	}

	if dryRun {
		return res, nil
	}

	if !res.AlreadyDeclared {
		newText, err := rcfile.Insert(text, rec.Spec)
		if err != nil {
			ierr := NewIOError("cannot edit rc file", err).WithCode(ErrCodeRCFileIO).WithSubject(e.rcPath)
			e.audit(ctx, journal.ActionAdopt, name, journal.OutcomeFailure, ierr)
			return nil, ierr
		}

		if _, statErr := os.Stat(e.rcPath); statErr == nil {
			backup, err := rcfile.Backup(e.rcPath)
			if err != nil {
				berr := NewIOError("failed to back up rc file", err).WithCode(ErrCodeRCFileIO).WithSubject(e.rcPath)
				e.audit(ctx, journal.ActionAdopt, name, journal.OutcomeFailure, berr)
				return nil, berr
			}
			res.BackupPath = backup
		}

		if err := rcfile.Replace(e.rcPath, newText); err != nil {
			rerr := NewIOError("failed to rewrite rc file", err).WithCode(ErrCodeRCFileIO).WithSubject(e.rcPath)
			e.audit(ctx, journal.ActionAdopt, name, journal.OutcomeFailure, rerr)
			return nil, rerr
		}
	}

	records.Update(name, func(r *state.Record) {
		r.Lifecycle = state.LifecycleDeclared
	})
	if err := e.store.Save(records); err != nil {
		return nil, NewIOError("failed to save state", err).WithCode(ErrCodeStateIO)
	}

	e.logger.WithPlugin(name).Infof("Adopted %s into the rc file", rec.Spec)
	e.audit(ctx, journal.ActionAdopt, name, journal.OutcomeSuccess, nil)
	return res, nil
}

// AdoptAll adopts every experimental plugin. The experimental set is
// snapshotted up front because each adoption shrinks it.
func (e *Engine) AdoptAll(ctx context.Context, dryRun bool) ([]AdoptResult, error) {
	records, err := e.store.Load()
	if err != nil {
		return nil, NewIOError("failed to load state", err).WithCode(ErrCodeStateIO)
	}

	snapshot := records.Experimental()
	results := make([]AdoptResult, 0, len(snapshot))
	for _, name := range snapshot {
		res, err := e.Adopt(ctx, name, dryRun)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}

	return results, nil
}

// Sync reconciles tracked state with the rc file's declared plugin
// set. When drift exists and this is not a dry-run, the record map is
// re-derived from the declared entries (experimental and stale records
// dropped, missing ones fetched and recorded) and the outcome carries
// DecisionRestart for the caller to act on last.
func (e *Engine) Sync(ctx context.Context, dryRun bool) (*SyncOutcome, error) {
	declared, invalid, err := e.declared()
	if err != nil {
		return nil, err
	}

	records, err := e.store.Load()
	if err != nil {
		return nil, NewIOError("failed to load state", err).WithCode(ErrCodeStateIO)
	}

	d := drift.Calculate(declared, records)
	out := &SyncOutcome{
		Decision: DecisionNone,
		Drift:    d,
		Invalid:  invalid,
		DryRun:   dryRun,
	}

	if d.InSync {
		e.logger.Info("Already in sync")
		e.audit(ctx, journal.ActionSync, "", journal.OutcomeNoop, nil)
		return out, nil
	}

	out.Removed = d.RemoveNames()
	for _, s := range d.ToInstall {
		out.Installed = append(out.Installed, s.String())
	}

	if dryRun {
		return out, nil
	}

	// Re-derive the record map purely from the declared entries, the
	// same derivation the restarted session will perform.
	next := state.Records{}
	out.Installed = out.Installed[:0]
	for _, s := range declared {
		if existing, ok := records[s.Name()]; ok && existing.Spec == s.String() {
			existing.Lifecycle = state.LifecycleDeclared
			next.Add(existing)
			continue
		}

		fetchCtx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
		fetched, err := e.fetcher.Fetch(fetchCtx, s)
		cancel()
		if err != nil {
			e.logger.WithError(err).WithSpec(s.String()).Error("Failed to fetch declared plugin; skipping")
			out.Failed = append(out.Failed, EntryError{Entry: s.String(), Reason: err.Error()})
			continue
		}

		next.Add(state.Record{
			Name:            s.Name(),
			Lifecycle:       state.LifecycleDeclared,
			Spec:            s.String(),
			CreatedAt:       time.Now(),
			InstallPath:     fetched.InstallPath,
			ResolvedVersion: fetched.ResolvedVersion,
			Origin:          state.OriginArray,
		})
		out.Installed = append(out.Installed, s.String())
	}

	if err := e.store.Save(next); err != nil {
		serr := NewIOError("failed to save state", err).WithCode(ErrCodeStateIO)
		e.audit(ctx, journal.ActionSync, "", journal.OutcomeFailure, serr)
		return nil, serr
	}

	e.logger.Infof("Reconciled: %d installed, %d removed", len(out.Installed), len(out.Removed))
	e.audit(ctx, journal.ActionSync, "", journal.OutcomeSuccess, nil)
	out.Decision = DecisionRestart
	return out, nil
}

// Status is a read-only projection of declared entries and tracked
// records. It never mutates state or the rc file.
func (e *Engine) Status(ctx context.Context) (*StatusReport, error) {
	declared, invalid, err := e.declared()
	if err != nil {
		return nil, err
	}

	records, err := e.store.Load()
	if err != nil {
		return nil, NewIOError("failed to load state", err).WithCode(ErrCodeStateIO)
	}

	report := &StatusReport{Invalid: invalid}
	for _, s := range declared {
		report.DeclaredEntries = append(report.DeclaredEntries, s.String())
	}

	for _, rec := range records {
		report.Records = append(report.Records, rec)
		switch rec.Lifecycle {
		case state.LifecycleDeclared:
			report.DeclaredCount++
		case state.LifecycleExperimental:
			report.ExperimentalCount++
		}
	}
	sort.Slice(report.Records, func(i, j int) bool {
		return report.Records[i].Name < report.Records[j].Name
	})

	return report, nil
}

// Diff is a read-only drift projection. It never mutates state or the
// rc file.
func (e *Engine) Diff(ctx context.Context) (*DiffReport, error) {
	declared, invalid, err := e.declared()
	if err != nil {
		return nil, err
	}

	records, err := e.store.Load()
	if err != nil {
		return nil, NewIOError("failed to load state", err).WithCode(ErrCodeStateIO)
	}

	return &DiffReport{
		Drift:   drift.Calculate(declared, records),
		Invalid: invalid,
	}, nil
}
