package shell

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/plugsync/plugsync/pkg/state"
	"github.com/plugsync/plugsync/pkg/telemetry"
)

// Loader makes fetched plugins available to shell sessions. It
// satisfies engine.Loader.
//
// A plugin is "loaded" by resolving its entry script and regenerating
// an init script that sources every tracked plugin. The user's rc file
// sources the init script once; each reconciliation rewrites it
// atomically, so a newly started session always sees the current set.
type Loader struct {
	initScript string
	logger     *telemetry.Logger
}

// NewLoader creates a Loader that maintains the init script at path.
func NewLoader(initScript string, logger *telemetry.Logger) *Loader {
	if logger == nil {
		logger = telemetry.NewNopLogger()
	}
	return &Loader{
		initScript: initScript,
		logger:     logger.NewComponentLogger("loader"),
	}
}

// entryCandidates lists entry script names in resolution order. The
// <repo>.plugin.zsh convention wins; generic init scripts follow.
func entryCandidates(name string) []string {
	base := name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		base = name[i+1:]
	}
	return []string{
		base + ".plugin.zsh",
		base + ".zsh",
		"init.zsh",
	}
}

// ResolveEntry locates the script that loads the plugin rooted at dir.
// Conventional names are tried first; otherwise a single *.plugin.zsh
// or *.zsh file at the root is accepted.
func ResolveEntry(dir, name string) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("install path %s is not readable: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("install path %s is not a directory", dir)
	}

	for _, candidate := range entryCandidates(name) {
		p := filepath.Join(dir, candidate)
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, nil
		}
	}

	for _, pattern := range []string{"*.plugin.zsh", "*.zsh"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return "", err
		}
		sort.Strings(matches)
		if len(matches) > 0 {
			return matches[0], nil
		}
	}

	return "", fmt.Errorf("no entry script found in %s", dir)
}

// Load verifies the record's install path carries a loadable entry
// script and appends it to the init script.
func (l *Loader) Load(ctx context.Context, rec state.Record) error {
	entry, err := ResolveEntry(rec.InstallPath, rec.Name)
	if err != nil {
		return err
	}

	l.logger.WithPlugin(rec.Name).Debugf("Resolved entry script %s", entry)
	return l.appendEntry(rec.Name, entry)
}

// Regenerate rewrites the init script from scratch for the given
// records, in name order. Used after a sync so removed plugins drop
// out of the script.
func (l *Loader) Regenerate(records state.Records) error {
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(scriptHeader)
	for _, name := range names {
		rec := records[name]
		entry, err := ResolveEntry(rec.InstallPath, rec.Name)
		if err != nil {
			l.logger.WithPlugin(name).WithError(err).Warn("Skipping plugin without entry script")
			continue
		}
		writeSourceLine(&b, name, entry)
	}

	return l.write(b.String())
}

const scriptHeader = "# Generated by plugsync. Do not edit; regenerated on every reconciliation.\n"

func writeSourceLine(b *strings.Builder, name, entry string) {
	fmt.Fprintf(b, "# %s\nsource %q\n", name, entry)
}

// appendEntry adds one source line, replacing any existing line for the
// same plugin so a replaced experimental spec does not load twice.
func (l *Loader) appendEntry(name, entry string) error {
	existing, err := os.ReadFile(l.initScript)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read init script: %w", err)
	}

	var b strings.Builder
	if len(existing) == 0 {
		b.WriteString(scriptHeader)
	} else {
		skip := false
		for _, line := range strings.Split(strings.TrimRight(string(existing), "\n"), "\n") {
			if line == "# "+name {
				skip = true
				continue
			}
			if skip {
				skip = false
				continue
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	writeSourceLine(&b, name, entry)

	return l.write(b.String())
}

// write atomically replaces the init script.
func (l *Loader) write(content string) error {
	dir := filepath.Dir(l.initScript)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create init script directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(l.initScript)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp init script: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write init script: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close init script: %w", err)
	}
	if err := os.Rename(tmpName, l.initScript); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace init script: %w", err)
	}

	return nil
}
