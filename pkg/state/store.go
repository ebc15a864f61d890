package state

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// header is written at the top of every state file revision. Lines
// starting with '#' are ignored on load.
const header = "# plugsync state file. Managed by plugsync; do not edit by hand."

// Store persists the plugin record map as a single delimited text
// file. Every mutation rewrites the file wholesale through
// write-temp-then-atomic-rename, so each on-disk revision is
// independently well-formed and a concurrently starting reader sees
// either the previous or the next revision in full.
//
// There is no locking and no merge: two processes that both load,
// mutate, and save will leave the second writer's revision on disk
// (last-writer-wins). That is a documented property of the format,
// not something the store tries to mask.
type Store struct {
	path   string
	logger zerolog.Logger
}

// NewStore creates a store backed by the file at path.
func NewStore(path string, logger zerolog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger.With().Str("component", "state").Logger(),
	}
}

// Path returns the state file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted record map. A missing file is an empty
// map. A structurally corrupt file is quarantined next to the
// original and an empty map is returned with a visible warning, so a
// damaged state file never wedges the engine.
func (s *Store) Load() (Records, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return Records{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file %s: %w", s.path, err)
	}

	records := Records{}
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rec, err := decodeRecord(line)
		if err != nil {
			return s.quarantine(i+1, err)
		}
		if _, dup := records[rec.Name]; dup {
			return s.quarantine(i+1, fmt.Errorf("duplicate record for %s", rec.Name))
		}
		records.Add(rec)
	}

	return records, nil
}

// quarantine moves the corrupt state file aside and recovers with an
// empty map. The bad file is kept for inspection, never deleted.
func (s *Store) quarantine(line int, cause error) (Records, error) {
	quarantined := fmt.Sprintf("%s.corrupt.%d", s.path, time.Now().Unix())
	if err := os.Rename(s.path, quarantined); err != nil {
		return nil, fmt.Errorf("state file %s is corrupt (line %d: %v) and could not be quarantined: %w",
			s.path, line, cause, err)
	}

	s.logger.Warn().
		Str("state_file", s.path).
		Str("quarantined_as", quarantined).
		Int("line", line).
		Err(cause).
		Msg("State file is corrupt; quarantined and starting from empty state")

	return Records{}, nil
}

// Save serializes the full record map and atomically replaces the
// state file. Records are written in name order so revisions are
// stable and diffable.
func (s *Store) Save(records Records) error {
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(header)
	b.WriteByte('\n')
	for _, name := range names {
		b.WriteString(records[name].encode())
		b.WriteByte('\n')
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.WriteString(b.String()); err != nil {
		cleanup()
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		cleanup()
		return fmt.Errorf("failed to set state file permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp state file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace state file %s: %w", s.path, err)
	}

	return nil
}
