package state

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Lifecycle is the persisted lifecycle state of a tracked plugin.
type Lifecycle string

const (
	// LifecycleDeclared marks a plugin present in the rc file's plugins
	// array; the rc file is its source of truth.
	LifecycleDeclared Lifecycle = "declared"

	// LifecycleExperimental marks a plugin loaded via try for the
	// current session only. Experimental records never survive a sync.
	LifecycleExperimental Lifecycle = "experimental"
)

// Validate checks if the lifecycle value is known.
func (l Lifecycle) Validate() error {
	switch l {
	case LifecycleDeclared, LifecycleExperimental:
		return nil
	default:
		return fmt.Errorf("invalid lifecycle state: %s", l)
	}
}

// Origin records which path created a record.
type Origin string

const (
	// OriginArray marks records created from the rc file's plugins array.
	OriginArray Origin = "array"

	// OriginTry marks records created by the try command.
	OriginTry Origin = "try_command"

	// OriginLegacy marks records imported from an earlier tracking scheme.
	OriginLegacy Origin = "legacy"
)

// Validate checks if the origin value is known.
func (o Origin) Validate() error {
	switch o {
	case OriginArray, OriginTry, OriginLegacy:
		return nil
	default:
		return fmt.Errorf("invalid origin: %s", o)
	}
}

// Record is the persisted state of one tracked plugin, keyed by Name.
// At most one record exists per name.
type Record struct {
	// Name is the plugin's source identifier (e.g. "owner/repo").
	Name string `json:"name"`

	// Lifecycle is declared or experimental.
	Lifecycle Lifecycle `json:"lifecycle"`

	// Spec is the full specification string the record was created from.
	Spec string `json:"spec"`

	// CreatedAt is when the record was first written.
	CreatedAt time.Time `json:"created_at"`

	// InstallPath is where the fetched plugin lives on disk.
	InstallPath string `json:"install_path"`

	// ResolvedVersion is the concrete version the fetcher checked out.
	ResolvedVersion string `json:"resolved_version"`

	// Origin is the creation path of this record.
	Origin Origin `json:"origin"`
}

// fieldSep delimits record fields on disk. Specification strings can
// never contain it (the validator rejects '|'), and the remaining
// fields are engine-generated.
const fieldSep = "|"

// recordFields is the per-line field count: the name plus six state fields.
const recordFields = 7

// encode renders the record as one state-file line.
func (r Record) encode() string {
	return strings.Join([]string{
		r.Name,
		string(r.Lifecycle),
		r.Spec,
		strconv.FormatInt(r.CreatedAt.Unix(), 10),
		r.InstallPath,
		r.ResolvedVersion,
		string(r.Origin),
	}, fieldSep)
}

// decodeRecord parses one state-file line. Any structural problem is
// reported as an error; the store treats that as file corruption.
func decodeRecord(line string) (Record, error) {
	parts := strings.Split(line, fieldSep)
	if len(parts) != recordFields {
		return Record{}, fmt.Errorf("expected %d fields, got %d", recordFields, len(parts))
	}

	createdAt, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("invalid created_at %q: %w", parts[3], err)
	}

	rec := Record{
		Name:            parts[0],
		Lifecycle:       Lifecycle(parts[1]),
		Spec:            parts[2],
		CreatedAt:       time.Unix(createdAt, 0),
		InstallPath:     parts[4],
		ResolvedVersion: parts[5],
		Origin:          Origin(parts[6]),
	}

	if rec.Name == "" {
		return Record{}, fmt.Errorf("record has empty name")
	}
	if err := rec.Lifecycle.Validate(); err != nil {
		return Record{}, err
	}
	if err := rec.Origin.Validate(); err != nil {
		return Record{}, err
	}

	return rec, nil
}

// Records is the in-memory map of tracked plugins, keyed by name.
// Mutations are pure in-memory operations; callers persist them with
// Store.Save.
type Records map[string]Record

// Add inserts or overwrites the record under its name.
func (m Records) Add(rec Record) {
	m[rec.Name] = rec
}

// Remove deletes the record for name, reporting whether it existed.
func (m Records) Remove(name string) bool {
	if _, ok := m[name]; !ok {
		return false
	}
	delete(m, name)
	return true
}

// Update applies fn to the record for name, reporting whether it existed.
func (m Records) Update(name string, fn func(*Record)) bool {
	rec, ok := m[name]
	if !ok {
		return false
	}
	fn(&rec)
	rec.Name = name
	m[name] = rec
	return true
}

// Experimental returns the names of all experimental records, sorted.
func (m Records) Experimental() []string {
	return m.withLifecycle(LifecycleExperimental)
}

// Declared returns the names of all declared records, sorted.
func (m Records) Declared() []string {
	return m.withLifecycle(LifecycleDeclared)
}

func (m Records) withLifecycle(l Lifecycle) []string {
	names := make([]string, 0, len(m))
	for name, rec := range m {
		if rec.Lifecycle == l {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
