package state

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "state"), zerolog.Nop())
}

func testRecord(name string, lifecycle Lifecycle) Record {
	return Record{
		Name:            name,
		Lifecycle:       lifecycle,
		Spec:            name + "@v1",
		CreatedAt:       time.Unix(1700000000, 0),
		InstallPath:     "/plugins/" + name,
		ResolvedVersion: "v1",
		Origin:          OriginTry,
	}
}

func TestLoadMissingFile(t *testing.T) {
	store := testStore(t)

	records, err := store.Load()
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Load() on missing file = %d records, want 0", len(records))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := testStore(t)

	records := Records{}
	records.Add(testRecord("a/b", LifecycleExperimental))
	records.Add(Record{
		Name:            "c/d",
		Lifecycle:       LifecycleDeclared,
		Spec:            "c/d@v2:sub/path",
		CreatedAt:       time.Unix(1700000100, 0),
		InstallPath:     "/plugins/c/d",
		ResolvedVersion: "deadbeef",
		Origin:          OriginArray,
	})

	if err := store.Save(records); err != nil {
		t.Fatalf("Save() = %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("Load() = %d records, want 2", len(loaded))
	}

	got := loaded["c/d"]
	if got.Spec != "c/d@v2:sub/path" {
		t.Errorf("Spec = %q, want c/d@v2:sub/path", got.Spec)
	}
	if got.Lifecycle != LifecycleDeclared {
		t.Errorf("Lifecycle = %q, want declared", got.Lifecycle)
	}
	if got.Origin != OriginArray {
		t.Errorf("Origin = %q, want array", got.Origin)
	}
	if !got.CreatedAt.Equal(time.Unix(1700000100, 0)) {
		t.Errorf("CreatedAt = %v, want epoch 1700000100", got.CreatedAt)
	}
}

func TestSaveIsAtomic(t *testing.T) {
	store := testStore(t)

	records := Records{}
	records.Add(testRecord("a/b", LifecycleExperimental))
	if err := store.Save(records); err != nil {
		t.Fatalf("Save() = %v", err)
	}

	// Saving again must replace, not append, and leave no temp files.
	records.Add(testRecord("c/d", LifecycleDeclared))
	if err := store.Save(records); err != nil {
		t.Fatalf("second Save() = %v", err)
	}

	entries, err := os.ReadDir(filepath.Dir(store.Path()))
	if err != nil {
		t.Fatalf("failed to list state dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("state dir holds %d entries, want only the state file", len(entries))
	}

	data, err := os.ReadFile(store.Path())
	if err != nil {
		t.Fatalf("failed to read state file: %v", err)
	}
	lines := 0
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" && !strings.HasPrefix(line, "#") {
			lines++
		}
	}
	if lines != 2 {
		t.Errorf("state file holds %d records, want 2", lines)
	}
}

func TestLoadQuarantinesCorruptFile(t *testing.T) {
	store := testStore(t)
	if err := os.WriteFile(store.Path(), []byte("not|a|valid|record\n"), 0o600); err != nil {
		t.Fatalf("failed to write corrupt fixture: %v", err)
	}

	records, err := store.Load()
	if err != nil {
		t.Fatalf("Load() on corrupt file = %v, want recovery", err)
	}
	if len(records) != 0 {
		t.Errorf("Load() on corrupt file = %d records, want 0", len(records))
	}

	// Original is gone, quarantine copy exists.
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Error("corrupt state file was not moved aside")
	}
	matches, err := filepath.Glob(store.Path() + ".corrupt.*")
	if err != nil || len(matches) != 1 {
		t.Errorf("quarantine file matches = %v (err %v), want exactly one", matches, err)
	}
}

func TestLoadRejectsDuplicateNames(t *testing.T) {
	store := testStore(t)
	rec := testRecord("a/b", LifecycleExperimental)
	content := rec.encode() + "\n" + rec.encode() + "\n"
	if err := os.WriteFile(store.Path(), []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	records, err := store.Load()
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("duplicate keys should quarantine, got %d records", len(records))
	}
}

func TestRecordsMutations(t *testing.T) {
	records := Records{}
	records.Add(testRecord("a/b", LifecycleExperimental))

	if ok := records.Update("a/b", func(r *Record) { r.Lifecycle = LifecycleDeclared }); !ok {
		t.Fatal("Update() reported missing record")
	}
	if records["a/b"].Lifecycle != LifecycleDeclared {
		t.Error("Update() did not apply")
	}

	if ok := records.Update("missing/x", func(r *Record) {}); ok {
		t.Error("Update() on missing record reported success")
	}
	if ok := records.Remove("missing/x"); ok {
		t.Error("Remove() on missing record reported success")
	}
	if ok := records.Remove("a/b"); !ok {
		t.Error("Remove() on existing record failed")
	}
	if len(records) != 0 {
		t.Errorf("records = %d entries after removal, want 0", len(records))
	}
}

func TestLifecycleFilters(t *testing.T) {
	records := Records{}
	records.Add(testRecord("z/exp", LifecycleExperimental))
	records.Add(testRecord("a/exp", LifecycleExperimental))
	records.Add(testRecord("m/dec", LifecycleDeclared))

	exp := records.Experimental()
	if len(exp) != 2 || exp[0] != "a/exp" || exp[1] != "z/exp" {
		t.Errorf("Experimental() = %v, want sorted [a/exp z/exp]", exp)
	}
	dec := records.Declared()
	if len(dec) != 1 || dec[0] != "m/dec" {
		t.Errorf("Declared() = %v, want [m/dec]", dec)
	}
}

func TestDecodeRecordErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few fields", "a/b|experimental|a/b"},
		{"bad timestamp", "a/b|experimental|a/b|not-a-number|/p|v1|try_command"},
		{"bad lifecycle", "a/b|limbo|a/b|1700000000|/p|v1|try_command"},
		{"bad origin", "a/b|experimental|a/b|1700000000|/p|v1|teleport"},
		{"empty name", "|experimental|a/b|1700000000|/p|v1|try_command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeRecord(tt.line); err == nil {
				t.Errorf("decodeRecord(%q) = nil error, want corruption", tt.line)
			}
		})
	}
}
