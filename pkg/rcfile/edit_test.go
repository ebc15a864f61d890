package rcfile

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestInsertMultiLine(t *testing.T) {
	text := "plugins=(\n  \"a/b\"\n)\nalias g=git\n"

	got, err := Insert(text, "c/d@v1")
	if err != nil {
		t.Fatalf("Insert() = %v", err)
	}

	entries := Extract(got)
	want := []string{"a/b", "c/d@v1"}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("entries after insert = %v, want %v", entries, want)
	}
	if !strings.Contains(got, "  \"c/d@v1\"\n)") {
		t.Errorf("new entry not placed before closing marker:\n%s", got)
	}
	if !strings.Contains(got, "alias g=git") {
		t.Errorf("unrelated content lost:\n%s", got)
	}
}

func TestInsertMatchesExistingIndent(t *testing.T) {
	text := "plugins=(\n\t\"a/b\"\n)\n"

	got, err := Insert(text, "c/d")
	if err != nil {
		t.Fatalf("Insert() = %v", err)
	}
	if !strings.Contains(got, "\t\"c/d\"") {
		t.Errorf("inserted entry does not copy tab indentation:\n%s", got)
	}
}

func TestInsertSingleLine(t *testing.T) {
	text := `plugins=("a/b" c/d)` + "\n"

	got, err := Insert(text, "e/f")
	if err != nil {
		t.Fatalf("Insert() = %v", err)
	}

	entries := Extract(got)
	want := []string{"a/b", "c/d", "e/f"}
	if !reflect.DeepEqual(entries, want) {
		t.Errorf("entries after insert = %v, want %v", entries, want)
	}
}

func TestInsertCreatesArrayWhenAbsent(t *testing.T) {
	text := "export EDITOR=vim\n"

	got, err := Insert(text, "a/b")
	if err != nil {
		t.Fatalf("Insert() = %v", err)
	}

	entries := Extract(got)
	if !reflect.DeepEqual(entries, []string{"a/b"}) {
		t.Errorf("entries after insert = %v, want [a/b]", entries)
	}
	if !strings.HasPrefix(got, "export EDITOR=vim\n") {
		t.Errorf("existing content not preserved:\n%s", got)
	}
}

func TestInsertEmptyFile(t *testing.T) {
	got, err := Insert("", "a/b")
	if err != nil {
		t.Fatalf("Insert() = %v", err)
	}
	if !reflect.DeepEqual(Extract(got), []string{"a/b"}) {
		t.Errorf("Extract(Insert(empty)) = %v, want [a/b]", Extract(got))
	}
}

func TestInsertUnterminatedArray(t *testing.T) {
	if _, err := Insert("plugins=(\n  \"a/b\"\n", "c/d"); err == nil {
		t.Fatal("Insert accepted an unterminated array")
	}
}

func TestBackupIsByteIdenticalAndPreservesMode(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zshrc")
	content := []byte("plugins=(\n  \"a/b\"\n)\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	backup, err := Backup(path)
	if err != nil {
		t.Fatalf("Backup() = %v", err)
	}

	data, err := os.ReadFile(backup)
	if err != nil {
		t.Fatalf("failed to read backup: %v", err)
	}
	if !bytes.Equal(data, content) {
		t.Error("backup is not byte-identical to the original")
	}

	info, err := os.Stat(backup)
	if err != nil {
		t.Fatalf("failed to stat backup: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("backup mode = %v, want 0600", info.Mode().Perm())
	}
	if filepath.Dir(backup) != dir {
		t.Errorf("backup %s is not a sibling of the original", backup)
	}
}

func TestReplaceAtomicRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zshrc")
	if err := os.WriteFile(path, []byte("old\n"), 0o640); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	if err := Replace(path, "new content\n"); err != nil {
		t.Fatalf("Replace() = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read replaced file: %v", err)
	}
	if string(data) != "new content\n" {
		t.Errorf("content = %q, want %q", data, "new content\n")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("failed to stat replaced file: %v", err)
	}
	if info.Mode().Perm() != 0o640 {
		t.Errorf("mode = %v, want 0640 preserved", info.Mode().Perm())
	}

	// No temp droppings left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("failed to list dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("directory holds %d entries after Replace, want 1", len(entries))
	}
}
