package rcfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// defaultEntryIndent is used when the array has no existing entries to
// copy indentation from.
const defaultEntryIndent = "  "

// backupTimeFormat names backup files down to the second; adoption is
// interactive, so collisions are not a practical concern.
const backupTimeFormat = "20060102-150405"

// Insert returns rc file text with the given specification added to
// the plugins array. It reuses the same array scan as Extract: the new
// entry lands immediately before the closing ')', double-quoted, on
// its own line in the multi-line form or appended in place in the
// single-line form. When the file has no plugins array, a fresh one is
// appended at the end.
//
// Insert fails if the array's opening marker exists but the array is
// never closed, rather than guessing where the user meant it to end.
func Insert(text, specStr string) (string, error) {
	lines := strings.Split(text, "\n")
	scan := scanArray(lines)

	if !scan.Found {
		block := "plugins=(\n" + defaultEntryIndent + quote(specStr) + "\n)\n"
		if strings.TrimSpace(text) == "" {
			return block, nil
		}
		if !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		return text + "\n" + block, nil
	}

	if scan.CloseLine < 0 {
		return "", fmt.Errorf("plugins array opened on line %d is never closed", scan.OpenLine+1)
	}

	if scan.OpenLine == scan.CloseLine {
		line := lines[scan.CloseLine]
		head := strings.TrimRight(line[:scan.CloseCol], " \t")
		sep := " "
		if strings.HasSuffix(head, "(") {
			sep = ""
		}
		lines[scan.CloseLine] = head + sep + quote(specStr) + line[scan.CloseCol:]
		return strings.Join(lines, "\n"), nil
	}

	entry := entryIndent(lines, scan) + quote(specStr)
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:scan.CloseLine]...)
	out = append(out, entry)
	out = append(out, lines[scan.CloseLine:]...)
	return strings.Join(out, "\n"), nil
}

func quote(s string) string {
	return `"` + s + `"`
}

// entryIndent copies the indentation of the first existing entry line
// so inserted entries match the user's formatting.
func entryIndent(lines []string, scan arrayScan) string {
	for i := scan.OpenLine + 1; i < scan.CloseLine; i++ {
		trimmed := strings.TrimLeft(lines[i], " \t")
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return lines[i][:len(lines[i])-len(trimmed)]
	}
	return defaultEntryIndent
}

// Backup writes a byte-identical, timestamped sibling copy of the file
// and returns its path. Permission bits are carried over to the copy.
func Backup(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s for backup: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s for backup: %w", path, err)
	}

	backup := fmt.Sprintf("%s.%s.bak", path, time.Now().Format(backupTimeFormat))
	if err := os.WriteFile(backup, data, info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("failed to write backup %s: %w", backup, err)
	}
	// WriteFile's mode is subject to umask; force the original bits.
	if err := os.Chmod(backup, info.Mode().Perm()); err != nil {
		return "", fmt.Errorf("failed to set backup permissions: %w", err)
	}

	return backup, nil
}

// Replace atomically rewrites the file with new content via
// write-temp-then-rename, preserving the original permission bits. A
// concurrent reader observes either the old or the new content in
// full, never a partial write.
func Replace(path, content string) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	if _, err := tmp.WriteString(content); err != nil {
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		cleanup()
		return fmt.Errorf("failed to set temp file permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}

	return nil
}
