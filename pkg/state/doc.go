// Package state persists the record of every plugin plugsync knows
// about.
//
// Records live in one delimited text file, one line per plugin:
//
//	name|lifecycle|spec|created_at|install_path|resolved_version|origin
//
// The file is rewritten wholesale on every mutation via
// write-temp-then-atomic-rename. Mutations themselves (Add, Remove,
// Update) are pure operations on the in-memory Records map; nothing
// touches disk until Save. Corrupt files are quarantined rather than
// fatal, and concurrent writers resolve last-writer-wins.
package state
