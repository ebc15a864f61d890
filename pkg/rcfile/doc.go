// Package rcfile reads and edits the desired-state array inside a
// shell rc file without ever executing it.
//
// The rc file is arbitrary shell code the user owns. plugsync only
// cares about one construct inside it, the plugins array:
//
//	plugins=(
//	  "owner/repo"          # double-quoted
//	  'owner/other@v1.2'    # single-quoted
//	  owner/bare:sub/path   # bare
//	)
//
// Extract pulls the entries out with a line-oriented, quote-aware
// token scan; Insert adds an entry for adoption using the same scan,
// so the reader and the writer always agree on the array's boundaries.
// Running the file through a shell to read the array would execute
// whatever else it contains, which is exactly what this package
// exists to avoid.
package rcfile
