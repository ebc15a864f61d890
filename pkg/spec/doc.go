// Package spec implements the plugin specification grammar shared by
// every other plugsync component.
//
// A specification is a single string of the form
//
//	owner/repo[@version][:subpath]
//
// where owner/repo names a remote repository, the optional @version
// pins a tag, branch, or commit, and the optional :subpath selects a
// directory inside the repository.
//
// Validate is the security gate: specification strings travel into
// file paths and subprocess arguments, so anything resembling shell
// metacharacters, path traversal, or control sequences is rejected
// before any other component sees it. Parse only ever runs on
// validated input and is therefore total.
package spec
