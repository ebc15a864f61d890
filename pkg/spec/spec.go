package spec

import (
	"fmt"
	"regexp"
	"strings"
)

// MaxLength is the maximum accepted length of a raw specification string.
const MaxLength = 256

// Spec is the parsed form of a plugin specification string.
// Identity is the string form: two specs are equal iff String() matches.
type Spec struct {
	// Source is the two-segment plugin identifier (e.g. "owner/repo").
	Source string `json:"source"`

	// Version is an optional tag, branch, or commit reference.
	Version string `json:"version,omitempty"`

	// Subpath is an optional path relative to the fetched repository root.
	Subpath string `json:"subpath,omitempty"`
}

// String reconstructs the canonical specification string.
func (s Spec) String() string {
	var b strings.Builder
	b.WriteString(s.Source)
	if s.Version != "" {
		b.WriteByte('@')
		b.WriteString(s.Version)
	}
	if s.Subpath != "" {
		b.WriteByte(':')
		b.WriteString(s.Subpath)
	}
	return b.String()
}

// Name returns the map key under which this plugin is tracked.
func (s Spec) Name() string {
	return s.Source
}

// ValidationError reports why a raw specification string was rejected.
// The offending input is carried truncated so it is safe to print.
type ValidationError struct {
	Input  string `json:"input"`
	Reason string `json:"reason"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid plugin spec %q: %s", e.Input, e.Reason)
}

func reject(raw, reason string) *ValidationError {
	display := raw
	if len(display) > 64 {
		display = display[:64] + "..."
	}
	return &ValidationError{Input: display, Reason: reason}
}

// unsafeChars are shell metacharacters that must never appear in a spec.
// A spec string ends up in file paths and subprocess arguments, so the
// validator is the single gate keeping these out of every downstream
// component.
const unsafeChars = ";`$&|><*?[]{}()\\"

// grammar is the full specification grammar:
// source/name(@version)?(:subpath)? with segments restricted to
// alphanumerics, '-', '_' and '.'. The subpath may contain '/'.
var grammar = regexp.MustCompile(
	`^[A-Za-z0-9._-]+/[A-Za-z0-9._-]+` +
		`(@[A-Za-z0-9._-]+)?` +
		`(:[A-Za-z0-9._-]+(/[A-Za-z0-9._-]+)*)?$`)

// Validate checks a raw specification string against the grammar and
// security policy. It returns nil when the string is acceptable and a
// *ValidationError describing the first failed rule otherwise.
//
// Validate is pure and side-effect free. Every other package assumes
// its input already passed this gate.
func Validate(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return reject(raw, "empty specification")
	}
	if len(raw) > MaxLength {
		return reject(raw, fmt.Sprintf("exceeds maximum length of %d", MaxLength))
	}
	if i := strings.IndexAny(raw, unsafeChars); i >= 0 {
		return reject(raw, fmt.Sprintf("contains forbidden character %q", raw[i]))
	}
	if strings.Contains(raw, "..") {
		return reject(raw, "contains path traversal sequence")
	}
	if strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "~") {
		return reject(raw, "absolute and home-relative paths are not allowed")
	}
	for _, r := range raw {
		if r < 0x20 || r == 0x7f {
			return reject(raw, "contains control characters")
		}
	}
	if !grammar.MatchString(raw) {
		return reject(raw, "must match owner/repo[@version][:subpath]")
	}
	return nil
}

// Parse decomposes a validated specification string into its fields.
// Parse and Validate share one grammar, so Parse is total on validated
// input: it never fails after Validate has accepted the string.
//
// Decomposition order matters: the trailing ":subpath" is stripped at
// the last colon first, then the trailing "@version", then the
// remainder splits on the first '/'.
func Parse(validated string) Spec {
	rest := validated

	var subpath string
	if i := strings.LastIndex(rest, ":"); i >= 0 {
		subpath = rest[i+1:]
		rest = rest[:i]
	}

	var version string
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		version = rest[i+1:]
		rest = rest[:i]
	}

	return Spec{Source: rest, Version: version, Subpath: subpath}
}

// ParseChecked validates and parses in one step, for callers holding
// raw user input.
func ParseChecked(raw string) (Spec, error) {
	if err := Validate(raw); err != nil {
		return Spec{}, err
	}
	return Parse(raw), nil
}
