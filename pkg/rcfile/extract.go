package rcfile

import (
	"regexp"
	"strings"
)

// openPattern matches the opening marker of the desired-state array.
// Entries follow on the same line (single-line form) or on subsequent
// lines until the matching ')'.
var openPattern = regexp.MustCompile(`^\s*plugins=\(`)

// arrayScan is the result of locating the plugins array inside rc file
// text. Extract and Insert both build on it, so the two can never
// disagree about where the array begins and ends.
type arrayScan struct {
	// Entries are the tokens found inside the array, in declaration order.
	Entries []string

	// OpenLine is the index of the line carrying the opening marker.
	OpenLine int

	// CloseLine is the index of the line carrying the closing ')', or -1
	// if the array is never closed.
	CloseLine int

	// CloseCol is the column of the closing ')' within CloseLine.
	CloseCol int

	// Found reports whether an opening marker was seen at all.
	Found bool
}

// scanArray walks the rc file line by line looking for the plugins
// array. The rc file is shell code the engine must never execute, so
// this is text processing only: a line-oriented, quote-aware token
// scan.
func scanArray(lines []string) arrayScan {
	res := arrayScan{OpenLine: -1, CloseLine: -1, CloseCol: -1}

	for i := 0; i < len(lines); i++ {
		if !res.Found {
			marker := openPattern.FindString(lines[i])
			if marker == "" {
				continue
			}
			res.Found = true
			res.OpenLine = i

			tokens, closeCol := scanSegment(lines[i][len(marker):])
			res.Entries = append(res.Entries, tokens...)
			if closeCol >= 0 {
				res.CloseLine = i
				res.CloseCol = len(marker) + closeCol
				return res
			}
			continue
		}

		tokens, closeCol := scanSegment(lines[i])
		res.Entries = append(res.Entries, tokens...)
		if closeCol >= 0 {
			res.CloseLine = i
			res.CloseCol = closeCol
			return res
		}
	}

	return res
}

// scanSegment tokenizes one line (or line fragment) of array content.
// It honors single and double quoting, treats '#' at a word boundary
// as a comment to end of line, and stops at an unquoted ')'. The
// returned column is the position of that ')' or -1 if the segment
// ended first.
func scanSegment(s string) ([]string, int) {
	var tokens []string
	var cur strings.Builder
	inSingle, inDouble := false, false

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inSingle:
			if c == '\'' {
				inSingle = false
			} else {
				cur.WriteByte(c)
			}
		case inDouble:
			if c == '"' {
				inDouble = false
			} else {
				cur.WriteByte(c)
			}
		case c == '\'':
			inSingle = true
		case c == '"':
			inDouble = true
		case c == ')':
			flush()
			return tokens, i
		case c == '#' && cur.Len() == 0:
			return tokens, -1
		case c == ' ' || c == '\t':
			flush()
		default:
			cur.WriteByte(c)
		}
	}

	flush()
	return tokens, -1
}

// Extract scans rc file text for the plugins array and returns its
// entries in declaration order, which is also load order. Entries may
// be bare, single-quoted, or double-quoted; blank lines and comments
// inside the array are skipped.
//
// A file with no plugins array yields an empty slice, not an error:
// an absent array simply declares nothing.
func Extract(text string) []string {
	scan := scanArray(strings.Split(text, "\n"))
	if scan.Entries == nil {
		return []string{}
	}
	return scan.Entries
}
