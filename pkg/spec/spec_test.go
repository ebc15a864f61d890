package spec

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateAccepts(t *testing.T) {
	valid := []string{
		"owner/repo",
		"owner/repo@v1.0.0",
		"owner/repo:plugins/git",
		"owner/repo@main:lib/init",
		"zsh-users/zsh-autosuggestions",
		"a/b",
		"a.b/c_d-e",
	}

	for _, raw := range valid {
		if err := Validate(raw); err != nil {
			t.Errorf("Validate(%q) = %v, want nil", raw, err)
		}
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"too long", "a/" + strings.Repeat("b", MaxLength)},
		{"semicolon injection", "a/b; rm -rf /"},
		{"backtick", "a/b`id`"},
		{"dollar subshell", "a/b$(id)"},
		{"pipe", "a/b|cat"},
		{"redirect", "a/b>out"},
		{"glob star", "a/*"},
		{"traversal", "../../etc/passwd"},
		{"leading slash", "/etc/passwd"},
		{"leading tilde", "~/secrets"},
		{"control character", "a/b\x00c"},
		{"newline", "a/b\nc/d"},
		{"missing separator", "norepo"},
		{"extra separator", "a/b/c"},
		{"space in segment", "a/b c"},
		{"empty owner", "/repo"},
		{"empty repo", "owner/"},
		{"empty version", "a/b@"},
		{"empty subpath", "a/b:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.raw)
			if err == nil {
				t.Fatalf("Validate(%q) = nil, want rejection", tt.raw)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate(%q) returned %T, want *ValidationError", tt.raw, err)
			}
			if verr.Reason == "" {
				t.Errorf("rejection of %q carries no reason", tt.raw)
			}
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		raw  string
		want Spec
	}{
		{"owner/repo", Spec{Source: "owner/repo"}},
		{"owner/repo@v2.1", Spec{Source: "owner/repo", Version: "v2.1"}},
		{"owner/repo:sub/dir", Spec{Source: "owner/repo", Subpath: "sub/dir"}},
		{"owner/repo@abc123:plugin", Spec{Source: "owner/repo", Version: "abc123", Subpath: "plugin"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if err := Validate(tt.raw); err != nil {
				t.Fatalf("Validate(%q) = %v", tt.raw, err)
			}
			got := Parse(tt.raw)
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.raw, got, tt.want)
			}
			if got.String() != tt.raw {
				t.Errorf("Parse(%q).String() = %q, want round-trip", tt.raw, got.String())
			}
		})
	}
}

func TestParseCheckedRejectsBeforeParsing(t *testing.T) {
	if _, err := ParseChecked("a/b; rm -rf /"); err == nil {
		t.Fatal("ParseChecked accepted an unsafe specification")
	}

	s, err := ParseChecked("owner/repo@v1")
	if err != nil {
		t.Fatalf("ParseChecked(valid) = %v", err)
	}
	if s.Name() != "owner/repo" {
		t.Errorf("Name() = %q, want owner/repo", s.Name())
	}
}
