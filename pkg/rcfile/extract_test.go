package rcfile

import (
	"reflect"
	"testing"
)

func TestExtractMultiLine(t *testing.T) {
	text := `# my shell setup
export EDITOR=vim

plugins=(
  "zsh-users/zsh-autosuggestions"
  'owner/repo@v1.0'          # pinned
  owner/bare:plugins/git

  # disabled for now
  # owner/commented
)

alias ll='ls -la'
`
	got := Extract(text)
	want := []string{
		"zsh-users/zsh-autosuggestions",
		"owner/repo@v1.0",
		"owner/bare:plugins/git",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
}

func TestExtractSingleLine(t *testing.T) {
	text := `plugins=("a/b" c/d@v2 'e/f')` + "\n" + `echo after`
	got := Extract(text)
	want := []string{"a/b", "c/d@v2", "e/f"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
}

func TestExtractNoArray(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty file", ""},
		{"unrelated content", "export PATH=$PATH:/usr/local/bin\nalias g=git\n"},
		{"similar but not the marker", "my_plugins=(a/b)\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			if len(got) != 0 {
				t.Errorf("Extract() = %v, want empty list", got)
			}
		})
	}
}

func TestExtractPreservesOrder(t *testing.T) {
	text := "plugins=(\n z/last\n a/first\n m/middle\n)\n"
	got := Extract(text)
	want := []string{"z/last", "a/first", "m/middle"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %v, want declaration order %v", got, want)
	}
}

func TestExtractStopsAtClose(t *testing.T) {
	text := "plugins=(\n a/b\n)\nother=(\n not/me\n)\n"
	got := Extract(text)
	want := []string{"a/b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
}

func TestExtractNeverExecutes(t *testing.T) {
	// Content around and inside the array is shell code; the extractor
	// must treat it as inert text.
	text := `rm -rf "$HOME"  # would be catastrophic if evaluated
plugins=(
  "a/b"
)
$(touch /tmp/pwned)
`
	got := Extract(text)
	want := []string{"a/b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %v, want %v", got, want)
	}
}
