package mention

import (
	"testing"

	"github.com/workorder-org/workorder-go/core"
)

func TestDetectToken(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		active bool
		prefix string
	}{
		{"partial token at end", "hello @jo", true, "jo"},
		{"bare at sign", "hello @", true, ""},
		{"token only", "@alice", true, "alice"},
		{"terminated token", "hello @jo there", false, ""},
		{"trailing space terminates", "hello @jo ", false, ""},
		{"no token", "hello world", false, ""},
		{"empty input", "", false, ""},
		{"second token active", "@alice ping @b", true, "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := DetectToken(tt.text)
			if tok.Active != tt.active {
				t.Fatalf("DetectToken(%q).Active = %v, want %v", tt.text, tok.Active, tt.active)
			}
			if tok.Prefix != tt.prefix {
				t.Errorf("DetectToken(%q).Prefix = %q, want %q", tt.text, tok.Prefix, tt.prefix)
			}
		})
	}
}

func TestRankCandidates(t *testing.T) {
	directory := []core.User{
		{ID: "1", Username: "john"},
		{ID: "2", Username: "bob"},
		{ID: "3", Username: "Joanna"},
		{ID: "4", Username: "jo"},
	}

	got := RankCandidates("jo", directory)

	want := []string{"john", "Joanna", "jo"}
	if len(got) != len(want) {
		t.Fatalf("expected %d candidates, got %d", len(want), len(got))
	}
	for i, u := range got {
		if u.Username != want[i] {
			t.Errorf("candidate %d: got %q, want %q (directory order must hold)", i, u.Username, want[i])
		}
	}
}

func TestRankCandidates_EmptyPrefixMatchesAll(t *testing.T) {
	directory := []core.User{
		{ID: "1", Username: "john"},
		{ID: "2", Username: "bob"},
	}

	got := RankCandidates("", directory)
	if len(got) != 2 {
		t.Errorf("empty prefix should match the full directory, got %d", len(got))
	}
}

func TestApplySelection(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		username string
		want     string
	}{
		{"splices trailing token", "hello @jo", "john", "hello @john "},
		{"bare at sign", "ping @", "alice", "ping @alice "},
		{"leaves prefix text untouched", "see @bob and @al", "alice", "see @bob and @alice "},
		{"no active token is a no-op", "hello world", "john", "hello world"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ApplySelection(tt.text, tt.username); got != tt.want {
				t.Errorf("ApplySelection(%q, %q) = %q, want %q", tt.text, tt.username, got, tt.want)
			}
		})
	}
}
