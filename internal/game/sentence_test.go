package game

import (
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("Don't cache 42 clouds, ok?")
	want := []string{"Don", "t", "cache", "42", "clouds", "ok"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Tokenize %v, want %v", got, want)
	}
	if len(Tokenize("  ...  ")) != 0 {
		t.Error("punctuation only should give no tokens")
	}
}

func TestCheckSentence_Order(t *testing.T) {
	used := map[string]struct{}{"the apple is red.": {}}
	cases := []struct {
		name     string
		text     string
		target   string
		required int
		waiting  bool
		want     string
	}{
		{"no target", "The apple is red.", "", 4, false, "No solved word yet."},
		{"empty", "   ", "apple", 4, false, "Write a sentence first."},
		{"already accepted", "The apple is red.", "apple", 0, true, "Wait for the next solved word."},
		{"length not rolled", "The apple is red.", "apple", 0, false, "Refresh to get your sentence length."},
		{"wrong count", "The apple is very red.", "apple", 4, false, "Need 4 words"},
		{"missing target", "The pear is red.", "apple", 4, false, "Include 'apple'"},
		{"replay", "  THE APPLE IS RED.  ", "apple", 4, false, "Sentence already used."},
		{"ok", "An apple a day.", "Apple", 4, false, ""},
	}
	for _, tc := range cases {
		if got := checkSentence(tc.text, tc.target, tc.required, tc.waiting, used); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}
