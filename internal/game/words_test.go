package game

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadWords_Embedded(t *testing.T) {
	words, err := LoadWords("")
	if err != nil {
		t.Fatalf("LoadWords: %v", err)
	}
	if len(words) != 10 {
		t.Errorf("len(words) %d, want 10", len(words))
	}
	for _, w := range words {
		if w == "" || w[0] == '#' {
			t.Errorf("unexpected entry %q", w)
		}
	}
}

func TestLoadWords_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.txt")
	if err := os.WriteFile(path, []byte("# comment\n\n  Apple \nbread\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	words, err := LoadWords(path)
	if err != nil {
		t.Fatalf("LoadWords: %v", err)
	}
	if len(words) != 2 || words[0] != "Apple" || words[1] != "bread" {
		t.Errorf("words %v, want [Apple bread]", words)
	}
}

func TestLoadWords_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(path, []byte("# nothing\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadWords(path); err == nil {
		t.Error("LoadWords should fail on a list without words")
	}
}

func TestBuildSequence(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	seq := BuildSequence([]string{"apple", "bread"}, 3, rng)
	if len(seq) != 6 {
		t.Fatalf("len(seq) %d, want 6", len(seq))
	}
	counts := map[string]int{}
	for _, w := range seq {
		counts[w]++
	}
	if counts["apple"] != 3 || counts["bread"] != 3 {
		t.Errorf("counts %v, want 3 of each", counts)
	}
	if got := BuildSequence([]string{"apple"}, 0, rng); len(got) != 1 {
		t.Errorf("repeat 0 gave %d words, want 1", len(got))
	}
}
