package game

import (
	"math/rand"
	"strings"
)

// Scramble returns a lowercase permutation of word that differs from the
// lowercased word. Words of three letters or fewer come back unchanged, as do
// words made of a single repeated letter, which have no distinct permutation.
func Scramble(word string, rng *rand.Rand) string {
	lower := strings.ToLower(word)
	letters := []rune(lower)
	if len(letters) <= 3 || !hasDistinctLetters(letters) {
		return lower
	}
	for {
		rng.Shuffle(len(letters), func(i, j int) {
			letters[i], letters[j] = letters[j], letters[i]
		})
		if out := string(letters); out != lower {
			return out
		}
	}
}

func hasDistinctLetters(letters []rune) bool {
	for _, r := range letters[1:] {
		if r != letters[0] {
			return true
		}
	}
	return false
}
