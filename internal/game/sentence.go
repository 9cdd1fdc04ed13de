package game

import (
	"fmt"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Tokenize splits text into runs of letters and digits.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(text, -1)
}

func sentenceKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func containsWord(tokens []string, word string) bool {
	target := strings.ToLower(word)
	for _, tok := range tokens {
		if strings.ToLower(tok) == target {
			return true
		}
	}
	return false
}

// checkSentence applies the structural rules in order. waiting is set once
// the current window's sentence was accepted. used holds the keys of already
// accepted sentences. It returns the rejection message, or "" when the text
// passes.
func checkSentence(text, target string, required int, waiting bool, used map[string]struct{}) string {
	if target == "" {
		return "No solved word yet."
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "Write a sentence first."
	}
	if waiting {
		return "Wait for the next solved word."
	}
	if required <= 0 {
		return "Refresh to get your sentence length."
	}
	tokens := Tokenize(trimmed)
	if len(tokens) != required {
		return fmt.Sprintf("Need %d words", required)
	}
	if !containsWord(tokens, target) {
		return fmt.Sprintf("Include '%s'", target)
	}
	if _, ok := used[sentenceKey(trimmed)]; ok {
		return "Sentence already used."
	}
	return ""
}
