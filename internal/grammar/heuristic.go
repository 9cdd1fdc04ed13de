package grammar

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Heuristic accepts a sentence that starts with an uppercase letter and ends
// with terminal punctuation. It never fails.
type Heuristic struct{}

func (Heuristic) Check(_ context.Context, text string) (Verdict, error) {
	text = strings.TrimSpace(text)
	v := Verdict{Source: "heuristic"}
	first, _ := utf8.DecodeRuneInString(text)
	if text == "" || !unicode.IsUpper(first) {
		v.Issues = append(v.Issues, Issue{
			Category: "grammar",
			Message:  "Start the sentence with a capital letter.",
		})
		return v, nil
	}
	switch text[len(text)-1] {
	case '.', '!', '?':
	default:
		v.Issues = append(v.Issues, Issue{
			Category: "grammar",
			Message:  "End the sentence with '.', '!' or '?'.",
		})
	}
	return v, nil
}
