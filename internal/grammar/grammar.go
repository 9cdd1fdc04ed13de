// Package grammar decides whether a sentence is well-formed enough to score.
//
// Two checkers exist: a networked LanguageTool client and a local heuristic.
// Fallback runs the networked one under a short deadline and drops to the
// heuristic whenever it is unavailable.
package grammar

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrUnavailable is returned when a checker could not produce a verdict.
var ErrUnavailable = errors.New("grammar checker unavailable")

// DefaultTimeout bounds a single networked check.
const DefaultTimeout = 2 * time.Second

// Issue is one problem reported for a text.
type Issue struct {
	Category string
	Message  string
}

// Blocking reports whether the issue should reject a sentence.
func (i Issue) Blocking() bool {
	switch strings.ToLower(i.Category) {
	case "grammar", "typos", "misspelling", "spelling":
		return true
	}
	return false
}

// Verdict is the outcome of a check.
type Verdict struct {
	Issues []Issue
	// Source names the checker that produced the verdict.
	Source string
}

// Rejection returns the first blocking issue, if any.
func (v Verdict) Rejection() (Issue, bool) {
	for _, issue := range v.Issues {
		if issue.Blocking() {
			return issue, true
		}
	}
	return Issue{}, false
}

// Checker inspects a text. Implementations return ErrUnavailable (possibly
// wrapped) when they cannot decide.
type Checker interface {
	Check(ctx context.Context, text string) (Verdict, error)
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(ctx context.Context, text string) (Verdict, error)

func (f CheckerFunc) Check(ctx context.Context, text string) (Verdict, error) {
	return f(ctx, text)
}
