package grammar

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Fallback runs Primary under Timeout and answers with Secondary whenever
// Primary errors. A nil Primary goes straight to Secondary.
type Fallback struct {
	Primary   Checker
	Secondary Checker
	Timeout   time.Duration
}

// NewFallback builds the usual LanguageTool-then-heuristic chain. An empty
// endpoint disables the networked checker.
func NewFallback(endpoint, language string, timeout time.Duration) *Fallback {
	f := &Fallback{Secondary: Heuristic{}, Timeout: timeout}
	if endpoint != "" {
		lt := NewLanguageTool(endpoint, language)
		if timeout > 0 {
			lt.Client.Timeout = timeout
		}
		f.Primary = lt
	}
	return f
}

func (f *Fallback) Check(ctx context.Context, text string) (Verdict, error) {
	if f.Primary != nil {
		timeout := f.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		cctx, cancel := context.WithTimeout(ctx, timeout)
		v, err := f.Primary.Check(cctx, text)
		cancel()
		if err == nil {
			return v, nil
		}
		log.Debug().Err(err).Msg("grammar check unavailable, using heuristic")
	}
	secondary := f.Secondary
	if secondary == nil {
		secondary = Heuristic{}
	}
	return secondary.Check(ctx, text)
}
