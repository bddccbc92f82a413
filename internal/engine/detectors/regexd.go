package detectors

import (
	"context"
	"fmt"

	"github.com/sentineldev/modgate/internal/engine"
)

// Regex drives REGEX rules. Patterns are compiled once, at Rule Store
// load time, into CompiledPatterns — the request path only ever calls
// MatchString. Go's regexp package is RE2-based and runs in time linear
// in input length, avoiding catastrophic backtracking without needing
// a separate runtime time budget per pattern.
type Regex struct{}

func NewRegex() *Regex { return &Regex{} }

// Detect returns an error, rather than silently skipping, the moment it
// finds an invalid compiled pattern — an invalid pattern means the rule
// as a whole failed to compile cleanly at Rule Store load time, so the
// engine reports it and moves on instead of evaluating a rule with a
// hole in its pattern set.
func (d *Regex) Detect(ctx context.Context, in engine.DetectInput) (engine.DetectOutcome, error) {
	var matched []string
	for _, cp := range in.CompiledPatterns {
		if ctx.Err() != nil {
			break
		}
		if cp.Invalid || cp.Regexp == nil {
			return engine.DetectOutcome{}, &engine.CausedError{
				Cause: engine.CauseRegexCompile,
				Err:   fmt.Errorf("invalid pattern %q", cp.Source),
			}
		}
		if cp.Regexp.MatchString(in.Text) {
			matched = append(matched, cp.Source)
		}
	}

	if len(matched) == 0 {
		return engine.DetectOutcome{}, nil
	}

	return engine.DetectOutcome{
		Triggered: true,
		Tokens:    matched,
		Detail:    "regex match",
	}, nil
}
