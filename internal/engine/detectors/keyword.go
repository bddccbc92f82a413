package detectors

import (
	"context"
	"strings"

	"github.com/sentineldev/modgate/internal/engine"
)

// Keyword drives KEYWORD rules: case-insensitive substring search over
// the rule's own patterns. It never consults a built-in
// list — every pattern comes from DetectInput.Patterns.
type Keyword struct{}

func NewKeyword() *Keyword { return &Keyword{} }

func (d *Keyword) Detect(ctx context.Context, in engine.DetectInput) (engine.DetectOutcome, error) {
	lower := strings.ToLower(in.Text)

	var matched []string
	for _, pattern := range in.Patterns {
		if ctx.Err() != nil {
			break
		}
		if strings.Contains(lower, strings.ToLower(pattern)) {
			matched = append(matched, pattern)
		}
	}

	if len(matched) == 0 {
		return engine.DetectOutcome{}, nil
	}

	return engine.DetectOutcome{
		Triggered: true,
		Tokens:    matched,
		Detail:    "keyword match",
	}, nil
}
