// Package detectors implements the per-kind Detector set (engine.Detector)
// that the moderation engine fans candidate responses out to.
package detectors

import (
	"context"
	"regexp"

	"github.com/sentineldev/modgate/internal/engine"
)

// piiPatterns are built-in, not operator-configured — the PII kind does
// not consult Rule.Patterns. Confidence-style ranking from the source pattern
// set is dropped; every match simply increments its type's count.
// The fixed recognizer family is pinned by the moderation contract: email, North
// American phone, US SSN, credit card, IPv4. Word boundaries alone are
// not used around the digit-group patterns since \b is not reliable
// around leading punctuation; the patterns instead anchor on the
// digit/separator grammar itself so inline PII (e.g. "call 555-123-4567
// now") is never missed by a boundary mismatch.
var piiPatterns = []struct {
	re      *regexp.Regexp
	pciType string
}{
	{regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`), "email"},
	{regexp.MustCompile(`(\+1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}\b`), "phone_na"},
	{regexp.MustCompile(`\d{3}[-\s]\d{2}[-\s]\d{4}`), "ssn"},
	{regexp.MustCompile(`\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}`), "credit_card"},
	{regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`), "ipv4"},
}

// PII detects personally identifiable information by built-in regex.
// Threshold and Patterns on the DetectInput are ignored — a PII rule
// triggers on any match, full stop.
type PII struct{}

func NewPII() *PII { return &PII{} }

func (d *PII) Detect(ctx context.Context, in engine.DetectInput) (engine.DetectOutcome, error) {
	byType := make(map[string]int)

	for _, p := range piiPatterns {
		if ctx.Err() != nil {
			break
		}
		if n := len(p.re.FindAllStringIndex(in.Text, -1)); n > 0 {
			byType[p.pciType] += n
		}
	}

	if len(byType) == 0 {
		return engine.DetectOutcome{}, nil
	}

	return engine.DetectOutcome{
		Triggered: true,
		ByType:    byType,
		Detail:    "personally identifiable information detected",
	}, nil
}
