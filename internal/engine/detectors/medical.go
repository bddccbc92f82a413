package detectors

import (
	"context"
	"strings"

	"github.com/sentineldev/modgate/internal/engine"
)

// medicalTerms is the built-in vocabulary MEDICAL rules match against
//, covering diagnosis/treatment/prescription/record/
// insurance terminology. Not operator-configurable.
var medicalTerms = []string{
	"diagnosis", "prescription", "medication dosage", "medical condition",
	"treatment plan", "symptom diagnosis", "clinical record", "patient record",
	"lab result", "biopsy result", "medical history", "insurance claim number",
	"health insurance policy", "protected health information",
}

// Medical drives MEDICAL rules: case-insensitive match against the
// built-in vocabulary above.
type Medical struct{}

func NewMedical() *Medical { return &Medical{} }

func (d *Medical) Detect(ctx context.Context, in engine.DetectInput) (engine.DetectOutcome, error) {
	lower := strings.ToLower(in.Text)

	var matched []string
	for _, term := range medicalTerms {
		if ctx.Err() != nil {
			break
		}
		if strings.Contains(lower, term) {
			matched = append(matched, term)
		}
	}

	if len(matched) == 0 {
		return engine.DetectOutcome{}, nil
	}

	return engine.DetectOutcome{
		Triggered: true,
		Tokens:    matched,
		Detail:    "medical term detected",
	}, nil
}
