package detectors

import (
	"context"
	"strings"

	"github.com/sentineldev/modgate/internal/engine"
)

// financialTerms is the built-in vocabulary FINANCIAL rules match
// against. It is not operator-configurable — Patterns on
// the DetectInput is ignored for this kind.
var financialTerms = []string{
	// banking identifiers
	"routing number", "account number", "wire transfer instructions", "swift code", "iban transfer",
	// card brands / payment instruments
	"visa card", "mastercard", "american express", "amex",
	"card verification value", "cvv number", "card pin",
	// investment / scam idioms
	"guaranteed return", "risk-free investment", "insider trading", "pump and dump",
	"get rich quick", "investment guarantee", "double your money", "no risk profit",
	// crypto wallet / seed phrasing
	"send bitcoin", "seed phrase", "wallet private key", "recovery phrase", "crypto giveaway scam",
	"double your crypto", "free cryptocurrency",
}

// Financial drives FINANCIAL rules: case-insensitive match against the
// built-in vocabulary above.
type Financial struct{}

func NewFinancial() *Financial { return &Financial{} }

func (d *Financial) Detect(ctx context.Context, in engine.DetectInput) (engine.DetectOutcome, error) {
	lower := strings.ToLower(in.Text)

	var matched []string
	for _, term := range financialTerms {
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
		Detail:    "restricted financial term detected",
	}, nil
}
