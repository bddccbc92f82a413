package engine

import "testing"

func TestIsBlockingKind(t *testing.T) {
	tests := []struct {
		kind     RuleKind
		ruleName string
		want     bool
	}{
		{KindPII, "Global PII Detection", true},
		{KindToxicity, "Global Toxicity Detection", true},
		{KindFinancial, "Restricted Financial Advice", true},
		{KindMedical, "US HIPAA Medical Terms", true},
		{KindRegex, "Custom Regex Rule", true},
		{KindKeyword, "Cryptocurrency Scam Detection", false},
		{KindKeyword, "Hate Speech Keywords", true},
		{KindKeyword, "HATE_SPEECH filter", true},
	}

	for _, tt := range tests {
		if got := IsBlockingKind(tt.kind, tt.ruleName); got != tt.want {
			t.Errorf("IsBlockingKind(%v, %q) = %v, want %v", tt.kind, tt.ruleName, got, tt.want)
		}
	}
}

func TestFallbackMessage_NeverEmpty(t *testing.T) {
	kinds := []RuleKind{KindPII, KindToxicity, KindKeyword, KindRegex, KindFinancial, KindMedical, KindUnspecified}
	for _, k := range kinds {
		if FallbackMessage(k) == "" {
			t.Errorf("FallbackMessage(%v) returned empty string", k)
		}
	}
}
