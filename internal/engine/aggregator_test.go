package engine

import "testing"

func scorePtr(v float64) *float64 { return &v }

func TestAggregate_NoTriggers(t *testing.T) {
	result := Aggregate(nil)
	if result.IsFlagged || result.IsBlocked {
		t.Fatalf("expected allow, got %+v", result)
	}
	if result.Verdict != VerdictAllow {
		t.Errorf("Verdict = %v, want VerdictAllow", result.Verdict)
	}
}

func TestAggregate_KeywordFlagsButDoesNotBlock(t *testing.T) {
	outcomes := []RuleOutcome{
		{Kind: KindKeyword, Triggered: true, ShouldBlock: false},
	}
	result := Aggregate(outcomes)
	if !result.IsFlagged {
		t.Error("expected flagged")
	}
	if result.IsBlocked {
		t.Error("expected not blocked")
	}
}

func TestAggregate_PIIWinsOverToxicityFallback(t *testing.T) {
	outcomes := []RuleOutcome{
		{Kind: KindToxicity, Triggered: true, ShouldBlock: true, Score: scorePtr(0.9)},
		{Kind: KindPII, Triggered: true, ShouldBlock: true},
	}
	result := Aggregate(outcomes)
	if !result.IsBlocked {
		t.Fatal("expected blocked")
	}
	if !result.FallbackFound || result.FallbackKind != KindPII {
		t.Errorf("FallbackKind = %v, want KindPII", result.FallbackKind)
	}
}

func TestAggregate_PriorityOrderIndependentOfInputOrder(t *testing.T) {
	orderings := [][]RuleOutcome{
		{
			{Kind: KindMedical, Triggered: true, ShouldBlock: true},
			{Kind: KindFinancial, Triggered: true, ShouldBlock: true},
		},
		{
			{Kind: KindFinancial, Triggered: true, ShouldBlock: true},
			{Kind: KindMedical, Triggered: true, ShouldBlock: true},
		},
	}
	for i, outcomes := range orderings {
		result := Aggregate(outcomes)
		if result.FallbackKind != KindFinancial {
			t.Errorf("ordering %d: FallbackKind = %v, want KindFinancial", i, result.FallbackKind)
		}
	}
}

func TestAggregate_HateKeywordBlocks(t *testing.T) {
	outcomes := []RuleOutcome{
		{Kind: KindKeyword, RuleName: "Hate Speech Keywords", Triggered: true, ShouldBlock: true},
	}
	result := Aggregate(outcomes)
	if !result.IsBlocked {
		t.Error("expected blocked")
	}
	if result.FallbackKind != KindKeyword {
		t.Errorf("FallbackKind = %v, want KindKeyword", result.FallbackKind)
	}
}
