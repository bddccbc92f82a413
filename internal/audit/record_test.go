package audit

import (
	"testing"
	"time"

	"github.com/sentineldev/modgate/internal/engine"
)

func TestTruncatePayload(t *testing.T) {
	short := "hello"
	if got := truncatePayload(short, 500); got != short {
		t.Errorf("truncatePayload(short) = %q, want unchanged", got)
	}

	long := make([]rune, 10)
	for i := range long {
		long[i] = 'a'
	}
	got := truncatePayload(string(long), 3)
	if got != "aaa" {
		t.Errorf("truncatePayload = %q, want aaa", got)
	}
}

func TestToRow_FlattensTriggeredRulesAndScores(t *testing.T) {
	score := 0.9
	rec := engine.AuditRecord{
		RequestID: "req-1",
		Region:    engine.RegionEU,
		IsBlocked: true,
		IsFlagged: true,
		Verdict:   engine.VerdictBlock,
		LatencyNS: 2_500_000,
		Triggered: []engine.RuleOutcome{
			{RuleID: "r1", RuleName: "Global PII Detection", Kind: engine.KindPII, ShouldBlock: true, Score: &score},
		},
		Scores: map[string]float64{"toxicity": 0.42},
	}

	r := toRow(rec, time.Unix(0, 0))

	if len(r.ruleIDs) != 1 || r.ruleIDs[0] != "r1" {
		t.Errorf("ruleIDs = %v", r.ruleIDs)
	}
	if r.isBlocked != 1 {
		t.Error("expected isBlocked = 1")
	}
	if r.latencyMs != 2.5 {
		t.Errorf("latencyMs = %v, want 2.5", r.latencyMs)
	}
	if len(r.scoreKeys) != 1 || r.scoreKeys[0] != "toxicity" {
		t.Errorf("scoreKeys = %v", r.scoreKeys)
	}
}
