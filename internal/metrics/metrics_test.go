package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/sentineldev/modgate/internal/engine"
)

func TestRecorder_IncOutcomeAndIntercepted(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.IncOutcome(engine.RegionUS, engine.VerdictBlock)
	r.IncIntercepted(true)
	r.IncRuleTriggered(engine.KindPII)
	r.IncDetectorError(engine.KindRegex, "other")
	r.ObserveLatency(engine.RegionUS, 5*time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	if !hasMetric(families, "modgate_moderation_outcomes_total") {
		t.Error("missing modgate_moderation_outcomes_total")
	}
	if !hasMetric(families, "modgate_intercepted_total") {
		t.Error("missing modgate_intercepted_total")
	}
}

func TestRecorder_SLAViolationBandsBySeverity(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.ObserveLatency(engine.RegionGlobal, 50*time.Millisecond)  // under both thresholds
	r.ObserveLatency(engine.RegionGlobal, 90*time.Millisecond)  // warning band
	r.ObserveLatency(engine.RegionGlobal, 200*time.Millisecond) // critical band

	families, _ := reg.Gather()
	if got := slaViolationCount(families, "warning"); got != 1 {
		t.Errorf("sla_violations{severity=warning} = %v, want 1", got)
	}
	if got := slaViolationCount(families, "critical"); got != 1 {
		t.Errorf("sla_violations{severity=critical} = %v, want 1", got)
	}
}

func slaViolationCount(families []*dto.MetricFamily, severity string) float64 {
	for _, f := range families {
		if f.GetName() != "modgate_sla_violations_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "severity" && l.GetValue() == severity {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestRecorder_RuleExecutionAndActiveRules(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.ObserveRuleExecution(engine.KindPII, 5*time.Millisecond)
	r.SetActiveRules(engine.RegionUS, 3)

	families, _ := reg.Gather()
	if !hasMetric(families, "modgate_rule_execution_seconds") {
		t.Error("missing modgate_rule_execution_seconds")
	}
	if !hasMetric(families, "modgate_active_rules") {
		t.Error("missing modgate_active_rules")
	}
}

func hasMetric(families []*dto.MetricFamily, name string) bool {
	for _, f := range families {
		if f.GetName() == name {
			return true
		}
	}
	return false
}
