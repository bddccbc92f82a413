// Package metrics implements the Metrics Sink: the
// Prometheus counters and histograms the engine and Rule Store emit
// to on every invocation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sentineldev/modgate/internal/engine"
)

// latencyBucketsMS is pinned by the moderation contract.
var latencyBucketsMS = []float64{10, 25, 50, 75, 100, 150, 200, 500, 1000}

const (
	slaWarningThreshold  = 80 * time.Millisecond
	slaCriticalThreshold = 100 * time.Millisecond
)

// Recorder is a prometheus.Registry-backed implementation of
// engine.MetricsRecorder. It is constructed around a caller-supplied
// registry rather than registering against the global default, so a
// process can run more than one Recorder (e.g. in tests) without
// metric name collisions.
type Recorder struct {
	latency      *prometheus.HistogramVec
	outcomeTotal *prometheus.CounterVec
	slaViolation *prometheus.CounterVec
	intercepted  *prometheus.CounterVec
	ruleTriggers *prometheus.CounterVec
	detectorErr  *prometheus.CounterVec
	auditDrops   prometheus.Counter
	ruleExecTime *prometheus.HistogramVec
	activeRules  *prometheus.GaugeVec
}

// New registers every moderation metric against reg and returns the
// Recorder. reg is typically a dedicated *prometheus.Registry, not
// prometheus.DefaultRegisterer, so callers control what the scrape
// endpoint exposes.
func New(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		latency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "modgate_moderation_latency_ms",
			Help:    "End-to-end latency of a single moderate() invocation, in milliseconds.",
			Buckets: latencyBucketsMS,
		}, []string{"region"}),

		outcomeTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "modgate_moderation_outcomes_total",
			Help: "Moderation outcomes by region and verdict.",
		}, []string{"region", "outcome"}),

		slaViolation: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "modgate_sla_violations_total",
			Help: `Invocations exceeding an SLA latency band, by severity: "warning" at 80ms, "critical" at 100ms.`,
		}, []string{"severity"}),

		intercepted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "modgate_intercepted_total",
			Help: `Invocations by interception: "true" for every normal completion, "false" only on the engine's failsafe path.`,
		}, []string{"intercepted"}),

		ruleTriggers: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "modgate_rule_triggers_total",
			Help: "Rule triggers by kind.",
		}, []string{"kind"}),

		detectorErr: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "modgate_detector_errors_total",
			Help: "Detector errors by rule kind and cause (regex compile, model error, timeout, ...).",
		}, []string{"kind", "cause"}),

		auditDrops: factory.NewCounter(prometheus.CounterOpts{
			Name: "modgate_audit_drops_total",
			Help: "Audit records dropped because the sink queue was full.",
		}),

		ruleExecTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "modgate_rule_execution_seconds",
			Help:    "Per-rule detector execution time by kind.",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),

		activeRules: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "modgate_active_rules",
			Help: "Number of active rules currently held in the Rule Store cache, by region.",
		}, []string{"region"}),
	}
}

func (r *Recorder) ObserveLatency(region engine.Region, d time.Duration) {
	r.latency.WithLabelValues(region.String()).Observe(float64(d.Microseconds()) / 1000.0)
	switch {
	case d > slaCriticalThreshold:
		r.slaViolation.WithLabelValues("critical").Inc()
	case d >= slaWarningThreshold:
		r.slaViolation.WithLabelValues("warning").Inc()
	}
}

func (r *Recorder) IncOutcome(region engine.Region, verdict engine.Verdict) {
	r.outcomeTotal.WithLabelValues(region.String(), verdict.String()).Inc()
}

func (r *Recorder) IncIntercepted(intercepted bool) {
	label := "false"
	if intercepted {
		label = "true"
	}
	r.intercepted.WithLabelValues(label).Inc()
}

func (r *Recorder) IncRuleTriggered(kind engine.RuleKind) {
	r.ruleTriggers.WithLabelValues(kind.String()).Inc()
}

func (r *Recorder) IncDetectorError(kind engine.RuleKind, cause string) {
	r.detectorErr.WithLabelValues(kind.String(), cause).Inc()
}

// IncAuditDrop implements audit.DropRecorder.
func (r *Recorder) IncAuditDrop() {
	r.auditDrops.Inc()
}

// ObserveRuleExecution records a single rule's detector execution time.
// Supplements the moderation contract's required families with the original
// implementation's per-rule-type timing histogram (rule_execution_time
// in the Python source), useful for spotting a slow detector before it
// threatens the SLA as a whole.
func (r *Recorder) ObserveRuleExecution(kind engine.RuleKind, d time.Duration) {
	r.ruleExecTime.WithLabelValues(kind.String()).Observe(d.Seconds())
}

// SetActiveRules records the size of the current Rule Store snapshot
// for a region, supplementing the moderation contract with the original's gauge over
// live rule counts — useful for confirming a rule mutation actually
// propagated into the cache.
func (r *Recorder) SetActiveRules(region engine.Region, count int) {
	r.activeRules.WithLabelValues(region.String()).Set(float64(count))
}
