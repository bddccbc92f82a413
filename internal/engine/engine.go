package engine

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"
)

// RuleSource is the read-only view of the Rule Store the engine needs.
// It is satisfied by a cache snapshot, never by a live database query —
// the engine must never block on I/O per request.
type RuleSource interface {
	ActiveRules(region Region) []Rule
}

// AuditSink receives one AuditRecord per evaluated request. Submit must
// not block the caller — implementations that can't keep up
// drop the record and count it, they never apply backpressure here.
type AuditSink interface {
	Submit(rec AuditRecord)
}

// MetricsRecorder is the engine's view of the Metrics Sink.
type MetricsRecorder interface {
	ObserveLatency(region Region, d time.Duration)
	IncOutcome(region Region, verdict Verdict)
	IncIntercepted(intercepted bool)
	IncRuleTriggered(kind RuleKind)
	IncDetectorError(kind RuleKind, cause string)
	ObserveRuleExecution(kind RuleKind, d time.Duration)
}

// Engine evaluates a candidate bot response against the active rule set
// for a region and returns a ModerationResult. It never returns a
// non-nil error to the caller — internal failures degrade to
// a failsafe allow, recorded in the audit trail instead.
type Engine struct {
	rules     RuleSource
	detectors map[RuleKind]Detector
	timeout   time.Duration
	audit     AuditSink
	metrics   MetricsRecorder
	logger    *zap.Logger
}

// New builds an Engine. detectors maps each RuleKind to the Detector
// responsible for it; a rule whose kind has no entry is skipped and
// reported as a detector error (logged and counted) on every evaluation.
func New(rules RuleSource, detectors map[RuleKind]Detector, timeout time.Duration, audit AuditSink, metrics MetricsRecorder, logger *zap.Logger) *Engine {
	return &Engine{
		rules:     rules,
		detectors: detectors,
		timeout:   timeout,
		audit:     audit,
		metrics:   metrics,
		logger:    logger,
	}
}

// ruleEvaluation pairs a rule with its detector outcome. Sent over the
// results channel by each per-rule goroutine.
type ruleEvaluation struct {
	rule     Rule
	outcome  RuleOutcome
	err      error
	panicked any // non-nil when the rule's detector panicked
}

// Moderate evaluates botResponse against the active rules for region
// and returns the resulting ModerationResult. userMessage is carried
// through to the audit record only; no detector inspects it today —
// moderation is scoped to the candidate reply, not the prompt.
//
// Moderate recovers from any panic raised by a rule's detector and
// degrades to the failsafe result: unblocked, original response
// returned verbatim, tagged engine_error in the audit trail.
func (e *Engine) Moderate(ctx context.Context, userMessage, botResponse string, region Region, sessionID string) (result *ModerationResult, err error) {
	start := time.Now()
	requestID := newRequestID()

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("engine panic recovered, degrading to failsafe",
				zap.Any("panic", r),
				zap.String("request_id", requestID),
			)
			result = e.failsafeResult(requestID, botResponse, region, sessionID, start)
			e.submitAudit(result, userMessage, botResponse, true, false)
			e.recordMetrics(result, time.Since(start), false)
			err = nil
		}
	}()

	if botResponse == "" {
		result = &ModerationResult{
			RequestID:     requestID,
			FinalResponse: botResponse,
			Region:        region,
			SessionID:     sessionID,
			LatencyNS:     time.Since(start).Nanoseconds(),
		}
		e.submitAudit(result, userMessage, botResponse, false, false)
		e.recordMetrics(result, time.Since(start), true)
		return result, nil
	}

	rules := e.rules.ActiveRules(region)

	evalCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	results := make(chan ruleEvaluation, len(rules))
	for _, rule := range rules {
		go e.evaluateRule(evalCtx, rule, botResponse, results)
	}

	outcomes := make([]RuleOutcome, 0, len(rules))
	cancelled := false
	remaining := len(rules)
	for remaining > 0 {
		select {
		case ev := <-results:
			remaining--
			if ev.panicked != nil {
				// Re-raise on this goroutine so the deferred recover
				// above takes the failsafe path.
				panic(ev.panicked)
			}
			if ev.err != nil {
				e.logger.Warn("detector error",
					zap.String("rule_id", ev.rule.ID),
					zap.String("kind", ev.rule.Kind.String()),
					zap.Error(ev.err),
				)
				e.metrics.IncDetectorError(ev.rule.Kind, causeOf(ev.err))
				continue
			}
			outcomes = append(outcomes, ev.outcome)
		case <-evalCtx.Done():
			cancelled = true
			e.logger.Warn("rule evaluation deadline exceeded, returning partial results",
				zap.Int("collected", len(outcomes)),
				zap.Int("pending", remaining),
			)
			remaining = 0
		}
	}

	agg := Aggregate(outcomes)

	finalResponse := botResponse
	if agg.IsBlocked {
		finalResponse = FallbackMessage(agg.FallbackKind)
	}

	// outcomes arrive in whatever order their goroutines finished in;
	// sort them into priority-descending, id-ascending order so the
	// reported triggered list is stable across identical invocations
	// regardless of scheduling.
	byID := make(map[string]Rule, len(rules))
	for _, r := range rules {
		byID[r.ID] = r
	}
	sort.SliceStable(outcomes, func(i, j int) bool {
		a, b := byID[outcomes[i].RuleID], byID[outcomes[j].RuleID]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return a.ID < b.ID
	})

	scores := make(map[string]float64)
	triggered := make([]RuleOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		if !o.Triggered {
			continue
		}
		triggered = append(triggered, o)
		e.metrics.IncRuleTriggered(o.Kind)
		if o.Score != nil {
			scores[o.Kind.String()] = *o.Score
		}
	}

	result = &ModerationResult{
		RequestID:     requestID,
		FinalResponse: finalResponse,
		IsFlagged:     agg.IsFlagged,
		IsBlocked:     agg.IsBlocked,
		Triggered:     triggered,
		Scores:        scores,
		Region:        region,
		SessionID:     sessionID,
		LatencyNS:     time.Since(start).Nanoseconds(),
	}

	e.submitAudit(result, userMessage, botResponse, false, cancelled)
	e.recordMetrics(result, time.Since(start), true)

	return result, nil
}

// evaluateRule looks up the detector for rule.Kind and runs it, sending
// exactly one ruleEvaluation into results regardless of outcome. A rule
// whose kind has no registered detector is reported as an error rather
// than silently skipped, so it surfaces in the detector-error metric.
// A detector panic is recovered here and handed to Moderate, which
// re-raises it into its own failsafe recovery.
func (e *Engine) evaluateRule(ctx context.Context, rule Rule, botResponse string, results chan<- ruleEvaluation) {
	defer func() {
		if r := recover(); r != nil {
			results <- ruleEvaluation{rule: rule, panicked: r}
		}
	}()

	det, ok := e.detectors[rule.Kind]
	if !ok {
		results <- ruleEvaluation{rule: rule, err: errUnregisteredKind(rule.Kind)}
		return
	}

	detectStart := time.Now()
	outcome, err := det.Detect(ctx, DetectInput{
		Text:             botResponse,
		Patterns:         rule.Patterns,
		CompiledPatterns: rule.CompiledPatterns,
		Threshold:        rule.Threshold,
	})
	e.metrics.ObserveRuleExecution(rule.Kind, time.Since(detectStart))
	if err != nil {
		results <- ruleEvaluation{rule: rule, err: err}
		return
	}

	ro := RuleOutcome{
		RuleID:      rule.ID,
		RuleName:    rule.Name,
		Kind:        rule.Kind,
		Triggered:   outcome.Triggered,
		ShouldBlock: outcome.Triggered && IsBlockingKind(rule.Kind, rule.Name),
		Matches: RuleMatches{
			ByType: outcome.ByType,
			Tokens: outcome.Tokens,
			Detail: outcome.Detail,
		},
	}
	if rule.Kind == KindToxicity {
		score := outcome.Score
		ro.Score = &score
	}

	results <- ruleEvaluation{rule: rule, outcome: ro}
}

func (e *Engine) failsafeResult(requestID, botResponse string, region Region, sessionID string, start time.Time) *ModerationResult {
	return &ModerationResult{
		RequestID:     requestID,
		FinalResponse: botResponse,
		IsFlagged:     false,
		IsBlocked:     false,
		Region:        region,
		SessionID:     sessionID,
		LatencyNS:     time.Since(start).Nanoseconds(),
	}
}

func (e *Engine) submitAudit(result *ModerationResult, userMessage, botResponse string, engineError, cancelled bool) {
	if e.audit == nil {
		return
	}
	e.audit.Submit(AuditRecord{
		RequestID:     result.RequestID,
		SessionID:     result.SessionID,
		Region:        result.Region,
		UserMessage:   userMessage,
		BotResponse:   botResponse,
		FinalResponse: result.FinalResponse,
		IsFlagged:     result.IsFlagged,
		IsBlocked:     result.IsBlocked,
		Verdict:       verdictOf(result),
		Triggered:     result.Triggered,
		Scores:        result.Scores,
		LatencyNS:     result.LatencyNS,
		EngineError:   engineError,
		Cancelled:     cancelled,
	})
}

// recordMetrics emits the per-invocation metric families. intercepted is
// true for every normal completion (allowed, flagged, or blocked) and
// false only on the panic-recovery failsafe path — it is not a synonym
// for is_blocked. Operators alarm on intercepted="false" as a sign the
// engine itself failed, not as a sign a response was let through.
func (e *Engine) recordMetrics(result *ModerationResult, latency time.Duration, intercepted bool) {
	if e.metrics == nil {
		return
	}
	e.metrics.ObserveLatency(result.Region, latency)
	e.metrics.IncOutcome(result.Region, verdictOf(result))
	e.metrics.IncIntercepted(intercepted)
}

func verdictOf(result *ModerationResult) Verdict {
	switch {
	case result.IsBlocked:
		return VerdictBlock
	case result.IsFlagged:
		return VerdictFlag
	default:
		return VerdictAllow
	}
}
