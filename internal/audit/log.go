package audit

import (
	"github.com/sentineldev/modgate/internal/engine"
	"go.uber.org/zap"
)

// LogSink is a fallback Sink for local development: it logs each
// record as structured fields to stdout via zap instead of writing to
// ClickHouse.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink creates a LogSink that outputs records to the given logger.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Submit(rec engine.AuditRecord) {
	ruleNames := make([]string, 0, len(rec.Triggered))
	for _, o := range rec.Triggered {
		ruleNames = append(ruleNames, o.RuleName)
	}

	s.logger.Info("audit_record",
		zap.String("request_id", rec.RequestID),
		zap.String("session_id", rec.SessionID),
		zap.String("region", rec.Region.String()),
		zap.Bool("is_flagged", rec.IsFlagged),
		zap.Bool("is_blocked", rec.IsBlocked),
		zap.String("verdict", rec.Verdict.String()),
		zap.Strings("triggered_rules", ruleNames),
		zap.Bool("engine_error", rec.EngineError),
		zap.Bool("cancelled", rec.Cancelled),
		zap.Int64("latency_ns", rec.LatencyNS),
	)
}

func (s *LogSink) Close() {}
