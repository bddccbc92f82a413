package audit

import (
	"time"

	"github.com/sentineldev/modgate/internal/engine"
)

const payloadPreviewLength = 500

// truncatePayload returns the first n runes of s for preview storage,
// never splitting a multi-byte UTF-8 character.
func truncatePayload(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// row is the flattened, column-store-friendly shape an AuditRecord is
// converted into before insertion — parallel arrays for the triggered
// rule outcomes.
type row struct {
	requestID       string
	sessionID       string
	region          string
	userMessage     string
	botResponsePrev string
	finalResponse   string
	isFlagged       uint8
	isBlocked       uint8
	verdict         string
	engineError     uint8
	cancelled       bool
	latencyMs       float64
	timestamp       time.Time

	ruleIDs     []string
	ruleNames   []string
	ruleKinds   []string
	ruleBlocked []uint8
	ruleDetails []string

	scoreKeys   []string
	scoreValues []float64
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// toRow flattens an engine.AuditRecord into its column-store shape.
// UserMessage and BotResponse are truncated for preview storage —
// full text isn't needed to reconstruct the decision, only enough to
// investigate it.
func toRow(rec engine.AuditRecord, at time.Time) row {
	r := row{
		requestID:       rec.RequestID,
		sessionID:       rec.SessionID,
		region:          rec.Region.String(),
		userMessage:     truncatePayload(rec.UserMessage, payloadPreviewLength),
		botResponsePrev: truncatePayload(rec.BotResponse, payloadPreviewLength),
		finalResponse:   truncatePayload(rec.FinalResponse, payloadPreviewLength),
		isFlagged:       boolToUint8(rec.IsFlagged),
		isBlocked:       boolToUint8(rec.IsBlocked),
		verdict:         rec.Verdict.String(),
		engineError:     boolToUint8(rec.EngineError),
		cancelled:       rec.Cancelled,
		latencyMs:       float64(rec.LatencyNS) / 1e6,
		timestamp:       at,
	}

	for _, o := range rec.Triggered {
		r.ruleIDs = append(r.ruleIDs, o.RuleID)
		r.ruleNames = append(r.ruleNames, o.RuleName)
		r.ruleKinds = append(r.ruleKinds, o.Kind.String())
		r.ruleBlocked = append(r.ruleBlocked, boolToUint8(o.ShouldBlock))
		r.ruleDetails = append(r.ruleDetails, o.Matches.Detail)
	}

	for k, v := range rec.Scores {
		r.scoreKeys = append(r.scoreKeys, k)
		r.scoreValues = append(r.scoreValues, v)
	}

	return r
}
