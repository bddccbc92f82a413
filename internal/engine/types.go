package engine

import (
	"fmt"
	"strings"
)

// RuleKind is the closed set of moderation rule kinds. Each kind routes
// to exactly one detector and determines whether Patterns is consulted.
type RuleKind int

const (
	KindUnspecified RuleKind = iota
	KindPII
	KindToxicity
	KindKeyword
	KindRegex
	KindFinancial
	KindMedical
)

// String returns the lowercase, storage-compatible kind name.
func (k RuleKind) String() string {
	switch k {
	case KindPII:
		return "pii"
	case KindToxicity:
		return "toxicity"
	case KindKeyword:
		return "keyword"
	case KindRegex:
		return "regex"
	case KindFinancial:
		return "financial"
	case KindMedical:
		return "medical"
	default:
		return "unspecified"
	}
}

// ParseRuleKind maps a storage/API string to a RuleKind. Unrecognized
// strings return KindUnspecified and ok=false so callers (the Rule Store
// loader) can reject the record instead of silently misrouting it.
func ParseRuleKind(s string) (RuleKind, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pii":
		return KindPII, true
	case "toxicity":
		return KindToxicity, true
	case "keyword":
		return KindKeyword, true
	case "regex":
		return KindRegex, true
	case "financial":
		return KindFinancial, true
	case "medical":
		return KindMedical, true
	default:
		return KindUnspecified, false
	}
}

// Region is the closed set of jurisdictional tags. RegionGlobal rules
// apply to every request regardless of the request's region.
type Region int

const (
	RegionUnspecified Region = iota
	RegionGlobal
	RegionUS
	RegionEU
	RegionUK
	RegionAPAC
)

func (r Region) String() string {
	switch r {
	case RegionGlobal:
		return "global"
	case RegionUS:
		return "us"
	case RegionEU:
		return "eu"
	case RegionUK:
		return "uk"
	case RegionAPAC:
		return "apac"
	default:
		return "unspecified"
	}
}

// ParseRegion maps a storage/API string to a Region.
func ParseRegion(s string) (Region, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "global":
		return RegionGlobal, true
	case "us":
		return RegionUS, true
	case "eu":
		return RegionEU, true
	case "uk":
		return RegionUK, true
	case "apac":
		return RegionAPAC, true
	default:
		return RegionUnspecified, false
	}
}

// Verdict is the aggregated enforcement decision. It gives the metrics
// and audit layers a single word for the allow/flag/block tri-state
// instead of re-deriving it from two bools on every use.
type Verdict int

const (
	VerdictAllow Verdict = iota + 1
	VerdictFlag
	VerdictBlock
)

func (v Verdict) String() string {
	switch v {
	case VerdictAllow:
		return "allowed"
	case VerdictFlag:
		return "flagged"
	case VerdictBlock:
		return "blocked"
	default:
		return "unspecified"
	}
}

// Rule is the authoritative record administered externally and consumed
// read-only by the engine. Patterns is only meaningful for
// Kind == KindKeyword or KindRegex; CompiledPatterns is populated by the
// Rule Store loader for KindRegex rules so the engine never compiles a
// pattern on the request path.
type Rule struct {
	ID               string
	Name             string
	Description      string
	Kind             RuleKind
	Region           Region
	Patterns         []string
	CompiledPatterns []*CompiledPattern
	Threshold        float64
	Priority         int
	IsActive         bool
}

// CompiledPattern pairs a regex rule's source text with its compiled
// form. Compiling happens once, at Rule Store load time (Design Notes:
// "invalid records are rejected by the Rule Store loader, not by the
// engine") — the request path only ever calls MatchString.
type CompiledPattern struct {
	Source  string
	Regexp  RegexMatcher
	Invalid bool // set when the source failed to compile; rule is skipped, not dropped
}

// RegexMatcher is satisfied by *regexp.Regexp. Declaring it as an
// interface keeps detector code decoupled from the regexp package so
// tests can substitute a fake matcher.
type RegexMatcher interface {
	MatchString(s string) bool
}

// RuleMatches carries opaque, detector-specific structured detail for
// the audit trail.
type RuleMatches struct {
	ByType map[string]int // PII: type -> count
	Tokens []string       // KEYWORD/REGEX/FINANCIAL/MEDICAL: matched strings
	Detail string         // short human-readable summary
}

// RuleOutcome is the transient, per-rule result of evaluating one rule
// against one candidate string.
type RuleOutcome struct {
	RuleID      string
	RuleName    string
	Kind        RuleKind
	Triggered   bool
	ShouldBlock bool
	Score       *float64 // populated by TOXICITY only
	Matches     RuleMatches
}

// ModerationResult is returned to the caller and persisted.
type ModerationResult struct {
	RequestID     string
	FinalResponse string
	IsFlagged     bool
	IsBlocked     bool
	Triggered     []RuleOutcome
	Scores        map[string]float64 // kind -> score, toxicity only today
	LatencyNS     int64
	Region        Region
	SessionID     string
}

func (r Rule) String() string {
	return fmt.Sprintf("Rule{id=%s kind=%s region=%s priority=%d active=%t}",
		r.ID, r.Kind, r.Region, r.Priority, r.IsActive)
}

// AuditRecord is the full record submitted to the Audit Sink for every
// evaluated request — a superset of ModerationResult
// that also carries the inputs and the engine-level failure tags
// ("engine_error", "cancelled") the Audit Sink uses to prove 100%
// interception even when the engine degrades to failsafe.
type AuditRecord struct {
	RequestID     string
	SessionID     string
	Region        Region
	UserMessage   string
	BotResponse   string
	FinalResponse string
	IsFlagged     bool
	IsBlocked     bool
	Verdict       Verdict
	Triggered     []RuleOutcome
	Scores        map[string]float64
	LatencyNS     int64
	EngineError   bool
	Cancelled     bool
}
