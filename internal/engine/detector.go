package engine

import (
	"context"
)

// DetectorErrorCause classifies a Detector error for the detector-error
// metric, keeping
// the cause label low-cardinality regardless of the underlying error's
// exact text.
type DetectorErrorCause string

const (
	CauseRegexCompile DetectorErrorCause = "regex_compile"
	CauseModelError   DetectorErrorCause = "model_error"
	CauseTimeout      DetectorErrorCause = "timeout"
)

// CausedError wraps an error with its DetectorErrorCause so causeOf can
// report a stable label without string-sniffing the error text.
type CausedError struct {
	Cause DetectorErrorCause
	Err   error
}

func (e *CausedError) Error() string { return e.Err.Error() }
func (e *CausedError) Unwrap() error { return e.Err }

// Detector is the interface every rule-kind detector must implement.
// Implementations are pure functions of their input and must respect
// ctx deadlines — the engine fans detectors out under a single timeout
// and does not wait for stragglers.
type Detector interface {
	// Detect evaluates a single rule's parameters against the candidate
	// string and reports whether it triggered.
	Detect(ctx context.Context, in DetectInput) (DetectOutcome, error)
}

// DetectInput is the primitive payload handed to a detector. Detectors
// never see a Rule or a RuleKind — only the values relevant to their own
// kind — so a detector implementation has no dependency on the Rule
// Store or on any other kind's configuration.
type DetectInput struct {
	Text             string
	Patterns         []string
	CompiledPatterns []*CompiledPattern
	Threshold        float64
}

// DetectOutcome is the result of running one detector against one
// DetectInput. Score is only meaningful for the TOXICITY detector;
// other detectors leave it at zero.
type DetectOutcome struct {
	Triggered bool
	Score     float64
	ByType    map[string]int
	Tokens    []string
	Detail    string
}
