package engine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// newRequestID mints a fresh request identifier for correlating a
// ModerationResult with its AuditRecord.
func newRequestID() string {
	return uuid.NewString()
}

// unregisteredKindError reports a rule whose kind has no detector
// wired into the engine. This is a configuration defect, not a
// per-request failure, but it must not take down the whole evaluation —
// the rule is treated as a detector error like any other.
type unregisteredKindError struct {
	kind RuleKind
}

func (e *unregisteredKindError) Error() string {
	return fmt.Sprintf("no detector registered for rule kind %q", e.kind)
}

func errUnregisteredKind(kind RuleKind) error {
	return &unregisteredKindError{kind: kind}
}

// causeOf reduces an error to a short, low-cardinality label suitable
// for a metrics tag. Unrecognized errors fall back to "other" so the
// detector_error counter never grows an unbounded label set.
func causeOf(err error) string {
	if err == nil {
		return ""
	}
	var unreg *unregisteredKindError
	if errors.As(err, &unreg) {
		return "unregistered_kind"
	}
	var caused *CausedError
	if errors.As(err, &caused) {
		return string(caused.Cause)
	}
	return "other"
}
