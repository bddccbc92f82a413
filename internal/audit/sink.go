// Package audit implements the Audit Sink: the write-once
// destination every engine.Moderate invocation submits exactly one
// AuditRecord to, regardless of outcome or internal failure.
package audit

import "github.com/sentineldev/modgate/internal/engine"

// Sink is the interface the engine submits records to. Submit must
// never block the caller — an implementation that can't keep up drops
// the record and counts the drop, it never applies backpressure.
type Sink interface {
	Submit(rec engine.AuditRecord)
	Close()
}
