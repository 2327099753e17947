// Package pipeline turns an error that escaped an HTTP handler into the
// uniform response envelope plus the status and headers to send with it.
//
// A Controller runs each intercepted error through a fixed sequence:
//
//	RECEIVED → GATED → REJECTED
//	                 → ACCEPTED → PROCESSED → PROJECTED → EMITTED
//
//   - Chain: ordered predicates; all must pass for the error to be accepted.
//     An empty chain accepts everything.
//   - RejectStrategy: decides what happens to errors the chain rejects. The
//     default (Propagate) hands the error back to the caller unchanged.
//   - BeforeFunc / AfterFunc: observers around the processor. They cannot
//     change control flow and their panics are discarded.
//   - Processor: maps the error to an envelope using a Table of
//     ErrorMappings (exact category → nearest mapped ancestor → fallback →
//     reserved unmapped envelope).
//   - Projection: derives status and headers from the envelope and error.
//
// Everything except the predicate chain is fixed at construction. The chain
// and the processor's table are published as immutable snapshots, so a
// Controller is safe for concurrent use without locks.
package pipeline
