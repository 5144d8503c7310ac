// Copyright 2025 Certen Protocol
//
// Package pvr implements the Protocol Version Registry described in
// spec.md §4.2: a process-wide, read-mostly table mapping a consensus
// protocol version to the algorithm selector used at every
// consensus-critical call site.

package pvr

import "fmt"

// UnknownVersionMismatch is returned when a protocol version has no
// registered VersionedMethods, or a VersionedMethods has no selector for
// the requested method. It is always an infrastructure error (spec.md
// §7): "an unhandled code path is never silently routed to latest".
type UnknownVersionMismatch struct {
	Method   string
	Known    []uint32
	Received uint32
}

func (e *UnknownVersionMismatch) Error() string {
	return fmt.Sprintf("pvr: unknown version for method %q: received %d, known %v", e.Method, e.Received, e.Known)
}
