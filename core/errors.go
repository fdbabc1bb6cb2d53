package core

import (
	"errors"
	"log"
)

// Sentinel errors for the taxonomy's non-fatal classes. Callers compare with
// errors.Is; core itself never returns these from most methods (the invariant
// guards log-and-recover instead, per the "no error terminates the event
// loop except Fatal" propagation rule), but collaborators and the
// coordinator's IPC-facing wrappers use them to report failures upward.
var (
	// ErrStaleEvent marks a transient client misbehavior: an event that no
	// longer applies (a commit acknowledging a stale configure serial).
	ErrStaleEvent = errors.New("core: stale event discarded")
	// ErrCollaboratorUnavailable marks a collaborator that failed to do its
	// part; SpawnGUI wraps it when the surface driver cannot launch the GUI.
	ErrCollaboratorUnavailable = errors.New("core: collaborator unavailable")
	// ErrCellNotFound names an operation on a CellID that is not present in
	// the stack; OnExternalCommit logs it for a commit to an unknown cell.
	ErrCellNotFound = errors.New("core: cell not found")
)

// logInvariantViolation records a runtime invariant violation (cached height
// negative, focus identity missing) at error level. The caller is always
// expected to restore a safe default immediately after calling this — this
// function only logs, it never panics or returns an error, matching the
// "invariant violation: log error, restore safe default" policy.
func logInvariantViolation(what string) {
	log.Printf("core: invariant violation: %s", what)
}

// logDegraded records a missing-collaborator condition at warning level; the
// caller disables the associated feature and keeps running.
func logDegraded(feature, reason string) {
	log.Printf("core: degrading %s: %s", feature, reason)
}

// logDroppedEvent records a transient client misbehavior at debug level.
// core has no leveled logger of its own (see the ambient logging decision);
// debug-only volume is kept low by only calling this for genuinely
// exceptional per-event conditions, not steady-state traffic.
func logDroppedEvent(what string) {
	log.Printf("core: debug: dropping event: %s", what)
}
