package session

import (
	"errors"
	"fmt"

	"github.com/argus-gcs/linkrunner/internal/plan"
)

var (
	// ErrBusy is returned when a transfer is requested while another is
	// already active on the same session.
	ErrBusy = errors.New("session: another transfer is already active")

	// ErrCancelled is returned to the caller of an operation that was
	// cancelled before completion.
	ErrCancelled = errors.New("session: operation cancelled")

	// ErrLinkLost is returned when the link drops (heartbeat timeout or
	// transport failure) while an operation is in flight.
	ErrLinkLost = errors.New("session: link lost")

	// ErrTimeout is returned when a transfer exhausts its retry budget.
	ErrTimeout = errors.New("session: operation timed out")

	// ErrNotConnected is returned by operations attempted before
	// Connect or after Disconnect.
	ErrNotConnected = errors.New("session: not connected")
)

// SeqOutOfRangeError is returned by SetCurrent when seq is beyond the
// current mission's item count.
type SeqOutOfRangeError struct {
	Seq   uint16
	Total int32
}

func (e *SeqOutOfRangeError) Error() string {
	return fmt.Sprintf("session: seq %d out of range (total %d)", e.Seq, e.Total)
}

// ProtocolError wraps a non-accepted MAV_MISSION_RESULT or MAV_RESULT
// code returned by the autopilot.
type ProtocolError struct {
	Result uint8
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("session: protocol error, result=%d", e.Result)
}

// CommandFailedError is returned when a COMMAND_LONG's COMMAND_ACK
// carries a non-accepted result.
type CommandFailedError struct {
	Command uint16
	Result  uint8
}

func (e *CommandFailedError) Error() string {
	return fmt.Sprintf("session: command %d failed, result=%d", e.Command, e.Result)
}

// InvalidPlanError wraps the Issues returned by plan.Validate when a
// caller attempts to upload a plan that fails validation.
type InvalidPlanError struct {
	Issues []plan.Issue
}

func (e *InvalidPlanError) Error() string {
	return fmt.Sprintf("session: plan invalid (%d issues)", len(e.Issues))
}

// TransportError wraps an I/O failure from the underlying endpoint. It
// is returned to the caller of the failed operation only: LinkState is
// left unchanged and the session's loops keep running.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return fmt.Sprintf("session: transport error: %v", e.Err) }
func (e *TransportError) Unwrap() error { return e.Err }
