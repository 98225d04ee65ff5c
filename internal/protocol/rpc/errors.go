package rpc

import (
	"errors"
	"fmt"
)

var (
	// ErrNotReply is returned by CodeReply for a message whose type is not REPLY.
	ErrNotReply = errors.New("rpc: message is not a reply")

	// ErrNotCall is returned by CodeCall when decoding a message whose type
	// is not CALL.
	ErrNotCall = errors.New("rpc: message is not a call")
)

// Status is the caller-facing outcome of an RPC.
//
// Values are those of the ONC RPC client library's clnt_stat. Classification
// of a decoded reply yields only the protocol codes; transport codes
// (StatCantSend, StatCantRecv, StatTimedOut, ...) come from the layer that
// moves the bytes.
type Status int32

const (
	StatSuccess           Status = 0  // call succeeded
	StatCantEncodeArgs    Status = 1  // can't encode arguments
	StatCantDecodeRes     Status = 2  // can't decode results
	StatCantSend          Status = 3  // failure in sending call
	StatCantRecv          Status = 4  // failure in receiving result
	StatTimedOut          Status = 5  // call timed out
	StatVersMismatch      Status = 6  // RPC versions not compatible
	StatAuthError         Status = 7  // authentication error
	StatProgUnavail       Status = 8  // program not available
	StatProgVersMismatch  Status = 9  // program version mismatched
	StatProcUnavail       Status = 10 // procedure unavailable
	StatCantDecodeArgs    Status = 11 // decode arguments error
	StatSystemError       Status = 12 // generic "other problem"
	StatUnknownHost       Status = 13 // unknown host name
	StatPmapFailure       Status = 14 // the pmapper failed in its call
	StatProgNotRegistered Status = 15 // remote program is not registered
	StatFailed            Status = 16 // unspecified error
	StatUnknownProto      Status = 17 // unknown protocol
)

// DiagPair holds the two raw values that led classification to StatFailed.
// It is for observability only.
type DiagPair struct {
	S1 int32
	S2 int32
}

// Error is the canonical result of an RPC: a Status plus the auxiliary data
// that status carries.
//
//   - StatVersMismatch, StatProgVersMismatch: Vers
//   - StatAuthError: Why
//   - StatFailed from classification: Diag
//
// Transport failures may attach the underlying error as Cause.
type Error struct {
	Status Status
	Vers   VersionRange
	Why    AuthStat
	Diag   DiagPair
	Cause  error
}

// Error formats the result the way clnt_sperror does.
func (e *Error) Error() string {
	msg := e.Status.String()

	switch e.Status {
	case StatVersMismatch:
		msg = fmt.Sprintf("%s; low version = %d, high version = %d", msg, e.Vers.Low, e.Vers.High)
	case StatProgVersMismatch:
		msg = fmt.Sprintf("%s; low version = %d, high version = %d", msg, e.Vers.Low, e.Vers.High)
	case StatAuthError:
		msg = fmt.Sprintf("%s; why = %s", msg, e.Why)
	case StatFailed:
		if e.Diag != (DiagPair{}) {
			msg = fmt.Sprintf("%s; s1 = %d, s2 = %d", msg, e.Diag.S1, e.Diag.S2)
		}
	}

	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Err returns e as an error, or nil when the status is StatSuccess.
//
// Error and Unwrap use pointer receivers so that *Error is the error type.
// Err takes a value so it can be called directly on the result of
// ClassifyReply; the error it returns points at a copy and does not alias
// the receiver.
func (e Error) Err() error {
	if e.Status == StatSuccess {
		return nil
	}
	return &e
}

// TransportError builds an Error for a failure outside the reply itself.
func TransportError(status Status, cause error) *Error {
	return &Error{Status: status, Cause: cause}
}
