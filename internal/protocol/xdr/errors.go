package xdr

import (
	"errors"
	"fmt"
)

var (
	// ErrWrongDirection is returned when a direction-specific routine runs on
	// a stream of the other direction.
	ErrWrongDirection = errors.New("xdr: operation not valid for stream direction")

	// ErrBadDiscriminant is matched (via errors.Is) by every DiscriminantError.
	ErrBadDiscriminant = errors.New("xdr: no arm for union discriminant")

	// ErrTooLong is matched (via errors.Is) by every LengthError.
	ErrTooLong = errors.New("xdr: length exceeds maximum")
)

// DiscriminantError reports a union discriminant with no registered arm,
// no wildcard and no default.
type DiscriminantError struct {
	Value int32
}

func (e *DiscriminantError) Error() string {
	return fmt.Sprintf("xdr: no arm for union discriminant %d", e.Value)
}

func (e *DiscriminantError) Is(target error) bool {
	return target == ErrBadDiscriminant
}

// LengthError reports a variable-length item longer than its declared bound.
type LengthError struct {
	Length uint64
	Max    uint32
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("xdr: length %d exceeds maximum %d", e.Length, e.Max)
}

func (e *LengthError) Is(target error) bool {
	return target == ErrTooLong
}

// RequireOp returns ErrWrongDirection unless the stream runs in one of ops.
func (s *Stream) RequireOp(ops ...Op) error {
	for _, op := range ops {
		if s.op == op {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrWrongDirection, s.op)
}
