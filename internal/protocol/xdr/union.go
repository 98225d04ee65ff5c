package xdr

import "fmt"

// ============================================================================
// XDR Discriminated Unions
// ============================================================================

// Arms is the dispatch table of a discriminated union.
//
// Cases maps a discriminant value to the codec for that arm's payload.
// Wildcard, when set, matches every discriminant absent from Cases. A union
// whose wire format may grow new no-payload values registers Void as its
// wildcard; a union whose every value must be understood registers none, and
// an unknown value is then a decode failure.
type Arms struct {
	Cases    map[int32]Proc
	Wildcard Proc
}

// Union codes the discriminant *disc and then the arm selected by it.
//
// Lookup order: an explicit case, then arms.Wildcard, then dflt. When none
// applies the result is a *DiscriminantError (errors.Is ErrBadDiscriminant).
// The discriminant is coded before the payload in both directions, so on
// decode the caller's discriminant always describes the payload that follows.
//
// Per RFC 4506 Section 4.15 (Discriminated Union):
//
//	union switch (discriminant-declaration) {
//	    case discriminant-value-A: arm-declaration-A;
//	    ...
//	    default: default-declaration;
//	} identifier;
func Union[D ~int32](s *Stream, disc *D, arms Arms, dflt Proc) error {
	if err := Enum(s, disc); err != nil {
		return fmt.Errorf("union discriminant: %w", err)
	}

	value := int32(*disc)
	arm, ok := arms.Cases[value]
	switch {
	case ok && arm != nil:
	case arms.Wildcard != nil:
		arm = arms.Wildcard
	case dflt != nil:
		arm = dflt
	default:
		return &DiscriminantError{Value: value}
	}

	if err := arm(s); err != nil {
		return fmt.Errorf("union arm %d: %w", value, err)
	}
	return nil
}
