package rpc

import (
	"fmt"

	"github.com/truenas/ntirpc/internal/protocol/xdr"
)

// OpaqueAuth represents authentication credentials or verifiers.
//
// The RPC layer never interprets the body; its meaning depends on Flavor.
//
// Wire Format:
//   - Flavor: 4 bytes (enum auth_flavor)
//   - Body:   4-byte length + up to MaxAuthBytes bytes + padding
//
// Reference: RFC 5531 Section 8.2
type OpaqueAuth struct {
	Flavor AuthFlavor
	Body   []byte
}

// NullAuth returns the AUTH_NONE token with an empty body.
//
// It is returned by value so the shared default verifier cannot be changed
// by any caller.
func NullAuth() OpaqueAuth {
	return OpaqueAuth{Flavor: AuthNull, Body: []byte{}}
}

// Code encodes or decodes the token on s.
func (a *OpaqueAuth) Code(s *xdr.Stream) error {
	if err := xdr.Enum(s, &a.Flavor); err != nil {
		return fmt.Errorf("auth flavor: %w", err)
	}
	if err := s.Opaque(&a.Body, MaxAuthBytes); err != nil {
		return fmt.Errorf("auth body: %w", err)
	}
	return nil
}

// DESBlock is the 8-byte block used by AUTH_DH conversation keys and
// timestamps. It travels as fixed-length opaque data.
type DESBlock [8]byte

// Code encodes or decodes the block on s.
func (b *DESBlock) Code(s *xdr.Stream) error {
	return s.FixedOpaque(b[:])
}
