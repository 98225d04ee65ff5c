// Package xdr is the primitive codec adapter used by the RPC message layer.
//
// A Stream wraps the github.com/rasky/go-xdr encoder and decoder behind a single
// direction-neutral API: the same routine (for example a reply body codec) is
// written once and run against an encoding, decoding or sizing stream. Every
// primitive returns an error on buffer exhaustion, malformed length or I/O
// fault, and callers propagate the first failure without retrying.
//
// Per RFC 4506, all quantities are big-endian and aligned to 4 bytes.
package xdr

import (
	"fmt"
	"io"

	xdr "github.com/rasky/go-xdr/xdr2"
)

// Op is the operating direction of a Stream.
type Op int

const (
	// OpEncode serializes in-memory values to the underlying writer.
	OpEncode Op = iota

	// OpDecode deserializes values from the underlying reader.
	OpDecode

	// OpSize encodes into a byte counter; nothing is written anywhere.
	OpSize
)

func (op Op) String() string {
	switch op {
	case OpEncode:
		return "ENCODE"
	case OpDecode:
		return "DECODE"
	case OpSize:
		return "SIZE"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

// Proc is a procedure reference: a self-contained codec for one value,
// usually a closure over the value's address. The RPC layer uses it for
// argument and result payloads it never inspects.
type Proc func(s *Stream) error

// Void is the Proc for XDR void. It consumes and produces nothing.
func Void(*Stream) error { return nil }

// Stream is a codec context: a direction fixed at construction plus a cursor
// into a byte stream. A Stream is exclusively owned by one encode or decode
// operation and must not be shared between goroutines.
type Stream struct {
	op  Op
	enc *xdr.Encoder
	dec *xdr.Decoder
	pos int
}

// NewEncoder returns a Stream that encodes to w.
func NewEncoder(w io.Writer) *Stream {
	return &Stream{op: OpEncode, enc: xdr.NewEncoder(w)}
}

// NewDecoder returns a Stream that decodes from r.
func NewDecoder(r io.Reader) *Stream {
	return &Stream{op: OpDecode, dec: xdr.NewDecoder(r)}
}

// NewSizer returns a Stream that only counts the bytes an encode would produce.
func NewSizer() *Stream {
	return &Stream{op: OpSize, enc: xdr.NewEncoder(io.Discard)}
}

// Op returns the stream's operating direction.
func (s *Stream) Op() Op { return s.op }

// Pos returns the number of bytes encoded, decoded or counted so far.
func (s *Stream) Pos() int { return s.pos }

// encoding reports whether values flow from memory to the wire.
func (s *Stream) encoding() bool { return s.op != OpDecode }

// ============================================================================
// Scalars
// ============================================================================

// Uint32 codes an XDR unsigned int.
func (s *Stream) Uint32(v *uint32) error {
	if s.encoding() {
		n, err := s.enc.EncodeUint(*v)
		s.pos += n
		if err != nil {
			return fmt.Errorf("encode uint32: %w", err)
		}
		return nil
	}

	x, n, err := s.dec.DecodeUint()
	s.pos += n
	if err != nil {
		return fmt.Errorf("decode uint32: %w", err)
	}
	*v = x
	return nil
}

// Int32 codes an XDR int.
func (s *Stream) Int32(v *int32) error {
	if s.encoding() {
		n, err := s.enc.EncodeInt(*v)
		s.pos += n
		if err != nil {
			return fmt.Errorf("encode int32: %w", err)
		}
		return nil
	}

	x, n, err := s.dec.DecodeInt()
	s.pos += n
	if err != nil {
		return fmt.Errorf("decode int32: %w", err)
	}
	*v = x
	return nil
}

// Bool codes an XDR bool (an int restricted to 0 and 1).
func (s *Stream) Bool(v *bool) error {
	if s.encoding() {
		n, err := s.enc.EncodeBool(*v)
		s.pos += n
		if err != nil {
			return fmt.Errorf("encode bool: %w", err)
		}
		return nil
	}

	x, n, err := s.dec.DecodeBool()
	s.pos += n
	if err != nil {
		return fmt.Errorf("decode bool: %w", err)
	}
	*v = x
	return nil
}

// Enum codes an XDR enum as a signed 32-bit tag. Values are not range
// checked; the union that owns the tag decides what an unknown value means.
func Enum[E ~int32](s *Stream, v *E) error {
	x := int32(*v)
	if err := s.Int32(&x); err != nil {
		return err
	}
	*v = E(x)
	return nil
}

// ============================================================================
// Opaque data
// ============================================================================

// FixedOpaque codes fixed-length opaque data of len(buf) bytes plus padding.
// On decode the bytes are copied into buf.
//
// Per RFC 4506 Section 4.9 (Fixed-Length Opaque Data).
func (s *Stream) FixedOpaque(buf []byte) error {
	if s.encoding() {
		n, err := s.enc.EncodeFixedOpaque(buf)
		s.pos += n
		if err != nil {
			return fmt.Errorf("encode fixed opaque[%d]: %w", len(buf), err)
		}
		return nil
	}

	if len(buf) == 0 {
		return nil
	}
	data, n, err := s.dec.DecodeFixedOpaque(int32(len(buf)))
	s.pos += n
	if err != nil {
		return fmt.Errorf("decode fixed opaque[%d]: %w", len(buf), err)
	}
	copy(buf, data)
	return nil
}

// Opaque codes variable-length opaque data bounded by maxLen bytes.
// Format: [length:uint32][data:length bytes][padding:0-3 bytes].
//
// The length is checked against maxLen before any allocation, so a hostile
// length prefix fails with ErrTooLong instead of exhausting memory.
//
// Per RFC 4506 Section 4.10 (Variable-Length Opaque Data).
func (s *Stream) Opaque(v *[]byte, maxLen uint32) error {
	if s.encoding() {
		if uint64(len(*v)) > uint64(maxLen) {
			return &LengthError{Length: uint64(len(*v)), Max: maxLen}
		}
		n, err := s.enc.EncodeOpaque(*v)
		s.pos += n
		if err != nil {
			return fmt.Errorf("encode opaque: %w", err)
		}
		return nil
	}

	var length uint32
	if err := s.Uint32(&length); err != nil {
		return fmt.Errorf("opaque length: %w", err)
	}
	if length > maxLen {
		return &LengthError{Length: uint64(length), Max: maxLen}
	}
	if length == 0 {
		*v = []byte{}
		return nil
	}

	data, n, err := s.dec.DecodeFixedOpaque(int32(length))
	s.pos += n
	if err != nil {
		return fmt.Errorf("decode opaque body: %w", err)
	}
	*v = data
	return nil
}
