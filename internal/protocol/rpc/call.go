package rpc

import (
	"bytes"
	"fmt"

	"github.com/truenas/ntirpc/internal/protocol/xdr"
)

// EncodeCallHeader serializes the static prefix of a call message:
// XID, message type, RPC version, program and program version.
//
// The message type is always CALL and the RPC version always RPCVersion;
// they are not inputs. Credentials, verifier, procedure and arguments are
// left to the caller's own sequencing (see CodeCall for the whole message).
//
// Only encoding and sizing streams are accepted. A decoding stream fails
// with xdr.ErrWrongDirection; call headers are decoded by CodeCall.
func EncodeCallHeader(s *xdr.Stream, xid, prog, vers uint32) error {
	if err := s.RequireOp(xdr.OpEncode, xdr.OpSize); err != nil {
		return fmt.Errorf("call header: %w", err)
	}

	msgType := RPCCall
	rpcVers := uint32(RPCVersion)

	if err := s.Uint32(&xid); err != nil {
		return fmt.Errorf("call xid: %w", err)
	}
	if err := xdr.Enum(s, &msgType); err != nil {
		return fmt.Errorf("call message type: %w", err)
	}
	if err := s.Uint32(&rpcVers); err != nil {
		return fmt.Errorf("call rpc version: %w", err)
	}
	if err := s.Uint32(&prog); err != nil {
		return fmt.Errorf("call program: %w", err)
	}
	if err := s.Uint32(&vers); err != nil {
		return fmt.Errorf("call program version: %w", err)
	}
	return nil
}

// EncodeCallHeaderFrom is EncodeCallHeader taking XID, program and version
// from msg. msg.Type and msg.Call.RPCVers are ignored and msg is not
// modified.
func EncodeCallHeaderFrom(s *xdr.Stream, msg *Message) error {
	return EncodeCallHeader(s, msg.XID, msg.Call.Prog, msg.Call.Vers)
}

// MarshalCallHeader returns the encoded static call header prefix.
func MarshalCallHeader(xid, prog, vers uint32) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeCallHeader(xdr.NewEncoder(&buf), xid, prog, vers); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CodeCall encodes or decodes a complete call message, arguments included.
//
// Encoding writes CALL and RPCVersion regardless of msg.Type and
// msg.Call.RPCVers. Decoding stores the RPC version as received, leaving the
// RPC_MISMATCH decision to the server, and fails with ErrNotCall when the
// message type is not CALL. msg.Call.Args (nil for void) codes the arguments.
func CodeCall(s *xdr.Stream, msg *Message) error {
	cb := &msg.Call

	if s.Op() == xdr.OpDecode {
		if err := s.Uint32(&msg.XID); err != nil {
			return fmt.Errorf("call xid: %w", err)
		}
		if err := xdr.Enum(s, &msg.Type); err != nil {
			return fmt.Errorf("call message type: %w", err)
		}
		if msg.Type != RPCCall {
			return fmt.Errorf("%w: xid=0x%x type=%d", ErrNotCall, msg.XID, msg.Type)
		}
		if err := s.Uint32(&cb.RPCVers); err != nil {
			return fmt.Errorf("call rpc version: %w", err)
		}
		if err := s.Uint32(&cb.Prog); err != nil {
			return fmt.Errorf("call program: %w", err)
		}
		if err := s.Uint32(&cb.Vers); err != nil {
			return fmt.Errorf("call program version: %w", err)
		}
	} else if err := EncodeCallHeaderFrom(s, msg); err != nil {
		return err
	}

	if err := s.Uint32(&cb.Proc); err != nil {
		return fmt.Errorf("call procedure: %w", err)
	}
	if err := cb.Cred.Code(s); err != nil {
		return fmt.Errorf("credential: %w", err)
	}
	if err := cb.Verf.Code(s); err != nil {
		return fmt.Errorf("verifier: %w", err)
	}
	if cb.Args != nil {
		if err := cb.Args(s); err != nil {
			return fmt.Errorf("call arguments: %w", err)
		}
	}
	return nil
}

// MarshalCall encodes a complete call message into a new byte slice.
func MarshalCall(msg *Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := CodeCall(xdr.NewEncoder(&buf), msg); err != nil {
		return nil, fmt.Errorf("marshal call: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadCall parses an RPC call header from raw bytes and returns it with the
// procedure-specific arguments that follow the verifier.
//
// The returned argument slice aliases data (zero-copy); it is empty for
// procedures that take no parameters, such as NULL.
func ReadCall(data []byte) (*Message, []byte, error) {
	msg := &Message{}
	s := xdr.NewDecoder(bytes.NewReader(data))
	if err := CodeCall(s, msg); err != nil {
		return nil, nil, fmt.Errorf("unmarshal RPC call: %w", err)
	}
	return msg, data[s.Pos():], nil
}
