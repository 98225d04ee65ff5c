package rpc

import (
	"bytes"
	"fmt"

	"github.com/truenas/ntirpc/internal/protocol/xdr"
)

// CodeReply encodes or decodes a reply message on s.
//
// The transaction id and message type are coded first. A message whose type
// is not REPLY fails with ErrNotReply: this routine handles reply-shaped
// messages only. The body is then coded as a union over exactly two arms,
// MSG_ACCEPTED and MSG_DENIED, with no wildcard.
//
// On decode the caller must set msg.Reply.Accepted.Results beforehand if a
// SUCCESS reply carries results. On failure the message is partially
// filled and must be discarded.
func CodeReply(s *xdr.Stream, msg *Message) error {
	if err := s.Uint32(&msg.XID); err != nil {
		return fmt.Errorf("reply xid: %w", err)
	}
	if err := xdr.Enum(s, &msg.Type); err != nil {
		return fmt.Errorf("reply message type: %w", err)
	}
	if msg.Type != RPCReply {
		return fmt.Errorf("%w: xid=0x%x type=%d", ErrNotReply, msg.XID, msg.Type)
	}

	rb := &msg.Reply
	arms := xdr.Arms{Cases: map[int32]xdr.Proc{
		int32(RPCMsgAccepted): func(s *xdr.Stream) error { return codeAcceptedReply(s, &rb.Accepted) },
		int32(RPCMsgDenied):   func(s *xdr.Stream) error { return codeRejectedReply(s, &rb.Rejected) },
	}}
	if err := xdr.Union(s, &rb.Stat, arms, nil); err != nil {
		return fmt.Errorf("reply body: %w", err)
	}
	return nil
}

// codeAcceptedReply codes the MSG_ACCEPTED arm.
//
// The enumerated no-payload statuses are listed explicitly, and every other
// status matches the Void wildcard: a newer server may add accept statuses
// without breaking this decoder. Whether such a status is an error is left
// to ClassifyReply.
func codeAcceptedReply(s *xdr.Stream, ar *AcceptedReply) error {
	if err := ar.Verf.Code(s); err != nil {
		return fmt.Errorf("verifier: %w", err)
	}

	arms := xdr.Arms{
		Cases: map[int32]xdr.Proc{
			int32(RPCSuccess): func(s *xdr.Stream) error {
				if ar.Results == nil {
					return nil
				}
				return ar.Results(s)
			},
			int32(RPCProgMismatch): ar.Mismatch.code,
			int32(RPCGarbageArgs):  xdr.Void,
			int32(RPCSystemErr):    xdr.Void,
			int32(RPCProcUnavail):  xdr.Void,
			int32(RPCProgUnavail):  xdr.Void,
		},
		Wildcard: xdr.Void,
	}
	return xdr.Union(s, &ar.Stat, arms, nil)
}

// codeRejectedReply codes the MSG_DENIED arm.
//
// No wildcard is registered. The reject status decides which data the
// caller goes on to trust, so an unknown value is a decode failure.
func codeRejectedReply(s *xdr.Stream, rr *RejectedReply) error {
	arms := xdr.Arms{Cases: map[int32]xdr.Proc{
		int32(RPCMismatch):  rr.Mismatch.code,
		int32(RPCAuthError): func(s *xdr.Stream) error { return xdr.Enum(s, &rr.Why) },
	}}
	return xdr.Union(s, &rr.Stat, arms, nil)
}

// MarshalReply encodes a reply message into a new byte slice.
func MarshalReply(msg *Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := CodeReply(xdr.NewEncoder(&buf), msg); err != nil {
		return nil, fmt.Errorf("marshal reply: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalReply decodes a reply message from data. results, if not nil,
// decodes the payload of a SUCCESS reply.
func UnmarshalReply(data []byte, results xdr.Proc) (*Message, error) {
	msg := &Message{}
	msg.Reply.Accepted.Results = results
	if err := CodeReply(xdr.NewDecoder(bytes.NewReader(data)), msg); err != nil {
		return nil, fmt.Errorf("unmarshal reply: %w", err)
	}
	return msg, nil
}
