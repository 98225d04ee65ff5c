package rpc

import (
	"github.com/truenas/ntirpc/internal/protocol/xdr"
)

// Message is an RPC message: a transaction id plus a body selected by Type.
//
// Only the body matching Type is meaningful. The constructors below set the
// discriminants and the payload they select together; code building a
// Message by hand must do the same.
//
// Wire Format:
//   - XID:  4 bytes (transaction identifier, echoed in the reply)
//   - Type: 4 bytes (0=CALL, 1=REPLY)
//   - [CALL: CallBody] / [REPLY: ReplyBody]
//
// Reference: RFC 5531 Section 9
type Message struct {
	// XID is assigned by the caller and never validated here.
	XID uint32

	Type MsgType

	Call  CallBody
	Reply ReplyBody
}

// CallBody is the body of a CALL message.
//
// Wire Format:
//   - RPCVers: 4 bytes (always 2)
//   - Prog, Vers, Proc: 4 bytes each
//   - Cred, Verf: OpaqueAuth
//   - [procedure arguments, coded by Args]
type CallBody struct {
	RPCVers uint32
	Prog    uint32
	Vers    uint32
	Proc    uint32
	Cred    OpaqueAuth
	Verf    OpaqueAuth

	// Args codes the procedure arguments. nil means void.
	Args xdr.Proc
}

// ReplyBody is the body of a REPLY message: a union on Stat.
type ReplyBody struct {
	Stat     ReplyStat
	Accepted AcceptedReply // Stat == RPCMsgAccepted
	Rejected RejectedReply // Stat == RPCMsgDenied
}

// AcceptedReply is the MSG_ACCEPTED arm of a reply.
//
// Wire Format:
//   - Verf: OpaqueAuth
//   - Stat: 4 bytes
//   - [SUCCESS: results coded by Results]
//   - [PROG_MISMATCH: low, high]
//   - [anything else: nothing]
type AcceptedReply struct {
	Verf OpaqueAuth
	Stat AcceptStat

	// Mismatch holds the supported program versions when Stat is
	// RPCProgMismatch.
	Mismatch VersionRange

	// Results codes the procedure results when Stat is RPCSuccess.
	// nil means void. On decode it must write into the caller's destination.
	Results xdr.Proc
}

// RejectedReply is the MSG_DENIED arm of a reply.
type RejectedReply struct {
	Stat RejectStat

	// Mismatch holds the supported RPC versions when Stat is RPCMismatch.
	Mismatch VersionRange

	// Why is the authentication failure when Stat is RPCAuthError.
	Why AuthStat
}

// VersionRange is the lowest and highest version a server supports.
type VersionRange struct {
	Low  uint32
	High uint32
}

func (v *VersionRange) code(s *xdr.Stream) error {
	if err := s.Uint32(&v.Low); err != nil {
		return err
	}
	return s.Uint32(&v.High)
}

// ============================================================================
// Constructors
// ============================================================================

// NewCallMessage builds a CALL message with the fixed protocol version.
// A nil args Proc encodes no arguments.
func NewCallMessage(xid, prog, vers, proc uint32, cred, verf OpaqueAuth, args xdr.Proc) *Message {
	return &Message{
		XID:  xid,
		Type: RPCCall,
		Call: CallBody{
			RPCVers: RPCVersion,
			Prog:    prog,
			Vers:    vers,
			Proc:    proc,
			Cred:    cred,
			Verf:    verf,
			Args:    args,
		},
	}
}

func newAcceptedReply(xid uint32, verf OpaqueAuth, stat AcceptStat) *Message {
	return &Message{
		XID:  xid,
		Type: RPCReply,
		Reply: ReplyBody{
			Stat:     RPCMsgAccepted,
			Accepted: AcceptedReply{Verf: verf, Stat: stat},
		},
	}
}

// NewSuccessReply builds an accepted SUCCESS reply whose results are coded
// by results (nil for void).
func NewSuccessReply(xid uint32, verf OpaqueAuth, results xdr.Proc) *Message {
	msg := newAcceptedReply(xid, verf, RPCSuccess)
	msg.Reply.Accepted.Results = results
	return msg
}

// NewProgMismatchReply builds an accepted PROG_MISMATCH reply.
func NewProgMismatchReply(xid uint32, verf OpaqueAuth, low, high uint32) *Message {
	msg := newAcceptedReply(xid, verf, RPCProgMismatch)
	msg.Reply.Accepted.Mismatch = VersionRange{Low: low, High: high}
	return msg
}

// NewAcceptErrorReply builds an accepted reply carrying no payload, such as
// PROG_UNAVAIL, PROC_UNAVAIL, GARBAGE_ARGS or SYSTEM_ERR.
func NewAcceptErrorReply(xid uint32, verf OpaqueAuth, stat AcceptStat) *Message {
	return newAcceptedReply(xid, verf, stat)
}

// NewRPCMismatchReply builds a denied RPC_MISMATCH reply.
func NewRPCMismatchReply(xid, low, high uint32) *Message {
	return &Message{
		XID:  xid,
		Type: RPCReply,
		Reply: ReplyBody{
			Stat: RPCMsgDenied,
			Rejected: RejectedReply{
				Stat:     RPCMismatch,
				Mismatch: VersionRange{Low: low, High: high},
			},
		},
	}
}

// NewAuthErrorReply builds a denied AUTH_ERROR reply.
func NewAuthErrorReply(xid uint32, why AuthStat) *Message {
	return &Message{
		XID:  xid,
		Type: RPCReply,
		Reply: ReplyBody{
			Stat:     RPCMsgDenied,
			Rejected: RejectedReply{Stat: RPCAuthError, Why: why},
		},
	}
}
