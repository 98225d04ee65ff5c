package rpc

// ClassifyReply maps a decoded reply to its canonical Error.
//
// The function is total and performs no I/O. An accepted SUCCESS returns
// immediately. Other replies are mapped by status, and the data belonging to
// the resulting status (version range or auth reason) is copied from the
// union arm that carried it.
//
// Combinations that decoding should already have excluded (an unknown
// accept status, an unknown reject status, an unknown reply stat) classify
// as StatFailed with the raw values kept in Diag.
func ClassifyReply(msg *Message) Error {
	var e Error

	rb := &msg.Reply
	switch rb.Stat {
	case RPCMsgAccepted:
		if rb.Accepted.Stat == RPCSuccess {
			e.Status = StatSuccess
			return e
		}
		classifyAccepted(rb.Accepted.Stat, &e)

	case RPCMsgDenied:
		classifyRejected(rb.Rejected.Stat, &e)

	default:
		e.Status = StatFailed
		e.Diag = DiagPair{S1: int32(rb.Stat)}
	}

	switch e.Status {
	case StatVersMismatch:
		e.Vers = rb.Rejected.Mismatch
	case StatAuthError:
		e.Why = rb.Rejected.Why
	case StatProgVersMismatch:
		e.Vers = rb.Accepted.Mismatch
	}

	return e
}

func classifyAccepted(stat AcceptStat, e *Error) {
	switch stat {
	case RPCProgUnavail:
		e.Status = StatProgUnavail
	case RPCProgMismatch:
		e.Status = StatProgVersMismatch
	case RPCProcUnavail:
		e.Status = StatProcUnavail
	case RPCGarbageArgs:
		e.Status = StatCantDecodeArgs
	case RPCSystemErr:
		e.Status = StatSystemError
	case RPCSuccess:
		e.Status = StatSuccess
	default:
		// decodes fine, but nothing here knows what it means
		e.Status = StatFailed
		e.Diag = DiagPair{S1: int32(RPCMsgAccepted), S2: int32(stat)}
	}
}

func classifyRejected(stat RejectStat, e *Error) {
	switch stat {
	case RPCMismatch:
		e.Status = StatVersMismatch
	case RPCAuthError:
		e.Status = StatAuthError
	default:
		e.Status = StatFailed
		e.Diag = DiagPair{S1: int32(RPCMsgDenied), S2: int32(stat)}
	}
}
