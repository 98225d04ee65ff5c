package rpc

import "fmt"

// String returns the clnt_sperrno message for the status.
func (s Status) String() string {
	switch s {
	case StatSuccess:
		return "RPC: Success"
	case StatCantEncodeArgs:
		return "RPC: Can't encode arguments"
	case StatCantDecodeRes:
		return "RPC: Can't decode result"
	case StatCantSend:
		return "RPC: Unable to send"
	case StatCantRecv:
		return "RPC: Unable to receive"
	case StatTimedOut:
		return "RPC: Timed out"
	case StatVersMismatch:
		return "RPC: Incompatible versions of RPC"
	case StatAuthError:
		return "RPC: Authentication error"
	case StatProgUnavail:
		return "RPC: Program unavailable"
	case StatProgVersMismatch:
		return "RPC: Program/version mismatch"
	case StatProcUnavail:
		return "RPC: Procedure unavailable"
	case StatCantDecodeArgs:
		return "RPC: Server can't decode arguments"
	case StatSystemError:
		return "RPC: Remote system error"
	case StatUnknownHost:
		return "RPC: Unknown host"
	case StatPmapFailure:
		return "RPC: Port mapper failure"
	case StatProgNotRegistered:
		return "RPC: Program not registered"
	case StatFailed:
		return "RPC: Failed (unspecified error)"
	case StatUnknownProto:
		return "RPC: Unknown protocol"
	default:
		return fmt.Sprintf("RPC: (unknown error code %d)", int32(s))
	}
}

// Name returns the symbolic name of the status, suitable for use as a
// metric label. Unknown codes are returned as "UNKNOWN_<code>".
func (s Status) Name() string {
	switch s {
	case StatSuccess:
		return "RPC_SUCCESS"
	case StatCantEncodeArgs:
		return "RPC_CANTENCODEARGS"
	case StatCantDecodeRes:
		return "RPC_CANTDECODERES"
	case StatCantSend:
		return "RPC_CANTSEND"
	case StatCantRecv:
		return "RPC_CANTRECV"
	case StatTimedOut:
		return "RPC_TIMEDOUT"
	case StatVersMismatch:
		return "RPC_VERSMISMATCH"
	case StatAuthError:
		return "RPC_AUTHERROR"
	case StatProgUnavail:
		return "RPC_PROGUNAVAIL"
	case StatProgVersMismatch:
		return "RPC_PROGVERSMISMATCH"
	case StatProcUnavail:
		return "RPC_PROCUNAVAIL"
	case StatCantDecodeArgs:
		return "RPC_CANTDECODEARGS"
	case StatSystemError:
		return "RPC_SYSTEMERROR"
	case StatUnknownHost:
		return "RPC_UNKNOWNHOST"
	case StatPmapFailure:
		return "RPC_PMAPFAILURE"
	case StatProgNotRegistered:
		return "RPC_PROGNOTREGISTERED"
	case StatFailed:
		return "RPC_FAILED"
	case StatUnknownProto:
		return "RPC_UNKNOWNPROTO"
	default:
		return fmt.Sprintf("UNKNOWN_%d", int32(s))
	}
}

// String returns the auth_errmsg text for the reason.
func (a AuthStat) String() string {
	switch a {
	case AuthOK:
		return "Authentication OK"
	case AuthBadCred:
		return "Invalid client credential"
	case AuthRejectedCred:
		return "Server rejected credential"
	case AuthBadVerf:
		return "Invalid client verifier"
	case AuthRejectedVerf:
		return "Server rejected verifier"
	case AuthTooWeak:
		return "Client credential too weak"
	case AuthInvalidResp:
		return "Invalid server verifier"
	case AuthFailed:
		return "Failed (unspecified error)"
	case AuthKerbGeneric:
		return "Kerberos generic error"
	case AuthTimeExpire:
		return "Time of credential expired"
	case AuthTktFile:
		return "Problem with ticket file"
	case AuthDecode:
		return "Can't decode authenticator"
	case AuthNetAddr:
		return "Wrong net address in ticket"
	case AuthGSSCredProb:
		return "GSS credential problem"
	case AuthGSSCtxProb:
		return "GSS context problem"
	default:
		return fmt.Sprintf("unknown authentication error - %d", int32(a))
	}
}

func (t MsgType) String() string {
	switch t {
	case RPCCall:
		return "CALL"
	case RPCReply:
		return "REPLY"
	default:
		return fmt.Sprintf("MsgType(%d)", int32(t))
	}
}

func (s ReplyStat) String() string {
	switch s {
	case RPCMsgAccepted:
		return "MSG_ACCEPTED"
	case RPCMsgDenied:
		return "MSG_DENIED"
	default:
		return fmt.Sprintf("ReplyStat(%d)", int32(s))
	}
}

func (s AcceptStat) String() string {
	switch s {
	case RPCSuccess:
		return "SUCCESS"
	case RPCProgUnavail:
		return "PROG_UNAVAIL"
	case RPCProgMismatch:
		return "PROG_MISMATCH"
	case RPCProcUnavail:
		return "PROC_UNAVAIL"
	case RPCGarbageArgs:
		return "GARBAGE_ARGS"
	case RPCSystemErr:
		return "SYSTEM_ERR"
	default:
		return fmt.Sprintf("AcceptStat(%d)", int32(s))
	}
}

func (s RejectStat) String() string {
	switch s {
	case RPCMismatch:
		return "RPC_MISMATCH"
	case RPCAuthError:
		return "AUTH_ERROR"
	default:
		return fmt.Sprintf("RejectStat(%d)", int32(s))
	}
}
