package rpc

// RPCVersion is the only ONC RPC protocol version (RFC 5531).
// Every call header carries it; EncodeCallHeader always writes it.
const RPCVersion = 2

// MaxAuthBytes bounds the body of a credential or verifier.
//
// Reference: RFC 5531 Section 8.2
const MaxAuthBytes = 400

// RPC Program Numbers
//
// Well-known program numbers, used as defaults by the probe. The core never
// interprets them.
const (
	// ProgramPortmap is the port mapper program number (RFC 1833)
	ProgramPortmap = 100000

	// ProgramNFS is the NFS program number (RFC 1813)
	ProgramNFS = 100003

	// ProgramMount is the Mount protocol program number (RFC 1813 Appendix I)
	ProgramMount = 100005
)

// MsgType is the direction of an RPC message.
type MsgType int32

// RPC Message Types
//
// Reference: RFC 5531 Section 9
const (
	// RPCCall indicates an RPC call message
	RPCCall MsgType = 0

	// RPCReply indicates an RPC reply message
	RPCReply MsgType = 1
)

// ReplyStat selects the arm of a reply body.
type ReplyStat int32

// RPC Reply States
const (
	// RPCMsgAccepted indicates the call was accepted (the server
	// recognized the RPC version and authenticated the caller)
	RPCMsgAccepted ReplyStat = 0

	// RPCMsgDenied indicates the call was rejected before dispatch
	RPCMsgDenied ReplyStat = 1
)

// AcceptStat reports the outcome of an accepted call.
//
// The set is open ended: a decoder accepts values it does not know and
// treats them as carrying no payload.
type AcceptStat int32

// RPC Accept Status
const (
	// RPCSuccess indicates successful execution; results follow
	RPCSuccess AcceptStat = 0

	// RPCProgUnavail indicates the program is not exported
	RPCProgUnavail AcceptStat = 1

	// RPCProgMismatch indicates the program version is not supported.
	// The supported version range follows.
	RPCProgMismatch AcceptStat = 2

	// RPCProcUnavail indicates the procedure is not implemented
	RPCProcUnavail AcceptStat = 3

	// RPCGarbageArgs indicates the server could not decode the arguments
	RPCGarbageArgs AcceptStat = 4

	// RPCSystemErr indicates a server-side error such as memory exhaustion
	RPCSystemErr AcceptStat = 5
)

// RejectStat reports why a call was denied.
//
// Unlike AcceptStat the set is closed: an unknown value fails decoding.
type RejectStat int32

// RPC Reject Status
const (
	// RPCMismatch indicates the RPC version is not 2; the supported
	// range follows
	RPCMismatch RejectStat = 0

	// RPCAuthError indicates authentication failed; an AuthStat follows
	RPCAuthError RejectStat = 1
)

// AuthFlavor identifies the authentication scheme of an OpaqueAuth.
type AuthFlavor int32

// Authentication flavors
//
// Reference: RFC 5531 Section 8.2, RFC 2203
const (
	AuthNull  AuthFlavor = 0
	AuthUnix  AuthFlavor = 1
	AuthShort AuthFlavor = 2
	AuthDH    AuthFlavor = 3
	RPCSecGSS AuthFlavor = 6
)

// AuthStat is the reason an authentication failed.
type AuthStat int32

// Authentication status
const (
	AuthOK           AuthStat = 0
	AuthBadCred      AuthStat = 1  // bad credential (seal broken)
	AuthRejectedCred AuthStat = 2  // client must begin new session
	AuthBadVerf      AuthStat = 3  // bad verifier (seal broken)
	AuthRejectedVerf AuthStat = 4  // verifier expired or replayed
	AuthTooWeak      AuthStat = 5  // rejected for security reasons
	AuthInvalidResp  AuthStat = 6  // bogus response verifier
	AuthFailed       AuthStat = 7  // reason unknown
	AuthKerbGeneric  AuthStat = 8  // kerberos generic error
	AuthTimeExpire   AuthStat = 9  // time of credential expired
	AuthTktFile      AuthStat = 10 // problem with ticket file
	AuthDecode       AuthStat = 11 // can't decode authenticator
	AuthNetAddr      AuthStat = 12 // wrong net address in ticket
	AuthGSSCredProb  AuthStat = 13 // RPCSEC_GSS: no credentials for user
	AuthGSSCtxProb   AuthStat = 14 // RPCSEC_GSS: problem with context
)
