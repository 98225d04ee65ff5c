// Package probe calls a single procedure (by default the NULL procedure) on
// an ONC RPC server over TCP and reports the classified outcome.
//
// Each attempt opens its own connection, sends one record-marked CALL and
// reads one reply record. Protocol outcomes come from rpc.ClassifyReply;
// failures to move or parse bytes are mapped to the transport statuses
// (RPC_CANTSEND, RPC_CANTRECV, RPC_TIMEDOUT, RPC_CANTDECODERES).
package probe

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/truenas/ntirpc/internal/logger"
	"github.com/truenas/ntirpc/internal/protocol/rpc"
	"github.com/truenas/ntirpc/internal/protocol/rpc/record"
	"github.com/truenas/ntirpc/internal/ratelimiter"
	"github.com/truenas/ntirpc/pkg/config"
	"github.com/truenas/ntirpc/pkg/metrics"
)

// ErrXIDMismatch is the cause attached to a result whose reply answered a
// different call.
var ErrXIDMismatch = errors.New("probe: reply xid does not match call")

// Result is the outcome of one attempt.
type Result struct {
	// Session identifies the Prober that made the attempt.
	Session uuid.UUID

	// Attempt is the 1-based position of the attempt within a Run.
	Attempt int

	XID uint32

	// Err is the classified outcome. Err.Status is StatSuccess on success.
	Err rpc.Error

	// Latency covers dial through reply decode.
	Latency time.Duration
}

// OK reports whether the attempt succeeded.
func (r *Result) OK() bool {
	return r.Err.Status == rpc.StatSuccess
}

func (r *Result) String() string {
	if r.OK() {
		return fmt.Sprintf("xid=0x%08x %s (%v)", r.XID, r.Err.Status, r.Latency)
	}
	return fmt.Sprintf("xid=0x%08x %s (%v)", r.XID, r.Err.Error(), r.Latency)
}

// Prober runs attempts against one configured endpoint.
//
// A Prober is safe for concurrent use. Attempts made from several
// goroutines draw distinct XIDs and share the rate limiter.
type Prober struct {
	cfg     config.ProbeConfig
	metrics metrics.ProbeMetrics
	limiter *ratelimiter.RateLimiter
	session uuid.UUID
	dialer  net.Dialer

	mu      sync.Mutex
	nextXID uint32
}

// New creates a Prober. A nil m disables metrics.
//
// When cfg.StartXID is zero the first XID is taken from the session id, so
// that concurrent probers against one server are unlikely to collide.
func New(cfg config.ProbeConfig, m metrics.ProbeMetrics) *Prober {
	if m == nil {
		m = metrics.NewNoopProbeMetrics()
	}

	session := uuid.New()
	xid := cfg.StartXID
	if xid == 0 {
		xid = binary.BigEndian.Uint32(session[:4]) | 1
	}

	return &Prober{
		cfg:     cfg,
		metrics: m,
		limiter: ratelimiter.New(cfg.Rate, cfg.Burst),
		session: session,
		nextXID: xid,
	}
}

// Session returns the id attached to every Result from this Prober.
func (p *Prober) Session() uuid.UUID {
	return p.session
}

func (p *Prober) allocXID() uint32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	xid := p.nextXID
	p.nextXID++
	return xid
}

// Run makes cfg.Attempts attempts paced by the rate limiter and returns
// every Result. It stops early, returning the results so far and the
// context error, when ctx is done.
func (p *Prober) Run(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, 0, p.cfg.Attempts)

	for i := 1; i <= int(p.cfg.Attempts); i++ {
		if d := p.limiter.Delay(); d > 0 {
			logger.Debug("Probe %s: attempt %d paced for %v", p.session, i, d)
		}
		waitStart := time.Now()
		if err := p.limiter.Wait(ctx); err != nil {
			return results, err
		}
		if waited := time.Since(waitStart); waited > time.Millisecond {
			p.metrics.RecordThrottled(waited)
		}

		res, _ := p.Ping(ctx)
		res.Attempt = i
		results = append(results, res)

		if ctx.Err() != nil {
			return results, ctx.Err()
		}
	}

	return results, nil
}

// Ping makes one attempt. The returned error is res.Err.Err(), nil on
// success; the Result is always non-nil.
func (p *Prober) Ping(ctx context.Context) (*Result, error) {
	res := &Result{Session: p.session, XID: p.allocXID()}

	start := time.Now()
	res.Err = p.call(ctx, res.XID)
	res.Latency = time.Since(start)

	p.metrics.RecordAttempt(p.cfg.Program, p.cfg.Version, res.Err.Status.Name(), res.Latency)

	if res.OK() {
		logger.Debug("Probe %s: %s prog=%d vers=%d proc=%d xid=0x%x ok in %v",
			p.session, p.cfg.Address, p.cfg.Program, p.cfg.Version, p.cfg.Procedure, res.XID, res.Latency)
	} else {
		logger.Debug("Probe %s: %s prog=%d vers=%d proc=%d xid=0x%x failed: %v",
			p.session, p.cfg.Address, p.cfg.Program, p.cfg.Version, p.cfg.Procedure, res.XID, &res.Err)
	}

	return res, res.Err.Err()
}

func (p *Prober) call(ctx context.Context, xid uint32) rpc.Error {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	conn, err := p.dialer.DialContext(ctx, "tcp", p.cfg.Address)
	if err != nil {
		return *rpc.TransportError(transportStatus(err, rpc.StatCantSend), err)
	}
	defer func() { _ = conn.Close() }()

	// Unblock reads and writes as soon as ctx ends, whether by timeout or
	// by the caller cancelling.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	msg := rpc.NewCallMessage(xid, p.cfg.Program, p.cfg.Version, p.cfg.Procedure,
		rpc.NullAuth(), rpc.NullAuth(), nil)
	data, err := rpc.MarshalCall(msg)
	if err != nil {
		return *rpc.TransportError(rpc.StatCantEncodeArgs, err)
	}

	if err := record.NewWriter(conn).WriteRecord(data); err != nil {
		return *rpc.TransportError(transportStatus(err, rpc.StatCantSend), err)
	}
	p.metrics.RecordBytes("sent", len(data))

	reply, err := record.NewReader(conn, p.cfg.MaxRecordSize).ReadRecord()
	if err != nil {
		return *rpc.TransportError(transportStatus(err, rpc.StatCantRecv), err)
	}
	p.metrics.RecordBytes("received", len(reply))

	// Results are not decoded: the probe only needs the reply header.
	decoded, err := rpc.UnmarshalReply(reply, nil)
	if err != nil {
		return *rpc.TransportError(rpc.StatCantDecodeRes, err)
	}

	if decoded.XID != xid {
		logger.Warn("Probe %s: reply xid 0x%x for call 0x%x", p.session, decoded.XID, xid)
		return *rpc.TransportError(rpc.StatCantDecodeRes,
			fmt.Errorf("%w: got 0x%x, want 0x%x", ErrXIDMismatch, decoded.XID, xid))
	}

	return rpc.ClassifyReply(decoded)
}

// transportStatus maps an I/O failure to RPC_TIMEDOUT when it was caused by
// a deadline, and to fallback otherwise.
func transportStatus(err error, fallback rpc.Status) rpc.Status {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return rpc.StatTimedOut
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return rpc.StatTimedOut
	}

	return fallback
}
