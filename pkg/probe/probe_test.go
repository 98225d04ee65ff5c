package probe

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/truenas/ntirpc/internal/protocol/rpc"
	"github.com/truenas/ntirpc/internal/protocol/rpc/record"
	"github.com/truenas/ntirpc/pkg/config"
)

// ============================================================================
// Test Helper Functions
// ============================================================================

// replyFunc builds the raw reply record for a decoded call. A nil return
// closes the connection without answering.
type replyFunc func(call *rpc.Message) []byte

func marshal(t *testing.T, msg *rpc.Message) []byte {
	t.Helper()
	data, err := rpc.MarshalReply(msg)
	require.NoError(t, err)
	return data
}

// startServer accepts connections on a loopback port and answers each
// record with respond. It returns the address and a channel of the calls
// it received.
func startServer(t *testing.T, respond replyFunc) (string, <-chan *rpc.Message) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	calls := make(chan *rpc.Message, 16)
	var wg sync.WaitGroup
	t.Cleanup(func() {
		_ = ln.Close()
		wg.Wait()
	})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer conn.Close()

				data, err := record.NewReader(conn, 0).ReadRecord()
				if err != nil {
					return
				}
				call, _, err := rpc.ReadCall(data)
				if err != nil {
					return
				}
				calls <- call

				reply := respond(call)
				if reply == nil {
					return
				}
				_ = record.NewWriter(conn).WriteRecord(reply)
			}()
		}
	}()

	return ln.Addr().String(), calls
}

func probeConfig(addr string) config.ProbeConfig {
	cfg := config.GetDefaultConfig().Probe
	cfg.Address = addr
	cfg.Timeout = 2 * time.Second
	cfg.Rate = 0
	cfg.StartXID = 0x1000
	return cfg
}

type recordedAttempt struct {
	program, version uint32
	status           string
}

type fakeMetrics struct {
	mu        sync.Mutex
	attempts  []recordedAttempt
	bytes     map[string]int
	throttled time.Duration
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{bytes: make(map[string]int)}
}

func (m *fakeMetrics) RecordAttempt(program, version uint32, status string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, recordedAttempt{program, version, status})
}

func (m *fakeMetrics) RecordBytes(direction string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bytes[direction] += n
}

func (m *fakeMetrics) RecordThrottled(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.throttled += d
}

// ============================================================================
// Ping Tests
// ============================================================================

func TestPing(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		addr, calls := startServer(t, func(call *rpc.Message) []byte {
			return marshal(t, rpc.NewSuccessReply(call.XID, rpc.NullAuth(), nil))
		})
		m := newFakeMetrics()
		p := New(probeConfig(addr), m)

		res, err := p.Ping(context.Background())
		require.NoError(t, err)
		assert.True(t, res.OK())
		assert.Equal(t, uint32(0x1000), res.XID)
		assert.Equal(t, p.Session(), res.Session)
		assert.Positive(t, res.Latency)

		call := <-calls
		assert.Equal(t, uint32(0x1000), call.XID)
		assert.Equal(t, uint32(rpc.ProgramNFS), call.Call.Prog)
		assert.Equal(t, uint32(3), call.Call.Vers)
		assert.Equal(t, uint32(0), call.Call.Proc)
		assert.Equal(t, rpc.AuthNull, call.Call.Cred.Flavor)

		require.Len(t, m.attempts, 1)
		assert.Equal(t, recordedAttempt{rpc.ProgramNFS, 3, "RPC_SUCCESS"}, m.attempts[0])
		assert.Equal(t, 40, m.bytes["sent"])
		assert.Equal(t, 24, m.bytes["received"])
	})

	t.Run("ProgramVersionMismatch", func(t *testing.T) {
		addr, _ := startServer(t, func(call *rpc.Message) []byte {
			return marshal(t, rpc.NewProgMismatchReply(call.XID, rpc.NullAuth(), 2, 4))
		})

		res, err := New(probeConfig(addr), nil).Ping(context.Background())
		require.Error(t, err)
		assert.Equal(t, rpc.StatProgVersMismatch, res.Err.Status)
		assert.Equal(t, rpc.VersionRange{Low: 2, High: 4}, res.Err.Vers)

		var rpcErr *rpc.Error
		require.ErrorAs(t, err, &rpcErr)
		assert.Equal(t, rpc.StatProgVersMismatch, rpcErr.Status)
	})

	t.Run("AuthError", func(t *testing.T) {
		addr, _ := startServer(t, func(call *rpc.Message) []byte {
			return marshal(t, rpc.NewAuthErrorReply(call.XID, rpc.AuthTooWeak))
		})

		res, _ := New(probeConfig(addr), nil).Ping(context.Background())
		assert.Equal(t, rpc.StatAuthError, res.Err.Status)
		assert.Equal(t, rpc.AuthTooWeak, res.Err.Why)
	})

	t.Run("UnknownAcceptStatus", func(t *testing.T) {
		addr, _ := startServer(t, func(call *rpc.Message) []byte {
			return marshal(t, rpc.NewAcceptErrorReply(call.XID, rpc.NullAuth(), rpc.AcceptStat(42)))
		})

		res, _ := New(probeConfig(addr), nil).Ping(context.Background())
		assert.Equal(t, rpc.StatFailed, res.Err.Status)
		assert.Equal(t, rpc.DiagPair{S1: 0, S2: 42}, res.Err.Diag)
	})

	t.Run("XIDMismatch", func(t *testing.T) {
		addr, _ := startServer(t, func(call *rpc.Message) []byte {
			return marshal(t, rpc.NewSuccessReply(call.XID+1, rpc.NullAuth(), nil))
		})

		res, err := New(probeConfig(addr), nil).Ping(context.Background())
		assert.Equal(t, rpc.StatCantDecodeRes, res.Err.Status)
		assert.ErrorIs(t, err, ErrXIDMismatch)
	})

	t.Run("GarbageReply", func(t *testing.T) {
		addr, _ := startServer(t, func(call *rpc.Message) []byte {
			return []byte{0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 9}
		})

		res, _ := New(probeConfig(addr), nil).Ping(context.Background())
		assert.Equal(t, rpc.StatCantDecodeRes, res.Err.Status)
	})

	t.Run("ConnectionClosedWithoutReply", func(t *testing.T) {
		addr, _ := startServer(t, func(call *rpc.Message) []byte { return nil })

		res, _ := New(probeConfig(addr), nil).Ping(context.Background())
		assert.Equal(t, rpc.StatCantRecv, res.Err.Status)
	})

	t.Run("ReplyTooLarge", func(t *testing.T) {
		addr, _ := startServer(t, func(call *rpc.Message) []byte {
			return make([]byte, 4096)
		})
		cfg := probeConfig(addr)
		cfg.MaxRecordSize = 1024

		res, err := New(cfg, nil).Ping(context.Background())
		assert.Equal(t, rpc.StatCantRecv, res.Err.Status)
		assert.ErrorIs(t, err, record.ErrRecordTooLarge)
	})

	t.Run("TimesOut", func(t *testing.T) {
		release := make(chan struct{})
		addr, _ := startServer(t, func(call *rpc.Message) []byte {
			<-release
			return nil
		})
		// runs before the server cleanup waits on its handlers
		t.Cleanup(func() { close(release) })
		cfg := probeConfig(addr)
		cfg.Timeout = 100 * time.Millisecond

		res, _ := New(cfg, nil).Ping(context.Background())
		assert.Equal(t, rpc.StatTimedOut, res.Err.Status)
	})

	t.Run("ConnectionRefused", func(t *testing.T) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := ln.Addr().String()
		require.NoError(t, ln.Close())

		res, _ := New(probeConfig(addr), nil).Ping(context.Background())
		assert.Equal(t, rpc.StatCantSend, res.Err.Status)
	})
}

// ============================================================================
// Run Tests
// ============================================================================

func TestRun(t *testing.T) {
	t.Run("AttemptsUseConsecutiveXIDs", func(t *testing.T) {
		addr, calls := startServer(t, func(call *rpc.Message) []byte {
			return marshal(t, rpc.NewSuccessReply(call.XID, rpc.NullAuth(), nil))
		})
		cfg := probeConfig(addr)
		cfg.Attempts = 3
		m := newFakeMetrics()

		results, err := New(cfg, m).Run(context.Background())
		require.NoError(t, err)
		require.Len(t, results, 3)

		for i, res := range results {
			assert.Equal(t, i+1, res.Attempt)
			assert.Equal(t, uint32(0x1000+i), res.XID)
			assert.True(t, res.OK(), res.String())
			assert.Equal(t, uint32(0x1000+i), (<-calls).XID)
		}
		assert.Len(t, m.attempts, 3)
	})

	t.Run("PacesAttemptsBeyondBurst", func(t *testing.T) {
		addr, _ := startServer(t, func(call *rpc.Message) []byte {
			return marshal(t, rpc.NewSuccessReply(call.XID, rpc.NullAuth(), nil))
		})
		cfg := probeConfig(addr)
		cfg.Attempts = 2
		cfg.Rate = 5
		cfg.Burst = 1
		m := newFakeMetrics()

		start := time.Now()
		results, err := New(cfg, m).Run(context.Background())
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
		assert.Greater(t, m.throttled, 100*time.Millisecond)
	})

	t.Run("StopsWhenCancelled", func(t *testing.T) {
		addr, _ := startServer(t, func(call *rpc.Message) []byte {
			return marshal(t, rpc.NewSuccessReply(call.XID, rpc.NullAuth(), nil))
		})
		cfg := probeConfig(addr)
		cfg.Attempts = 100
		cfg.Rate = 1
		cfg.Burst = 1

		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()

		results, err := New(cfg, nil).Run(ctx)
		require.Error(t, err)
		assert.Less(t, len(results), 100)
	})
}

func TestNewDerivesStartXIDFromSession(t *testing.T) {
	cfg := probeConfig("127.0.0.1:1")
	cfg.StartXID = 0

	p := New(cfg, nil)
	assert.NotZero(t, p.nextXID)
	assert.NotEqual(t, p.Session(), New(cfg, nil).Session())
}
