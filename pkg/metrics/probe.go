package metrics

import "time"

// ProbeMetrics records the outcome of RPC probe attempts.
//
// A nil ProbeMetrics is never passed around: callers that have none use
// NewNoopProbeMetrics.
type ProbeMetrics interface {
	// RecordAttempt records one finished attempt against program/version.
	// status is the symbolic RPC status name (e.g. "RPC_SUCCESS").
	RecordAttempt(program, version uint32, status string, duration time.Duration)

	// RecordBytes records bytes moved on the wire, direction "sent" or "received".
	RecordBytes(direction string, n int)

	// RecordThrottled records time spent waiting on the rate limiter.
	RecordThrottled(wait time.Duration)
}

type noopProbeMetrics struct{}

// NewNoopProbeMetrics returns a ProbeMetrics that discards everything.
func NewNoopProbeMetrics() ProbeMetrics {
	return noopProbeMetrics{}
}

func (noopProbeMetrics) RecordAttempt(uint32, uint32, string, time.Duration) {}
func (noopProbeMetrics) RecordBytes(string, int)                             {}
func (noopProbeMetrics) RecordThrottled(time.Duration)                       {}
