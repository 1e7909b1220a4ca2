package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncAPIRequest is a no-op.
func (n *NoopRecorder) IncAPIRequest(outcome string) {}

// ObserveAPIRequestDuration is a no-op.
func (n *NoopRecorder) ObserveAPIRequestDuration(duration time.Duration) {}

// IncRefresh is a no-op.
func (n *NoopRecorder) IncRefresh(outcome string) {}

// IncAction is a no-op.
func (n *NoopRecorder) IncAction(action, outcome string) {}
