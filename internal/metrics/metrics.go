// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// API client metrics
	IncAPIRequest(outcome string) // outcome: "ok", "network", "http_status", "schema"
	ObserveAPIRequestDuration(duration time.Duration)

	// Dashboard metrics
	IncRefresh(outcome string)        // outcome: "logged_in", "logged_out", "stale"
	IncAction(action, outcome string) // outcome: "success", "failed", "rejected"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
