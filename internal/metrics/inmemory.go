package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	APIRequests        map[string]uint64
	APIDurationCount   uint64
	APIDurationTotalNs int64
	Refreshes          map[string]uint64
	Actions            map[string]uint64 // keyed by "action:outcome"
}

// InMemoryRecorder stores metrics in memory for tests and the status command.
type InMemoryRecorder struct {
	apiDurationCount   uint64
	apiDurationTotalNs int64

	mu          sync.Mutex
	apiRequests map[string]uint64
	refreshes   map[string]uint64
	actions     map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		apiRequests: make(map[string]uint64),
		refreshes:   make(map[string]uint64),
		actions:     make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		APIRequests:        copyCounts(m.apiRequests),
		APIDurationCount:   atomic.LoadUint64(&m.apiDurationCount),
		APIDurationTotalNs: atomic.LoadInt64(&m.apiDurationTotalNs),
		Refreshes:          copyCounts(m.refreshes),
		Actions:            copyCounts(m.actions),
	}
}

// IncAPIRequest counts a finished API request by outcome.
func (m *InMemoryRecorder) IncAPIRequest(outcome string) {
	m.mu.Lock()
	m.apiRequests[outcome]++
	m.mu.Unlock()
}

// ObserveAPIRequestDuration records request duration.
func (m *InMemoryRecorder) ObserveAPIRequestDuration(duration time.Duration) {
	atomic.AddUint64(&m.apiDurationCount, 1)
	atomic.AddInt64(&m.apiDurationTotalNs, duration.Nanoseconds())
}

// IncRefresh counts a refresh by outcome.
func (m *InMemoryRecorder) IncRefresh(outcome string) {
	m.mu.Lock()
	m.refreshes[outcome]++
	m.mu.Unlock()
}

// IncAction counts an action handler run by outcome.
func (m *InMemoryRecorder) IncAction(action, outcome string) {
	m.mu.Lock()
	m.actions[action+":"+outcome]++
	m.mu.Unlock()
}

func copyCounts(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
