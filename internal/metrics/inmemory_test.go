package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestInMemoryRecorder_Counts(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncAPIRequest("ok")
	m.IncAPIRequest("ok")
	m.IncAPIRequest("http_status")
	m.ObserveAPIRequestDuration(3 * time.Millisecond)
	m.ObserveAPIRequestDuration(2 * time.Millisecond)
	m.IncRefresh("logged_in")
	m.IncAction("deposit", "success")

	s := m.Snapshot()
	if s.APIRequests["ok"] != 2 || s.APIRequests["http_status"] != 1 {
		t.Errorf("APIRequests = %v", s.APIRequests)
	}
	if s.APIDurationCount != 2 || s.APIDurationTotalNs != int64(5*time.Millisecond) {
		t.Errorf("duration = %d/%d", s.APIDurationCount, s.APIDurationTotalNs)
	}
	if s.Refreshes["logged_in"] != 1 {
		t.Errorf("Refreshes = %v", s.Refreshes)
	}
	if s.Actions["deposit:success"] != 1 {
		t.Errorf("Actions = %v", s.Actions)
	}
}

func TestInMemoryRecorder_SnapshotIsCopy(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncAction("login", "failed")

	s := m.Snapshot()
	s.Actions["login:failed"] = 99
	m.IncAction("login", "failed")

	if got := m.Snapshot().Actions["login:failed"]; got != 2 {
		t.Errorf("count = %d, want 2", got)
	}
}

func TestInMemoryRecorder_Concurrent(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncAPIRequest("ok")
			m.ObserveAPIRequestDuration(time.Millisecond)
		}()
	}
	wg.Wait()

	s := m.Snapshot()
	if s.APIRequests["ok"] != 50 || s.APIDurationCount != 50 {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestNoopRecorder(t *testing.T) {
	t.Parallel()

	var r Recorder = NewNoop()
	r.IncAPIRequest("ok")
	r.ObserveAPIRequestDuration(time.Second)
	r.IncRefresh("stale")
	r.IncAction("logout", "success")
}
