package chat

import (
	"testing"
	"time"
)

// fakeClock drives the monitor without waiting on wall time.
type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time          { return f.now }
func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func monitorConf(fc *fakeClock) MonitorConf {
	return MonitorConf{
		Interval:   25 * time.Second,
		Multiplier: 2,
		SweepEvery: 10 * time.Second,
		Clock:      fc.Now,
	}
}

func TestSweepEvictsSilentSession(t *testing.T) {
	fc := newFakeClock()
	r := NewRegistry(RegistryConf{Clock: fc.Now})

	var evicted []*Session
	m := NewMonitor(r, monitorConf(fc), func(s *Session) {
		if r.Release(s) {
			evicted = append(evicted, s)
		}
		s.Close(1000, "heartbeat timeout")
	})

	sess := newSession("s-a", "a", "A", "a@test.io", nil, 8, fc.Now())
	r.Register(sess)
	m.Refresh(sess)

	// silent for 3x the deadline
	fc.Advance(3 * m.Deadline())
	m.sweepOnce(fc.Now())

	if len(evicted) != 1 || evicted[0] != sess {
		t.Fatalf("expected one eviction, got %d", len(evicted))
	}
	if len(r.Snapshot()) != 0 {
		t.Fatal("snapshot must exclude the evicted session")
	}
	if sess.State() != StateClosed {
		t.Fatalf("evicted session should be closed, state=%v", sess.State())
	}
}

func TestHeartbeatDefersEviction(t *testing.T) {
	fc := newFakeClock()
	r := NewRegistry(RegistryConf{Clock: fc.Now})

	var evictions int
	m := NewMonitor(r, monitorConf(fc), func(s *Session) {
		r.Release(s)
		evictions++
	})

	sess := newSession("s-a", "a", "A", "a@test.io", nil, 8, fc.Now())
	r.Register(sess)

	// keep heartbeating just inside the deadline
	for i := 0; i < 5; i++ {
		fc.Advance(m.Deadline() - time.Second)
		m.Refresh(sess)
		m.sweepOnce(fc.Now())
	}
	if evictions != 0 {
		t.Fatalf("live session evicted %d times", evictions)
	}

	// then go silent past the deadline
	fc.Advance(m.Deadline() + time.Second)
	m.sweepOnce(fc.Now())
	if evictions != 1 {
		t.Fatalf("expected eviction after silence, got %d", evictions)
	}
}

func TestSweepAtDeadlineBoundary(t *testing.T) {
	fc := newFakeClock()
	r := NewRegistry(RegistryConf{Clock: fc.Now})

	evictions := 0
	m := NewMonitor(r, monitorConf(fc), func(s *Session) { evictions++ })

	sess := newSession("s-a", "a", "A", "a@test.io", nil, 8, fc.Now())
	r.Register(sess)

	// exactly at the deadline is not yet expired
	fc.Advance(m.Deadline())
	m.sweepOnce(fc.Now())
	if evictions != 0 {
		t.Fatal("session at exactly the deadline should survive")
	}
}
