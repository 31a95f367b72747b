package chat

import (
	"sync"
	"time"

	"UniChat/logger"
)

// ===== heartbeat monitor =====

type MonitorConf struct {
	Interval   time.Duration    // expected client heartbeat cadence (e.g. 25s)
	Multiplier int              // deadline = Interval * Multiplier
	SweepEvery time.Duration    // sweep period
	Clock      func() time.Time // injectable clock (tests); nil => time.Now
}

func (c *MonitorConf) norm() {
	if c.Interval <= 0 {
		c.Interval = 25 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2
	}
	if c.SweepEvery <= 0 {
		c.SweepEvery = 10 * time.Second
	}
	if c.Clock == nil {
		c.Clock = time.Now
	}
}

// Monitor verifies per-session liveness. Heartbeat events refresh the
// session timestamp; a periodic sweep evicts anything silent past the
// deadline, treated identically to a peer disconnect. Presence staleness
// is bounded by deadline + one sweep period.
type Monitor struct {
	reg      *Registry
	conf     MonitorConf
	onExpire func(*Session)

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewMonitor(reg *Registry, conf MonitorConf, onExpire func(*Session)) *Monitor {
	conf.norm()
	return &Monitor{
		reg:      reg,
		conf:     conf,
		onExpire: onExpire,
		stopCh:   make(chan struct{}),
	}
}

// Deadline is how long a session may stay silent before eviction.
func (m *Monitor) Deadline() time.Duration {
	return time.Duration(m.conf.Multiplier) * m.conf.Interval
}

// Refresh records a heartbeat for the session.
func (m *Monitor) Refresh(sess *Session) {
	sess.Touch(m.conf.Clock())
}

func (m *Monitor) Start() {
	go m.sweeper()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) sweeper() {
	t := time.NewTicker(m.conf.SweepEvery)
	defer t.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-t.C:
			m.sweepOnce(m.conf.Clock())
		}
	}
}

// sweepOnce collects expired sessions from a consistent snapshot, then
// evicts them outside any lock.
func (m *Monitor) sweepOnce(now time.Time) {
	deadline := m.Deadline()
	var expired []*Session
	for _, s := range m.reg.Sessions() {
		if now.Sub(s.LastHeartbeat()) > deadline {
			expired = append(expired, s)
		}
	}
	for _, s := range expired {
		logger.Infof("[Monitor] heartbeat timeout user=%s session=%s last=%v",
			s.UserID, s.ID, s.LastHeartbeat())
		if m.onExpire != nil {
			m.onExpire(s)
		}
	}
}
