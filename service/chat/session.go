package chat

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	errs "UniChat/tools/errs"

	"github.com/gorilla/websocket"
)

// ===== session state machine =====
//
// Connecting -> Active -> Closing -> Closed. No transitions out of Closed.

type State int32

const (
	StateConnecting State = iota
	StateActive
	StateClosing
	StateClosed
)

const (
	writeWait        = 5 * time.Second
	defaultQueueSize = 64
)

// Session is the server-side record of one live connection bound to an
// authenticated identity. Immutable after registration except for
// lastHeartbeatAt (heartbeat monitor) and the state word.
type Session struct {
	ID       string // snowflake session id
	UserID   string
	Name     string
	Email    string
	ClientID string // client-generated idempotency scope, set on first frame

	Conn      *websocket.Conn
	Remote    net.Addr
	CreatedAt time.Time

	send      chan []byte
	done      chan struct{}
	doneOnce  sync.Once
	closeOnce sync.Once
	state     int32

	mu              sync.Mutex
	lastHeartbeatAt time.Time
	clientIDOnce    sync.Once
}

func newSession(id, userID, name, email string, conn *websocket.Conn, queueSize int, now time.Time) *Session {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	s := &Session{
		ID:              id,
		UserID:          userID,
		Name:            name,
		Email:           email,
		Conn:            conn,
		CreatedAt:       now,
		send:            make(chan []byte, queueSize),
		done:            make(chan struct{}),
		state:           int32(StateConnecting),
		lastHeartbeatAt: now,
	}
	if conn != nil {
		if ra := conn.RemoteAddr(); ra != nil {
			s.Remote = ra
		}
	}
	return s
}

func (s *Session) State() State {
	return State(atomic.LoadInt32(&s.state))
}

func (s *Session) transition(from, to State) bool {
	return atomic.CompareAndSwapInt32(&s.state, int32(from), int32(to))
}

// Touch refreshes the heartbeat timestamp.
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	s.lastHeartbeatAt = now
	s.mu.Unlock()
}

func (s *Session) LastHeartbeat() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeartbeatAt
}

// BindClientID records the client's idempotency key; first writer wins.
func (s *Session) BindClientID(id string) {
	if id == "" {
		return
	}
	s.clientIDOnce.Do(func() { s.ClientID = id })
}

// TrySend enqueues one outbound frame without blocking. A full queue means
// a slow or dead peer; the caller treats that as grounds for eviction.
func (s *Session) TrySend(payload []byte) error {
	if s.State() >= StateClosing {
		return errs.ErrSessionReplaced.WrapMsg("session closing", "user", s.UserID)
	}
	select {
	case s.send <- payload:
		return nil
	case <-s.done:
		return errs.ErrSessionReplaced.WrapMsg("session closed", "user", s.UserID)
	default:
		return errs.ErrSessionTimeout.WrapMsg("send queue full", "user", s.UserID)
	}
}

// writeLoop owns all data writes to the connection. One per session,
// started at registration; exits when the session closes or a write fails.
func (s *Session) writeLoop() {
	for {
		select {
		case payload := <-s.send:
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				s.Close(websocket.CloseAbnormalClosure, "write failed")
				return
			}
		case <-s.done:
			return
		}
	}
}

// beginClose flips the session to Closing and stops further enqueues.
// No I/O, safe to call under the registry lock; the socket teardown in
// Close may follow later from another goroutine.
func (s *Session) beginClose() {
	if !s.transition(StateActive, StateClosing) {
		s.transition(StateConnecting, StateClosing)
	}
	s.doneOnce.Do(func() { close(s.done) })
}

// Close releases the connection handle exactly once: Closing -> Closed.
// Safe from any goroutine; control frames may interleave with the writer.
func (s *Session) Close(code int, reason string) {
	s.closeOnce.Do(func() {
		s.beginClose()
		if s.Conn != nil {
			_ = s.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = s.Conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
			_ = s.Conn.Close()
		}
		atomic.StoreInt32(&s.state, int32(StateClosed))
	})
}
