package chat

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ===== configuration =====

type RegistryConf struct {
	SendQueueSize int              // per-session outbound queue
	Clock         func() time.Time // injectable clock (tests); nil => time.Now
}

func (c *RegistryConf) norm() {
	if c.Clock == nil {
		c.Clock = time.Now
	}
	if c.SendQueueSize <= 0 {
		c.SendQueueSize = defaultQueueSize
	}
}

// Registry tracks at most one active session per identity. All mutations
// are serialized under the lock; snapshot reads never observe a
// half-inserted session.
type Registry struct {
	mu     sync.RWMutex
	byUser map[string]*Session

	conf RegistryConf
}

func NewRegistry(conf RegistryConf) *Registry {
	conf.norm()
	return &Registry{
		byUser: make(map[string]*Session),
		conf:   conf,
	}
}

func (r *Registry) now() time.Time { return r.conf.Clock() }

// NewSession mints a session with the registry's queue size and clock;
// the caller registers it once the connection is ready.
func (r *Registry) NewSession(id, userID, name, email string, conn *websocket.Conn) *Session {
	return newSession(id, userID, name, email, conn, r.conf.SendQueueSize, r.now())
}

// Register inserts the session and returns the session it superseded, if
// any. Last writer wins: the previous connection for the same identity is
// removed atomically with the insert; the caller closes its handle outside
// the lock.
func (r *Registry) Register(sess *Session) (evicted *Session) {
	r.mu.Lock()
	evicted = r.byUser[sess.UserID]
	if evicted != nil {
		// the old handle stops taking work before the replacement is visible
		evicted.beginClose()
	}
	r.byUser[sess.UserID] = sess
	sess.transition(StateConnecting, StateActive)
	r.mu.Unlock()
	return evicted
}

// Unregister removes whatever session the identity currently has.
// Idempotent: absent identity is a no-op, not an error.
func (r *Registry) Unregister(userID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess := r.byUser[userID]
	if sess != nil {
		delete(r.byUser, userID)
	}
	return sess
}

// Release removes the given session only if it is still the one bound to
// its identity. A stale session (already replaced by a reconnect) leaves
// the newer binding untouched.
func (r *Registry) Release(sess *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.byUser[sess.UserID]
	if !ok || cur != sess {
		return false
	}
	delete(r.byUser, sess.UserID)
	return true
}

// Lookup resolves the live session for an identity.
func (r *Registry) Lookup(userID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.byUser[userID]
	return sess, ok
}

// Snapshot returns the current presence set as a defensive copy; order is
// not significant.
func (r *Registry) Snapshot() []PresenceEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]PresenceEntry, 0, len(r.byUser))
	for _, s := range r.byUser {
		out = append(out, PresenceEntry{ID: s.UserID, Name: s.Name, Email: s.Email})
	}
	return out
}

// Sessions lists the live sessions (sweeps, broadcasts).
func (r *Registry) Sessions() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.byUser))
	for _, s := range r.byUser {
		out = append(out, s)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

// Close evicts everything; used on shutdown.
func (r *Registry) Close() {
	r.mu.Lock()
	victims := make([]*Session, 0, len(r.byUser))
	for _, s := range r.byUser {
		victims = append(victims, s)
	}
	r.byUser = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range victims {
		s.Close(1001, "server shutdown") // going away
	}
}
