package history

import (
	"context"
	"sort"
	"sync"
)

// Message is one persisted chat line. The live-socket path stays
// at-most-once; this store is the durable record a client reloads from.
type Message struct {
	From       string `bson:"from" json:"sender"`
	To         string `bson:"to" json:"to"`
	Text       string `bson:"text" json:"text"`
	Attachment string `bson:"attachment,omitempty" json:"attachment,omitempty"`
	FileName   string `bson:"file_name,omitempty" json:"fileName,omitempty"`
	Ts         int64  `bson:"ts" json:"timestamp"` // unix millis, producer-assigned
}

type Store interface {
	Append(ctx context.Context, msg Message) error
	// Query returns the conversation between a and b, ascending by ts.
	Query(ctx context.Context, a, b string) ([]Message, error)
}

// ----- in-memory implementation (tests, degraded mode) -----

type MemStore struct {
	mu   sync.RWMutex
	msgs []Message
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (s *MemStore) Append(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *MemStore) Query(_ context.Context, a, b string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, 0, 16)
	for _, m := range s.msgs {
		if (m.From == a && m.To == b) || (m.From == b && m.To == a) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ts < out[j].Ts })
	return out, nil
}
