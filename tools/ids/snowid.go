package ids

import (
	"strconv"
	"sync"
	"time"
)

// Snowflake layout: 41 bits millis since epoch | 10 bits node | 12 bits seq.
const (
	nodeBits = 10
	seqBits  = 12
	maxNode  = (1 << nodeBits) - 1
	seqMask  = (1 << seqBits) - 1
)

// custom epoch keeps the timestamp field small
var epochMS = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()

type source struct {
	mu     sync.Mutex
	node   int64
	seq    int64
	lastMS int64
}

var shared = &source{node: 1}

// SetNodeID assigns this process a node id (0~1023). Call from main()
// before any session is created; out-of-range values fall back to 1.
func SetNodeID(node int64) {
	shared.mu.Lock()
	defer shared.mu.Unlock()
	if node < 0 || node > maxNode {
		node = 1
	}
	shared.node = node
}

// Generate returns a new time-ordered unique id.
func Generate() int64 {
	return shared.next()
}

// GenerateString is Generate formatted as a decimal string, the form
// session and message ids travel in.
func GenerateString() string {
	return strconv.FormatInt(Generate(), 10)
}

func (s *source) next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixMilli()
	for now < s.lastMS {
		// clock went backwards, wait it out
		time.Sleep(time.Duration(s.lastMS-now) * time.Millisecond)
		now = time.Now().UnixMilli()
	}
	if now == s.lastMS {
		s.seq = (s.seq + 1) & seqMask
		if s.seq == 0 {
			for now <= s.lastMS {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		s.seq = 0
	}
	s.lastMS = now

	return ((now - epochMS) << (nodeBits + seqBits)) | (s.node << seqBits) | s.seq
}
