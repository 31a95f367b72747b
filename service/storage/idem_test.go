package storage

import (
	"testing"
	"time"
)

func TestMemIdemSeenOnce(t *testing.T) {
	mi := NewMemIdem(10 * time.Minute)

	seen, err := mi.SeenOnce("ua|ub|c-1", 0)
	if err != nil {
		t.Fatalf("first check: %v", err)
	}
	if seen {
		t.Fatal("fresh key reported as seen")
	}

	seen, err = mi.SeenOnce("ua|ub|c-1", 0)
	if err != nil {
		t.Fatalf("second check: %v", err)
	}
	if !seen {
		t.Fatal("repeated key not detected")
	}
}

func TestMemIdemKeysAreIndependent(t *testing.T) {
	mi := NewMemIdem(10 * time.Minute)
	_, _ = mi.SeenOnce("ua|ub|c-1", 0)

	// same clientId from a different pair is a different key
	seen, err := mi.SeenOnce("ua|uc|c-1", 0)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if seen {
		t.Fatal("unrelated key reported as seen")
	}
}

func TestMemIdemExpiredKeyForgotten(t *testing.T) {
	mi := NewMemIdem(10 * time.Minute)

	if _, err := mi.SeenOnce("k", time.Second); err != nil {
		t.Fatalf("seed: %v", err)
	}
	// expiry is tracked at second resolution
	time.Sleep(1100 * time.Millisecond)

	seen, err := mi.SeenOnce("k", time.Second)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if seen {
		t.Fatal("expired key still reported as seen")
	}
}

func TestRedisIdemDegradesWithoutClient(t *testing.T) {
	ri := NewRedisIdem(10 * time.Minute)

	// no initialized client: duplicates pass through rather than blocking delivery
	seen, err := ri.SeenOnce("ua|ub|c-1", 0)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if seen {
		t.Fatal("degraded store must report not-seen")
	}
}
