package security

import (
	"testing"
	"time"
)

func TestGenerateVerifyRoundtrip(t *testing.T) {
	opts := DefaultOptions([]byte("unit-secret"))
	in := Claims{UserID: "u_abc", Name: "Alice", Email: "alice@test.io"}

	token, hash, expireAt, err := Generate(opts, in)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(expireAt) < time.Hour {
		t.Fatalf("expiry too close: %v", expireAt)
	}

	out, err := Verify(opts, token, hash)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if *out != in {
		t.Fatalf("claims mismatch: %+v vs %+v", out, in)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, _, _, err := Generate(DefaultOptions([]byte("secret-a")), Claims{UserID: "u1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := Verify(DefaultOptions([]byte("secret-b")), token, ""); err == nil {
		t.Fatal("token signed with another secret must not verify")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	opts := DefaultOptions([]byte("unit-secret"))
	opts.TTL = time.Second
	token, _, _, err := Generate(opts, Claims{UserID: "u1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	if _, err := Verify(opts, token, ""); err == nil {
		t.Fatal("expired token must not verify")
	}
}

func TestVerifyRejectsHashMismatch(t *testing.T) {
	opts := DefaultOptions([]byte("unit-secret"))
	token, _, _, err := Generate(opts, Claims{UserID: "u1"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := Verify(opts, token, "sha256:deadbeef"); err == nil {
		t.Fatal("hash mismatch must not verify")
	}
}

func TestVerifyRejectsUnsupportedAlg(t *testing.T) {
	opts := DefaultOptions([]byte("unit-secret"))
	opts.Alg = "RS256"
	if _, _, _, err := Generate(opts, Claims{UserID: "u1"}); err == nil {
		t.Fatal("RSA alg must be rejected by the HMAC helper")
	}
}
