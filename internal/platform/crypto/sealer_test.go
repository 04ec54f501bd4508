package crypto

import (
	"bytes"
	"strings"
	"testing"
)

func TestSealerRoundTrip(t *testing.T) {
	s, err := New(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	plain := []byte("%PDF-1.3 cv")
	sealed, err := s.Seal(plain)
	if err != nil {
		t.Fatalf("seal: %v", err)
	}
	if bytes.Contains(sealed, plain) {
		t.Fatal("sealed output leaks plaintext")
	}
	opened, err := s.Open(sealed)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !bytes.Equal(opened, plain) {
		t.Fatalf("round trip mismatch: %q", opened)
	}
	sealed[len(sealed)-1] ^= 0xff
	if _, err := s.Open(sealed); err == nil {
		t.Fatal("expected tampered ciphertext to fail")
	}
}

func TestSealerWithoutKeyPassesThrough(t *testing.T) {
	s, err := New("")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	out, _ := s.Seal([]byte("x"))
	if s.Configured() || string(out) != "x" {
		t.Fatalf("expected pass-through, got %q", out)
	}
	if _, err := New("short"); err == nil {
		t.Fatal("expected key length error")
	}
}
