package security

import (
	"errors"
	"testing"
)

func TestSealer_RoundTrip(t *testing.T) {
	sealer := NewSealer("salt-key")
	sealed, err := sealer.Seal("sk-secret")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if sealed == "sk-secret" {
		t.Fatalf("expected sealed value to differ from plaintext")
	}
	plain, err := sealer.Open(sealed)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if plain != "sk-secret" {
		t.Fatalf("expected sk-secret, got %q", plain)
	}
}

func TestSealer_WrongKey(t *testing.T) {
	sealed, err := NewSealer("key-a").Seal("sk-secret")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, errOpen := NewSealer("key-b").Open(sealed); !errors.Is(errOpen, ErrOpenFailed) {
		t.Fatalf("expected ErrOpenFailed, got %v", errOpen)
	}
}

func TestSealer_NilPassthrough(t *testing.T) {
	var sealer *Sealer
	if NewSealer("  ") != nil {
		t.Fatalf("expected nil sealer for empty key")
	}
	sealed, err := sealer.Seal("plain")
	if err != nil || sealed != "plain" {
		t.Fatalf("expected passthrough, got %q (%v)", sealed, err)
	}
	opened, err := sealer.Open("plain")
	if err != nil || opened != "plain" {
		t.Fatalf("expected passthrough, got %q (%v)", opened, err)
	}
	if sealer.Enabled() {
		t.Fatalf("expected nil sealer to be disabled")
	}
}

func TestSealer_EmptyValueUnchanged(t *testing.T) {
	sealed, err := NewSealer("k").Seal("")
	if err != nil || sealed != "" {
		t.Fatalf("expected empty value to stay empty, got %q (%v)", sealed, err)
	}
}
