package tokencrypt

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"testing"
)

func TestRand_LengthUniq(t *testing.T) {
	t.Parallel()
	a, err := Rand(KeyLen)
	if err != nil {
		t.Fatalf("Rand: %v", err)
	}
	if len(a) != KeyLen {
		t.Fatalf("len=%d, want=%d", len(a), KeyLen)
	}
	b, _ := NewKey()
	if bytes.Equal(a, b) {
		t.Fatalf("Rand produced equal slices")
	}
}

func TestDeriveKey_DeterministicAndSaltDependent(t *testing.T) {
	t.Parallel()
	pw := []byte("passphrase")
	k1 := DeriveKey(pw, []byte("salt-1"))
	if subtle.ConstantTimeCompare(k1, DeriveKey(pw, []byte("salt-1"))) != 1 {
		t.Fatalf("DeriveKey not deterministic")
	}
	if subtle.ConstantTimeCompare(k1, DeriveKey(pw, []byte("salt-2"))) != 0 {
		t.Fatalf("DeriveKey must change with salt")
	}
	if len(k1) != KeyLen {
		t.Fatalf("key len %d", len(k1))
	}
}

func TestSlotKey_DiffPerSlot(t *testing.T) {
	t.Parallel()
	master, _ := NewKey()
	a, err := SlotKey(master, "token")
	if err != nil {
		t.Fatalf("SlotKey: %v", err)
	}
	b, _ := SlotKey(master, "other")
	if bytes.Equal(a, b) {
		t.Fatalf("slot keys must differ")
	}
}

func TestSealOpen_RoundtripAndTamper(t *testing.T) {
	t.Parallel()
	key, _ := NewKey()
	sealed, err := Seal(key, "token", []byte("eyJhbGciOi.payload.sig"))
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}
	pt, err := Open(key, "token", sealed)
	if err != nil || string(pt) != "eyJhbGciOi.payload.sig" {
		t.Fatalf("Open: %q %v", pt, err)
	}

	if _, err := Open(key, "other", sealed); !errors.Is(err, ErrSealed) {
		t.Fatalf("wrong slot must fail, got %v", err)
	}
	other, _ := NewKey()
	if _, err := Open(other, "token", sealed); !errors.Is(err, ErrSealed) {
		t.Fatalf("wrong key must fail, got %v", err)
	}
	sealed[len(sealed)-1] ^= 0xff
	if _, err := Open(key, "token", sealed); err == nil {
		t.Fatalf("tampered blob must fail")
	}
	if _, err := Open(key, "token", []byte{1, 2}); err == nil {
		t.Fatalf("short blob must fail")
	}
}
