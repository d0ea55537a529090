// Package tokencrypt seals persisted bearer tokens with XChaCha20-Poly1305.
package tokencrypt

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// Params
const (
	KeyLen  = 32
	SaltLen = 16

	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024
	argonThreads uint8  = 1
)

// ErrSealed is returned when a sealed blob cannot be opened with the given key.
var ErrSealed = errors.New("sealed token: bad key or corrupted data")

func Rand(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// NewKey returns a random master key.
func NewKey() ([]byte, error) { return Rand(KeyLen) }

// DeriveKey derives a master key from a passphrase and salt using Argon2id.
func DeriveKey(passphrase, salt []byte) []byte {
	return argon2.IDKey(passphrase, salt, argonTime, argonMemory, argonThreads, KeyLen)
}

// SlotKey derives a per-slot key via HKDF-SHA256 using the slot name as info.
func SlotKey(master []byte, slot string) ([]byte, error) {
	r := hkdf.New(sha256.New, master, nil, []byte(slot))
	key := make([]byte, KeyLen)
	_, err := r.Read(key)
	return key, err
}

// Seal encrypts plaintext with AAD = slot and a random nonce; output is nonce||ciphertext.
func Seal(key []byte, slot string, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce, err := Rand(chacha20poly1305.NonceSizeX)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, plaintext, []byte(slot))...)
	return out, nil
}

// Open decrypts a blob produced by Seal for the same slot.
func Open(key []byte, slot string, sealed []byte) ([]byte, error) {
	if len(sealed) < chacha20poly1305.NonceSizeX {
		return nil, errors.New("sealed blob too short")
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := sealed[:chacha20poly1305.NonceSizeX]
	ct := sealed[chacha20poly1305.NonceSizeX:]
	pt, err := aead.Open(nil, nonce, ct, []byte(slot))
	if err != nil {
		return nil, ErrSealed
	}
	return pt, nil
}
