package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/and161185/academy-client/internal/crypto/tokencrypt"
)

type tokenFile struct {
	AccessToken string     `json:"access_token,omitempty"`
	Sealed      []byte     `json:"sealed,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// DefaultDir returns $XDG_CONFIG_HOME/academy or ~/.config/academy.
func DefaultDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "academy")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "academy")
}

// FileStore persists the token as JSON in dir/token.json, optionally sealed.
type FileStore struct {
	mu  sync.Mutex
	dir string
	key []byte
	now func() time.Time
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithSealKey seals the stored token with a slot key derived from master.
func WithSealKey(master []byte) FileOption {
	return func(s *FileStore) { s.key = master }
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string, opts ...FileOption) *FileStore {
	s := &FileStore{dir: dir, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *FileStore) path() string { return filepath.Join(s.dir, SlotName+".json") }

func (s *FileStore) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path())
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	var tf tokenFile
	if err := json.Unmarshal(b, &tf); err != nil {
		return "", err
	}
	if tf.ExpiresAt != nil && !s.now().Before(*tf.ExpiresAt) {
		return "", nil
	}
	tok := tf.AccessToken
	if len(tf.Sealed) > 0 {
		if s.key == nil {
			return "", errors.New("token is sealed but no key configured")
		}
		k, err := tokencrypt.SlotKey(s.key, SlotName)
		if err != nil {
			return "", err
		}
		pt, err := tokencrypt.Open(k, SlotName, tf.Sealed)
		if err != nil {
			return "", err
		}
		tok = string(pt)
	}
	return tok, nil
}

func (s *FileStore) Set(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tf := tokenFile{AccessToken: token}
	if exp, ok := ExpiryOf(token); ok {
		tf.ExpiresAt = &exp
	}
	if s.key != nil {
		k, err := tokencrypt.SlotKey(s.key, SlotName)
		if err != nil {
			return err
		}
		sealed, err := tokencrypt.Seal(k, SlotName, []byte(token))
		if err != nil {
			return err
		}
		tf.AccessToken, tf.Sealed = "", sealed
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(tf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path(), b, 0o600)
}

func (s *FileStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.path())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// LoadOrCreateKey reads dir/key.bin, generating it on first use.
func LoadOrCreateKey(dir string) ([]byte, error) {
	p := filepath.Join(dir, "key.bin")
	b, err := os.ReadFile(p)
	if err == nil && len(b) == tokencrypt.KeyLen {
		return b, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		return nil, errors.New("key.bin has wrong length")
	}
	key, err := tokencrypt.NewKey()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return key, os.WriteFile(p, key, 0o600)
}

// PassphraseKey derives the sealing key from a passphrase and dir/salt.bin.
func PassphraseKey(dir, passphrase string) ([]byte, error) {
	p := filepath.Join(dir, "salt.bin")
	salt, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		if salt, err = tokencrypt.Rand(tokencrypt.SaltLen); err != nil {
			return nil, err
		}
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
		if err := os.WriteFile(p, salt, 0o600); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return tokencrypt.DeriveKey([]byte(passphrase), salt), nil
}
