// Package session holds the client's authenticated state. The lifecycle
// is explicit: Hydrate on launch, Set on login, Clear on logout. Only the
// access and refresh tokens are persisted, encrypted at rest under a
// machine-local secret.
package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	authmodels "bellatavola/internal/auth/models"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const (
	secretFile = "machine.secret"
	tokensFile = "session.bin"
)

var ErrNotAuthenticated = errors.New("not authenticated")

// Tokens are the only two secrets the client persists.
type Tokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type Store struct {
	mu     sync.RWMutex
	dir    string
	tokens Tokens
	user   authmodels.User
	loaded bool
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Hydrate loads persisted tokens at launch. A missing or unreadable
// session file is not an error; the client just starts logged out.
func (s *Store) Hydrate() (Tokens, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(filepath.Join(s.dir, tokensFile))
	if err != nil {
		return Tokens{}, false
	}
	key, err := s.key()
	if err != nil {
		return Tokens{}, false
	}
	plain, err := decrypt(key, raw)
	if err != nil {
		return Tokens{}, false
	}
	var tokens Tokens
	if err := json.Unmarshal(plain, &tokens); err != nil {
		return Tokens{}, false
	}
	if tokens.AccessToken == "" {
		return Tokens{}, false
	}
	s.tokens = tokens
	s.loaded = true
	return tokens, true
}

// Set stores a fresh session after login or token refresh.
func (s *Store) Set(tokens Tokens, user authmodels.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return err
	}
	key, err := s.key()
	if err != nil {
		return err
	}
	plain, err := json.Marshal(tokens)
	if err != nil {
		return err
	}
	sealed, err := encrypt(key, plain)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir, tokensFile), sealed, 0o600); err != nil {
		return err
	}
	s.tokens = tokens
	s.user = user
	s.loaded = true
	return nil
}

// Clear wipes the session on logout.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens = Tokens{}
	s.user = authmodels.User{}
	s.loaded = false
	err := os.Remove(filepath.Join(s.dir, tokensFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Store) Tokens() (Tokens, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return Tokens{}, ErrNotAuthenticated
	}
	return s.tokens, nil
}

func (s *Store) User() (authmodels.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user, s.loaded && s.user.UserID != ""
}

// SetUser caches the profile fetched after hydration.
func (s *Store) SetUser(user authmodels.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = user
}

// key derives the encryption key from a per-machine random secret,
// created on first use with owner-only permissions.
func (s *Store) key() ([]byte, error) {
	path := filepath.Join(s.dir, secretFile)
	secret, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		secret = make([]byte, 32)
		if _, err := io.ReadFull(rand.Reader, secret); err != nil {
			return nil, err
		}
		if err := os.MkdirAll(s.dir, 0o700); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, secret, 0o600); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	h := hkdf.New(sha256.New, secret, nil, []byte("session-tokens"))
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(h, key); err != nil {
		return nil, err
	}
	return key, nil
}

func encrypt(key, plain []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plain, nil), nil
}

func decrypt(key, sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, nil)
}
