package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// Storage key names. These match the key/value layout the platform's web
// client persists, so a reimplementation stays wire-compatible with it.
const (
	keyAccessToken  = "authToken"
	keyRefreshToken = "refreshToken"
	keyIsAdmin      = "isAdmin"
	keyIsLoggedIn   = "isLoggedIn"
)

// Store is the persistence port for the four session values: the access and
// refresh tokens plus the logged-in and admin flags.
//
// Clear is total and idempotent: it removes all four values together, never a
// subset. Generation returns a counter that Clear bumps; callers that started
// a slow operation before a clear can detect that their result is stale and
// discard it.
type Store interface {
	SaveTokens(access, refresh string) error
	AccessToken() string
	RefreshToken() string
	SetLoggedIn(v bool) error
	LoggedIn() bool
	SetAdmin(v bool) error
	Admin() bool
	Clear() error
	Generation() uint64
}

// FileStore persists session values as a JSON key/value file on the local
// filesystem, one value per key.
type FileStore struct {
	baseDir string
	gen     atomic.Uint64
}

// NewFileStore creates a file-backed session store.
// If baseDir is empty, uses ~/.sangam/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, ".sangam")
	}

	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	log.Debug().Str("baseDir", baseDir).Msg("session store initialized")

	return &FileStore{baseDir: baseDir}, nil
}

// SaveTokens writes both tokens. The logged-in and admin flags are left alone.
func (s *FileStore) SaveTokens(access, refresh string) error {
	return s.mutate(func(values map[string]string) {
		values[keyAccessToken] = access
		values[keyRefreshToken] = refresh
	})
}

// AccessToken returns the stored access token, or "" when absent.
func (s *FileStore) AccessToken() string {
	return s.load()[keyAccessToken]
}

// RefreshToken returns the stored refresh token, or "" when absent.
func (s *FileStore) RefreshToken() string {
	return s.load()[keyRefreshToken]
}

// SetLoggedIn records whether the user explicitly signed in.
func (s *FileStore) SetLoggedIn(v bool) error {
	return s.mutate(func(values map[string]string) {
		if v {
			values[keyIsLoggedIn] = "true"
		} else {
			delete(values, keyIsLoggedIn)
		}
	})
}

// LoggedIn reports whether the logged-in flag is explicitly set.
func (s *FileStore) LoggedIn() bool {
	return s.load()[keyIsLoggedIn] == "true"
}

// SetAdmin records the coarse role marker set at login time.
func (s *FileStore) SetAdmin(v bool) error {
	return s.mutate(func(values map[string]string) {
		if v {
			values[keyIsAdmin] = "true"
		} else {
			values[keyIsAdmin] = "false"
		}
	})
}

// Admin returns the stored admin flag verbatim.
func (s *FileStore) Admin() bool {
	return s.load()[keyIsAdmin] == "true"
}

// Clear removes all four session values together and bumps the generation
// counter. Clearing an already-empty store is a no-op.
func (s *FileStore) Clear() error {
	s.gen.Add(1)

	path := s.path()
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	log.Debug().Msg("session cleared")

	return nil
}

// Generation returns the clear counter.
func (s *FileStore) Generation() uint64 {
	return s.gen.Load()
}

func (s *FileStore) path() string {
	return filepath.Join(s.baseDir, "session.json")
}

// load reads the session file. A missing or unreadable file yields an empty
// map, mirroring how the web client treats absent storage keys.
func (s *FileStore) load() map[string]string {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Msg("failed to read session file")
		}
		return map[string]string{}
	}

	var values map[string]string
	if err := json.Unmarshal(data, &values); err != nil {
		log.Warn().Err(err).Msg("failed to parse session file")
		return map[string]string{}
	}
	if values == nil {
		values = map[string]string{}
	}

	return values
}

// mutate applies fn to the stored values and writes the file atomically.
func (s *FileStore) mutate(fn func(values map[string]string)) error {
	values := s.load()
	fn(values)

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// Write to temp file first
	path := s.path()
	tempPath := path + ".tmp"

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}

	// Atomic rename
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// MemoryStore is an in-memory Store for tests and for embedding apps that
// bring their own persistence.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	gen    uint64
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: map[string]string{}}
}

func (s *MemoryStore) SaveTokens(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[keyAccessToken] = access
	s.values[keyRefreshToken] = refresh
	return nil
}

func (s *MemoryStore) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[keyAccessToken]
}

func (s *MemoryStore) RefreshToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[keyRefreshToken]
}

func (s *MemoryStore) SetLoggedIn(v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v {
		s.values[keyIsLoggedIn] = "true"
	} else {
		delete(s.values, keyIsLoggedIn)
	}
	return nil
}

func (s *MemoryStore) LoggedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[keyIsLoggedIn] == "true"
}

func (s *MemoryStore) SetAdmin(v bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v {
		s.values[keyIsAdmin] = "true"
	} else {
		s.values[keyIsAdmin] = "false"
	}
	return nil
}

func (s *MemoryStore) Admin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[keyIsAdmin] == "true"
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values = map[string]string{}
	s.gen++
	return nil
}

func (s *MemoryStore) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}
