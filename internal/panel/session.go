package panel

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Session owns the authenticated identity for a panel process. It is the
// explicit replacement for ambient browser storage: one object, injected into
// every component, with a defined init -> rehydrate -> ready lifecycle.
type Session struct {
	mu       sync.RWMutex
	path     string
	token    string
	username string
	loading  bool
	logger   *zap.Logger
}

type sessionState struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// NewSession rehydrates synchronously from path before returning, so the first
// render decision already sees the persisted identity. Loading reports true
// only while rehydration is in flight.
func NewSession(path string, logger *zap.Logger) *Session {
	s := &Session{path: path, loading: true, logger: logger}
	s.rehydrate()

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
	return s
}

func (s *Session) rehydrate() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("session rehydrate failed", zap.Error(err))
		}
		return
	}

	var state sessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		s.logger.Warn("session file is corrupt, starting unauthenticated", zap.Error(err))
		return
	}
	if state.Token == "" || state.Username == "" {
		return
	}

	s.mu.Lock()
	s.token = state.Token
	s.username = state.Username
	s.mu.Unlock()
}

// Login persists the credentials and marks the session authenticated.
func (s *Session) Login(token, username string) error {
	s.mu.Lock()
	s.token = token
	s.username = username
	s.mu.Unlock()

	raw, err := json.Marshal(sessionState{Token: token, Username: username})
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, raw, 0o600)
}

// Logout clears the identity. Called directly by the operator and by the
// transport whenever any response comes back unauthorized.
func (s *Session) Logout() {
	s.mu.Lock()
	s.token = ""
	s.username = ""
	s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("session file removal failed", zap.Error(err))
	}
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

func (s *Session) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != ""
}

func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}
