package panel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sessionPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "session.json")
}

func TestSessionStartsUnauthenticatedWithoutFile(t *testing.T) {
	s := NewSession(sessionPath(t), zap.NewNop())

	assert.False(t, s.Authenticated())
	assert.False(t, s.Loading())
	assert.Empty(t, s.Token())
	assert.Empty(t, s.Username())
}

func TestSessionLoginPersistsAndRehydrates(t *testing.T) {
	path := sessionPath(t)

	s := NewSession(path, zap.NewNop())
	require.NoError(t, s.Login("tok-123", "operator"))
	require.True(t, s.Authenticated())

	// A fresh session over the same file sees the stored identity before any
	// caller gets a chance to ask.
	restored := NewSession(path, zap.NewNop())
	assert.True(t, restored.Authenticated())
	assert.Equal(t, "tok-123", restored.Token())
	assert.Equal(t, "operator", restored.Username())
	assert.False(t, restored.Loading())
}

func TestSessionLogoutClearsStateAndFile(t *testing.T) {
	path := sessionPath(t)

	s := NewSession(path, zap.NewNop())
	require.NoError(t, s.Login("tok-123", "operator"))

	s.Logout()
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Username())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	restored := NewSession(path, zap.NewNop())
	assert.False(t, restored.Authenticated())
}

func TestSessionIgnoresCorruptFile(t *testing.T) {
	path := sessionPath(t)
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	s := NewSession(path, zap.NewNop())
	assert.False(t, s.Authenticated())
}

func TestSessionIgnoresPartialState(t *testing.T) {
	path := sessionPath(t)
	require.NoError(t, os.WriteFile(path, []byte(`{"token":"","username":"ghost"}`), 0o600))

	s := NewSession(path, zap.NewNop())
	assert.False(t, s.Authenticated())
}
