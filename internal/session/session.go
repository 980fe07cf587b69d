// Package session holds the process-wide bearer credential.
//
// The Manager is the only writer of the credential. Every outgoing request
// reads it through Attach, so a clear is visible to the very next request.
// Absence of a token is a valid state; no method returns an error.
package session

import (
	"net/http"
	"sync"

	"go.uber.org/zap"

	"docvault/internal/logger"
)

const bearerPrefix = "Bearer "

// CredentialStore persists the credential between process runs.
type CredentialStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// Manager holds the current credential and notifies listeners when the
// server invalidates it.
type Manager struct {
	// persistMu orders writes so the store always ends with the token held
	// in memory. It is taken before mu.
	persistMu sync.Mutex

	mu       sync.RWMutex
	token    string
	store    CredentialStore
	log      *zap.Logger
	onExpire []func()
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore persists the credential through s. The stored token, if any,
// becomes the initial credential.
func WithStore(s CredentialStore) Option {
	return func(m *Manager) { m.store = s }
}

// WithLogger sets the logger used for persistence failures.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.log = l }
}

// NewManager returns an empty Manager, or one restored from its store.
func NewManager(opts ...Option) *Manager {
	m := &Manager{store: NewMemoryStore()}
	for _, opt := range opts {
		opt(m)
	}
	m.log = logger.OrNop(m.log).Named("session")

	token, err := m.store.Load()
	if err != nil {
		m.log.Warn("failed to load stored credential", zap.Error(err))
		return m
	}
	m.token = token
	return m
}

// SetCredential stores token for all subsequent requests. The last call wins.
func (m *Manager) SetCredential(token string) {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	m.token = token
	m.mu.Unlock()

	if err := m.store.Save(token); err != nil {
		m.log.Warn("failed to persist credential", zap.Error(err))
	}
}

// ClearCredential removes the stored token. Future requests are unauthenticated.
func (m *Manager) ClearCredential() {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()

	if err := m.store.Clear(); err != nil {
		m.log.Warn("failed to clear persisted credential", zap.Error(err))
	}
}

// Token returns the current credential, or "" when there is none.
func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Authenticated reports whether a credential is present.
func (m *Manager) Authenticated() bool {
	return m.Token() != ""
}

// Attach copies the credential into req's Authorization header.
// It is a no-op when there is no credential.
func (m *Manager) Attach(req *http.Request) {
	if token := m.Token(); token != "" {
		req.Header.Set("Authorization", bearerPrefix+token)
	}
}

// OnExpire registers fn to run after the server rejects the credential.
// The CLI uses it to send the user back to the login command.
func (m *Manager) OnExpire(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = append(m.onExpire, fn)
}

// OnAuthenticationFailure is the automatic security response to a 401 from
// any endpoint: the credential is dropped and expiry listeners are notified.
// It is not a user action.
func (m *Manager) OnAuthenticationFailure() {
	m.mu.RLock()
	had := m.token != ""
	listeners := append([]func(){}, m.onExpire...)
	m.mu.RUnlock()

	m.ClearCredential()
	if had {
		m.log.Info("credential rejected by server, session cleared")
	}
	for _, fn := range listeners {
		fn()
	}
}
