package session

import (
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/saker-ai/armscript/internal/export"
	"github.com/saker-ai/armscript/internal/storage"
)

var (
	// ErrSessionNotFound is returned for ids that are not active.
	ErrSessionNotFound = errors.New("session not found")
	// ErrTooManySessions is returned when Options.MaxActive is reached.
	ErrTooManySessions = errors.New("too many active sessions")
)

// Manager keeps the active sessions of a server process.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	opts     Options
	exporter *export.Exporter
	logger   *zap.Logger
}

// NewManager creates a manager that persists sessions under opts.DataDir.
func NewManager(opts Options, exporter *export.Exporter, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		opts:     opts.withDefaults(),
		exporter: exporter,
		logger:   logger,
	}
}

// Options returns the persistence options sessions are created with.
func (m *Manager) Options() Options {
	return m.opts
}

// Create starts a new persisted session.
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.opts.MaxActive > 0 && len(m.sessions) >= m.opts.MaxActive {
		return nil, ErrTooManySessions
	}
	meta, err := storage.CreateSession(m.opts.DataDir)
	if err != nil {
		return nil, err
	}
	sess := New(meta.ID, m.opts, m.exporter, m.logger)
	sess.createdAt = meta.CreatedAt
	m.sessions[meta.ID] = sess
	m.logger.Info("session opened", zap.String("session_id", meta.ID), zap.Int("active", len(m.sessions)))
	return sess, nil
}

// Get returns an active session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Active returns the ids of active sessions in order.
func (m *Manager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close removes a session and writes its final artifacts.
func (m *Manager) Close(id string) (Artifacts, error) {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return Artifacts{}, ErrSessionNotFound
	}
	return sess.Close()
}

// CloseAll closes every active session, logging export failures.
func (m *Manager) CloseAll() {
	for _, id := range m.Active() {
		if _, err := m.Close(id); err != nil && !errors.Is(err, ErrSessionNotFound) {
			m.logger.Warn("session close failed", zap.String("session_id", id), zap.Error(err))
		}
	}
}
