package api

import (
	"log/slog"
	"sync"
	"time"

	domainerrors "github.com/bloomeryapp/bloomery-admin/internal/errors"
	"github.com/bloomeryapp/bloomery-admin/internal/form"
)

// FormSession pairs a form controller with its focus-delivery target.
// The controller reports the first invalid field through the capture;
// the submit handler hands it to the dashboard for scrolling.
type FormSession struct {
	*form.Controller

	focusMu    sync.Mutex
	focusField string
}

// SetFocus is the controller's FocusFunc.
func (fs *FormSession) SetFocus(field string) {
	fs.focusMu.Lock()
	defer fs.focusMu.Unlock()
	fs.focusField = field
}

// TakeFocus returns and clears the pending focus request.
func (fs *FormSession) TakeFocus() string {
	fs.focusMu.Lock()
	defer fs.focusMu.Unlock()
	field := fs.focusField
	fs.focusField = ""
	return field
}

// SessionManager tracks the active form sessions and evicts abandoned
// ones after the idle timeout.
type SessionManager struct {
	mu       sync.Mutex
	sessions map[string]*sessionEntry
	idle     time.Duration
	logger   *slog.Logger

	done     chan struct{}
	stopOnce sync.Once
}

type sessionEntry struct {
	session  *FormSession
	lastSeen time.Time
}

// NewSessionManager creates a manager evicting sessions idle longer
// than the given timeout.
func NewSessionManager(idle time.Duration, logger *slog.Logger) *SessionManager {
	m := &SessionManager{
		sessions: make(map[string]*sessionEntry),
		idle:     idle,
		logger:   logger,
		done:     make(chan struct{}),
	}

	go m.evictLoop()

	return m
}

// Add registers a session under its controller's ID.
func (m *SessionManager) Add(fs *FormSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[fs.ID()] = &sessionEntry{session: fs, lastSeen: time.Now()}
}

// Get returns the session for an ID, refreshing its idle clock. An
// unknown ID yields a session-closed error, since evicted and torn-down
// sessions are indistinguishable to the client.
func (m *SessionManager) Get(id string) (*FormSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return nil, domainerrors.SessionClosed("form session not found")
	}
	e.lastSeen = time.Now()
	return e.session, nil
}

// Remove closes and forgets a session. Removing an unknown ID is a
// no-op.
func (m *SessionManager) Remove(id string) {
	m.mu.Lock()
	e, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		e.session.Close()
	}
}

// Len returns the number of live sessions.
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Stop closes every session and halts eviction.
func (m *SessionManager) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
	})

	m.mu.Lock()
	entries := make([]*sessionEntry, 0, len(m.sessions))
	for id, e := range m.sessions {
		entries = append(entries, e)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, e := range entries {
		e.session.Close()
	}
}

func (m *SessionManager) evictLoop() {
	interval := m.idle / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *SessionManager) evictIdle() {
	cutoff := time.Now().Add(-m.idle)

	m.mu.Lock()
	var expired []*sessionEntry
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			expired = append(expired, e)
			delete(m.sessions, id)
			if m.logger != nil {
				m.logger.Info("evicting idle form session", "session_id", id)
			}
		}
	}
	m.mu.Unlock()

	for _, e := range expired {
		e.session.Close()
	}
}
