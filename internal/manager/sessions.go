package manager

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/turnos/internal/observability/metrics"
	"github.com/wolfman30/turnos/pkg/logging"
)

// Sessions keeps one Manager per browser session.
type Sessions struct {
	newManager func() *Manager
	ttl        time.Duration
	logger     *logging.Logger
	metrics    *metrics.TurnosMetrics
	now        func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	manager  *Manager
	lastSeen time.Time
}

// NewSessions creates a registry. Sessions idle for longer than ttl are
// removed by Sweep.
func NewSessions(newManager func() *Manager, ttl time.Duration, logger *logging.Logger, m *metrics.TurnosMetrics) *Sessions {
	if logger == nil {
		logger = logging.Default()
	}
	return &Sessions{
		newManager: newManager,
		ttl:        ttl,
		logger:     logger,
		metrics:    m,
		now:        time.Now,
		sessions:   make(map[string]*session),
	}
}

// Get returns the Manager for id. Unknown or empty ids get a new session under
// a freshly minted id; created reports that case.
func (s *Sessions) Get(id string) (sessionID string, m *Manager, created bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if sess, ok := s.sessions[id]; ok && id != "" {
		sess.lastSeen = now
		return id, sess.manager, false
	}

	sessionID = uuid.NewString()
	sess := &session{manager: s.newManager(), lastSeen: now}
	s.sessions[sessionID] = sess
	s.metrics.SetActiveSessions(len(s.sessions))
	s.logger.Debug("session created", "session_id", sessionID)
	return sessionID, sess.manager, true
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops sessions idle for longer than the ttl and returns how many were
// removed.
func (s *Sessions) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, sess := range s.sessions {
		if sess.lastSeen.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		s.metrics.SetActiveSessions(len(s.sessions))
		s.logger.Info("idle sessions removed", "count", removed, "remaining", len(s.sessions))
	}
	return removed
}

// Run sweeps every interval until ctx is cancelled.
func (s *Sessions) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
