// Package session provides per-user conversation state with a bounded
// lifetime. Conversations are ephemeral: nothing survives a process
// restart.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/s0up4200/seerr-bot/internal/llm"
)

// DefaultTTL is how long a session survives without activity before it
// is treated as absent.
const DefaultTTL = 30 * time.Minute

// DefaultSweepInterval is how often the background sweeper removes
// expired entries, so memory does not grow from users who never return.
const DefaultSweepInterval = 5 * time.Minute

// Session holds one user's accumulated conversation.
type Session struct {
	Conversation []llm.Message
	LastActivity time.Time
}

// Store maps user identity to conversation state. Safe for concurrent
// use; entries for different users never contend beyond the map lock.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	logger   *slog.Logger

	// now is swapped in tests to control expiry.
	now func() time.Time
}

// NewStore creates a session store. ttl <= 0 selects the default.
func NewStore(ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Get returns the conversation for a user, or nil when none exists.
// An entry older than the TTL counts as absent and is deleted on the
// way out (lazy expiry), so callers never see a stale conversation.
func (s *Store) Get(userID string) []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil
	}
	if s.now().Sub(sess.LastActivity) > s.ttl {
		delete(s.sessions, userID)
		s.logger.Debug("session expired on access", "user_id", userID)
		return nil
	}
	return sess.Conversation
}

// Set overwrites the user's conversation and marks it active now.
func (s *Store) Set(userID string, conversation []llm.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[userID] = &Session{
		Conversation: conversation,
		LastActivity: s.now(),
	}
}

// Clear removes the user's session, if any. Used for explicit reset
// commands.
func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Len reports the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep deletes all expired entries and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for userID, sess := range s.sessions {
		if now.Sub(sess.LastActivity) > s.ttl {
			delete(s.sessions, userID)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Debug("session sweep", "removed", removed, "remaining", len(s.sessions))
	}
	return removed
}

// StartSweeper runs Sweep on a fixed period until ctx is cancelled.
// interval <= 0 selects the default.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}
