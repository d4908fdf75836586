package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	domain "github.com/Zhima-Mochi/foodtruck/internal/domain/combo"
)

// SessionRepository keeps page-view sessions in process memory. Sessions are shared by pointer:
// their selection and receipts are mutated in place under the session's own locks.
type SessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		sessions: make(map[string]*domain.Session),
	}
}

func (r *SessionRepository) Insert(ctx context.Context, session *domain.Session) error {
	_ = ctx
	if session == nil || session.ID == "" {
		return fmt.Errorf("session repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sessions[session.ID]; exists {
		return domain.ErrConflict
	}
	r.sessions[session.ID] = session
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return session, nil
}

func (r *SessionRepository) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, session := range r.sessions {
		// a purchase in flight keeps its session alive
		if session.LastSeen().Before(cutoff) && !session.Submitting() {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (r *SessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

var _ domain.Repository = (*SessionRepository)(nil)
