package memory

import (
	"context"
	"sync"

	"github.com/pishop/storefront/internal/domain"
	apperrors "github.com/pishop/storefront/pkg/errors"
)

// CartSessionRepository is an in-process repository.CartSessionRepository for
// local development and tests, used when no Redis host is configured.
// Sessions never expire; the map lives and dies with the process.
type CartSessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]domain.CartSession
}

// NewCartSessionRepository creates an empty in-memory cart session repository.
func NewCartSessionRepository() *CartSessionRepository {
	return &CartSessionRepository{
		sessions: make(map[string]domain.CartSession),
	}
}

// Save stores a copy of the session.
func (r *CartSessionRepository) Save(_ context.Context, session *domain.CartSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = *session
	return nil
}

// GetByID retrieves a copy of the session by its identifier.
func (r *CartSessionRepository) GetByID(_ context.Context, id string) (*domain.CartSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, apperrors.NotFound("cart session", id)
	}
	return &session, nil
}

// Delete removes the session by its identifier.
func (r *CartSessionRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}
