package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pishop/storefront/internal/domain"
	apperrors "github.com/pishop/storefront/pkg/errors"
)

const keyPrefix = "cart_session:"

// CartSessionRepository implements repository.CartSessionRepository using
// Redis. Sessions are ephemeral and expire with the configured TTL; each Save
// resets the clock.
type CartSessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartSessionRepository creates a new Redis-backed cart session repository.
func NewCartSessionRepository(client *redis.Client, ttl time.Duration) *CartSessionRepository {
	return &CartSessionRepository{
		client: client,
		ttl:    ttl,
	}
}

// Save persists the session to Redis with the configured TTL.
func (r *CartSessionRepository) Save(ctx context.Context, session *domain.CartSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal cart session: %w", err)
	}

	if err := r.client.Set(ctx, keyPrefix+session.ID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by its identifier.
func (r *CartSessionRepository) GetByID(ctx context.Context, id string) (*domain.CartSession, error) {
	data, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, apperrors.NotFound("cart session", id)
		}
		return nil, fmt.Errorf("redis get cart session: %w", err)
	}

	var session domain.CartSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshal cart session: %w", err)
	}

	return &session, nil
}

// Delete removes a session from Redis by its identifier.
func (r *CartSessionRepository) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis del cart session: %w", err)
	}

	return nil
}
