package repository

import (
	"context"

	"github.com/pishop/storefront/internal/domain"
)

// ProviderRepository defines persistence for delivery provider configs.
type ProviderRepository interface {
	// Create inserts a new provider config.
	Create(ctx context.Context, p *domain.ProviderConfig) error

	// GetByID retrieves a provider by its identifier.
	GetByID(ctx context.Context, id string) (*domain.ProviderConfig, error)

	// List returns all providers ordered by creation time.
	List(ctx context.Context) ([]domain.ProviderConfig, error)

	// ListEnabled returns only providers with enabled = true.
	ListEnabled(ctx context.Context) ([]domain.ProviderConfig, error)

	// Update modifies an existing provider config.
	Update(ctx context.Context, p *domain.ProviderConfig) error

	// Delete removes a provider by its identifier.
	Delete(ctx context.Context, id string) error
}

// SettingsRepository defines persistence for store-wide settings. The store
// has exactly one settings row; reads never fail with "not found" once the
// seed migration has run.
type SettingsRepository interface {
	// GetOrigin retrieves the warehouse origin address.
	GetOrigin(ctx context.Context) (*domain.OriginAddress, error)

	// UpdateOrigin replaces the warehouse origin address.
	UpdateOrigin(ctx context.Context, origin *domain.OriginAddress) error
}

// CartSessionRepository defines persistence for per-visitor cart sessions.
type CartSessionRepository interface {
	// Save persists the session, creating or overwriting it.
	Save(ctx context.Context, session *domain.CartSession) error

	// GetByID retrieves a session by its identifier.
	GetByID(ctx context.Context, id string) (*domain.CartSession, error)

	// Delete removes a session by its identifier.
	Delete(ctx context.Context, id string) error
}
