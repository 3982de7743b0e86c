package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pishop/storefront/internal/domain"
	"github.com/pishop/storefront/internal/repository"
	apperrors "github.com/pishop/storefront/pkg/errors"
)

// ProviderService implements admin management of delivery providers and the
// warehouse origin.
type ProviderService struct {
	providers repository.ProviderRepository
	settings  repository.SettingsRepository
	logger    *slog.Logger
}

// NewProviderService creates a new provider service.
func NewProviderService(
	providers repository.ProviderRepository,
	settings repository.SettingsRepository,
	logger *slog.Logger,
) *ProviderService {
	return &ProviderService{
		providers: providers,
		settings:  settings,
		logger:    logger,
	}
}

// ProviderInput holds the admin-supplied provider definition.
type ProviderInput struct {
	ID              string
	Name            string
	Enabled         bool
	BaseRate        decimal.Decimal
	PerDistanceRate decimal.Decimal
	SpeedLabel      string
	LocalOnly       bool
}

func (in *ProviderInput) validate() error {
	if in == nil {
		return apperrors.InvalidInput("provider input is required")
	}
	if in.ID == "" {
		return apperrors.InvalidInput("provider id is required")
	}
	if in.Name == "" {
		return apperrors.InvalidInput("provider name is required")
	}
	if in.SpeedLabel == "" {
		return apperrors.InvalidInput("speed label is required")
	}
	if in.BaseRate.IsNegative() {
		return apperrors.InvalidInput("base rate must not be negative")
	}
	if in.PerDistanceRate.IsNegative() {
		return apperrors.InvalidInput("per-distance rate must not be negative")
	}
	return nil
}

// CreateProvider registers a new delivery provider.
func (s *ProviderService) CreateProvider(ctx context.Context, input *ProviderInput) (*domain.ProviderConfig, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	p := &domain.ProviderConfig{
		ID:              input.ID,
		Name:            input.Name,
		Enabled:         input.Enabled,
		BaseRate:        input.BaseRate,
		PerDistanceRate: input.PerDistanceRate,
		SpeedLabel:      input.SpeedLabel,
		LocalOnly:       input.LocalOnly,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.providers.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "provider created",
		slog.String("provider_id", p.ID),
		slog.Bool("local_only", p.LocalOnly),
	)

	return p, nil
}

// GetProvider retrieves a provider by its identifier.
func (s *ProviderService) GetProvider(ctx context.Context, id string) (*domain.ProviderConfig, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("provider id is required")
	}
	return s.providers.GetByID(ctx, id)
}

// ListProviders returns all configured providers, enabled or not.
func (s *ProviderService) ListProviders(ctx context.Context) ([]domain.ProviderConfig, error) {
	return s.providers.List(ctx)
}

// UpdateProvider replaces an existing provider definition. The identifier in
// the input must match an existing provider.
func (s *ProviderService) UpdateProvider(ctx context.Context, input *ProviderInput) (*domain.ProviderConfig, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	existing, err := s.providers.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	existing.Name = input.Name
	existing.Enabled = input.Enabled
	existing.BaseRate = input.BaseRate
	existing.PerDistanceRate = input.PerDistanceRate
	existing.SpeedLabel = input.SpeedLabel
	existing.LocalOnly = input.LocalOnly

	if err := s.providers.Update(ctx, existing); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "provider updated", slog.String("provider_id", existing.ID))
	return existing, nil
}

// DeleteProvider removes a provider entirely. Quotes already attached to cart
// sessions are unaffected; they reference an immutable option snapshot.
func (s *ProviderService) DeleteProvider(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("provider id is required")
	}

	if err := s.providers.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "provider deleted", slog.String("provider_id", id))
	return nil
}

// GetOrigin retrieves the warehouse origin address.
func (s *ProviderService) GetOrigin(ctx context.Context) (*domain.OriginAddress, error) {
	return s.settings.GetOrigin(ctx)
}

// UpdateOrigin replaces the warehouse origin address.
func (s *ProviderService) UpdateOrigin(ctx context.Context, origin *domain.OriginAddress) error {
	if origin == nil {
		return apperrors.InvalidInput("origin is required")
	}
	if origin.City == "" {
		return apperrors.InvalidInput("city is required")
	}
	if origin.PostalCode == "" {
		return apperrors.InvalidInput("postal code is required")
	}

	if err := s.settings.UpdateOrigin(ctx, origin); err != nil {
		return fmt.Errorf("update origin: %w", err)
	}

	s.logger.InfoContext(ctx, "origin updated", slog.String("postal_code", origin.PostalCode))
	return nil
}
