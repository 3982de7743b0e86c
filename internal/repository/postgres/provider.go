package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/pishop/storefront/internal/domain"
	"github.com/pishop/storefront/pkg/database"
	apperrors "github.com/pishop/storefront/pkg/errors"
)

// Rates are stored as NUMERIC(12,4) and selected with a ::text cast so they
// round-trip through shopspring/decimal without float conversion.

// ProviderRepository implements repository.ProviderRepository using PostgreSQL.
type ProviderRepository struct {
	db database.DBTX
}

// NewProviderRepository creates a new PostgreSQL-backed provider repository.
func NewProviderRepository(db database.DBTX) *ProviderRepository {
	return &ProviderRepository{db: db}
}

// Create inserts a new provider config into the database.
func (r *ProviderRepository) Create(ctx context.Context, p *domain.ProviderConfig) error {
	query := `
		INSERT INTO delivery_providers (
			id, name, enabled, base_rate, per_distance_rate,
			speed_label, local_only, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Enabled,
		p.BaseRate.String(),
		p.PerDistanceRate.String(),
		p.SpeedLabel,
		p.LocalOnly,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("provider", "id", p.ID)
		}
		return fmt.Errorf("insert provider: %w", err)
	}

	return nil
}

// GetByID retrieves a provider by its identifier.
func (r *ProviderRepository) GetByID(ctx context.Context, id string) (*domain.ProviderConfig, error) {
	query := providerSelect + ` WHERE id = $1`

	p, err := scanProvider(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("provider", id)
		}
		return nil, fmt.Errorf("get provider: %w", err)
	}

	return p, nil
}

// List returns all providers ordered by creation time.
func (r *ProviderRepository) List(ctx context.Context) ([]domain.ProviderConfig, error) {
	return r.list(ctx, providerSelect+` ORDER BY created_at`)
}

// ListEnabled returns only enabled providers ordered by creation time.
func (r *ProviderRepository) ListEnabled(ctx context.Context) ([]domain.ProviderConfig, error) {
	return r.list(ctx, providerSelect+` WHERE enabled ORDER BY created_at`)
}

func (r *ProviderRepository) list(ctx context.Context, query string) ([]domain.ProviderConfig, error) {
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	defer rows.Close()

	providers := []domain.ProviderConfig{}
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, fmt.Errorf("scan provider row: %w", err)
		}
		providers = append(providers, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate provider rows: %w", err)
	}

	return providers, nil
}

// Update modifies an existing provider config in the database.
func (r *ProviderRepository) Update(ctx context.Context, p *domain.ProviderConfig) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE delivery_providers
		SET name = $1, enabled = $2, base_rate = $3, per_distance_rate = $4,
		    speed_label = $5, local_only = $6, updated_at = $7
		WHERE id = $8`

	ct, err := r.db.Exec(ctx, query,
		p.Name,
		p.Enabled,
		p.BaseRate.String(),
		p.PerDistanceRate.String(),
		p.SpeedLabel,
		p.LocalOnly,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update provider: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("provider", p.ID)
	}

	return nil
}

// Delete removes a provider by its identifier.
func (r *ProviderRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM delivery_providers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete provider: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("provider", id)
	}

	return nil
}

const providerSelect = `
	SELECT id, name, enabled, base_rate::text, per_distance_rate::text,
	       speed_label, local_only, created_at, updated_at
	FROM delivery_providers`

func scanProvider(row pgx.Row) (*domain.ProviderConfig, error) {
	var (
		p        domain.ProviderConfig
		baseRate string
		perDist  string
	)

	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Enabled,
		&baseRate,
		&perDist,
		&p.SpeedLabel,
		&p.LocalOnly,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if p.BaseRate, err = decimal.NewFromString(baseRate); err != nil {
		return nil, fmt.Errorf("parse base_rate: %w", err)
	}
	if p.PerDistanceRate, err = decimal.NewFromString(perDist); err != nil {
		return nil, fmt.Errorf("parse per_distance_rate: %w", err)
	}

	return &p, nil
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
