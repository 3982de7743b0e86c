package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pishop/storefront/internal/domain"
	"github.com/pishop/storefront/pkg/database"
	apperrors "github.com/pishop/storefront/pkg/errors"
)

// The store_settings table holds a single row keyed by a fixed identifier;
// the seed migration guarantees it exists.
const settingsRowID = "default"

// SettingsRepository implements repository.SettingsRepository using PostgreSQL.
type SettingsRepository struct {
	db database.DBTX
}

// NewSettingsRepository creates a new PostgreSQL-backed settings repository.
func NewSettingsRepository(db database.DBTX) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// GetOrigin retrieves the warehouse origin address.
func (r *SettingsRepository) GetOrigin(ctx context.Context) (*domain.OriginAddress, error) {
	query := `
		SELECT origin_street, origin_city, origin_state, origin_postal_code, origin_country
		FROM store_settings
		WHERE id = $1`

	var origin domain.OriginAddress
	err := r.db.QueryRow(ctx, query, settingsRowID).Scan(
		&origin.Street,
		&origin.City,
		&origin.State,
		&origin.PostalCode,
		&origin.Country,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("store settings", settingsRowID)
		}
		return nil, fmt.Errorf("get origin: %w", err)
	}

	return &origin, nil
}

// UpdateOrigin replaces the warehouse origin address.
func (r *SettingsRepository) UpdateOrigin(ctx context.Context, origin *domain.OriginAddress) error {
	query := `
		UPDATE store_settings
		SET origin_street = $1, origin_city = $2, origin_state = $3,
		    origin_postal_code = $4, origin_country = $5, updated_at = $6
		WHERE id = $7`

	ct, err := r.db.Exec(ctx, query,
		origin.Street,
		origin.City,
		origin.State,
		origin.PostalCode,
		origin.Country,
		time.Now().UTC(),
		settingsRowID,
	)
	if err != nil {
		return fmt.Errorf("update origin: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("store settings", settingsRowID)
	}

	return nil
}
