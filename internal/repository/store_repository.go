package repository

import (
	"context"
	"errors"
	"fmt"

	"redeemly/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// storeRepository implements the StoreRepository interface using PostgreSQL.
type storeRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewStoreRepository creates a new PostgreSQL-backed store repository.
func NewStoreRepository(pool *pgxpool.Pool, logger zerolog.Logger) StoreRepository {
	return &storeRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "store").Logger(),
	}
}

// Create inserts a new store.
func (r *storeRepository) Create(ctx context.Context, s *model.Store) error {
	query := `
		INSERT INTO stores (id, name, merchant_id, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := conn(ctx, r.pool).Exec(ctx, query, s.ID, s.Name, s.MerchantID, s.IsActive, s.CreatedAt)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return model.ErrAlreadyExists
		}
		r.logger.Error().Err(err).Str("store_id", s.ID).Msg("failed to create store")
		return fmt.Errorf("failed to create store: %w", err)
	}

	return nil
}

// GetByID retrieves a store by its ID.
func (r *storeRepository) GetByID(ctx context.Context, id string) (*model.Store, error) {
	query := `
		SELECT id, name, merchant_id, is_active, created_at
		FROM stores
		WHERE id = $1
	`

	var s model.Store
	err := conn(ctx, r.pool).QueryRow(ctx, query, id).Scan(&s.ID, &s.Name, &s.MerchantID, &s.IsActive, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("store_id", id).Msg("store not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("store_id", id).Msg("failed to query store")
		return nil, fmt.Errorf("failed to query store: %w", err)
	}

	return &s, nil
}

// List retrieves all stores ordered by name.
func (r *storeRepository) List(ctx context.Context) ([]model.Store, error) {
	query := `
		SELECT id, name, merchant_id, is_active, created_at
		FROM stores
		ORDER BY name, id
	`

	rows, err := conn(ctx, r.pool).Query(ctx, query)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query stores")
		return nil, fmt.Errorf("failed to query stores: %w", err)
	}
	defer rows.Close()

	stores := []model.Store{}
	for rows.Next() {
		var s model.Store
		if err := rows.Scan(&s.ID, &s.Name, &s.MerchantID, &s.IsActive, &s.CreatedAt); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan store row")
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		stores = append(stores, s)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating store rows")
		return nil, fmt.Errorf("error iterating stores: %w", err)
	}

	return stores, nil
}
