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

const couponColumns = `
	id, store_id, title, description, discount_type, discount_value,
	valid_from, valid_to, usage_limit, usage_count, per_redeemer_limit,
	is_active, version, qr_payload, created_at, updated_at
`

// couponRepository implements the CouponRepository interface using PostgreSQL.
type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(
		&c.ID,
		&c.StoreID,
		&c.Title,
		&c.Description,
		&c.Discount.Type,
		&c.Discount.Value,
		&c.ValidFrom,
		&c.ValidTo,
		&c.UsageLimit,
		&c.UsageCount,
		&c.PerRedeemerLimit,
		&c.IsActive,
		&c.Version,
		&c.QRPayload,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new coupon.
func (r *couponRepository) Create(ctx context.Context, c *model.Coupon) error {
	query := `
		INSERT INTO coupons (` + couponColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := conn(ctx, r.pool).Exec(ctx, query,
		c.ID, c.StoreID, c.Title, c.Description, c.Discount.Type, c.Discount.Value,
		c.ValidFrom, c.ValidTo, c.UsageLimit, c.UsageCount, c.PerRedeemerLimit,
		c.IsActive, c.Version, c.QRPayload, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return model.ErrAlreadyExists
		case pgForeignKeyViolation:
			return model.ErrStoreNotFound
		}
		r.logger.Error().Err(err).Str("coupon_id", c.ID).Msg("failed to create coupon")
		return fmt.Errorf("failed to create coupon: %w", err)
	}

	r.logger.Debug().Str("coupon_id", c.ID).Str("store_id", c.StoreID).Msg("coupon created")

	return nil
}

// GetByID retrieves a coupon snapshot by its ID.
func (r *couponRepository) GetByID(ctx context.Context, id string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	c, err := scanCoupon(conn(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("coupon_id", id).Msg("coupon not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("coupon_id", id).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return c, nil
}

// ListByStore retrieves all coupons issued by a store, newest first.
func (r *couponRepository) ListByStore(ctx context.Context, storeID string) ([]model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE store_id = $1 ORDER BY created_at DESC, id`

	rows, err := conn(ctx, r.pool).Query(ctx, query, storeID)
	if err != nil {
		r.logger.Error().Err(err).Str("store_id", storeID).Msg("failed to query coupons")
		return nil, fmt.Errorf("failed to query coupons: %w", err)
	}
	defer rows.Close()

	coupons := []model.Coupon{}
	for rows.Next() {
		c, err := scanCoupon(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan coupon row")
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, *c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating coupon rows")
		return nil, fmt.Errorf("error iterating coupons: %w", err)
	}

	return coupons, nil
}

// Deactivate soft-deletes a coupon. The version is bumped so that in-flight
// redemptions holding an older snapshot fail their increment.
func (r *couponRepository) Deactivate(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE coupons
		SET is_active = FALSE, version = version + 1, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := conn(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_id", id).Msg("failed to deactivate coupon")
		return false, fmt.Errorf("failed to deactivate coupon: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// IncrementUsage applies the versioned usage increment.
func (r *couponRepository) IncrementUsage(ctx context.Context, id string, expectedVersion int64) (bool, error) {
	query := `
		UPDATE coupons
		SET usage_count = usage_count + 1, version = version + 1, updated_at = NOW()
		WHERE id = $1
		  AND version = $2
		  AND (usage_limit IS NULL OR usage_count < usage_limit)
	`

	tag, err := conn(ctx, r.pool).Exec(ctx, query, id, expectedVersion)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("coupon_id", id).
			Int64("expected_version", expectedVersion).
			Msg("failed to increment coupon usage")
		return false, fmt.Errorf("failed to increment coupon usage: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Debug().
			Str("coupon_id", id).
			Int64("expected_version", expectedVersion).
			Msg("coupon version conflict")
		return false, nil
	}

	return true, nil
}
