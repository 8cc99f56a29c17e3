package repository

import (
	"context"
	"fmt"

	"redeemly/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// redemptionRepository implements the RedemptionRepository interface using PostgreSQL.
type redemptionRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewRedemptionRepository creates a new PostgreSQL-backed redemption ledger.
func NewRedemptionRepository(pool *pgxpool.Pool, logger zerolog.Logger) RedemptionRepository {
	return &redemptionRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "redemption").Logger(),
	}
}

// Append records a redemption.
func (r *redemptionRepository) Append(ctx context.Context, rd *model.Redemption) error {
	query := `
		INSERT INTO redemptions (id, coupon_id, redeemer_id, store_id, sequence, redeemed_at, savings)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := conn(ctx, r.pool).Exec(ctx, query,
		rd.ID, rd.CouponID, rd.RedeemerID, rd.StoreID, rd.Sequence, rd.RedeemedAt, rd.Savings,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("redemption_id", rd.ID.String()).
			Str("coupon_id", rd.CouponID).
			Msg("failed to append redemption")
		return fmt.Errorf("failed to append redemption: %w", err)
	}

	r.logger.Debug().
		Str("redemption_id", rd.ID.String()).
		Str("coupon_id", rd.CouponID).
		Int("sequence", rd.Sequence).
		Msg("redemption appended")

	return nil
}

// ListByRedeemer retrieves a redeemer's redemptions of one coupon.
func (r *redemptionRepository) ListByRedeemer(ctx context.Context, couponID, redeemerID string) ([]model.Redemption, error) {
	query := `
		SELECT id, coupon_id, redeemer_id, store_id, sequence, redeemed_at, savings
		FROM redemptions
		WHERE coupon_id = $1 AND redeemer_id = $2
		ORDER BY sequence
	`

	return r.list(ctx, query, couponID, redeemerID)
}

// ListByCoupon retrieves a coupon's redemptions ordered by sequence.
func (r *redemptionRepository) ListByCoupon(ctx context.Context, couponID string) ([]model.Redemption, error) {
	query := `
		SELECT id, coupon_id, redeemer_id, store_id, sequence, redeemed_at, savings
		FROM redemptions
		WHERE coupon_id = $1
		ORDER BY sequence
	`

	return r.list(ctx, query, couponID)
}

func (r *redemptionRepository) list(ctx context.Context, query string, args ...any) ([]model.Redemption, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query redemptions")
		return nil, fmt.Errorf("failed to query redemptions: %w", err)
	}

	redemptions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Redemption, error) {
		var rd model.Redemption
		err := row.Scan(&rd.ID, &rd.CouponID, &rd.RedeemerID, &rd.StoreID, &rd.Sequence, &rd.RedeemedAt, &rd.Savings)
		return rd, err
	})
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan redemption rows")
		return nil, fmt.Errorf("failed to scan redemptions: %w", err)
	}

	return redemptions, nil
}

// SummarizeByStore aggregates the ledger for one store.
func (r *redemptionRepository) SummarizeByStore(ctx context.Context, storeID string) (*model.RedemptionSummary, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(savings), 0)::float8, COUNT(DISTINCT redeemer_id)
		FROM redemptions
		WHERE store_id = $1
	`

	summary := &model.RedemptionSummary{StoreID: storeID}
	err := conn(ctx, r.pool).QueryRow(ctx, query, storeID).Scan(
		&summary.Redemptions,
		&summary.TotalSavings,
		&summary.Redeemers,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("store_id", storeID).Msg("failed to summarize redemptions")
		return nil, fmt.Errorf("failed to summarize redemptions: %w", err)
	}

	return summary, nil
}
