package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"redeemly/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedemption(couponID, redeemerID string, sequence int, savings float64) *model.Redemption {
	return &model.Redemption{
		ID:         uuid.New(),
		CouponID:   couponID,
		RedeemerID: redeemerID,
		StoreID:    "S001",
		Sequence:   sequence,
		RedeemedAt: time.Now().UTC(),
		Savings:    savings,
	}
}

func TestRedemptionRepository_AppendAndList(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repos := NewPostgresRepositories(pool, zerolog.Nop())
	seedCoupons(t, repos, "S001", testCoupon("C001", "S001", nil))

	ctx := context.Background()
	require.NoError(t, repos.Redemptions.Append(ctx, testRedemption("C001", "alice", 2, 5)))
	require.NoError(t, repos.Redemptions.Append(ctx, testRedemption("C001", "bob", 1, 10)))
	require.NoError(t, repos.Redemptions.Append(ctx, testRedemption("C001", "alice", 3, 2.5)))

	all, err := repos.Redemptions.ListByCoupon(ctx, "C001")
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, rd := range all {
		assert.Equal(t, i+1, rd.Sequence)
	}

	alice, err := repos.Redemptions.ListByRedeemer(ctx, "C001", "alice")
	require.NoError(t, err)
	assert.Len(t, alice, 2)

	none, err := repos.Redemptions.ListByRedeemer(ctx, "C001", "carol")
	require.NoError(t, err)
	assert.Empty(t, none)

	summary, err := repos.Redemptions.SummarizeByStore(ctx, "S001")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Redemptions)
	assert.InDelta(t, 17.5, summary.TotalSavings, 0.001)
	assert.Equal(t, 2, summary.Redeemers)
}

func TestRedemptionRepository_DuplicateSequenceRejected(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repos := NewPostgresRepositories(pool, zerolog.Nop())
	seedCoupons(t, repos, "S001", testCoupon("C001", "S001", nil))

	ctx := context.Background()
	require.NoError(t, repos.Redemptions.Append(ctx, testRedemption("C001", "alice", 1, 0)))
	assert.Error(t, repos.Redemptions.Append(ctx, testRedemption("C001", "bob", 1, 0)))
}

func TestRedemptionRepository_Immutable(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repos := NewPostgresRepositories(pool, zerolog.Nop())
	seedCoupons(t, repos, "S001", testCoupon("C001", "S001", nil))

	ctx := context.Background()
	rd := testRedemption("C001", "alice", 1, 0)
	require.NoError(t, repos.Redemptions.Append(ctx, rd))

	_, err := pool.Exec(ctx, `UPDATE redemptions SET savings = 99 WHERE id = $1`, rd.ID)
	assert.Error(t, err)

	_, err = pool.Exec(ctx, `DELETE FROM redemptions WHERE id = $1`, rd.ID)
	assert.Error(t, err)

	// The coupon cannot be hard-deleted while it has redemptions.
	_, err = pool.Exec(ctx, `DELETE FROM coupons WHERE id = 'C001'`)
	assert.Error(t, err)
}

func TestTransactor_RollbackDiscardsIncrementAndAppend(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repos := NewPostgresRepositories(pool, zerolog.Nop())
	seedCoupons(t, repos, "S001", testCoupon("C001", "S001", intPtr(1)))

	ctx := context.Background()
	boom := errors.New("boom")

	err := repos.Transactor.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := repos.Coupons.IncrementUsage(ctx, "C001", 1)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, repos.Redemptions.Append(ctx, testRedemption("C001", "alice", 1, 0)))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	c, err := repos.Coupons.GetByID(ctx, "C001")
	require.NoError(t, err)
	assert.Equal(t, 0, c.UsageCount)
	assert.Equal(t, int64(1), c.Version)

	ledger, err := repos.Redemptions.ListByCoupon(ctx, "C001")
	require.NoError(t, err)
	assert.Empty(t, ledger)
}

func TestTransactor_CommitPersistsBoth(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repos := NewPostgresRepositories(pool, zerolog.Nop())
	seedCoupons(t, repos, "S001", testCoupon("C001", "S001", nil))

	ctx := context.Background()
	err := repos.Transactor.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := repos.Coupons.IncrementUsage(ctx, "C001", 1)
		if err != nil || !ok {
			return errors.New("increment failed")
		}
		// Nested units of work join the outer transaction.
		return repos.Transactor.WithinTx(ctx, func(ctx context.Context) error {
			return repos.Redemptions.Append(ctx, testRedemption("C001", "alice", 1, 0))
		})
	})
	require.NoError(t, err)

	c, err := repos.Coupons.GetByID(ctx, "C001")
	require.NoError(t, err)
	assert.Equal(t, 1, c.UsageCount)

	ledger, err := repos.Redemptions.ListByCoupon(ctx, "C001")
	require.NoError(t, err)
	assert.Len(t, ledger, 1)
}
