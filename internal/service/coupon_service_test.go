package service

import (
	"context"
	"testing"
	"time"

	"redeemly/internal/coupon"
	"redeemly/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin    = model.Identity{Subject: "root", Role: model.RoleAdmin}
	owner    = model.Identity{Subject: "m1", Role: model.RoleMerchant}
	stranger = model.Identity{Subject: "m2", Role: model.RoleMerchant}
	customer = model.Identity{Subject: "alice", Role: model.RoleCustomer}
)

func validCouponRequest() model.CreateCouponRequest {
	return model.CreateCouponRequest{
		StoreID:      "S001",
		Title:        "Weekend deal",
		DiscountType: model.DiscountPercentage,
		Value:        15,
		ValidFrom:    testNow,
		ValidTo:      testNow.Add(7 * 24 * time.Hour),
		UsageLimit:   intPtr(100),
	}
}

func TestCouponService_Create(t *testing.T) {
	tests := []struct {
		name   string
		who    model.Identity
		mutate func(r *model.CreateCouponRequest)
		code   string
	}{
		{name: "owner creates coupon", who: owner, mutate: func(r *model.CreateCouponRequest) {}},
		{name: "admin creates coupon", who: admin, mutate: func(r *model.CreateCouponRequest) { r.ID = "ADMIN-1" }},
		{name: "other merchant is forbidden", who: stranger, mutate: func(r *model.CreateCouponRequest) {}, code: model.ErrCodeForbidden},
		{name: "customer is forbidden", who: customer, mutate: func(r *model.CreateCouponRequest) {}, code: model.ErrCodeForbidden},
		{name: "unknown store", who: admin, mutate: func(r *model.CreateCouponRequest) { r.StoreID = "S404" }, code: model.ErrCodeStoreNotFound},
		{name: "percentage above 100", who: owner, mutate: func(r *model.CreateCouponRequest) { r.Value = 120 }, code: model.ErrCodeInvalidRequest},
		{name: "inverted window", who: owner, mutate: func(r *model.CreateCouponRequest) { r.ValidTo = r.ValidFrom.Add(-time.Hour) }, code: model.ErrCodeInvalidRequest},
		{name: "zero usage limit", who: owner, mutate: func(r *model.CreateCouponRequest) { r.UsageLimit = intPtr(0) }, code: model.ErrCodeInvalidRequest},
		{name: "blank title", who: owner, mutate: func(r *model.CreateCouponRequest) { r.Title = "  " }, code: model.ErrCodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repos := setupRepos(t)
			svc := NewCouponService(repos, zerolog.Nop())

			req := validCouponRequest()
			tt.mutate(&req)

			c, err := svc.Create(context.Background(), tt.who, req, testNow)

			if tt.code != "" {
				assert.Nil(t, c)
				requireCode(t, err, tt.code)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, c)
			assert.NotEmpty(t, c.ID)
			assert.True(t, c.IsActive)
			assert.Equal(t, int64(1), c.Version)
			assert.Equal(t, 0, c.UsageCount)
			assert.Equal(t, model.PerRedeemerSingleUse, c.PerRedeemerLimit)

			id, err := coupon.ParseQRPayload(c.QRPayload)
			require.NoError(t, err)
			assert.Equal(t, c.ID, id)

			stored, err := svc.GetByID(context.Background(), c.ID)
			require.NoError(t, err)
			assert.Equal(t, c.Title, stored.Title)
		})
	}
}

func TestCouponService_Create_Duplicate(t *testing.T) {
	svc := NewCouponService(setupRepos(t), zerolog.Nop())
	req := validCouponRequest()
	req.ID = "DUP"

	_, err := svc.Create(context.Background(), owner, req, testNow)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), owner, req, testNow)
	requireCode(t, err, model.ErrCodeAlreadyExists)
}

func TestCouponService_GetByID(t *testing.T) {
	svc := NewCouponService(setupRepos(t, newTestCoupon("C001", nil)), zerolog.Nop())

	c, err := svc.GetByID(context.Background(), "C001")
	require.NoError(t, err)
	assert.Equal(t, "C001", c.ID)

	_, err = svc.GetByID(context.Background(), "C404")
	requireCode(t, err, model.ErrCodeNotFound)

	_, err = svc.GetByID(context.Background(), "")
	requireCode(t, err, model.ErrCodeNotFound)
}

func TestCouponService_DeactivateStopsRedemptions(t *testing.T) {
	repos := setupRepos(t, newTestCoupon("C001", nil))
	coupons := NewCouponService(repos, zerolog.Nop())
	redemptions := newRedemptionService(repos, newNotifier())
	ctx := context.Background()

	_, err := redemptions.Redeem(ctx, model.RedeemRequest{CouponID: "C001", RedeemerID: "alice"}, testNow)
	require.NoError(t, err)

	requireCode(t, coupons.Deactivate(ctx, stranger, "C001"), model.ErrCodeForbidden)
	require.NoError(t, coupons.Deactivate(ctx, owner, "C001"))
	requireCode(t, coupons.Deactivate(ctx, owner, "C404"), model.ErrCodeNotFound)

	_, err = redemptions.Redeem(ctx, model.RedeemRequest{CouponID: "C001", RedeemerID: "bob"}, testNow)
	requireCode(t, err, model.ErrCodeInactive)

	// History survives the soft delete.
	ledger, err := coupons.Redemptions(ctx, owner, "C001")
	require.NoError(t, err)
	assert.Len(t, ledger, 1)
}

func TestCouponService_LedgerAndSummary(t *testing.T) {
	c := newTestCoupon("C001", nil)
	c.PerRedeemerLimit = model.PerRedeemerUnbounded
	repos := setupRepos(t, c, newTestCoupon("C002", nil))
	coupons := NewCouponService(repos, zerolog.Nop())
	redemptions := newRedemptionService(repos, newNotifier())
	ctx := context.Background()

	for _, req := range []model.RedeemRequest{
		{CouponID: "C001", RedeemerID: "alice", ReferencePrice: floatPtr(50)},
		{CouponID: "C001", RedeemerID: "alice", ReferencePrice: floatPtr(10)},
		{CouponID: "C002", RedeemerID: "bob", ReferencePrice: floatPtr(100)},
	} {
		_, err := redemptions.Redeem(ctx, req, testNow)
		require.NoError(t, err)
	}

	ledger, err := coupons.Redemptions(ctx, owner, "C001")
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	assert.Equal(t, 1, ledger[0].Sequence)
	assert.Equal(t, 2, ledger[1].Sequence)

	second, err := coupons.Redemptions(ctx, admin, "C002")
	require.NoError(t, err)
	assert.Len(t, second, 1)

	_, err = coupons.Redemptions(ctx, customer, "C001")
	requireCode(t, err, model.ErrCodeForbidden)

	summary, err := coupons.Summary(ctx, owner, "S001")
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Redemptions)
	assert.InDelta(t, 32.0, summary.TotalSavings, 0.001)
	assert.Equal(t, 2, summary.Redeemers)

	_, err = coupons.Summary(ctx, stranger, "S001")
	requireCode(t, err, model.ErrCodeForbidden)

	list, err := coupons.ListByStore(ctx, "S001")
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
