package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"redeemly/internal/coupon"
	"redeemly/internal/model"
	"redeemly/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// couponService implements CouponService.
type couponService struct {
	coupons     repository.CouponRepository
	redemptions repository.RedemptionRepository
	stores      repository.StoreRepository
	logger      zerolog.Logger
}

// NewCouponService creates a new coupon service.
func NewCouponService(repos repository.Repositories, logger zerolog.Logger) CouponService {
	return &couponService{
		coupons:     repos.Coupons,
		redemptions: repos.Redemptions,
		stores:      repos.Stores,
		logger:      logger.With().Str("service", "coupon").Logger(),
	}
}

// Create implements CouponService.
func (s *couponService) Create(ctx context.Context, who model.Identity, req model.CreateCouponRequest, now time.Time) (*model.Coupon, error) {
	if err := authorizeStore(ctx, s.stores, who, req.StoreID); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}

	perRedeemer := model.PerRedeemerSingleUse
	if req.PerRedeemerLimit != nil {
		perRedeemer = *req.PerRedeemerLimit
	}

	c := &model.Coupon{
		ID:               id,
		StoreID:          req.StoreID,
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		Discount:         model.Discount{Type: req.DiscountType, Value: req.Value},
		ValidFrom:        req.ValidFrom.UTC(),
		ValidTo:          req.ValidTo.UTC(),
		UsageLimit:       req.UsageLimit,
		PerRedeemerLimit: perRedeemer,
		IsActive:         true,
		Version:          1,
		QRPayload:        coupon.EncodeQRPayload(id),
		CreatedAt:        now.UTC(),
		UpdatedAt:        now.UTC(),
	}

	if err := validateCoupon(c); err != nil {
		return nil, err
	}

	if err := s.coupons.Create(ctx, c); err != nil {
		if isDomainError(err) {
			return nil, err
		}
		s.logger.Error().Err(err).Str("coupon_id", id).Msg("failed to create coupon")
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	s.logger.Info().
		Str("coupon_id", c.ID).
		Str("store_id", c.StoreID).
		Str("created_by", who.Subject).
		Msg("coupon created")

	return c, nil
}

// validateCoupon enforces the coupon invariants beyond what request tags
// can express.
func validateCoupon(c *model.Coupon) error {
	if c.Title == "" {
		return model.NewValidationError("title is required")
	}
	if !c.Discount.Valid() {
		return model.NewValidationError("discount must be a percentage in (0,100] or a positive fixed amount")
	}
	if c.ValidFrom.After(c.ValidTo) {
		return model.NewValidationError("validFrom must not be after validTo")
	}
	if c.UsageLimit != nil && *c.UsageLimit <= 0 {
		return model.NewValidationError("usageLimit must be positive when set")
	}
	if c.UsageLimit != nil && c.UsageCount > *c.UsageLimit {
		return model.NewValidationError("usageCount exceeds usageLimit")
	}
	if c.UsageCount < 0 || c.PerRedeemerLimit < 0 {
		return model.NewValidationError("counts must not be negative")
	}
	return nil
}

// GetByID implements CouponService.
func (s *couponService) GetByID(ctx context.Context, id string) (*model.Coupon, error) {
	if id == "" {
		return nil, model.ErrCouponNotFound
	}

	c, err := s.coupons.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("coupon_id", id).Msg("failed to get coupon by ID")
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}

	if c == nil {
		s.logger.Debug().Str("coupon_id", id).Msg("coupon not found")
		return nil, model.ErrCouponNotFound
	}

	return c, nil
}

// ListByStore implements CouponService.
func (s *couponService) ListByStore(ctx context.Context, storeID string) ([]model.Coupon, error) {
	coupons, err := s.coupons.ListByStore(ctx, storeID)
	if err != nil {
		s.logger.Error().Err(err).Str("store_id", storeID).Msg("failed to list coupons")
		return nil, fmt.Errorf("failed to list coupons: %w", err)
	}

	s.logger.Debug().Str("store_id", storeID).Int("count", len(coupons)).Msg("retrieved coupons")

	return coupons, nil
}

// Deactivate implements CouponService.
func (s *couponService) Deactivate(ctx context.Context, who model.Identity, id string) error {
	c, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := authorizeStore(ctx, s.stores, who, c.StoreID); err != nil {
		return err
	}

	ok, err := s.coupons.Deactivate(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("coupon_id", id).Msg("failed to deactivate coupon")
		return fmt.Errorf("failed to deactivate coupon: %w", err)
	}
	if !ok {
		return model.ErrCouponNotFound
	}

	s.logger.Info().Str("coupon_id", id).Str("deactivated_by", who.Subject).Msg("coupon deactivated")

	return nil
}

// Redemptions implements CouponService.
func (s *couponService) Redemptions(ctx context.Context, who model.Identity, couponID string) ([]model.Redemption, error) {
	c, err := s.GetByID(ctx, couponID)
	if err != nil {
		return nil, err
	}

	if err := authorizeStore(ctx, s.stores, who, c.StoreID); err != nil {
		return nil, err
	}

	redemptions, err := s.redemptions.ListByCoupon(ctx, couponID)
	if err != nil {
		s.logger.Error().Err(err).Str("coupon_id", couponID).Msg("failed to list redemptions")
		return nil, fmt.Errorf("failed to list redemptions: %w", err)
	}

	if redemptions == nil {
		redemptions = []model.Redemption{}
	}

	return redemptions, nil
}

// Summary implements CouponService.
func (s *couponService) Summary(ctx context.Context, who model.Identity, storeID string) (*model.RedemptionSummary, error) {
	if err := authorizeStore(ctx, s.stores, who, storeID); err != nil {
		return nil, err
	}

	summary, err := s.redemptions.SummarizeByStore(ctx, storeID)
	if err != nil {
		s.logger.Error().Err(err).Str("store_id", storeID).Msg("failed to summarize redemptions")
		return nil, fmt.Errorf("failed to summarize redemptions: %w", err)
	}

	return summary, nil
}
