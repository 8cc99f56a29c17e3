package service

import (
	"context"
	"errors"
	"time"

	"redeemly/internal/coupon"
	"redeemly/internal/model"
	"redeemly/internal/notification"
	"redeemly/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultMaxAttempts bounds optimistic retries of a single redemption.
const DefaultMaxAttempts = 3

// errVersionConflict signals that another writer changed the coupon between
// the snapshot read and the usage increment.
var errVersionConflict = errors.New("coupon version conflict")

// redemptionService implements RedemptionService.
type redemptionService struct {
	repos       repository.Repositories
	validator   coupon.Validator
	dispatcher  notification.Dispatcher
	maxAttempts int
	logger      zerolog.Logger
}

// NewRedemptionService creates a new redemption coordinator. A maxAttempts
// below one falls back to DefaultMaxAttempts.
func NewRedemptionService(
	repos repository.Repositories,
	validator coupon.Validator,
	dispatcher notification.Dispatcher,
	maxAttempts int,
	logger zerolog.Logger,
) RedemptionService {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &redemptionService{
		repos:       repos,
		validator:   validator,
		dispatcher:  dispatcher,
		maxAttempts: maxAttempts,
		logger:      logger.With().Str("service", "redemption").Logger(),
	}
}

// Redeem implements RedemptionService.
func (s *redemptionService) Redeem(ctx context.Context, req model.RedeemRequest, now time.Time) (*model.Redemption, error) {
	if req.CouponID == "" {
		return nil, model.ErrCouponNotFound
	}
	if req.RedeemerID == "" {
		return nil, model.NewValidationError("redeemer is required")
	}

	logger := s.logger.With().
		Str("coupon_id", req.CouponID).
		Str("redeemer_id", req.RedeemerID).
		Logger()

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, model.NewStorageError(err)
		}

		redemption, err := s.attempt(ctx, req, now)
		if errors.Is(err, errVersionConflict) {
			logger.Debug().Int("attempt", attempt).Msg("redemption lost a concurrent update, retrying")
			continue
		}
		if err != nil {
			logDenial(logger, err)
			return nil, err
		}

		logger.Info().
			Str("redemption_id", redemption.ID.String()).
			Int("sequence", redemption.Sequence).
			Float64("savings", redemption.Savings).
			Msg("coupon redeemed")

		s.dispatcher.NotifyMerchant(ctx, redemption.StoreID, *redemption)

		return redemption, nil
	}

	logger.Warn().Int("attempts", s.maxAttempts).Msg("redemption retries exhausted")
	return nil, model.ErrConflict
}

// attempt runs one read, validate and commit cycle.
func (s *redemptionService) attempt(ctx context.Context, req model.RedeemRequest, now time.Time) (*model.Redemption, error) {
	c, err := s.repos.Coupons.GetByID(ctx, req.CouponID)
	if err != nil {
		return nil, model.NewStorageError(err)
	}
	if c == nil {
		return nil, model.ErrCouponNotFound
	}

	prior, err := s.repos.Redemptions.ListByRedeemer(ctx, c.ID, req.RedeemerID)
	if err != nil {
		return nil, model.NewStorageError(err)
	}

	if decision := s.validator.Validate(c, prior, now); !decision.Allowed {
		return nil, decision.Reason
	}

	// The increment only succeeds against this exact snapshot version, so
	// the usage count after it is the snapshot's plus one.
	redemption := &model.Redemption{
		ID:         uuid.New(),
		CouponID:   c.ID,
		RedeemerID: req.RedeemerID,
		StoreID:    c.StoreID,
		Sequence:   c.UsageCount + 1,
		RedeemedAt: now,
		Savings:    c.Discount.Savings(req.ReferencePrice),
	}

	err = s.repos.Transactor.WithinTx(ctx, func(ctx context.Context) error {
		ok, err := s.repos.Coupons.IncrementUsage(ctx, c.ID, c.Version)
		if err != nil {
			return err
		}
		if !ok {
			return errVersionConflict
		}
		return s.repos.Redemptions.Append(ctx, redemption)
	})
	if err != nil {
		if errors.Is(err, errVersionConflict) {
			return nil, errVersionConflict
		}
		return nil, model.NewStorageError(err)
	}

	return redemption, nil
}

// Scan implements RedemptionService.
func (s *redemptionService) Scan(ctx context.Context, redeemerID string, req model.ScanRequest, now time.Time) (*model.Redemption, error) {
	couponID, err := coupon.ParseQRPayload(req.Payload)
	if err != nil {
		s.logger.Debug().Err(err).Str("redeemer_id", redeemerID).Msg("rejected QR payload")
		return nil, err
	}

	return s.Redeem(ctx, model.RedeemRequest{
		CouponID:       couponID,
		RedeemerID:     redeemerID,
		ReferencePrice: req.ReferencePrice,
	}, now)
}

func logDenial(logger zerolog.Logger, err error) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		logger.Error().Err(err).Msg("redemption failed")
		return
	}

	switch domainErr.Code {
	case model.ErrCodeStorage:
		logger.Error().Err(err).Msg("redemption failed on storage")
	default:
		logger.Info().Str("reason", domainErr.Code).Msg("redemption denied")
	}
}
