package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"redeemly/internal/coupon"
	"redeemly/internal/model"
	"redeemly/internal/repository"

	"github.com/rs/zerolog"
)

// catalogueService implements CatalogueService.
type catalogueService struct {
	loader  coupon.Loader
	coupons repository.CouponRepository
	logger  zerolog.Logger
}

// NewCatalogueService creates a new catalogue import service.
func NewCatalogueService(loader coupon.Loader, coupons repository.CouponRepository, logger zerolog.Logger) CatalogueService {
	return &catalogueService{
		loader:  loader,
		coupons: coupons,
		logger:  logger.With().Str("service", "catalogue").Logger(),
	}
}

// Import implements CatalogueService. Files are loaded concurrently; any
// load failure aborts the import before a coupon is written. Coupons whose
// ID already exists are skipped, invalid entries are logged and counted.
func (s *catalogueService) Import(ctx context.Context, paths []string) (*ImportResult, error) {
	type loadResult struct {
		index   int
		coupons []model.Coupon
		err     error
	}

	resultChan := make(chan loadResult, len(paths))
	var wg sync.WaitGroup

	for i, path := range paths {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()

			coupons, err := s.loader.Load(ctx, path)
			resultChan <- loadResult{index: index, coupons: coupons, err: err}
		}(i, path)
	}

	wg.Wait()
	close(resultChan)

	results := make([]loadResult, len(paths))
	for result := range resultChan {
		results[result.index] = result
	}

	for i, result := range results {
		if result.err != nil {
			s.logger.Error().Err(result.err).Str("file", paths[i]).Msg("failed to load catalogue file")
			return nil, fmt.Errorf("failed to load catalogue file %s: %w", paths[i], result.err)
		}
	}

	summary := &ImportResult{Files: len(paths)}
	now := time.Now().UTC()

	for i, result := range results {
		for _, c := range result.coupons {
			prepareImported(&c, now)

			if err := validateCoupon(&c); err != nil {
				summary.Invalid++
				s.logger.Warn().Err(err).Str("file", paths[i]).Str("coupon_id", c.ID).Msg("skipping invalid catalogue entry")
				continue
			}

			err := s.coupons.Create(ctx, &c)
			switch {
			case err == nil:
				summary.Created++
			case errors.Is(err, model.ErrAlreadyExists):
				summary.Skipped++
			case errors.Is(err, model.ErrStoreNotFound):
				summary.Invalid++
				s.logger.Warn().Str("coupon_id", c.ID).Str("store_id", c.StoreID).Msg("skipping catalogue entry for unknown store")
			default:
				s.logger.Error().Err(err).Str("coupon_id", c.ID).Msg("failed to import coupon")
				return summary, fmt.Errorf("failed to import coupon %s: %w", c.ID, err)
			}
		}
	}

	s.logger.Info().
		Int("files", summary.Files).
		Int("created", summary.Created).
		Int("skipped", summary.Skipped).
		Int("invalid", summary.Invalid).
		Msg("catalogue imported")

	return summary, nil
}

// prepareImported fills the bookkeeping fields a catalogue entry leaves out.
func prepareImported(c *model.Coupon, now time.Time) {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.QRPayload == "" {
		c.QRPayload = coupon.EncodeQRPayload(c.ID)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = c.CreatedAt
	}
}
