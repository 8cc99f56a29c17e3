package coupon

import (
	"context"
	"time"

	"redeemly/internal/model"
)

// Validator decides whether a redemption attempt is allowed.
type Validator interface {
	// Validate checks a coupon snapshot against the redeemer's prior
	// redemptions of that coupon. Checks run in a fixed order and the first
	// failing one decides:
	// - coupon is active
	// - now falls within [ValidFrom, ValidTo)
	// - usage count is below a finite usage limit
	// - redeemer is below the per-redeemer limit
	Validate(c *model.Coupon, prior []model.Redemption, now time.Time) Decision
}

// Loader defines the interface for loading coupon catalogue files.
type Loader interface {
	// Load reads a gzipped JSON-lines catalogue file and returns its coupons.
	Load(ctx context.Context, filePath string) ([]model.Coupon, error)
}
