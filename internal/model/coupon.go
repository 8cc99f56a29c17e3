package model

import (
	"math"
	"time"
)

// DiscountType tags how a coupon's discount value is interpreted.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Per-redeemer policies. Values above one allow N redemptions per redeemer.
const (
	PerRedeemerUnbounded = 0
	PerRedeemerSingleUse = 1
)

// Discount is either a percentage in (0,100] or a fixed amount > 0.
type Discount struct {
	Type  DiscountType `json:"discountType"`
	Value float64      `json:"value"`
}

// Valid reports whether the discount is well formed for its type.
func (d Discount) Valid() bool {
	switch d.Type {
	case DiscountPercentage:
		return d.Value > 0 && d.Value <= 100
	case DiscountFixed:
		return d.Value > 0
	default:
		return false
	}
}

// Savings computes the amount saved against a reference price. A percentage
// discount without a reference price saves nothing; a fixed discount is capped
// at the reference price when one is supplied.
func (d Discount) Savings(referencePrice *float64) float64 {
	var savings float64
	switch d.Type {
	case DiscountPercentage:
		if referencePrice == nil {
			return 0
		}
		savings = d.Value / 100 * *referencePrice
	case DiscountFixed:
		savings = d.Value
		if referencePrice != nil && *referencePrice < savings {
			savings = *referencePrice
		}
	}
	if savings < 0 {
		return 0
	}
	return math.Round(savings*100) / 100
}

// Coupon is a discount offer issued by a store.
type Coupon struct {
	ID               string    `json:"id" db:"id"`
	StoreID          string    `json:"storeId" db:"store_id"`
	Title            string    `json:"title" db:"title"`
	Description      string    `json:"description" db:"description"`
	Discount         Discount  `json:"discount"`
	ValidFrom        time.Time `json:"validFrom" db:"valid_from"`
	ValidTo          time.Time `json:"validTo" db:"valid_to"`
	UsageLimit       *int      `json:"usageLimit" db:"usage_limit"` // nil means unlimited
	UsageCount       int       `json:"usageCount" db:"usage_count"`
	PerRedeemerLimit int       `json:"perRedeemerLimit" db:"per_redeemer_limit"`
	IsActive         bool      `json:"isActive" db:"is_active"`
	Version          int64     `json:"version" db:"version"`
	QRPayload        string    `json:"qrPayload,omitempty" db:"qr_payload"`
	CreatedAt        time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
}

// Unlimited reports whether the coupon has no total usage limit.
func (c *Coupon) Unlimited() bool {
	return c.UsageLimit == nil
}

// Remaining returns the number of redemptions left, or -1 when unlimited.
func (c *Coupon) Remaining() int {
	if c.UsageLimit == nil {
		return -1
	}
	if left := *c.UsageLimit - c.UsageCount; left > 0 {
		return left
	}
	return 0
}

// CreateCouponRequest represents the payload a merchant submits to create a coupon.
type CreateCouponRequest struct {
	ID               string       `json:"id,omitempty" validate:"omitempty,max=64"`
	StoreID          string       `json:"storeId" validate:"required,max=64"`
	Title            string       `json:"title" validate:"required,max=255"`
	Description      string       `json:"description" validate:"max=2000"`
	DiscountType     DiscountType `json:"discountType" validate:"required,oneof=percentage fixed"`
	Value            float64      `json:"value" validate:"gt=0"`
	ValidFrom        time.Time    `json:"validFrom" validate:"required"`
	ValidTo          time.Time    `json:"validTo" validate:"required,gtefield=ValidFrom"`
	UsageLimit       *int         `json:"usageLimit,omitempty" validate:"omitempty,gt=0"`
	PerRedeemerLimit *int         `json:"perRedeemerLimit,omitempty" validate:"omitempty,gte=0"`
}
