package model

import (
	"time"

	"github.com/google/uuid"
)

// Redemption is an immutable record of one successful use of a coupon.
type Redemption struct {
	ID         uuid.UUID `json:"id" db:"id"`
	CouponID   string    `json:"couponId" db:"coupon_id"`
	RedeemerID string    `json:"redeemerId" db:"redeemer_id"`
	StoreID    string    `json:"storeId" db:"store_id"`
	Sequence   int       `json:"sequence" db:"sequence"` // coupon usage count after this redemption
	RedeemedAt time.Time `json:"redeemedAt" db:"redeemed_at"`
	Savings    float64   `json:"savings" db:"savings"`
}

// RedeemRequest is the input to a redemption attempt. RedeemerID comes from
// the authenticated identity, never from the request body.
type RedeemRequest struct {
	CouponID       string   `json:"couponId" validate:"required,max=64"`
	RedeemerID     string   `json:"-"`
	ReferencePrice *float64 `json:"referencePrice,omitempty" validate:"omitempty,gte=0"`
}

// ScanRequest carries a raw QR payload captured by a scanning client.
type ScanRequest struct {
	Payload        string   `json:"payload" validate:"required,max=1024"`
	ReferencePrice *float64 `json:"referencePrice,omitempty" validate:"omitempty,gte=0"`
}

// RedemptionSummary aggregates a store's ledger.
type RedemptionSummary struct {
	StoreID      string  `json:"storeId"`
	Redemptions  int     `json:"redemptions"`
	TotalSavings float64 `json:"totalSavings"`
	Redeemers    int     `json:"redeemers"`
}
