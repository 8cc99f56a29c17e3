package model

import "time"

// Store is a merchant-owned shop that issues coupons.
type Store struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	MerchantID string    `json:"merchantId" db:"merchant_id"`
	IsActive   bool      `json:"isActive" db:"is_active"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`
}

// CreateStoreRequest represents the payload for registering a store.
type CreateStoreRequest struct {
	ID         string `json:"id,omitempty" validate:"omitempty,max=64"`
	Name       string `json:"name" validate:"required,max=255"`
	MerchantID string `json:"merchantId" validate:"required,max=128"`
}
