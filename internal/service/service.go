package service

import (
	"context"
	"time"

	"redeemly/internal/model"
)

// RedemptionService coordinates coupon redemptions.
type RedemptionService interface {
	// Redeem validates and records one redemption of a coupon at time now.
	// The usage increment and the ledger append commit together or not at
	// all. Errors are *model.DomainError values.
	Redeem(ctx context.Context, req model.RedeemRequest, now time.Time) (*model.Redemption, error)

	// Scan decodes a QR payload and redeems the coupon it names.
	Scan(ctx context.Context, redeemerID string, req model.ScanRequest, now time.Time) (*model.Redemption, error)
}

// CouponService defines operations for coupon management.
type CouponService interface {
	// Create issues a new coupon for a store the caller manages.
	Create(ctx context.Context, who model.Identity, req model.CreateCouponRequest, now time.Time) (*model.Coupon, error)

	// GetByID retrieves a coupon snapshot.
	GetByID(ctx context.Context, id string) (*model.Coupon, error)

	// ListByStore retrieves all coupons issued by a store.
	ListByStore(ctx context.Context, storeID string) ([]model.Coupon, error)

	// Deactivate soft-deletes a coupon. Its redemptions are kept.
	Deactivate(ctx context.Context, who model.Identity, id string) error

	// Redemptions retrieves a coupon's ledger ordered by sequence.
	Redemptions(ctx context.Context, who model.Identity, couponID string) ([]model.Redemption, error)

	// Summary aggregates a store's redemptions.
	Summary(ctx context.Context, who model.Identity, storeID string) (*model.RedemptionSummary, error)
}

// StoreService defines operations for store management.
type StoreService interface {
	Create(ctx context.Context, req model.CreateStoreRequest) (*model.Store, error)
	GetByID(ctx context.Context, id string) (*model.Store, error)
	List(ctx context.Context) ([]model.Store, error)
}

// NotificationService defines admin notification operations.
type NotificationService interface {
	// Broadcast records and publishes a notification to a whole audience.
	Broadcast(ctx context.Context, req model.BroadcastRequest) (*model.Notification, error)

	// Recent retrieves the latest notifications, newest first.
	Recent(ctx context.Context, limit int) ([]model.Notification, error)
}

// CatalogueService imports coupon catalogue files.
type CatalogueService interface {
	// Import loads every file and creates the coupons that do not exist yet.
	Import(ctx context.Context, paths []string) (*ImportResult, error)
}

// ImportResult counts the outcome of a catalogue import.
type ImportResult struct {
	Files   int
	Created int
	Skipped int
	Invalid int
}
