package repository

import (
	"context"

	"redeemly/internal/model"
)

// Transactor runs a unit of work atomically. Repository calls made with the
// context passed to fn join the transaction; nested calls reuse it.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CouponRepository defines the interface for coupon data access operations.
type CouponRepository interface {
	// Create inserts a new coupon. Returns model.ErrAlreadyExists for a
	// duplicate ID and model.ErrStoreNotFound for an unknown store.
	Create(ctx context.Context, coupon *model.Coupon) error

	// GetByID retrieves a coupon snapshot. Returns nil when not found.
	GetByID(ctx context.Context, id string) (*model.Coupon, error)

	// ListByStore retrieves all coupons issued by a store.
	ListByStore(ctx context.Context, storeID string) ([]model.Coupon, error)

	// Deactivate soft-deletes a coupon. Returns false when not found.
	Deactivate(ctx context.Context, id string) (bool, error)

	// IncrementUsage bumps the usage count and version by one, but only if
	// the stored version still equals expectedVersion and a finite usage
	// limit would not be exceeded. Returns false on conflict.
	IncrementUsage(ctx context.Context, id string, expectedVersion int64) (bool, error)
}

// RedemptionRepository defines the append-only redemption ledger.
type RedemptionRepository interface {
	// Append records a redemption. Records are never updated or deleted.
	Append(ctx context.Context, redemption *model.Redemption) error

	// ListByRedeemer retrieves a redeemer's redemptions of one coupon.
	ListByRedeemer(ctx context.Context, couponID, redeemerID string) ([]model.Redemption, error)

	// ListByCoupon retrieves a coupon's redemptions ordered by sequence.
	ListByCoupon(ctx context.Context, couponID string) ([]model.Redemption, error)

	// SummarizeByStore aggregates the ledger for one store.
	SummarizeByStore(ctx context.Context, storeID string) (*model.RedemptionSummary, error)
}

// StoreRepository defines the interface for store data access operations.
type StoreRepository interface {
	Create(ctx context.Context, store *model.Store) error

	// GetByID retrieves a store. Returns nil when not found.
	GetByID(ctx context.Context, id string) (*model.Store, error)

	List(ctx context.Context) ([]model.Store, error)
}

// NotificationRepository is the write-once notification log.
type NotificationRepository interface {
	Create(ctx context.Context, notification *model.Notification) error

	// ListRecent retrieves the latest notifications, newest first.
	ListRecent(ctx context.Context, limit int) ([]model.Notification, error)
}

// Repositories bundles the repositories of one storage backend.
type Repositories struct {
	Transactor    Transactor
	Coupons       CouponRepository
	Redemptions   RedemptionRepository
	Stores        StoreRepository
	Notifications NotificationRepository
}
