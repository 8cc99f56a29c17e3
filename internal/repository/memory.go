package repository

import (
	"context"
	"sort"
	"sync"

	"redeemly/internal/model"

	"github.com/rs/zerolog"
)

// memoryState is the shared state behind the in-memory repositories. A
// transaction holds the write lock for its whole duration and keeps an undo
// journal so a failed unit of work leaves no trace.
type memoryState struct {
	mu            sync.RWMutex
	coupons       map[string]model.Coupon
	stores        map[string]model.Store
	redemptions   []model.Redemption
	notifications []model.Notification
	logger        zerolog.Logger
}

type memoryTx struct {
	state *memoryState
	undo  []func()
}

type memoryTxKey struct{}

// NewMemoryRepositories creates repositories backed by process memory. They
// are meant for local development and tests; nothing is persisted.
func NewMemoryRepositories(logger zerolog.Logger) Repositories {
	s := &memoryState{
		coupons: make(map[string]model.Coupon),
		stores:  make(map[string]model.Store),
		logger:  logger.With().Str("repository", "memory").Logger(),
	}
	return Repositories{
		Transactor:    &memoryTransactor{s},
		Coupons:       &memoryCouponRepository{s},
		Redemptions:   &memoryRedemptionRepository{s},
		Stores:        &memoryStoreRepository{s},
		Notifications: &memoryNotificationRepository{s},
	}
}

func (s *memoryState) txFrom(ctx context.Context) *memoryTx {
	if tx, ok := ctx.Value(memoryTxKey{}).(*memoryTx); ok && tx.state == s {
		return tx
	}
	return nil
}

// read runs fn under the read lock unless ctx already holds the write lock.
func (s *memoryState) read(ctx context.Context, fn func()) {
	if s.txFrom(ctx) != nil {
		fn()
		return
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn()
}

// write runs fn under the write lock unless ctx already holds it. fn receives
// a journal to register compensating actions with.
func (s *memoryState) write(ctx context.Context, fn func(onRollback func(func()))) {
	if tx := s.txFrom(ctx); tx != nil {
		fn(func(u func()) { tx.undo = append(tx.undo, u) })
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(func(func()) {})
}

type memoryTransactor struct {
	s *memoryState
}

func (t *memoryTransactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if t.s.txFrom(ctx) != nil {
		return fn(ctx)
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	tx := &memoryTx{state: t.s}
	if err := fn(context.WithValue(ctx, memoryTxKey{}, tx)); err != nil {
		for i := len(tx.undo) - 1; i >= 0; i-- {
			tx.undo[i]()
		}
		t.s.logger.Debug().Err(err).Int("undone", len(tx.undo)).Msg("transaction rolled back")
		return err
	}
	return nil
}

type memoryCouponRepository struct {
	s *memoryState
}

func (r *memoryCouponRepository) Create(ctx context.Context, c *model.Coupon) error {
	var err error
	r.s.write(ctx, func(onRollback func(func())) {
		if _, exists := r.s.coupons[c.ID]; exists {
			err = model.ErrAlreadyExists
			return
		}
		if _, exists := r.s.stores[c.StoreID]; !exists {
			err = model.ErrStoreNotFound
			return
		}
		r.s.coupons[c.ID] = *c
		id := c.ID
		onRollback(func() { delete(r.s.coupons, id) })
	})
	return err
}

func (r *memoryCouponRepository) GetByID(ctx context.Context, id string) (*model.Coupon, error) {
	var found *model.Coupon
	r.s.read(ctx, func() {
		if c, ok := r.s.coupons[id]; ok {
			found = &c
		}
	})
	return found, nil
}

func (r *memoryCouponRepository) ListByStore(ctx context.Context, storeID string) ([]model.Coupon, error) {
	coupons := []model.Coupon{}
	r.s.read(ctx, func() {
		for _, c := range r.s.coupons {
			if c.StoreID == storeID {
				coupons = append(coupons, c)
			}
		}
	})
	sort.Slice(coupons, func(i, j int) bool {
		if !coupons[i].CreatedAt.Equal(coupons[j].CreatedAt) {
			return coupons[i].CreatedAt.After(coupons[j].CreatedAt)
		}
		return coupons[i].ID < coupons[j].ID
	})
	return coupons, nil
}

func (r *memoryCouponRepository) Deactivate(ctx context.Context, id string) (bool, error) {
	var ok bool
	r.s.write(ctx, func(onRollback func(func())) {
		c, exists := r.s.coupons[id]
		if !exists {
			return
		}
		prev := c
		c.IsActive = false
		c.Version++
		r.s.coupons[id] = c
		onRollback(func() { r.s.coupons[id] = prev })
		ok = true
	})
	return ok, nil
}

func (r *memoryCouponRepository) IncrementUsage(ctx context.Context, id string, expectedVersion int64) (bool, error) {
	var ok bool
	r.s.write(ctx, func(onRollback func(func())) {
		c, exists := r.s.coupons[id]
		if !exists || c.Version != expectedVersion {
			return
		}
		if c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit {
			return
		}
		prev := c
		c.UsageCount++
		c.Version++
		r.s.coupons[id] = c
		onRollback(func() { r.s.coupons[id] = prev })
		ok = true
	})
	return ok, nil
}

type memoryRedemptionRepository struct {
	s *memoryState
}

func (r *memoryRedemptionRepository) Append(ctx context.Context, rd *model.Redemption) error {
	r.s.write(ctx, func(onRollback func(func())) {
		r.s.redemptions = append(r.s.redemptions, *rd)
		n := len(r.s.redemptions) - 1
		onRollback(func() { r.s.redemptions = r.s.redemptions[:n] })
	})
	return nil
}

func (r *memoryRedemptionRepository) ListByRedeemer(ctx context.Context, couponID, redeemerID string) ([]model.Redemption, error) {
	return r.filter(ctx, func(rd model.Redemption) bool {
		return rd.CouponID == couponID && rd.RedeemerID == redeemerID
	}), nil
}

func (r *memoryRedemptionRepository) ListByCoupon(ctx context.Context, couponID string) ([]model.Redemption, error) {
	return r.filter(ctx, func(rd model.Redemption) bool {
		return rd.CouponID == couponID
	}), nil
}

func (r *memoryRedemptionRepository) filter(ctx context.Context, keep func(model.Redemption) bool) []model.Redemption {
	var out []model.Redemption
	r.s.read(ctx, func() {
		for _, rd := range r.s.redemptions {
			if keep(rd) {
				out = append(out, rd)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}

func (r *memoryRedemptionRepository) SummarizeByStore(ctx context.Context, storeID string) (*model.RedemptionSummary, error) {
	summary := &model.RedemptionSummary{StoreID: storeID}
	redeemers := make(map[string]struct{})
	r.s.read(ctx, func() {
		for _, rd := range r.s.redemptions {
			if rd.StoreID != storeID {
				continue
			}
			summary.Redemptions++
			summary.TotalSavings += rd.Savings
			redeemers[rd.RedeemerID] = struct{}{}
		}
	})
	summary.Redeemers = len(redeemers)
	return summary, nil
}

type memoryStoreRepository struct {
	s *memoryState
}

func (r *memoryStoreRepository) Create(ctx context.Context, st *model.Store) error {
	var err error
	r.s.write(ctx, func(onRollback func(func())) {
		if _, exists := r.s.stores[st.ID]; exists {
			err = model.ErrAlreadyExists
			return
		}
		r.s.stores[st.ID] = *st
		id := st.ID
		onRollback(func() { delete(r.s.stores, id) })
	})
	return err
}

func (r *memoryStoreRepository) GetByID(ctx context.Context, id string) (*model.Store, error) {
	var found *model.Store
	r.s.read(ctx, func() {
		if st, ok := r.s.stores[id]; ok {
			found = &st
		}
	})
	return found, nil
}

func (r *memoryStoreRepository) List(ctx context.Context) ([]model.Store, error) {
	stores := []model.Store{}
	r.s.read(ctx, func() {
		for _, st := range r.s.stores {
			stores = append(stores, st)
		}
	})
	sort.Slice(stores, func(i, j int) bool {
		if stores[i].Name != stores[j].Name {
			return stores[i].Name < stores[j].Name
		}
		return stores[i].ID < stores[j].ID
	})
	return stores, nil
}

type memoryNotificationRepository struct {
	s *memoryState
}

func (r *memoryNotificationRepository) Create(ctx context.Context, n *model.Notification) error {
	r.s.write(ctx, func(onRollback func(func())) {
		r.s.notifications = append(r.s.notifications, *n)
		k := len(r.s.notifications) - 1
		onRollback(func() { r.s.notifications = r.s.notifications[:k] })
	})
	return nil
}

func (r *memoryNotificationRepository) ListRecent(ctx context.Context, limit int) ([]model.Notification, error) {
	out := []model.Notification{}
	r.s.read(ctx, func() {
		for i := len(r.s.notifications) - 1; i >= 0 && len(out) < limit; i-- {
			out = append(out, r.s.notifications[i])
		}
	})
	return out, nil
}
