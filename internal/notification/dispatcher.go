package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"redeemly/internal/model"
	"redeemly/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	redeemedTitle = "Coupon Redeemed"
	redeemedBody  = "A customer has redeemed a coupon at your store!"
)

type dispatcher struct {
	stores        repository.StoreRepository
	notifications repository.NotificationRepository
	publisher     Publisher
	timeout       time.Duration
	logger        zerolog.Logger
	wg            sync.WaitGroup
}

// NewDispatcher creates a new notification dispatcher. timeout bounds each
// background merchant notification.
func NewDispatcher(
	stores repository.StoreRepository,
	notifications repository.NotificationRepository,
	publisher Publisher,
	timeout time.Duration,
	logger zerolog.Logger,
) Dispatcher {
	return &dispatcher{
		stores:        stores,
		notifications: notifications,
		publisher:     publisher,
		timeout:       timeout,
		logger:        logger.With().Str("component", "notification-dispatcher").Logger(),
	}
}

// NotifyMerchant implements Dispatcher.
func (d *dispatcher) NotifyMerchant(ctx context.Context, storeID string, redemption model.Redemption) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error().
					Interface("panic", r).
					Str("redemption_id", redemption.ID.String()).
					Msg("panic while notifying merchant")
			}
		}()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		defer cancel()

		d.notifyMerchant(ctx, storeID, redemption)
	}()
}

func (d *dispatcher) notifyMerchant(ctx context.Context, storeID string, redemption model.Redemption) {
	logger := d.logger.With().
		Str("store_id", storeID).
		Str("coupon_id", redemption.CouponID).
		Str("redemption_id", redemption.ID.String()).
		Logger()

	store, err := d.stores.GetByID(ctx, storeID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to resolve store for notification")
		return
	}
	if store == nil || store.MerchantID == "" {
		logger.Warn().Msg("store has no merchant, skipping notification")
		return
	}

	topic, err := Topic(model.AudienceStoreMerchant, store.MerchantID)
	if err != nil {
		logger.Error().Err(err).Msg("failed to resolve notification topic")
		return
	}

	n := &model.Notification{
		ID:       uuid.New(),
		Title:    redeemedTitle,
		Body:     redeemedBody,
		Type:     model.NotificationCoupon,
		Audience: model.Audience{Kind: model.AudienceStoreMerchant, StoreID: storeID},
		Topic:    topic,
		Data: map[string]string{
			"type":         "coupon_redeemed",
			"couponId":     redemption.CouponID,
			"storeId":      storeID,
			"redemptionId": redemption.ID.String(),
		},
		SentAt: time.Now().UTC(),
	}

	if err := d.notifications.Create(ctx, n); err != nil {
		// The push is still attempted; the log entry is best effort.
		logger.Error().Err(err).Msg("failed to record merchant notification")
	}

	if err := d.publisher.Publish(ctx, n); err != nil {
		logger.Warn().Err(err).Str("topic", topic).Msg("failed to publish merchant notification")
		return
	}

	logger.Debug().Str("topic", topic).Msg("merchant notified")
}

// Broadcast implements Dispatcher.
func (d *dispatcher) Broadcast(ctx context.Context, req model.BroadcastRequest) (*model.Notification, error) {
	if req.Audience == model.AudienceStoreMerchant {
		return nil, model.NewValidationError("store_merchant is not a broadcast audience")
	}

	topic, err := Topic(req.Audience, "")
	if err != nil {
		return nil, model.NewValidationError(err.Error())
	}

	n := &model.Notification{
		ID:       uuid.New(),
		Title:    req.Title,
		Body:     req.Body,
		Type:     model.NotificationSystem,
		Audience: model.Audience{Kind: req.Audience},
		Topic:    topic,
		Data:     req.Data,
		SentAt:   time.Now().UTC(),
	}

	if err := d.notifications.Create(ctx, n); err != nil {
		d.logger.Error().Err(err).Str("topic", topic).Msg("failed to record broadcast")
		return nil, fmt.Errorf("failed to record broadcast: %w", err)
	}

	if err := d.publisher.Publish(ctx, n); err != nil {
		d.logger.Error().Err(err).Str("topic", topic).Msg("failed to publish broadcast")
		return nil, fmt.Errorf("failed to publish broadcast: %w", err)
	}

	d.logger.Info().
		Str("notification_id", n.ID.String()).
		Str("topic", topic).
		Msg("broadcast sent")

	return n, nil
}

// Wait implements Dispatcher.
func (d *dispatcher) Wait() {
	d.wg.Wait()
}
