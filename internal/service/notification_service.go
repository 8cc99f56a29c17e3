package service

import (
	"context"
	"fmt"

	"redeemly/internal/model"
	"redeemly/internal/notification"
	"redeemly/internal/repository"

	"github.com/rs/zerolog"
)

const maxRecentNotifications = 100

// notificationService implements NotificationService.
type notificationService struct {
	dispatcher    notification.Dispatcher
	notifications repository.NotificationRepository
	logger        zerolog.Logger
}

// NewNotificationService creates a new notification service.
func NewNotificationService(
	dispatcher notification.Dispatcher,
	notifications repository.NotificationRepository,
	logger zerolog.Logger,
) NotificationService {
	return &notificationService{
		dispatcher:    dispatcher,
		notifications: notifications,
		logger:        logger.With().Str("service", "notification").Logger(),
	}
}

// Broadcast implements NotificationService.
func (s *notificationService) Broadcast(ctx context.Context, req model.BroadcastRequest) (*model.Notification, error) {
	if !req.Audience.Valid() {
		return nil, model.NewValidationError(fmt.Sprintf("unknown audience: %q", req.Audience))
	}

	return s.dispatcher.Broadcast(ctx, req)
}

// Recent implements NotificationService.
func (s *notificationService) Recent(ctx context.Context, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > maxRecentNotifications {
		limit = maxRecentNotifications
	}

	notifications, err := s.notifications.ListRecent(ctx, limit)
	if err != nil {
		s.logger.Error().Err(err).Int("limit", limit).Msg("failed to list notifications")
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifications, nil
}
