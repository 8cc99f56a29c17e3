package repository

import (
	"context"
	"fmt"

	"redeemly/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// notificationRepository implements the NotificationRepository interface using PostgreSQL.
type notificationRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewNotificationRepository creates a new PostgreSQL-backed notification log.
func NewNotificationRepository(pool *pgxpool.Pool, logger zerolog.Logger) NotificationRepository {
	return &notificationRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "notification").Logger(),
	}
}

// Create stores a notification record.
func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	query := `
		INSERT INTO notifications (id, title, body, type, audience_kind, audience_store_id, topic, data, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	data := n.Data
	if data == nil {
		data = map[string]string{}
	}

	_, err := conn(ctx, r.pool).Exec(ctx, query,
		n.ID, n.Title, n.Body, n.Type, n.Audience.Kind, n.Audience.StoreID, n.Topic, data, n.SentAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("notification_id", n.ID.String()).Msg("failed to create notification")
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// ListRecent retrieves the latest notifications, newest first.
func (r *notificationRepository) ListRecent(ctx context.Context, limit int) ([]model.Notification, error) {
	query := `
		SELECT id, title, body, type, audience_kind, audience_store_id, topic, data, sent_at
		FROM notifications
		ORDER BY sent_at DESC
		LIMIT $1
	`

	rows, err := conn(ctx, r.pool).Query(ctx, query, limit)
	if err != nil {
		r.logger.Error().Err(err).Int("limit", limit).Msg("failed to query notifications")
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	notifications := []model.Notification{}
	for rows.Next() {
		var n model.Notification
		err := rows.Scan(&n.ID, &n.Title, &n.Body, &n.Type, &n.Audience.Kind, &n.Audience.StoreID, &n.Topic, &n.Data, &n.SentAt)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan notification row")
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating notification rows")
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}
