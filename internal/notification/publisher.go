package notification

import (
	"context"
	"fmt"

	"redeemly/internal/config"
	"redeemly/internal/model"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// messageSender is the subset of *messaging.Client used for topic sends.
type messageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// fcmPublisher publishes notifications to Firebase Cloud Messaging topics.
type fcmPublisher struct {
	client messageSender
	logger zerolog.Logger
}

// NewFCMPublisher creates a Firebase Cloud Messaging publisher. Without a
// credentials file, application default credentials are used.
func NewFCMPublisher(ctx context.Context, cfg config.PushConfig, logger zerolog.Logger) (Publisher, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create messaging client: %w", err)
	}

	logger.Info().Str("project_id", cfg.ProjectID).Msg("FCM publisher initialised")

	return newFCMPublisher(client, logger), nil
}

func newFCMPublisher(client messageSender, logger zerolog.Logger) *fcmPublisher {
	return &fcmPublisher{
		client: client,
		logger: logger.With().Str("component", "fcm-publisher").Logger(),
	}
}

// Publish sends n to its topic.
func (p *fcmPublisher) Publish(ctx context.Context, n *model.Notification) error {
	id, err := p.client.Send(ctx, fcmMessage(n))
	if err != nil {
		return fmt.Errorf("failed to send FCM message to topic %s: %w", n.Topic, err)
	}

	p.logger.Debug().
		Str("message_id", id).
		Str("topic", n.Topic).
		Str("notification_id", n.ID.String()).
		Msg("FCM message sent")

	return nil
}

func fcmMessage(n *model.Notification) *messaging.Message {
	return &messaging.Message{
		Topic: n.Topic,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: n.Data,
	}
}

// logPublisher only logs notifications. It is used when push delivery is
// disabled.
type logPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a publisher that writes notifications to the log.
func NewLogPublisher(logger zerolog.Logger) Publisher {
	return &logPublisher{
		logger: logger.With().Str("component", "log-publisher").Logger(),
	}
}

// Publish logs n.
func (p *logPublisher) Publish(_ context.Context, n *model.Notification) error {
	p.logger.Info().
		Str("notification_id", n.ID.String()).
		Str("topic", n.Topic).
		Str("title", n.Title).
		Str("type", string(n.Type)).
		Msg("notification published")
	return nil
}
