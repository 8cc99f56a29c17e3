package notification

import (
	"context"
	"errors"
	"testing"

	"redeemly/internal/model"

	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSender is a mock implementation of messageSender.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, message *messaging.Message) (string, error) {
	args := m.Called(ctx, message)
	return args.String(0), args.Error(1)
}

func TestFCMPublisher_Publish(t *testing.T) {
	n := &model.Notification{
		ID:    uuid.New(),
		Title: "Coupon Redeemed",
		Body:  "A customer has redeemed a coupon at your store!",
		Topic: "merchant_m1",
		Data:  map[string]string{"couponId": "C001"},
	}

	t.Run("sends topic message", func(t *testing.T) {
		sender := new(MockSender)
		sender.On("Send", mock.Anything, mock.MatchedBy(func(msg *messaging.Message) bool {
			return msg.Topic == "merchant_m1" &&
				msg.Notification.Title == n.Title &&
				msg.Notification.Body == n.Body &&
				msg.Data["couponId"] == "C001"
		})).Return("projects/p/messages/1", nil).Once()

		p := newFCMPublisher(sender, zerolog.Nop())
		require.NoError(t, p.Publish(context.Background(), n))
		sender.AssertExpectations(t)
	})

	t.Run("wraps send errors", func(t *testing.T) {
		sendErr := errors.New("quota exceeded")
		sender := new(MockSender)
		sender.On("Send", mock.Anything, mock.Anything).Return("", sendErr).Once()

		p := newFCMPublisher(sender, zerolog.Nop())
		err := p.Publish(context.Background(), n)
		require.Error(t, err)
		assert.ErrorIs(t, err, sendErr)
		assert.Contains(t, err.Error(), "merchant_m1")
	})
}

func TestLogPublisher_Publish(t *testing.T) {
	p := NewLogPublisher(zerolog.Nop())
	assert.NoError(t, p.Publish(context.Background(), &model.Notification{ID: uuid.New(), Topic: "all"}))
}
