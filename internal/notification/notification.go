// Package notification fans out messages about redemptions and admin
// broadcasts to push topics.
package notification

import (
	"context"
	"fmt"

	"redeemly/internal/model"
)

// Publisher hands a notification to a delivery transport.
type Publisher interface {
	Publish(ctx context.Context, n *model.Notification) error
}

// Dispatcher sends notifications on behalf of the redemption workflow.
type Dispatcher interface {
	// NotifyMerchant tells the merchant owning storeID about a redemption.
	// It returns immediately; delivery happens in the background on a context
	// detached from ctx's cancellation. Failures are logged, never returned.
	NotifyMerchant(ctx context.Context, storeID string, redemption model.Redemption)

	// Broadcast records and publishes an admin notification synchronously.
	Broadcast(ctx context.Context, req model.BroadcastRequest) (*model.Notification, error)

	// Wait blocks until every in-flight NotifyMerchant has finished.
	Wait()
}

// Topic returns the push topic for an audience. merchantID is only used for
// AudienceStoreMerchant.
func Topic(kind model.AudienceKind, merchantID string) (string, error) {
	switch kind {
	case model.AudienceStoreMerchant:
		if merchantID == "" {
			return "", fmt.Errorf("merchant ID is required for audience %s", kind)
		}
		return "merchant_" + merchantID, nil
	case model.AudienceAllCustomers:
		return "customers", nil
	case model.AudienceAllMerchants:
		return "merchants", nil
	case model.AudienceAllAdmins:
		return "admins", nil
	case model.AudienceAll:
		return "all", nil
	default:
		return "", fmt.Errorf("unknown audience: %q", kind)
	}
}
