package model

import (
	"time"

	"github.com/google/uuid"
)

// AudienceKind is the closed set of notification targets.
type AudienceKind string

const (
	AudienceStoreMerchant AudienceKind = "store_merchant"
	AudienceAllCustomers  AudienceKind = "all_customers"
	AudienceAllMerchants  AudienceKind = "all_merchants"
	AudienceAllAdmins     AudienceKind = "all_admins"
	AudienceAll           AudienceKind = "all"
)

// Valid reports whether k is a known audience kind.
func (k AudienceKind) Valid() bool {
	switch k {
	case AudienceStoreMerchant, AudienceAllCustomers, AudienceAllMerchants, AudienceAllAdmins, AudienceAll:
		return true
	}
	return false
}

// Audience identifies who receives a notification. StoreID is set only for
// AudienceStoreMerchant.
type Audience struct {
	Kind    AudienceKind `json:"kind"`
	StoreID string       `json:"storeId,omitempty"`
}

// NotificationType classifies a notification for clients.
type NotificationType string

const (
	NotificationSystem NotificationType = "system"
	NotificationCoupon NotificationType = "coupon"
	NotificationStore  NotificationType = "store"
)

// Notification is a write-once record of a fanned-out message.
type Notification struct {
	ID       uuid.UUID         `json:"id" db:"id"`
	Title    string            `json:"title" db:"title"`
	Body     string            `json:"body" db:"body"`
	Type     NotificationType  `json:"type" db:"type"`
	Audience Audience          `json:"audience"`
	Topic    string            `json:"topic" db:"topic"`
	Data     map[string]string `json:"data,omitempty" db:"data"`
	SentAt   time.Time         `json:"sentAt" db:"sent_at"`
}

// BroadcastRequest is an admin-issued notification.
type BroadcastRequest struct {
	Title    string            `json:"title" validate:"required,max=255"`
	Body     string            `json:"body" validate:"required,max=2000"`
	Audience AudienceKind      `json:"targetAudience" validate:"required,oneof=all_customers all_merchants all_admins all"`
	Data     map[string]string `json:"data,omitempty"`
}
