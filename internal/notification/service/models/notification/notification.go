package notification

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotificationNotFound reports that no notification matched the id.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrNotificationNotRetryable reports a retry attempt on a notification
	// that is not FAILED or has spent its retry budget.
	ErrNotificationNotRetryable = errors.New("notification is not retryable")
)

// MaxRetries is the delivery attempt budget per notification.
const MaxRetries = 3

// Status is the delivery status of a notification.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusSent    Status = "SENT"
	StatusFailed  Status = "FAILED"
)

// Channel is the delivery channel of a notification.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
)

// Type classifies what the notification is about. The type selects the
// default subject and template.
type Type string

const (
	TypeOrderCreated       Type = "ORDER_CREATED"
	TypeOrderStatusUpdated Type = "ORDER_STATUS_UPDATED"
	TypeOrderCancelled     Type = "ORDER_CANCELLED"
	TypeUserRegistered     Type = "USER_REGISTERED"
	TypeUserEmailVerified  Type = "USER_EMAIL_VERIFIED"
	TypePasswordReset      Type = "PASSWORD_RESET"
	TypeAccountLocked      Type = "ACCOUNT_LOCKED"
)

// Notification is one outbound message and its delivery state.
type Notification struct {
	ID           uuid.UUID  `json:"id"`
	Type         Type       `json:"type"`
	Channel      Channel    `json:"channel"`
	Status       Status     `json:"status"`
	Recipient    string     `json:"recipient"`
	Subject      string     `json:"subject"`
	Content      string     `json:"content"`
	TemplateName string     `json:"templateName,omitempty"`
	UserID       int64      `json:"userId"`
	RetryCount   int        `json:"retryCount"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	SentAt       *time.Time `json:"sentAt,omitempty"`
}
