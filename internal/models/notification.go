package models

import "time"

// NotificationKind classifies what triggered a notification.
type NotificationKind string

const (
	// NotificationNewPost is broadcast to followers when an account publishes.
	NotificationNewPost NotificationKind = "new_post"
	// NotificationLike is sent to a post owner when someone likes the post.
	NotificationLike NotificationKind = "like"
	// NotificationComment is sent to a post owner when someone comments.
	NotificationComment NotificationKind = "comment"
)

// Notification is one entry in an account's notification log.
type Notification struct {
	RecipientID uint             `json:"recipient_id"`
	Recipient   string           `json:"recipient"`
	Actor       string           `json:"actor"`
	Kind        NotificationKind `json:"kind"`
	PostID      uint             `json:"post_id"`
	Message     string           `json:"message"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NotificationRecord is the archived form of a Notification. Instance is the
// network instance that produced it; recipient IDs are only unique within one.
type NotificationRecord struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Network     string           `gorm:"not null;index:idx_notification_recipient" json:"network"`
	Instance    string           `gorm:"type:varchar(36);not null;default:'';index:idx_notification_recipient" json:"-"`
	RecipientID uint             `gorm:"not null;index:idx_notification_recipient" json:"recipient_id"`
	Recipient   string           `gorm:"not null" json:"recipient"`
	Actor       string           `gorm:"not null" json:"actor"`
	Kind        NotificationKind `gorm:"type:varchar(20);not null" json:"kind"`
	PostID      uint             `json:"post_id"`
	Message     string           `gorm:"type:text;not null" json:"message"`
	CreatedAt   time.Time        `json:"created_at"`
}

// TableName specifies the table name for GORM
func (NotificationRecord) TableName() string {
	return "notifications"
}

// NewNotificationRecord builds the archive row for n within one network instance.
func NewNotificationRecord(network, instance string, n *Notification) *NotificationRecord {
	return &NotificationRecord{
		Network:     network,
		Instance:    instance,
		RecipientID: n.RecipientID,
		Recipient:   n.Recipient,
		Actor:       n.Actor,
		Kind:        n.Kind,
		PostID:      n.PostID,
		Message:     n.Message,
		CreatedAt:   n.CreatedAt,
	}
}
