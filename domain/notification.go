package domain

import "time"

// Notification types.
const (
	NotificationTypeLike    = "like"
	NotificationTypeComment = "comment"
	NotificationTypeFollow  = "follow"
	NotificationTypeMention = "mention"
	NotificationTypePost    = "post"
)

// NotificationDedupWindow is the span during which repeated, identical
// notification-triggering events collapse into a single stored notification.
const NotificationDedupWindow = 24 * time.Hour

// Notification represents a single entry in a user's notification list,
// produced by fan-out from a content or relationship mutation.
type Notification struct {
	ID          string `json:"id" gorm:"primaryKey"`
	RecipientID string `json:"recipient_id" gorm:"notNull;index"`
	SenderID    string `json:"sender_id" gorm:"notNull;index"`
	Type        string `json:"type" gorm:"notNull"`
	Message     string `json:"message" gorm:"notNull"`

	PostID    *string `json:"post_id"`
	CommentID *string `json:"comment_id"`

	IsRead bool       `json:"is_read" gorm:"index"`
	ReadAt *time.Time `json:"read_at"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// Notification list filters for ByRecipient.
const (
	NotificationFilterAll    = "all"
	NotificationFilterUnread = "unread"
	NotificationFilterRead   = "read"
)

// NotificationService generates, deduplicates and tracks the read state of
// notifications. Create is the fan-out entry point: callers must treat its
// errors as loggable, never as a failure of the triggering mutation.
type NotificationService interface {
	// Create persists a notification unless the recipient is the sender
	// (returns nil, nil) or an identical notification exists within the
	// dedup window (returns the existing one unchanged).
	Create(n *Notification) (*Notification, error)
	ByRecipient(recipientID, filter string, page, limit int) (*Page[Notification], error)
	UnreadCount(recipientID string) (int, error)
	MarkAsRead(id string) error
	MarkAllAsRead(recipientID string) error
	Delete(recipientID, id string) error
}
