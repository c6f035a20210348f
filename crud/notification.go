package crud

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wtfSocial/domain"
	"wtfSocial/errs"
)

// NotificationService manages Notifications: fan-out with self-notify
// suppression and windowed deduplication, read-state tracking, and the
// per-recipient list views.
// It implements the domain.NotificationService interface.
type NotificationService struct {
	notificationValidator
}

// notificationValidator runs validations on incoming Notification data.
// On success, it passes the data on to notificationGorm.
// Otherwise, it returns the error of the validation that has failed.
type notificationValidator struct {
	notificationGorm
}

// notificationGorm runs CRUD operations on the database using incoming
// Notification data. It assumes that data has been validated. On success,
// it returns nil. Otherwise, it returns the error of the operation that has failed.
type notificationGorm struct {
	db  *gorm.DB
	now func() time.Time
	rec Recorder
}

// NewNotificationService returns an instance of NotificationService.
// A nil clock means time.Now, a nil recorder disables metrics.
func NewNotificationService(db *gorm.DB, clock func() time.Time, rec Recorder) *NotificationService {
	if clock == nil {
		clock = time.Now
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &NotificationService{
		notificationValidator{
			notificationGorm{
				db:  db,
				now: clock,
				rec: rec,
			},
		},
	}
}

// Ensure the NotificationService struct properly implements the domain.NotificationService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.NotificationService = &NotificationService{}

// Create runs validations needed for creating new Notification database records.
func (nv *notificationValidator) Create(n *domain.Notification) (*domain.Notification, error) {
	err := runNotificationValFns(n,
		nv.recipientRequired,
		nv.senderRequired,
		nv.typeValid)
	if err != nil {
		return nil, err
	}
	return nv.notificationGorm.Create(n)
}

// runNotificationValFns runs any number of functions of type notificationValFn
// on the passed in Notification object. If none of them returns an error, it
// returns nil. Otherwise, it returns the respective error.
func runNotificationValFns(n *domain.Notification, fns ...notificationValFn) error {
	for _, fn := range fns {
		if err := fn(n); err != nil {
			return err
		}
	}
	return nil
}

// A notificationValFn is any function that takes in a pointer to a domain.Notification object and returns an error.
type notificationValFn func(n *domain.Notification) error

// recipientRequired ensures that the recipient is not empty.
func (nv *notificationValidator) recipientRequired(n *domain.Notification) error {
	if n.RecipientID == "" {
		return errs.Errorf(errs.EINVALID, "A notification recipient is required.")
	}
	return nil
}

// senderRequired ensures that the sender is not empty.
func (nv *notificationValidator) senderRequired(n *domain.Notification) error {
	if n.SenderID == "" {
		return errs.Errorf(errs.EINVALID, "A notification sender is required.")
	}
	return nil
}

// typeValid ensures that the notification type is one of the known types.
func (nv *notificationValidator) typeValid(n *domain.Notification) error {
	switch n.Type {
	case domain.NotificationTypeLike, domain.NotificationTypeComment,
		domain.NotificationTypeFollow, domain.NotificationTypeMention,
		domain.NotificationTypePost:
		return nil
	}
	return errs.Errorf(errs.EINVALID, "Unknown notification type %q.", n.Type)
}

// Create persists a notification, unless the recipient is the sender
// (actions on one's own content never self-notify, result is nil, nil) or
// an identical notification already exists within the dedup window (the
// existing row is returned untouched, its timestamp not refreshed).
// The dedup check-then-insert has a race window; a near-simultaneous
// duplicate degrades to one extra notification, never to a failure.
func (ng *notificationGorm) Create(n *domain.Notification) (*domain.Notification, error) {
	if n.RecipientID == n.SenderID {
		ng.rec.RecordNotificationSuppressed()
		return nil, nil
	}

	now := ng.now()
	var existing domain.Notification
	err := ng.dedupCond(n).
		Where("created_at >= ?", now.Add(-domain.NotificationDedupWindow)).
		First(&existing).Error
	if err == nil {
		ng.rec.RecordNotificationDeduped(n.Type)
		return &existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// The caller-supplied message always takes precedence over the template.
	if n.Message == "" {
		n.Message = messageForType(n.Type)
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = now
	if err := ng.db.Create(n).Error; err != nil {
		return nil, err
	}
	ng.rec.RecordNotificationCreated(n.Type)
	return n, nil
}

// dedupCond matches notifications identical in (recipient, sender, type,
// related post, related comment).
func (ng *notificationGorm) dedupCond(n *domain.Notification) *gorm.DB {
	q := ng.db.
		Where("recipient_id = ? AND sender_id = ? AND type = ?", n.RecipientID, n.SenderID, n.Type)
	if n.PostID != nil {
		q = q.Where("post_id = ?", *n.PostID)
	} else {
		q = q.Where("post_id IS NULL")
	}
	if n.CommentID != nil {
		q = q.Where("comment_id = ?", *n.CommentID)
	} else {
		q = q.Where("comment_id IS NULL")
	}
	return q
}

// messageForType derives the fixed per-type fallback message.
func messageForType(ntype string) string {
	switch ntype {
	case domain.NotificationTypeLike:
		return "liked your post"
	case domain.NotificationTypeComment:
		return "commented on your post"
	case domain.NotificationTypeFollow:
		return "started following you"
	case domain.NotificationTypeMention:
		return "mentioned you in a post"
	case domain.NotificationTypePost:
		return "created a new post"
	}
	return "interacted with your content"
}

// ByRecipient retrieves a user's notifications, newest first, optionally
// filtered by read state.
func (ng *notificationGorm) ByRecipient(recipientID, filter string, page, limit int) (*domain.Page[domain.Notification], error) {
	if limit <= 0 {
		limit = 20
	}
	q := ng.db.Model(&domain.Notification{}).Where("recipient_id = ?", recipientID)
	switch filter {
	case "", domain.NotificationFilterAll:
	case domain.NotificationFilterUnread:
		q = q.Where("is_read = ?", false)
	case domain.NotificationFilterRead:
		q = q.Where("is_read = ?", true)
	default:
		return nil, errs.Errorf(errs.EINVALID, "Unknown notification filter %q.", filter)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	var notifications []domain.Notification
	err := q.Order("created_at desc").
		Offset(domain.PageOffset(page, limit)).
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return domain.NewPage(notifications, int(total), page, limit), nil
}

// UnreadCount returns how many unread notifications a user has.
func (ng *notificationGorm) UnreadCount(recipientID string) (int, error) {
	var count int64
	err := ng.db.Model(&domain.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		Count(&count).Error
	return int(count), err
}

// MarkAsRead sets the read state of a single notification. It is
// idempotent: marking an already-read notification is a no-op.
func (ng *notificationGorm) MarkAsRead(id string) error {
	var n domain.Notification
	err := ng.db.First(&n, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.Errorf(errs.ENOTFOUND, "The notification does not exist.")
		}
		return err
	}
	if n.IsRead {
		return nil
	}
	return ng.db.Model(&n).UpdateColumns(map[string]interface{}{
		"is_read": true,
		"read_at": ng.now(),
	}).Error
}

// MarkAllAsRead bulk-sets all unread notifications of a recipient.
func (ng *notificationGorm) MarkAllAsRead(recipientID string) error {
	return ng.db.Model(&domain.Notification{}).
		Where("recipient_id = ? AND is_read = ?", recipientID, false).
		UpdateColumns(map[string]interface{}{
			"is_read": true,
			"read_at": ng.now(),
		}).Error
}

// Delete removes a notification on the recipient's request. This is a
// user-initiated side operation; the fan-out core itself never deletes.
func (ng *notificationGorm) Delete(recipientID, id string) error {
	var n domain.Notification
	err := ng.db.First(&n, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.Errorf(errs.ENOTFOUND, "The notification does not exist.")
		}
		return err
	}
	if n.RecipientID != recipientID {
		return errs.Errorf(errs.EUNAUTHORIZED, "You are not allowed to delete this notification.")
	}
	return ng.db.Delete(&domain.Notification{}, "id = ?", id).Error
}
