package crud

import (
	"testing"
	"time"

	"wtfSocial/domain"
	"wtfSocial/errs"
)

func TestNotificationCreate(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")
	b := createTestUser(t, env, "bob")

	n, err := env.Notification.Create(&domain.Notification{
		RecipientID: a.ID,
		SenderID:    b.ID,
		Type:        domain.NotificationTypeFollow,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if n == nil || n.ID == "" {
		t.Fatal("expected a persisted notification")
	}
	if n.Message != "started following you" {
		t.Errorf("expected template message, got %q", n.Message)
	}
	if n.IsRead {
		t.Error("new notifications start unread")
	}
}

func TestNotificationSelfNotify(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")

	n, err := env.Notification.Create(&domain.Notification{
		RecipientID: a.ID,
		SenderID:    a.ID,
		Type:        domain.NotificationTypeLike,
	})
	if err != nil {
		t.Fatalf("self-notify must not error: %v", err)
	}
	if n != nil {
		t.Errorf("self-notify must be suppressed, got %+v", n)
	}
	count, _ := env.Notification.UnreadCount(a.ID)
	if count != 0 {
		t.Errorf("expected no stored notification, got %d", count)
	}
}

func TestNotificationCallerMessagePrecedence(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")
	b := createTestUser(t, env, "bob")

	n, err := env.Notification.Create(&domain.Notification{
		RecipientID: a.ID,
		SenderID:    b.ID,
		Type:        domain.NotificationTypeMention,
		Message:     "bob mentioned you in a comment",
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if n.Message != "bob mentioned you in a comment" {
		t.Errorf("caller-supplied message must win, got %q", n.Message)
	}
}

func TestNotificationUnknownType(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")
	b := createTestUser(t, env, "bob")

	_, err := env.Notification.Create(&domain.Notification{
		RecipientID: a.ID,
		SenderID:    b.ID,
		Type:        "poke",
	})
	if errs.ErrorCode(err) != errs.EINVALID {
		t.Fatalf("expected invalid, got %v", err)
	}
}

func TestNotificationDedupWithinWindow(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")
	b := createTestUser(t, env, "bob")
	post := createTestPost(t, env, a.ID, "hello")

	first, err := env.Notification.Create(&domain.Notification{
		RecipientID: a.ID,
		SenderID:    b.ID,
		Type:        domain.NotificationTypeLike,
		PostID:      &post.ID,
	})
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	env.clock.Advance(time.Hour)
	second, err := env.Notification.Create(&domain.Notification{
		RecipientID: a.ID,
		SenderID:    b.ID,
		Type:        domain.NotificationTypeLike,
		PostID:      &post.ID,
	})
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if second.ID != first.ID {
		t.Error("expected the existing notification within the window")
	}
	if env.clock.Now().Sub(second.CreatedAt) < time.Hour {
		t.Error("dedup must not refresh the timestamp")
	}
	count, _ := env.Notification.UnreadCount(a.ID)
	if count != 1 {
		t.Errorf("expected a single stored notification, got %d", count)
	}
}

func TestNotificationDedupWindowExpires(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")
	b := createTestUser(t, env, "bob")
	post := createTestPost(t, env, a.ID, "hello")

	first, err := env.Notification.Create(&domain.Notification{
		RecipientID: a.ID,
		SenderID:    b.ID,
		Type:        domain.NotificationTypeLike,
		PostID:      &post.ID,
	})
	if err != nil {
		t.Fatalf("first create failed: %v", err)
	}

	env.clock.Advance(domain.NotificationDedupWindow + time.Minute)
	second, err := env.Notification.Create(&domain.Notification{
		RecipientID: a.ID,
		SenderID:    b.ID,
		Type:        domain.NotificationTypeLike,
		PostID:      &post.ID,
	})
	if err != nil {
		t.Fatalf("second create failed: %v", err)
	}
	if second.ID == first.ID {
		t.Error("expected a new notification after the window")
	}
	count, _ := env.Notification.UnreadCount(a.ID)
	if count != 2 {
		t.Errorf("expected two stored notifications, got %d", count)
	}
}

func TestNotificationDedupDiscriminatesTargets(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")
	b := createTestUser(t, env, "bob")
	p1 := createTestPost(t, env, a.ID, "one")
	p2 := createTestPost(t, env, a.ID, "two")

	for _, postID := range []*string{&p1.ID, &p2.ID, nil} {
		_, err := env.Notification.Create(&domain.Notification{
			RecipientID: a.ID,
			SenderID:    b.ID,
			Type:        domain.NotificationTypeLike,
			PostID:      postID,
		})
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	count, _ := env.Notification.UnreadCount(a.ID)
	if count != 3 {
		t.Errorf("distinct targets must not collapse, got %d", count)
	}
}

func TestNotificationReadState(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")
	b := createTestUser(t, env, "bob")
	p1 := createTestPost(t, env, a.ID, "one")
	p2 := createTestPost(t, env, a.ID, "two")

	n1, _ := env.Notification.Create(&domain.Notification{
		RecipientID: a.ID, SenderID: b.ID, Type: domain.NotificationTypeLike, PostID: &p1.ID,
	})
	if _, err := env.Notification.Create(&domain.Notification{
		RecipientID: a.ID, SenderID: b.ID, Type: domain.NotificationTypeLike, PostID: &p2.ID,
	}); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := env.Notification.MarkAsRead(n1.ID); err != nil {
		t.Fatalf("mark as read failed: %v", err)
	}
	// Idempotent.
	if err := env.Notification.MarkAsRead(n1.ID); err != nil {
		t.Fatalf("repeated mark as read failed: %v", err)
	}
	count, _ := env.Notification.UnreadCount(a.ID)
	if count != 1 {
		t.Errorf("expected 1 unread, got %d", count)
	}

	unread, err := env.Notification.ByRecipient(a.ID, domain.NotificationFilterUnread, 1, 10)
	if err != nil {
		t.Fatalf("listing unread: %v", err)
	}
	if unread.Total != 1 {
		t.Errorf("expected 1 unread in list, got %d", unread.Total)
	}
	read, err := env.Notification.ByRecipient(a.ID, domain.NotificationFilterRead, 1, 10)
	if err != nil {
		t.Fatalf("listing read: %v", err)
	}
	if read.Total != 1 || read.Items[0].ReadAt == nil {
		t.Errorf("expected 1 read entry with read_at set, got %+v", read.Items)
	}

	if err := env.Notification.MarkAllAsRead(a.ID); err != nil {
		t.Fatalf("mark all failed: %v", err)
	}
	count, _ = env.Notification.UnreadCount(a.ID)
	if count != 0 {
		t.Errorf("expected 0 unread after mark all, got %d", count)
	}
}

func TestNotificationMarkMissing(t *testing.T) {
	env := newTestServices(t)
	if err := env.Notification.MarkAsRead("nope"); errs.ErrorCode(err) != errs.ENOTFOUND {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNotificationUnknownFilter(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")

	_, err := env.Notification.ByRecipient(a.ID, "starred", 1, 10)
	if errs.ErrorCode(err) != errs.EINVALID {
		t.Fatalf("expected invalid, got %v", err)
	}
}

func TestNotificationDelete(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")
	b := createTestUser(t, env, "bob")

	n, _ := env.Notification.Create(&domain.Notification{
		RecipientID: a.ID, SenderID: b.ID, Type: domain.NotificationTypeFollow,
	})

	if err := env.Notification.Delete(b.ID, n.ID); errs.ErrorCode(err) != errs.EUNAUTHORIZED {
		t.Fatalf("expected unauthorized for non-recipient, got %v", err)
	}
	if err := env.Notification.Delete(a.ID, n.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := env.Notification.Delete(a.ID, n.ID); errs.ErrorCode(err) != errs.ENOTFOUND {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}
