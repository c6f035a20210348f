package crud

import (
	"context"
	"testing"
	"time"

	"wtfSocial/domain"
	"wtfSocial/errs"
)

func TestFollowCreate(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")
	b := createTestUser(t, env, "bob")

	err := env.Follow.Create(&domain.Follow{FollowerID: a.ID, FollowedID: b.ID})
	if err != nil {
		t.Fatalf("follow failed: %v", err)
	}
	if !env.Follow.IsFollowing(a.ID, b.ID) {
		t.Error("expected alice to follow bob")
	}
	if env.Follow.IsFollowing(b.ID, a.ID) {
		t.Error("follow edges are directed, bob must not follow alice")
	}
	if got := env.sink.count(domain.EventFollowerAdded); got != 1 {
		t.Errorf("expected 1 follower_added event, got %d", got)
	}
}

func TestFollowSelf(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")

	err := env.Follow.Create(&domain.Follow{FollowerID: a.ID, FollowedID: a.ID})
	if errs.ErrorCode(err) != errs.ECONFLICT {
		t.Fatalf("expected conflict, got %v", err)
	}
	var count int64
	env.db.Model(&domain.Follow{}).Count(&count)
	if count != 0 {
		t.Errorf("self-follow must not create an edge, found %d", count)
	}
}

func TestFollowTwice(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")
	b := createTestUser(t, env, "bob")

	if err := env.Follow.Create(&domain.Follow{FollowerID: a.ID, FollowedID: b.ID}); err != nil {
		t.Fatalf("first follow failed: %v", err)
	}
	err := env.Follow.Create(&domain.Follow{FollowerID: a.ID, FollowedID: b.ID})
	if errs.ErrorCode(err) != errs.ECONFLICT {
		t.Fatalf("expected conflict on second follow, got %v", err)
	}
	var count int64
	env.db.Model(&domain.Follow{}).
		Where("follower_id = ? AND followed_id = ?", a.ID, b.ID).
		Count(&count)
	if count != 1 {
		t.Errorf("expected exactly one edge, found %d", count)
	}
}

func TestFollowUnknownUser(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")

	err := env.Follow.Create(&domain.Follow{FollowerID: a.ID, FollowedID: "nope"})
	if errs.ErrorCode(err) != errs.ENOTFOUND {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUnfollow(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")
	b := createTestUser(t, env, "bob")

	if err := env.Follow.Create(&domain.Follow{FollowerID: a.ID, FollowedID: b.ID}); err != nil {
		t.Fatalf("follow failed: %v", err)
	}
	if err := env.Follow.Delete(&domain.Follow{FollowerID: a.ID, FollowedID: b.ID}); err != nil {
		t.Fatalf("unfollow failed: %v", err)
	}
	if env.Follow.IsFollowing(a.ID, b.ID) {
		t.Error("expected edge gone after unfollow")
	}

	// Unfollowing again is a silent no-op and must not drive counters negative.
	if err := env.Follow.Delete(&domain.Follow{FollowerID: a.ID, FollowedID: b.ID}); err != nil {
		t.Fatalf("repeated unfollow failed: %v", err)
	}
	user, err := env.User.FindUserByID(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("finding bob: %v", err)
	}
	if user.FollowerCount != 0 {
		t.Errorf("expected follower count 0, got %d", user.FollowerCount)
	}
}

func TestFollowCounters(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")
	b := createTestUser(t, env, "bob")
	c := createTestUser(t, env, "carol")

	mustFollow(t, env, a.ID, b.ID)
	mustFollow(t, env, c.ID, b.ID)

	bob, _ := env.User.FindUserByID(context.Background(), b.ID)
	if bob.FollowerCount != 2 {
		t.Errorf("expected bob follower count 2, got %d", bob.FollowerCount)
	}
	alice, _ := env.User.FindUserByID(context.Background(), a.ID)
	if alice.FollowingCount != 1 {
		t.Errorf("expected alice following count 1, got %d", alice.FollowingCount)
	}
}

func TestRecountFollowsRepairsDrift(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")
	b := createTestUser(t, env, "bob")
	mustFollow(t, env, a.ID, b.ID)

	// Simulate drift in the advisory counter.
	env.db.Model(&domain.User{}).Where("id = ?", b.ID).UpdateColumn("follower_count", 42)

	user, err := env.User.RecountFollows(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("recount failed: %v", err)
	}
	if user.FollowerCount != 1 {
		t.Errorf("expected recomputed follower count 1, got %d", user.FollowerCount)
	}
}

func TestFollowersPagination(t *testing.T) {
	env := newTestServices(t)
	b := createTestUser(t, env, "bob")
	base := time.Now().Add(-time.Hour)
	for i, name := range []string{"u1", "u2", "u3"} {
		u := createTestUser(t, env, name)
		mustFollow(t, env, u.ID, b.ID)
		// Spread the edges so the createdAt ordering is unambiguous.
		env.db.Model(&domain.Follow{}).
			Where("follower_id = ?", u.ID).
			UpdateColumn("created_at", base.Add(time.Duration(i)*time.Minute))
	}

	page, err := env.Follow.Followers(b.ID, 1, 2)
	if err != nil {
		t.Fatalf("listing followers: %v", err)
	}
	if page.Total != 3 || page.PageCount != 2 || !page.HasNext || page.HasPrev {
		t.Errorf("unexpected envelope: %+v", page)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Items))
	}
	if page.Items[0].CreatedAt.Before(page.Items[1].CreatedAt) {
		t.Error("expected newest edge first")
	}
}

func TestFollowNotifiesTarget(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")
	b := createTestUser(t, env, "bob")
	mustFollow(t, env, a.ID, b.ID)

	page, err := env.Notification.ByRecipient(b.ID, domain.NotificationFilterAll, 1, 10)
	if err != nil {
		t.Fatalf("listing notifications: %v", err)
	}
	if len(page.Items) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(page.Items))
	}
	n := page.Items[0]
	if n.Type != domain.NotificationTypeFollow || n.Message != "started following you" {
		t.Errorf("unexpected notification: %+v", n)
	}
}

func mustFollow(t *testing.T, env *testEnv, followerID, followedID string) {
	t.Helper()
	err := env.Follow.Create(&domain.Follow{FollowerID: followerID, FollowedID: followedID})
	if err != nil {
		t.Fatalf("follow %s -> %s failed: %v", followerID, followedID, err)
	}
}
