package crud

import (
	"fmt"
	"testing"
	"time"

	"wtfSocial/domain"
)

func TestPublicFeed(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")
	b := createTestUser(t, env, "bob")

	base := time.Now().Add(-time.Hour)
	createTestPostAt(t, env, a.ID, "oldest", domain.VisibilityPublic, base)
	createTestPostAt(t, env, b.ID, "newest", domain.VisibilityPublic, base.Add(time.Minute))
	createTestPostAt(t, env, a.ID, "hidden", domain.VisibilityPrivate, base.Add(2*time.Minute))
	createTestPostAt(t, env, a.ID, "circle", domain.VisibilityFollowers, base.Add(3*time.Minute))

	page, err := env.Feed.PublicFeed(1, 10)
	if err != nil {
		t.Fatalf("public feed: %v", err)
	}
	if got := postContents(page.Items); !equalStrings(got, []string{"newest", "oldest"}) {
		t.Errorf("expected public posts newest first, got %v", got)
	}
}

func TestFollowingFeed(t *testing.T) {
	env := newTestServices(t)
	viewer := createTestUser(t, env, "viewer")
	followed := createTestUser(t, env, "followed")
	stranger := createTestUser(t, env, "stranger")
	mustFollow(t, env, viewer.ID, followed.ID)

	base := time.Now().Add(-time.Hour)
	createTestPostAt(t, env, viewer.ID, "own private", domain.VisibilityPrivate, base)
	createTestPostAt(t, env, followed.ID, "followed public", domain.VisibilityPublic, base.Add(time.Minute))
	createTestPostAt(t, env, followed.ID, "followed circle", domain.VisibilityFollowers, base.Add(2*time.Minute))
	createTestPostAt(t, env, followed.ID, "followed private", domain.VisibilityPrivate, base.Add(3*time.Minute))
	createTestPostAt(t, env, stranger.ID, "stranger public", domain.VisibilityPublic, base.Add(4*time.Minute))

	page, err := env.Feed.FollowingFeed(viewer.ID, 1, 10)
	if err != nil {
		t.Fatalf("following feed: %v", err)
	}
	got := postContents(page.Items)
	want := []string{"followed circle", "followed public", "own private"}
	if !equalStrings(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestFollowingFeedNoFollows(t *testing.T) {
	env := newTestServices(t)
	viewer := createTestUser(t, env, "viewer")
	other := createTestUser(t, env, "other")
	createTestPost(t, env, viewer.ID, "mine")
	createTestPost(t, env, other.ID, "not mine")

	page, err := env.Feed.FollowingFeed(viewer.ID, 1, 10)
	if err != nil {
		t.Fatalf("following feed: %v", err)
	}
	if got := postContents(page.Items); !equalStrings(got, []string{"mine"}) {
		t.Errorf("expected only the viewer's own posts, got %v", got)
	}
}

func TestExploreFeed(t *testing.T) {
	env := newTestServices(t)
	viewer := createTestUser(t, env, "viewer")
	followed := createTestUser(t, env, "followed")
	s1 := createTestUser(t, env, "stranger1")
	s2 := createTestUser(t, env, "stranger2")
	mustFollow(t, env, viewer.ID, followed.ID)

	createTestPost(t, env, viewer.ID, "own")
	createTestPost(t, env, followed.ID, "followed")
	cold := createTestPost(t, env, s1.ID, "cold")
	hot := createTestPost(t, env, s2.ID, "hot")

	// Rank "hot" above "cold" regardless of recency.
	if err := env.Like.Create(&domain.Like{UserID: viewer.ID, PostID: &hot.ID}); err != nil {
		t.Fatalf("like failed: %v", err)
	}
	env.db.Model(&domain.Post{}).Where("id = ?", cold.ID).
		UpdateColumn("created_at", time.Now().Add(time.Minute))

	page, err := env.Feed.ExploreFeed(viewer.ID, 1, 10)
	if err != nil {
		t.Fatalf("explore feed: %v", err)
	}
	got := postContents(page.Items)
	if !equalStrings(got, []string{"hot", "cold"}) {
		t.Errorf("expected most-liked strangers only, got %v", got)
	}
	if page.Items[0].LikeCount != 1 {
		t.Errorf("expected like count projection 1, got %d", page.Items[0].LikeCount)
	}
}

func TestExploreFeedUnauthenticated(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")
	b := createTestUser(t, env, "bob")
	createTestPost(t, env, a.ID, "one")
	createTestPost(t, env, b.ID, "two")

	page, err := env.Feed.ExploreFeed("", 1, 10)
	if err != nil {
		t.Fatalf("explore feed: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("expected all public posts for anonymous viewers, got %d", page.Total)
	}
}

func TestTrendingTopics(t *testing.T) {
	env := newTestServices(t)
	users := make([]*domain.User, 4)
	for i := range users {
		users[i] = createTestUser(t, env, fmt.Sprintf("author%d", i))
	}

	// Four authors tag "launch" (mixed case), one tags "other".
	for _, u := range users {
		post := &domain.Post{UserID: u.ID, Content: "big day", Tags: []string{"Launch"}}
		if err := env.Post.Create(post); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}
	other := &domain.Post{UserID: users[0].ID, Content: "meh", Tags: []string{"other"}}
	if err := env.Post.Create(other); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	hidden := &domain.Post{UserID: users[0].ID, Content: "x", Tags: []string{"launch"}, Visibility: domain.VisibilityPrivate}
	if err := env.Post.Create(hidden); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	topics, err := env.Feed.TrendingTopics(7, 10)
	if err != nil {
		t.Fatalf("trending: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("expected 2 topics, got %d", len(topics))
	}
	top := topics[0]
	if top.Hashtag != "launch" || top.Count != 4 {
		t.Errorf("expected launch counted 4 times case-insensitively, got %+v", top)
	}
	if len(top.RecentAuthors) != 3 {
		t.Errorf("expected at most 3 distinct authors, got %d", len(top.RecentAuthors))
	}
	if topics[1].Hashtag != "other" || topics[1].Count != 1 {
		t.Errorf("unexpected runner-up: %+v", topics[1])
	}
}

func TestTrendingTopN(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")
	for _, tag := range []string{"one", "two", "three"} {
		post := &domain.Post{UserID: a.ID, Content: "c", Tags: []string{tag}}
		if err := env.Post.Create(post); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	topics, err := env.Feed.TrendingTopics(7, 2)
	if err != nil {
		t.Fatalf("trending: %v", err)
	}
	if len(topics) != 2 {
		t.Errorf("expected the list cut to topN, got %d", len(topics))
	}
}

func TestTrendingFallback(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")
	b := createTestUser(t, env, "bob")

	// No post carries explicit tags; hashtags only live in the content.
	loud := createTestPost(t, env, a.ID, "shipping today #Launch #launch #golang")
	createTestPost(t, env, b.ID, "quiet day, no tags")
	if err := env.Like.Create(&domain.Like{UserID: b.ID, PostID: &loud.ID}); err != nil {
		t.Fatalf("like failed: %v", err)
	}

	topics, err := env.Feed.TrendingTopics(7, 10)
	if err != nil {
		t.Fatalf("trending: %v", err)
	}
	if len(topics) != 2 {
		t.Fatalf("expected 2 synthesized topics, got %d: %+v", len(topics), topics)
	}
	if topics[0].Hashtag != "launch" || topics[0].Count != 1 {
		t.Errorf("unexpected synthesized topic: %+v", topics[0])
	}
	if len(topics[0].RecentAuthors) != 1 || topics[0].RecentAuthors[0].Username != "alice" {
		t.Errorf("expected the single contributing author, got %+v", topics[0].RecentAuthors)
	}
}

// fakeTrendingCache records cache traffic for assertions.
type fakeTrendingCache struct {
	topics   []domain.TrendingTopic
	hit      bool
	setCalls int
}

func (c *fakeTrendingCache) GetTopics(windowDays, topN int) ([]domain.TrendingTopic, bool) {
	return c.topics, c.hit
}

func (c *fakeTrendingCache) SetTopics(windowDays, topN int, topics []domain.TrendingTopic) {
	c.topics = topics
	c.setCalls++
}

func TestTrendingUsesCache(t *testing.T) {
	env := newTestServices(t)
	a := createTestUser(t, env, "alice")
	post := &domain.Post{UserID: a.ID, Content: "c", Tags: []string{"fresh"}}
	if err := env.Post.Create(post); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	cache := &fakeTrendingCache{}
	feed := NewFeedService(env.db, cache, nil)

	topics, err := feed.TrendingTopics(7, 10)
	if err != nil {
		t.Fatalf("trending: %v", err)
	}
	if len(topics) != 1 || cache.setCalls != 1 {
		t.Fatalf("expected a computed view stored in cache, got %d topics, %d stores", len(topics), cache.setCalls)
	}

	// A hit short-circuits the scan: the stale cached view comes back even
	// though the database has changed.
	cache.hit = true
	cache.topics = []domain.TrendingTopic{{Hashtag: "stale", Count: 99}}
	topics, err = feed.TrendingTopics(7, 10)
	if err != nil {
		t.Fatalf("trending: %v", err)
	}
	if len(topics) != 1 || topics[0].Hashtag != "stale" {
		t.Errorf("expected the cached view, got %+v", topics)
	}
	if cache.setCalls != 1 {
		t.Errorf("a cache hit must not store again, got %d stores", cache.setCalls)
	}
}

func createTestPostAt(t *testing.T, env *testEnv, userID, content, visibility string, createdAt time.Time) *domain.Post {
	t.Helper()
	post := &domain.Post{UserID: userID, Content: content, Visibility: visibility}
	if err := env.Post.Create(post); err != nil {
		t.Fatalf("creating post %q: %v", content, err)
	}
	env.db.Model(&domain.Post{}).Where("id = ?", post.ID).UpdateColumn("created_at", createdAt)
	return post
}

func postContents(posts []domain.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Content
	}
	return out
}
