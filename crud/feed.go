package crud

import (
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"wtfSocial/domain"
)

// likeCountProjection ranks posts by the size of their like set without a
// denormalized counter. Correlated subqueries keep it portable across the
// production and the test database.
const likeCountProjection = "posts.*, (SELECT COUNT(*) FROM likes WHERE likes.post_id = posts.id) AS like_count"

// FeedService assembles the feed, explore and trending views. It is
// read-only: it queries the follow graph, the posts and the like sets and
// never mutates any of them.
// It implements the domain.FeedService interface.
type FeedService struct {
	feedGorm
}

// feedGorm runs the read queries behind the feed views.
type feedGorm struct {
	db    *gorm.DB
	cache domain.TrendingCache
	rec   Recorder
}

// NewFeedService returns an instance of FeedService. The cache may be nil,
// in which case every trending call recomputes.
func NewFeedService(db *gorm.DB, cache domain.TrendingCache, rec Recorder) *FeedService {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &FeedService{
		feedGorm{
			db:    db,
			cache: cache,
			rec:   rec,
		},
	}
}

// Ensure the FeedService struct properly implements the domain.FeedService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.FeedService = &FeedService{}

// PublicFeed retrieves all public posts, newest first.
func (fg *feedGorm) PublicFeed(page, limit int) (*domain.Page[domain.Post], error) {
	fg.rec.RecordFeedQuery("public")
	q := fg.db.Model(&domain.Post{}).Where("visibility = ?", domain.VisibilityPublic)
	return fg.pagePosts(q, "created_at desc", page, limit)
}

// FollowingFeed retrieves the union of the viewer's own posts (any
// visibility) and the public or followers-only posts of followed authors,
// newest first. Rows come from a single table, so the union is free of
// duplicates by construction.
func (fg *feedGorm) FollowingFeed(viewerID string, page, limit int) (*domain.Page[domain.Post], error) {
	fg.rec.RecordFeedQuery("following")
	followingIDs, err := fg.followingIDs(viewerID)
	if err != nil {
		return nil, err
	}
	own := fg.db.Where("user_id = ?", viewerID)
	q := fg.db.Model(&domain.Post{}).Where(own)
	if len(followingIDs) > 0 {
		followed := fg.db.
			Where("user_id IN ?", followingIDs).
			Where("visibility IN ?", []string{domain.VisibilityPublic, domain.VisibilityFollowers})
		q = fg.db.Model(&domain.Post{}).Where(own.Or(followed))
	}
	return fg.pagePosts(q, "created_at desc", page, limit)
}

// ExploreFeed retrieves public posts by authors the viewer neither follows
// nor is, most liked first. An empty viewerID means unauthenticated: all
// public posts, same ranking.
func (fg *feedGorm) ExploreFeed(viewerID string, page, limit int) (*domain.Page[domain.Post], error) {
	fg.rec.RecordFeedQuery("explore")
	q := fg.db.Model(&domain.Post{}).Where("visibility = ?", domain.VisibilityPublic)
	if viewerID != "" {
		followingIDs, err := fg.followingIDs(viewerID)
		if err != nil {
			return nil, err
		}
		excluded := append(followingIDs, viewerID)
		q = q.Where("user_id NOT IN ?", excluded)
	}
	return fg.pageRankedPosts(q, page, limit)
}

// TrendingTopics scans the window for tagged public posts, counts tags
// case-insensitively and collects up to three distinct recent authors per
// tag. When the window holds no tagged post at all, it falls back to
// mining hashtag-shaped tokens out of the most-liked public posts.
func (fg *feedGorm) TrendingTopics(windowDays, topN int) ([]domain.TrendingTopic, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	if topN <= 0 {
		topN = 10
	}
	if fg.cache != nil {
		if topics, ok := fg.cache.GetTopics(windowDays, topN); ok {
			return topics, nil
		}
	}
	fg.rec.RecordFeedQuery("trending")

	since := time.Now().AddDate(0, 0, -windowDays)
	var posts []domain.Post
	err := fg.db.
		Where("visibility = ? AND created_at >= ?", domain.VisibilityPublic, since).
		Order("created_at desc").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}

	type tagStats struct {
		count   int
		authors []domain.TrendingAuthor
		seen    map[string]bool
	}
	stats := map[string]*tagStats{}
	authorCache := map[string]*domain.User{}
	for _, post := range posts {
		for _, tag := range post.Tags {
			hashtag := strings.ToLower(tag)
			s := stats[hashtag]
			if s == nil {
				s = &tagStats{seen: map[string]bool{}}
				stats[hashtag] = s
			}
			s.count++
			if len(s.authors) < 3 && !s.seen[post.UserID] {
				if author := fg.author(authorCache, post.UserID); author != nil {
					s.seen[post.UserID] = true
					s.authors = append(s.authors, domain.TrendingAuthor{
						Username: author.Username,
						Name:     author.Name,
					})
				}
			}
		}
	}

	trending := make([]domain.TrendingTopic, 0, len(stats))
	for hashtag, s := range stats {
		trending = append(trending, domain.TrendingTopic{
			Hashtag:       hashtag,
			Count:         s.count,
			RecentAuthors: s.authors,
		})
	}
	sort.SliceStable(trending, func(i, j int) bool {
		if trending[i].Count != trending[j].Count {
			return trending[i].Count > trending[j].Count
		}
		return trending[i].Hashtag < trending[j].Hashtag
	})
	if len(trending) > topN {
		trending = trending[:topN]
	}

	if len(trending) == 0 {
		trending, err = fg.fallbackTopics(since, authorCache)
		if err != nil {
			return nil, err
		}
	}
	if fg.cache != nil {
		fg.cache.SetTopics(windowDays, topN, trending)
	}
	return trending, nil
}

// fallbackTopics synthesizes candidate topics out of hashtag-shaped tokens
// in the most-liked public posts of the window, one contributing author
// each, skipping tags already used.
func (fg *feedGorm) fallbackTopics(since time.Time, authorCache map[string]*domain.User) ([]domain.TrendingTopic, error) {
	var popular []domain.Post
	err := fg.db.Model(&domain.Post{}).
		Select(likeCountProjection).
		Where("visibility = ? AND created_at >= ?", domain.VisibilityPublic, since).
		Order("like_count desc, created_at desc").
		Limit(10).
		Find(&popular).Error
	if err != nil {
		return nil, err
	}
	var topics []domain.TrendingTopic
	used := map[string]bool{}
	for _, post := range popular {
		for _, match := range hashtagRegex.FindAllStringSubmatch(post.Content, -1) {
			hashtag := strings.ToLower(match[1])
			if used[hashtag] || len(topics) >= 5 {
				continue
			}
			used[hashtag] = true
			var authors []domain.TrendingAuthor
			if author := fg.author(authorCache, post.UserID); author != nil {
				authors = []domain.TrendingAuthor{{
					Username: author.Username,
					Name:     author.Name,
				}}
			}
			topics = append(topics, domain.TrendingTopic{
				Hashtag:       hashtag,
				Count:         1,
				RecentAuthors: authors,
			})
		}
	}
	return topics, nil
}

// author resolves a user through a per-call cache to keep the aggregation
// from hammering the users table.
func (fg *feedGorm) author(cache map[string]*domain.User, userID string) *domain.User {
	if user, ok := cache[userID]; ok {
		return user
	}
	var user domain.User
	if err := fg.db.First(&user, "id = ?", userID).Error; err != nil {
		cache[userID] = nil
		return nil
	}
	cache[userID] = &user
	return &user
}

// followingIDs returns the IDs of all accepted-followed authors of a viewer.
func (fg *feedGorm) followingIDs(viewerID string) ([]string, error) {
	var ids []string
	err := fg.db.Model(&domain.Follow{}).
		Where("follower_id = ? AND status = ?", viewerID, domain.FollowStatusAccepted).
		Pluck("followed_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// pagePosts runs the shared count-then-page tail of every feed query.
func (fg *feedGorm) pagePosts(q *gorm.DB, order string, page, limit int) (*domain.Page[domain.Post], error) {
	if limit <= 0 {
		limit = 10
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	var posts []domain.Post
	err := q.Order(order).
		Offset(domain.PageOffset(page, limit)).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return domain.NewPage(posts, int(total), page, limit), nil
}

// pageRankedPosts counts on the bare conditions, then fetches the page with
// the like-count projection applied, so that counting never sees the alias.
func (fg *feedGorm) pageRankedPosts(q *gorm.DB, page, limit int) (*domain.Page[domain.Post], error) {
	if limit <= 0 {
		limit = 10
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	var posts []domain.Post
	err := q.Select(likeCountProjection).
		Order("like_count desc, created_at desc").
		Offset(domain.PageOffset(page, limit)).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return domain.NewPage(posts, int(total), page, limit), nil
}
