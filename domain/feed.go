package domain

// TrendingAuthor identifies a recent contributor to a trending topic.
type TrendingAuthor struct {
	Username string `json:"username"`
	Name     string `json:"name"`
}

// TrendingTopic is one entry of the trending view: a hashtag, how often it
// appeared in the window, and up to three distinct recent authors.
type TrendingTopic struct {
	Hashtag       string           `json:"hashtag"`
	Count         int              `json:"count"`
	RecentAuthors []TrendingAuthor `json:"recent_authors"`
}

// FeedService assembles read-only views over the follow graph, the posts
// and the like sets. It never mutates anything.
type FeedService interface {
	PublicFeed(page, limit int) (*Page[Post], error)
	// FollowingFeed unions the viewer's own posts (any visibility) with
	// posts by followed authors that are public or followers-only.
	FollowingFeed(viewerID string, page, limit int) (*Page[Post], error)
	// ExploreFeed returns public posts by authors the viewer does not
	// follow and is not themself, most liked first. An empty viewerID
	// means unauthenticated: all public posts, same order.
	ExploreFeed(viewerID string, page, limit int) (*Page[Post], error)
	TrendingTopics(windowDays, topN int) ([]TrendingTopic, error)
}

// TrendingCache caches assembled trending views. Implementations are
// best-effort: a miss or a failed write must never surface to callers.
type TrendingCache interface {
	GetTopics(windowDays, topN int) ([]TrendingTopic, bool)
	SetTopics(windowDays, topN int, topics []TrendingTopic)
}
