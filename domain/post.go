package domain

import "time"

// Post visibility policies. They control which feed queries may surface
// a post: public posts appear everywhere, followers-only posts appear in
// the feeds of accepted followers, private posts only in the author's own.
const (
	VisibilityPublic    = "public"
	VisibilityFollowers = "followers"
	VisibilityPrivate   = "private"
)

type Post struct {
	ID      string `json:"id" gorm:"primaryKey"`
	UserID  string `json:"user_id" gorm:"notNull;index"`
	Content string `json:"content"`

	Images   []string `json:"images" gorm:"serializer:json"`
	Tags     []string `json:"tags" gorm:"serializer:json"`
	Mentions []string `json:"mentions" gorm:"serializer:json"`

	Visibility string `json:"visibility" gorm:"notNull;default:public;index"`

	// CommentIDs is a cached index of the post's comments. The comments
	// table (Comment.PostID) is authoritative; this list is maintained on
	// insert and rebuilt by RecountThread.
	CommentIDs []string `json:"comment_ids" gorm:"serializer:json"`

	// LikeCount is a read-only projection filled by ranked feed queries.
	LikeCount int `json:"like_count" gorm:"->;-:migration"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PostUpdate carries the mutable fields of a post. Nil fields are left
// untouched. Changing the content re-derives the mention list.
type PostUpdate struct {
	Content    *string   `json:"content"`
	Visibility *string   `json:"visibility"`
	Tags       *[]string `json:"tags"`
}

// PostService is a set of methods to manipulate and work with the Post model.
type PostService interface {
	ByID(id string) (*Post, error)
	ByUserID(userID string, page, limit int) (*Page[Post], error)
	Create(post *Post) error
	Update(actorID, id string, upd PostUpdate) (*Post, error)
	Delete(actorID, id string) error
}
