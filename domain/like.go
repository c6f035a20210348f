package domain

import "time"

// Like represents a many-to-many relationship between a User and a Post or
// a Comment. Exactly one of PostID and CommentID is set. The composite
// unique indexes make the per-actor like sets unique at the store layer,
// so two concurrent likes by the same user cannot both insert.
type Like struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	UserID    string    `json:"user_id" gorm:"notNull;index;uniqueIndex:idx_likes_user_post;uniqueIndex:idx_likes_user_comment"`
	PostID    *string   `json:"post_id" gorm:"index;uniqueIndex:idx_likes_user_post"`
	CommentID *string   `json:"comment_id" gorm:"index;uniqueIndex:idx_likes_user_comment"`
	CreatedAt time.Time `json:"created_at"`
}

// TargetKind names the liked entity kind, for user-facing messages.
func (l *Like) TargetKind() string {
	if l.CommentID != nil {
		return "comment"
	}
	return "post"
}

// LikeService is a set of methods to manipulate and work with the Like model.
// The contract is identical for both target kinds.
type LikeService interface {
	Create(like *Like) error
	Delete(like *Like) error
	CountByPost(postID string) (int, error)
	CountByComment(commentID string) (int, error)
	IsLikedByPost(postID, userID string) bool
	IsLikedByComment(commentID, userID string) bool
	ByUserID(userID string) ([]Like, error)
}
