package domain

import "time"

// CommentTombstone replaces the content of a soft-deleted comment.
// The record itself is never removed so that reply threads stay intact.
const CommentTombstone = "[This comment has been deleted]"

// Comment represents a comment on a Post, or a reply to another Comment
// when ParentID is set. The comment tree is a flat arena keyed by ID:
// ParentID is the single authoritative relationship, ReplyIDs is a derived
// index maintained on insert and rebuildable from ParentID at any time.
type Comment struct {
	ID       string  `json:"id" gorm:"primaryKey"`
	UserID   string  `json:"user_id" gorm:"notNull;index"`
	PostID   string  `json:"post_id" gorm:"notNull;index"`
	ParentID *string `json:"parent_id" gorm:"index"`

	Content  string   `json:"content"`
	Mentions []string `json:"mentions" gorm:"serializer:json"`
	ReplyIDs []string `json:"reply_ids" gorm:"serializer:json"`

	IsEdited bool       `json:"is_edited"`
	EditedAt *time.Time `json:"edited_at"`

	// Soft deletion is terminal. Tombstoned comments are excluded from
	// list reads but stay reachable by ID.
	IsDeleted bool       `json:"is_deleted" gorm:"index"`
	DeletedAt *time.Time `json:"deleted_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentService is a set of methods to manipulate and work with the Comment model.
type CommentService interface {
	// ByID returns the comment even if it is tombstoned.
	ByID(id string) (*Comment, error)
	// ByPostID returns top-level comments, newest first, excluding tombstones.
	ByPostID(postID string, page, limit int) (*Page[Comment], error)
	// Replies returns a comment's replies, oldest first, excluding tombstones.
	Replies(parentID string, page, limit int) (*Page[Comment], error)
	Create(comment *Comment) error
	Update(actorID, id, content string) (*Comment, error)
	SoftDelete(actorID, id string) error
	// RecountThread rebuilds the post's comment-id index and every
	// parent's reply-id index from the authoritative columns.
	RecountThread(postID string) error
}
