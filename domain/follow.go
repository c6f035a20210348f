package domain

import "time"

// Follow edge states. Only accepted edges count toward graph queries.
// Pending and blocked are reserved for a follow-request / block feature
// and are never produced by the current operations.
const (
	FollowStatusPending  = "pending"
	FollowStatusAccepted = "accepted"
	FollowStatusBlocked  = "blocked"
)

// Follow represents a self-referential many-to-many relationship between two
// users. A Follow is created when one user decides to follow another user.
// The FollowerID is the ID of the user that follows, and the FollowedID is
// the ID of the user that is being followed. Unfollowing hard-deletes the
// edge. A (follower, followed) pair is unique and a user can never follow
// themselves.
type Follow struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	FollowerID string    `json:"follower_id" gorm:"notNull;index;uniqueIndex:idx_follows_edge"`
	FollowedID string    `json:"followed_id" gorm:"notNull;index;uniqueIndex:idx_follows_edge"`
	Status     string    `json:"status" gorm:"notNull;default:accepted;index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// FollowService is a set of methods to manipulate and work with the Follow model.
type FollowService interface {
	Create(follow *Follow) error
	Delete(follow *Follow) error
	IsFollowing(followerID, followedID string) bool
	FollowingIDs(userID string) ([]string, error)
	Followers(userID string, page, limit int) (*Page[Follow], error)
	Following(userID string, page, limit int) (*Page[Follow], error)
}
