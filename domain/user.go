package domain

import (
	"context"
	"time"
)

type User struct {
	ID       string `json:"id" gorm:"primaryKey"`
	Username string `json:"username" gorm:"notNull;uniqueIndex"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Bio      string `json:"bio"`

	// Advisory caches of the follows table. The follows table is the
	// only authoritative source for "is following"; these counters exist
	// for cheap display and must stay re-derivable via RecountFollows.
	FollowerCount  int `json:"follower_count"`
	FollowingCount int `json:"following_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserService is the identity directory: it resolves handles to IDs and
// back, and owns the denormalized follow counters on the users table.
type UserService interface {
	FindUserByID(ctx context.Context, id string) (*User, error)
	FindUserByUsername(ctx context.Context, username string) (*User, error)
	CreateUser(ctx context.Context, user *User) error

	// BumpFollowCounts adjusts the follower's following count and the
	// followed user's follower count by delta, flooring at zero.
	BumpFollowCounts(ctx context.Context, followerID, followedID string, delta int) error

	// RecountFollows recomputes both counters of a user from the follows
	// table and returns the updated record.
	RecountFollows(ctx context.Context, id string) (*User, error)
}
