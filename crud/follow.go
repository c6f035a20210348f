package crud

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wtfSocial/domain"
	"wtfSocial/errs"
)

// FollowService manages the follow graph.
// It implements the domain.FollowService interface.
type FollowService struct {
	followValidator
}

// followValidator runs validations on incoming Follow data.
// On success, it passes the data on to followGorm.
// Otherwise, it returns the error of the validation that has failed.
type followValidator struct {
	followGorm
}

// followGorm runs CRUD operations on the database using incoming Follow data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type followGorm struct {
	db    *gorm.DB
	users domain.UserService
	broadcaster
}

// NewFollowService returns an instance of FollowService.
func NewFollowService(db *gorm.DB, users domain.UserService, b broadcaster) *FollowService {
	return &FollowService{
		followValidator{
			followGorm{
				db:          db,
				users:       users,
				broadcaster: b,
			},
		},
	}
}

// Ensure the FollowService struct properly implements the domain.FollowService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.FollowService = &FollowService{}

// Create runs validations needed for creating new Follow database records.
func (fv *followValidator) Create(follow *domain.Follow) error {
	err := runFollowValFns(follow,
		fv.followedIsNotFollower,
		fv.followedUserExists,
		fv.notAlreadyFollowed)
	if err != nil {
		return err
	}
	return fv.followGorm.Create(follow)
}

// Delete removes a follow edge. Deleting a non-existent edge is a silent
// no-op at the graph level, so no validations run here.
func (fv *followValidator) Delete(follow *domain.Follow) error {
	return fv.followGorm.Delete(follow)
}

// runFollowValFns runs any number of functions of type followValFn on the passed in Follow object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runFollowValFns(follow *domain.Follow, fns ...followValFn) error {
	for _, fn := range fns {
		if err := fn(follow); err != nil {
			return err
		}
	}
	return nil
}

// A followValFn is any function that takes in a pointer to a domain.Follow object and returns an error.
type followValFn func(follow *domain.Follow) error

// followedIsNotFollower makes sure that a user is not trying to follow themselves.
func (fv *followValidator) followedIsNotFollower(follow *domain.Follow) error {
	if follow.FollowerID == follow.FollowedID {
		return errs.Errorf(errs.ECONFLICT, "You cannot follow yourself.")
	}
	return nil
}

// followedUserExists makes sure that the user to be followed actually exists.
func (fv *followValidator) followedUserExists(follow *domain.Follow) error {
	_, err := fv.users.FindUserByID(context.Background(), follow.FollowedID)
	if err != nil {
		if errs.ErrorCode(err) == errs.ENOTFOUND {
			return errs.Errorf(errs.ENOTFOUND, "The user to be followed does not exist.")
		}
		return err
	}
	return nil
}

// notAlreadyFollowed makes sure that no accepted edge exists for the pair yet.
func (fv *followValidator) notAlreadyFollowed(follow *domain.Follow) error {
	err := fv.db.First(&domain.Follow{},
		"follower_id = ? AND followed_id = ? AND status = ?",
		follow.FollowerID, follow.FollowedID, domain.FollowStatusAccepted).Error
	if err == nil {
		return errs.Errorf(errs.ECONFLICT, "You already follow this user.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

// IsFollowing reports whether an accepted edge follower -> followed exists.
func (fg *followGorm) IsFollowing(followerID, followedID string) bool {
	var count int64
	fg.db.Model(&domain.Follow{}).
		Where("follower_id = ? AND followed_id = ? AND status = ?",
			followerID, followedID, domain.FollowStatusAccepted).
		Count(&count)
	return count > 0
}

// FollowingIDs returns the IDs of all users the given user follows.
func (fg *followGorm) FollowingIDs(userID string) ([]string, error) {
	var ids []string
	err := fg.db.Model(&domain.Follow{}).
		Where("follower_id = ? AND status = ?", userID, domain.FollowStatusAccepted).
		Pluck("followed_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Followers retrieves the users following the given user, newest edge first.
func (fg *followGorm) Followers(userID string, page, limit int) (*domain.Page[domain.Follow], error) {
	return fg.pageEdges("followed_id = ?", userID, page, limit)
}

// Following retrieves the users the given user follows, newest edge first.
func (fg *followGorm) Following(userID string, page, limit int) (*domain.Page[domain.Follow], error) {
	return fg.pageEdges("follower_id = ?", userID, page, limit)
}

func (fg *followGorm) pageEdges(cond, userID string, page, limit int) (*domain.Page[domain.Follow], error) {
	if limit <= 0 {
		limit = 20
	}
	q := fg.db.Model(&domain.Follow{}).
		Where(cond, userID).
		Where("status = ?", domain.FollowStatusAccepted)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	var edges []domain.Follow
	err := q.Order("created_at desc").
		Offset(domain.PageOffset(page, limit)).
		Limit(limit).
		Find(&edges).Error
	if err != nil {
		return nil, err
	}
	return domain.NewPage(edges, int(total), page, limit), nil
}

// Create stores the data from the Follow object in a new database record,
// bumps the advisory counters on both sides, notifies the followed user and
// broadcasts the new edge.
func (fg *followGorm) Create(follow *domain.Follow) error {
	if follow.ID == "" {
		follow.ID = uuid.NewString()
	}
	if follow.Status == "" {
		follow.Status = domain.FollowStatusAccepted
	}
	if err := fg.db.Create(follow).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.Errorf(errs.ECONFLICT, "You already follow this user.")
		}
		return err
	}
	// Counters are advisory; drift is repaired by RecountFollows.
	err := fg.users.BumpFollowCounts(context.Background(), follow.FollowerID, follow.FollowedID, 1)
	if err != nil {
		slog.Warn("follow counter bump failed", "follower", follow.FollowerID, "err", err)
	}
	fg.fanout(&domain.Notification{
		RecipientID: follow.FollowedID,
		SenderID:    follow.FollowerID,
		Type:        domain.NotificationTypeFollow,
	})
	fg.publish(domain.EventFollowerAdded, follow)
	return nil
}

// Delete permanently deletes the database record matching the data from the
// Follow object. The counter decrement only runs when an edge was actually
// removed, so repeated unfollows can never push a counter negative.
func (fg *followGorm) Delete(follow *domain.Follow) error {
	res := fg.db.
		Where("follower_id = ? AND followed_id = ?", follow.FollowerID, follow.FollowedID).
		Delete(&domain.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}
	err := fg.users.BumpFollowCounts(context.Background(), follow.FollowerID, follow.FollowedID, -1)
	if err != nil {
		slog.Warn("unfollow counter bump failed", "follower", follow.FollowerID, "err", err)
	}
	return nil
}
