package crud

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wtfSocial/domain"
	"wtfSocial/errs"
)

// LikeService manages the like sets of posts and comments.
// It implements the domain.LikeService interface.
type LikeService struct {
	likeValidator
}

// likeValidator runs validations on incoming Like data.
// On success, it passes the data on to likeGorm.
// Otherwise, it returns the error of the validation that has failed.
type likeValidator struct {
	likeGorm
}

// likeGorm runs CRUD operations on the database using incoming Like data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type likeGorm struct {
	db *gorm.DB
	broadcaster
}

// NewLikeService returns an instance of LikeService.
func NewLikeService(db *gorm.DB, b broadcaster) *LikeService {
	return &LikeService{
		likeValidator{
			likeGorm{
				db:          db,
				broadcaster: b,
			},
		},
	}
}

// Ensure the LikeService struct properly implements the domain.LikeService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.LikeService = &LikeService{}

// Create runs validations needed for creating new Like database records.
func (lv *likeValidator) Create(like *domain.Like) error {
	err := runLikeValFns(like,
		lv.userIdValid,
		lv.targetValid,
		lv.likedTargetExists,
		lv.notAlreadyLiked)
	if err != nil {
		return err
	}
	return lv.likeGorm.Create(like)
}

// Delete runs validations needed for deleting existing Like database records.
// Unliking a tombstoned comment is rejected the same way liking one is.
func (lv *likeValidator) Delete(like *domain.Like) error {
	err := runLikeValFns(like,
		lv.userIdValid,
		lv.targetValid,
		lv.likedTargetExists,
		lv.likeExists)
	if err != nil {
		return err
	}
	return lv.likeGorm.Delete(like)
}

// runLikeValFns runs any number of functions of type likeValFn on the passed in Like object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runLikeValFns(like *domain.Like, fns ...likeValFn) error {
	for _, fn := range fns {
		if err := fn(like); err != nil {
			return err
		}
	}
	return nil
}

// A likeValFn is any function that takes in a pointer to a domain.Like object and returns an error.
type likeValFn func(like *domain.Like) error

// userIdValid ensures that the userId is not empty.
func (lv *likeValidator) userIdValid(like *domain.Like) error {
	if like.UserID == "" {
		return errs.UserIdRequired
	}
	return nil
}

// targetValid makes sure that the Like targets exactly one post or comment.
func (lv *likeValidator) targetValid(like *domain.Like) error {
	if (like.PostID == nil) == (like.CommentID == nil) {
		return errs.Errorf(errs.EINVALID, "A like must target exactly one post or comment.")
	}
	return nil
}

// likedTargetExists makes sure that the post or comment to be liked actually
// exists. A tombstoned comment is gone as a like target, even though the row
// is still reachable through its thread.
func (lv *likeValidator) likedTargetExists(like *domain.Like) error {
	if like.PostID != nil {
		err := lv.db.First(&domain.Post{}, "id = ?", *like.PostID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.Errorf(errs.ENOTFOUND, "The liked post does not exist.")
			}
			return err
		}
		return nil
	}
	var comment domain.Comment
	err := lv.db.First(&comment, "id = ?", *like.CommentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.Errorf(errs.ENOTFOUND, "The liked comment does not exist.")
		}
		return err
	}
	if comment.IsDeleted {
		return errs.Errorf(errs.ENOTFOUND, "The liked comment does not exist.")
	}
	return nil
}

// notAlreadyLiked makes sure that the user doesn't already like the target.
// This is a pre-check for a friendly error; the composite unique index is
// what actually guarantees set uniqueness under concurrency.
func (lv *likeValidator) notAlreadyLiked(like *domain.Like) error {
	err := lv.db.First(&domain.Like{}, lv.targetCond(like)).Error
	if err == nil {
		return errs.Errorf(errs.ECONFLICT, "You already like that %s.", like.TargetKind())
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

// likeExists makes sure that the Like record to be deleted actually exists.
func (lv *likeValidator) likeExists(like *domain.Like) error {
	err := lv.db.First(like, lv.targetCond(like)).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.Errorf(errs.ECONFLICT, "You cannot unlike a %s you have not liked.", like.TargetKind())
		}
		return err
	}
	return nil
}

// targetCond builds the where-condition identifying a like set entry.
func (lv *likeValidator) targetCond(like *domain.Like) *gorm.DB {
	if like.PostID != nil {
		return lv.db.Where("user_id = ? AND post_id = ?", like.UserID, *like.PostID)
	}
	return lv.db.Where("user_id = ? AND comment_id = ?", like.UserID, *like.CommentID)
}

// CountByPost returns the size of a post's like set.
func (lg *likeGorm) CountByPost(postID string) (int, error) {
	var count int64
	err := lg.db.Model(&domain.Like{}).Where("post_id = ?", postID).Count(&count).Error
	return int(count), err
}

// CountByComment returns the size of a comment's like set.
func (lg *likeGorm) CountByComment(commentID string) (int, error) {
	var count int64
	err := lg.db.Model(&domain.Like{}).Where("comment_id = ?", commentID).Count(&count).Error
	return int(count), err
}

// IsLikedByPost reports whether the given user likes the given post.
func (lg *likeGorm) IsLikedByPost(postID, userID string) bool {
	var count int64
	lg.db.Model(&domain.Like{}).Where("post_id = ? AND user_id = ?", postID, userID).Count(&count)
	return count > 0
}

// IsLikedByComment reports whether the given user likes the given comment.
func (lg *likeGorm) IsLikedByComment(commentID, userID string) bool {
	var count int64
	lg.db.Model(&domain.Like{}).Where("comment_id = ? AND user_id = ?", commentID, userID).Count(&count)
	return count > 0
}

// ByUserID retrieves all likes of a user, newest first.
func (lg *likeGorm) ByUserID(userID string) ([]domain.Like, error) {
	var likes []domain.Like
	err := lg.db.Where("user_id = ?", userID).Order("created_at desc").Find(&likes).Error
	if err != nil {
		return nil, err
	}
	return likes, nil
}

// Create stores the data from the Like object in a new database record,
// notifies the content owner and broadcasts the new like. A duplicate-key
// error from the unique index means a concurrent like won the race; it maps
// to the same conflict the pre-check would have returned.
func (lg *likeGorm) Create(like *domain.Like) error {
	if like.ID == "" {
		like.ID = uuid.NewString()
	}
	if err := lg.db.Create(like).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.Errorf(errs.ECONFLICT, "You already like that %s.", like.TargetKind())
		}
		return err
	}
	if ownerID, err := lg.targetOwner(like); err == nil {
		lg.fanout(&domain.Notification{
			RecipientID: ownerID,
			SenderID:    like.UserID,
			Type:        domain.NotificationTypeLike,
			PostID:      like.PostID,
			CommentID:   like.CommentID,
		})
	} else {
		lg.rec.RecordFanoutFailure()
		slog.Error("like fan-out failed",
			"like", like.ID,
			"target", like.TargetKind(),
			"err", err)
	}
	lg.publish(domain.EventLikeAdded, like)
	return nil
}

// Delete permanently deletes the database record matching the data from the
// Like object and broadcasts the removal.
func (lg *likeGorm) Delete(like *domain.Like) error {
	if err := lg.db.Delete(&domain.Like{}, "id = ?", like.ID).Error; err != nil {
		return err
	}
	lg.publish(domain.EventLikeRemoved, like)
	return nil
}

// targetOwner resolves the author of the liked post or comment.
func (lg *likeGorm) targetOwner(like *domain.Like) (string, error) {
	if like.PostID != nil {
		var post domain.Post
		if err := lg.db.First(&post, "id = ?", *like.PostID).Error; err != nil {
			return "", err
		}
		return post.UserID, nil
	}
	var comment domain.Comment
	if err := lg.db.First(&comment, "id = ?", *like.CommentID).Error; err != nil {
		return "", err
	}
	return comment.UserID, nil
}
