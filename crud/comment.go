package crud

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wtfSocial/domain"
	"wtfSocial/errs"
)

// CommentService manages Comments and their reply threads.
// It implements the domain.CommentService interface.
type CommentService struct {
	commentValidator
}

// commentValidator runs validations on incoming Comment data.
// On success, it passes the data on to commentGorm.
// Otherwise, it returns the error of the validation that has failed.
type commentValidator struct {
	commentGorm
}

// commentGorm runs CRUD operations on the database using incoming Comment data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type commentGorm struct {
	db    *gorm.DB
	users domain.UserService
	broadcaster
}

// NewCommentService returns an instance of CommentService.
func NewCommentService(db *gorm.DB, users domain.UserService, b broadcaster) *CommentService {
	return &CommentService{
		commentValidator{
			commentGorm{
				db:          db,
				users:       users,
				broadcaster: b,
			},
		},
	}
}

// Ensure the CommentService struct properly implements the domain.CommentService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.CommentService = &CommentService{}

// Create runs validations needed for creating new Comment database records.
func (cv *commentValidator) Create(comment *domain.Comment) error {
	err := runCommentValFns(comment,
		cv.userIdValid,
		cv.contentValid,
		cv.commentedPostExists,
		cv.parentValid,
		cv.deriveMentions)
	if err != nil {
		return err
	}
	return cv.commentGorm.Create(comment)
}

// Update runs validations needed for editing existing Comment database records.
// Only the owner may edit; tombstoned comments are not editable.
func (cv *commentValidator) Update(actorID, id, content string) (*domain.Comment, error) {
	comment, err := cv.commentGorm.ByID(id)
	if err != nil {
		return nil, err
	}
	if comment.IsDeleted {
		return nil, errs.Errorf(errs.ENOTFOUND, "The comment does not exist.")
	}
	if comment.UserID != actorID {
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "You are not allowed to edit this comment.")
	}
	comment.Content = content
	if err := runCommentValFns(comment, cv.contentValid, cv.deriveMentions); err != nil {
		return nil, err
	}
	return comment, cv.commentGorm.Update(comment)
}

// SoftDelete tombstones a comment. Only the owner may delete. Tombstoning
// is terminal and idempotent; the record and its links persist forever.
func (cv *commentValidator) SoftDelete(actorID, id string) error {
	comment, err := cv.commentGorm.ByID(id)
	if err != nil {
		return err
	}
	if comment.UserID != actorID {
		return errs.Errorf(errs.EUNAUTHORIZED, "You are not allowed to delete this comment.")
	}
	if comment.IsDeleted {
		return nil
	}
	return cv.commentGorm.SoftDelete(comment)
}

// runCommentValFns runs any number of functions of type commentValFn on the passed in Comment object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runCommentValFns(comment *domain.Comment, fns ...commentValFn) error {
	for _, fn := range fns {
		if err := fn(comment); err != nil {
			return err
		}
	}
	return nil
}

// A commentValFn is any function that takes in a pointer to a domain.Comment object and returns an error.
type commentValFn func(comment *domain.Comment) error

// userIdValid ensures that the userId is not empty.
func (cv *commentValidator) userIdValid(comment *domain.Comment) error {
	if comment.UserID == "" {
		return errs.UserIdRequired
	}
	return nil
}

// contentValid makes sure that the Comment's content is neither empty nor too long.
func (cv *commentValidator) contentValid(comment *domain.Comment) error {
	if strings.TrimSpace(comment.Content) == "" {
		return errs.Errorf(errs.EINVALID, "Comment content must not be empty.")
	}
	if utf8.RuneCountInString(comment.Content) > 500 {
		return errs.Errorf(errs.EINVALID, "Comment content max length is 500 characters.")
	}
	return nil
}

// commentedPostExists makes sure that the post to be commented on actually exists.
func (cv *commentValidator) commentedPostExists(comment *domain.Comment) error {
	err := cv.db.First(&domain.Post{}, "id = ?", comment.PostID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.Errorf(errs.ENOTFOUND, "The commented post does not exist.")
		}
		return err
	}
	return nil
}

// parentValid makes sure that, when replying, the parent comment exists, is
// not tombstoned, and belongs to the same post as the new comment.
func (cv *commentValidator) parentValid(comment *domain.Comment) error {
	if comment.ParentID == nil {
		return nil
	}
	var parent domain.Comment
	err := cv.db.First(&parent, "id = ?", *comment.ParentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.Errorf(errs.ENOTFOUND, "The parent comment does not exist.")
		}
		return err
	}
	if parent.IsDeleted {
		return errs.Errorf(errs.ENOTFOUND, "The parent comment does not exist.")
	}
	if parent.PostID != comment.PostID {
		return errs.Errorf(errs.EINVALID, "The parent comment belongs to a different post.")
	}
	return nil
}

// deriveMentions extracts the resolved mention IDs from the Comment's content.
func (cv *commentValidator) deriveMentions(comment *domain.Comment) error {
	mentions, err := extractMentions(context.Background(), cv.users, comment.Content)
	if err != nil {
		return err
	}
	comment.Mentions = mentions
	return nil
}

// ByID retrieves a single Comment by ID, tombstoned or not, so that thread
// links always resolve.
func (cg *commentGorm) ByID(id string) (*domain.Comment, error) {
	var comment domain.Comment
	err := cg.db.First(&comment, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Errorf(errs.ENOTFOUND, "The comment does not exist.")
		}
		return nil, err
	}
	return &comment, nil
}

// ByPostID retrieves a post's top-level comments, newest first,
// excluding tombstones.
func (cg *commentGorm) ByPostID(postID string, page, limit int) (*domain.Page[domain.Comment], error) {
	q := cg.db.Model(&domain.Comment{}).
		Where("post_id = ? AND parent_id IS NULL AND is_deleted = ?", postID, false)
	return cg.pageComments(q, "created_at desc", page, limit)
}

// Replies retrieves a comment's replies, oldest first, excluding tombstones.
func (cg *commentGorm) Replies(parentID string, page, limit int) (*domain.Page[domain.Comment], error) {
	q := cg.db.Model(&domain.Comment{}).
		Where("parent_id = ? AND is_deleted = ?", parentID, false)
	return cg.pageComments(q, "created_at asc", page, limit)
}

func (cg *commentGorm) pageComments(q *gorm.DB, order string, page, limit int) (*domain.Page[domain.Comment], error) {
	if limit <= 0 {
		limit = 20
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	var comments []domain.Comment
	err := q.Order(order).
		Offset(domain.PageOffset(page, limit)).
		Limit(limit).
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return domain.NewPage(comments, int(total), page, limit), nil
}

// Create stores the data from the Comment object in a new database record,
// indexes it on the post and (when replying) the parent, notifies the post
// author and every mentioned user, and broadcasts the new comment.
func (cg *commentGorm) Create(comment *domain.Comment) error {
	var post domain.Post
	if err := cg.db.First(&post, "id = ?", comment.PostID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.Errorf(errs.ENOTFOUND, "The commented post does not exist.")
		}
		return err
	}
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if err := cg.db.Create(comment).Error; err != nil {
		return err
	}

	// The cached indexes follow the authoritative PostID/ParentID columns.
	// The id lists are serializer-backed, so they must be written through
	// the struct path; a raw column update would store the bare slice.
	post.CommentIDs = append(post.CommentIDs, comment.ID)
	err := cg.db.Model(&post).Select("comment_ids").Updates(&post).Error
	if err != nil {
		return err
	}
	if comment.ParentID != nil {
		var parent domain.Comment
		if err := cg.db.First(&parent, "id = ?", *comment.ParentID).Error; err != nil {
			return err
		}
		parent.ReplyIDs = append(parent.ReplyIDs, comment.ID)
		err = cg.db.Model(&parent).Select("reply_ids").Updates(&parent).Error
		if err != nil {
			return err
		}
	}

	if post.UserID != comment.UserID {
		cg.fanout(&domain.Notification{
			RecipientID: post.UserID,
			SenderID:    comment.UserID,
			Type:        domain.NotificationTypeComment,
			PostID:      &post.ID,
			CommentID:   &comment.ID,
		})
	}
	for _, mentionedID := range comment.Mentions {
		cg.fanout(&domain.Notification{
			RecipientID: mentionedID,
			SenderID:    comment.UserID,
			Type:        domain.NotificationTypeMention,
			Message:     cg.mentionMessage(comment.UserID),
			PostID:      &post.ID,
			CommentID:   &comment.ID,
		})
	}
	cg.publish(domain.EventCommentAdded, map[string]interface{}{
		"comment":           comment,
		"post_id":           comment.PostID,
		"parent_comment_id": comment.ParentID,
	})
	return nil
}

// mentionMessage builds the caller-supplied mention text for comments,
// which overrides the post-flavored template.
func (cg *commentGorm) mentionMessage(senderID string) string {
	sender, err := cg.users.FindUserByID(context.Background(), senderID)
	if err != nil {
		return "mentioned you in a comment"
	}
	return sender.Name + " mentioned you in a comment"
}

// Update saves the mutated content of an existing Comment record and marks it as edited.
func (cg *commentGorm) Update(comment *domain.Comment) error {
	now := time.Now()
	comment.IsEdited = true
	comment.EditedAt = &now
	return cg.db.Model(comment).
		Select("content", "mentions", "is_edited", "edited_at").
		Updates(comment).Error
}

// SoftDelete tombstones a Comment record in place.
func (cg *commentGorm) SoftDelete(comment *domain.Comment) error {
	now := time.Now()
	return cg.db.Model(comment).UpdateColumns(map[string]interface{}{
		"content":    domain.CommentTombstone,
		"is_deleted": true,
		"deleted_at": now,
	}).Error
}

// RecountThread rebuilds the post's comment-id index and every parent's
// reply-id index from the authoritative PostID/ParentID columns.
func (cg *commentGorm) RecountThread(postID string) error {
	var comments []domain.Comment
	err := cg.db.Where("post_id = ?", postID).Order("created_at asc").Find(&comments).Error
	if err != nil {
		return err
	}
	commentIDs := make([]string, 0, len(comments))
	replyIDs := map[string][]string{}
	for _, c := range comments {
		commentIDs = append(commentIDs, c.ID)
		if c.ParentID != nil {
			replyIDs[*c.ParentID] = append(replyIDs[*c.ParentID], c.ID)
		}
	}
	err = cg.db.Model(&domain.Post{ID: postID}).Select("comment_ids").
		Updates(&domain.Post{CommentIDs: commentIDs}).Error
	if err != nil {
		return err
	}
	for _, c := range comments {
		err = cg.db.Model(&domain.Comment{ID: c.ID}).Select("reply_ids").
			Updates(&domain.Comment{ReplyIDs: replyIDs[c.ID]}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// RecountAllThreads runs RecountThread for every post that has comments.
func (cg *commentGorm) RecountAllThreads() error {
	var postIDs []string
	err := cg.db.Model(&domain.Comment{}).Distinct("post_id").Pluck("post_id", &postIDs).Error
	if err != nil {
		return err
	}
	for _, id := range postIDs {
		if err := cg.RecountThread(id); err != nil {
			return err
		}
	}
	return nil
}
