package crud

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wtfSocial/domain"
	"wtfSocial/errs"
)

// PostService manages Posts.
// It implements the domain.PostService interface.
type PostService struct {
	postValidator
}

// postValidator runs validations on incoming Post data.
// On success, it passes the data on to postGorm.
// Otherwise, it returns the error of the validation that has failed.
type postValidator struct {
	postGorm
}

// postGorm runs CRUD operations on the database using incoming Post data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type postGorm struct {
	db     *gorm.DB
	users  domain.UserService
	images domain.ImageService
	broadcaster
}

// NewPostService returns an instance of PostService.
func NewPostService(db *gorm.DB, users domain.UserService, images domain.ImageService, b broadcaster) *PostService {
	return &PostService{
		postValidator{
			postGorm{
				db:          db,
				users:       users,
				images:      images,
				broadcaster: b,
			},
		},
	}
}

// Ensure the PostService struct properly implements the domain.PostService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.PostService = &PostService{}

// Create runs validations needed for creating new Post database records.
func (pv *postValidator) Create(post *domain.Post) error {
	err := runPostValFns(post,
		pv.userIdValid,
		pv.contentMinLength,
		pv.contentMaxLength,
		pv.visibilityValid,
		pv.deriveMentions)
	if err != nil {
		return err
	}
	return pv.postGorm.Create(post)
}

// Update runs validations needed for editing existing Post database records.
// Only the owner may edit. Changing the content re-derives the mention list.
func (pv *postValidator) Update(actorID, id string, upd domain.PostUpdate) (*domain.Post, error) {
	post, err := pv.postGorm.ByID(id)
	if err != nil {
		return nil, err
	}
	if post.UserID != actorID {
		return nil, errs.Errorf(errs.EUNAUTHORIZED, "You are not allowed to edit this post.")
	}
	contentChanged := false
	if upd.Content != nil && *upd.Content != post.Content {
		post.Content = *upd.Content
		contentChanged = true
	}
	if upd.Visibility != nil {
		post.Visibility = *upd.Visibility
	}
	if upd.Tags != nil {
		post.Tags = *upd.Tags
	}
	fns := []postValFn{pv.contentMinLength, pv.contentMaxLength, pv.visibilityValid}
	if contentChanged {
		fns = append(fns, pv.deriveMentions)
	}
	if err := runPostValFns(post, fns...); err != nil {
		return nil, err
	}
	return post, pv.postGorm.Update(post)
}

// Delete runs validations needed for deleting existing Post database records.
// Only the owner may delete.
func (pv *postValidator) Delete(actorID, id string) error {
	post, err := pv.postGorm.ByID(id)
	if err != nil {
		return err
	}
	if post.UserID != actorID {
		return errs.Errorf(errs.EUNAUTHORIZED, "You are not allowed to delete this post.")
	}
	return pv.postGorm.Delete(post)
}

// runPostValFns runs any number of functions of type postValFn on the passed in Post object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runPostValFns(post *domain.Post, fns ...postValFn) error {
	for _, fn := range fns {
		if err := fn(post); err != nil {
			return err
		}
	}
	return nil
}

// A postValFn is any function that takes in a pointer to a domain.Post object and returns an error.
type postValFn func(post *domain.Post) error

// userIdValid ensures that the userId is not empty.
func (pv *postValidator) userIdValid(post *domain.Post) error {
	if post.UserID == "" {
		return errs.UserIdRequired
	}
	return nil
}

// contentMinLength makes sure that the Post's content is not empty.
func (pv *postValidator) contentMinLength(post *domain.Post) error {
	contentStripped := strings.TrimSpace(post.Content)
	if contentStripped == "" {
		return errs.Errorf(errs.EINVALID, "Post content must not be empty.")
	}
	return nil
}

// contentMaxLength makes sure that the Post's content does not exceed the maximum content length.
func (pv *postValidator) contentMaxLength(post *domain.Post) error {
	if utf8.RuneCountInString(post.Content) > 2000 {
		return errs.Errorf(errs.EINVALID, "Post content max length is 2000 characters.")
	}
	return nil
}

// visibilityValid defaults an empty visibility to public and rejects
// anything outside the known policies.
func (pv *postValidator) visibilityValid(post *domain.Post) error {
	switch post.Visibility {
	case "":
		post.Visibility = domain.VisibilityPublic
	case domain.VisibilityPublic, domain.VisibilityFollowers, domain.VisibilityPrivate:
	default:
		return errs.Errorf(errs.EINVALID, "Unknown visibility %q.", post.Visibility)
	}
	return nil
}

// deriveMentions extracts the resolved mention IDs from the Post's content.
func (pv *postValidator) deriveMentions(post *domain.Post) error {
	mentions, err := extractMentions(context.Background(), pv.users, post.Content)
	if err != nil {
		return err
	}
	post.Mentions = mentions
	return nil
}

// ByID retrieves a single Post by ID.
func (pg *postGorm) ByID(id string) (*domain.Post, error) {
	var post domain.Post
	err := pg.db.First(&post, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Errorf(errs.ENOTFOUND, "The post does not exist.")
		}
		return nil, err
	}
	return &post, nil
}

// ByUserID retrieves the posts of a user, newest first.
func (pg *postGorm) ByUserID(userID string, page, limit int) (*domain.Page[domain.Post], error) {
	if limit <= 0 {
		limit = 10
	}
	q := pg.db.Model(&domain.Post{}).Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	var posts []domain.Post
	err := q.Order("created_at desc").
		Offset(domain.PageOffset(page, limit)).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return domain.NewPage(posts, int(total), page, limit), nil
}

// Create stores the data from the Post object in a new database record,
// notifies every mentioned user and broadcasts the new post.
func (pg *postGorm) Create(post *domain.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if err := pg.db.Create(post).Error; err != nil {
		return err
	}
	for _, mentionedID := range post.Mentions {
		pg.fanout(&domain.Notification{
			RecipientID: mentionedID,
			SenderID:    post.UserID,
			Type:        domain.NotificationTypeMention,
			PostID:      &post.ID,
		})
	}
	pg.publish(domain.EventPostCreated, post)
	return nil
}

// Update saves the mutated fields of an existing Post record. Tags and
// mentions are serializer-backed, so the write goes through the struct path.
func (pg *postGorm) Update(post *domain.Post) error {
	return pg.db.Model(post).
		Select("content", "visibility", "tags", "mentions").
		Updates(post).Error
}

// Delete permanently deletes a Post record, its comments, the likes of both,
// and releases the post's image references. The deletes are independent
// single-entity operations; partial failure leaves repairable drift, never
// a resurrected post.
func (pg *postGorm) Delete(post *domain.Post) error {
	// Likes of the post's comments first, then the comments themselves.
	err := pg.db.
		Where("comment_id IN (?)", pg.db.Model(&domain.Comment{}).Select("id").Where("post_id = ?", post.ID)).
		Delete(&domain.Like{}).Error
	if err != nil {
		return err
	}
	if err := pg.db.Where("post_id = ?", post.ID).Delete(&domain.Comment{}).Error; err != nil {
		return err
	}
	if err := pg.db.Where("post_id = ?", post.ID).Delete(&domain.Like{}).Error; err != nil {
		return err
	}
	if err := pg.db.Delete(&domain.Post{}, "id = ?", post.ID).Error; err != nil {
		return err
	}
	if pg.images != nil {
		if err := pg.images.DeleteAll(domain.OwnerTypePost, post.ID); err != nil {
			slog.Warn("releasing post images failed", "post", post.ID, "err", err)
		}
	}
	return nil
}
