package crud

import (
	"context"
	"errors"
	"regexp"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wtfSocial/domain"
	"wtfSocial/errs"
)

// UserService manages Users. It is the identity directory of the system:
// handle to ID resolution for mentions, ID to display-field resolution for
// fan-out enrichment, and the advisory follow counters on the users table.
// It implements the domain.UserService interface.
type UserService struct {
	userValidator
}

// userValidator runs validations on incoming User data.
// On success, it passes the data on to userGorm.
// Otherwise, it returns the error of the validation that has failed.
type userValidator struct {
	usernameRegex *regexp.Regexp
	userGorm
}

// userGorm runs CRUD operations on the database using incoming User data.
// It assumes that data has been validated. On success, it returns nil.
// Otherwise, it returns the error of the operation that has failed.
type userGorm struct {
	db *gorm.DB
}

// NewUserService returns an instance of UserService.
func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		userValidator{
			usernameRegex: regexp.MustCompile(`^\w{1,30}$`),
			userGorm: userGorm{
				db: db,
			},
		},
	}
}

// Ensure the UserService struct properly implements the domain.UserService interface.
// If it does not, then this expression becomes invalid and won't compile.
var _ domain.UserService = &UserService{}

// CreateUser runs validations needed for creating new User database records.
func (uv *userValidator) CreateUser(ctx context.Context, user *domain.User) error {
	err := runUserValFns(user,
		uv.usernameRequired,
		uv.usernameFormatValid,
		uv.usernameNotTaken)
	if err != nil {
		return err
	}
	return uv.userGorm.CreateUser(ctx, user)
}

// runUserValFns runs any number of functions of type userValFn on the passed in User object.
// If none of them returns an error, it returns nil. Otherwise, it returns the respective error.
func runUserValFns(user *domain.User, fns ...userValFn) error {
	for _, fn := range fns {
		if err := fn(user); err != nil {
			return err
		}
	}
	return nil
}

// A userValFn is any function that takes in a pointer to a domain.User object and returns an error.
type userValFn func(user *domain.User) error

// usernameRequired makes sure that the username is not empty.
func (uv *userValidator) usernameRequired(user *domain.User) error {
	if user.Username == "" {
		return errs.Errorf(errs.EINVALID, "A username is required.")
	}
	return nil
}

// usernameFormatValid makes sure that the username consists of word
// characters only, so that it stays addressable by the mention pattern.
func (uv *userValidator) usernameFormatValid(user *domain.User) error {
	if !uv.usernameRegex.MatchString(user.Username) {
		return errs.Errorf(errs.EINVALID, "The username may only contain letters, digits and underscores.")
	}
	return nil
}

// usernameNotTaken makes sure that no other user already has the username.
func (uv *userValidator) usernameNotTaken(user *domain.User) error {
	err := uv.db.First(&domain.User{}, "username = ?", user.Username).Error
	if err == nil {
		return errs.Errorf(errs.ECONFLICT, "The username is already taken.")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return nil
}

// FindUserByID retrieves a single User by ID.
func (ug *userGorm) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := ug.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Errorf(errs.ENOTFOUND, "The user does not exist.")
		}
		return nil, err
	}
	return &user, nil
}

// FindUserByUsername retrieves a single User by their unique handle.
func (ug *userGorm) FindUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := ug.db.WithContext(ctx).First(&user, "username = ?", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.Errorf(errs.ENOTFOUND, "The user does not exist.")
		}
		return nil, err
	}
	return &user, nil
}

// CreateUser stores the data from the User object in a new database record.
func (ug *userGorm) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	return ug.db.WithContext(ctx).Create(user).Error
}

// BumpFollowCounts adjusts the advisory follow counters of both sides of an
// edge. The counters never go below zero. Call sites treat a failure here
// as loggable drift, not as a failure of the follow mutation itself.
func (ug *userGorm) BumpFollowCounts(ctx context.Context, followerID, followedID string, delta int) error {
	err := ug.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", followerID).
		UpdateColumn("following_count", gorm.Expr(
			"CASE WHEN following_count + ? < 0 THEN 0 ELSE following_count + ? END", delta, delta)).
		Error
	if err != nil {
		return err
	}
	return ug.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", followedID).
		UpdateColumn("follower_count", gorm.Expr(
			"CASE WHEN follower_count + ? < 0 THEN 0 ELSE follower_count + ? END", delta, delta)).
		Error
}

// RecountFollows recomputes both advisory counters of a user from the
// follows table, the authoritative source, and returns the updated record.
func (ug *userGorm) RecountFollows(ctx context.Context, id string) (*domain.User, error) {
	db := ug.db.WithContext(ctx)
	var followers, following int64
	err := db.Model(&domain.Follow{}).
		Where("followed_id = ? AND status = ?", id, domain.FollowStatusAccepted).
		Count(&followers).Error
	if err != nil {
		return nil, err
	}
	err = db.Model(&domain.Follow{}).
		Where("follower_id = ? AND status = ?", id, domain.FollowStatusAccepted).
		Count(&following).Error
	if err != nil {
		return nil, err
	}
	err = db.Model(&domain.User{}).Where("id = ?", id).UpdateColumns(map[string]interface{}{
		"follower_count":  followers,
		"following_count": following,
	}).Error
	if err != nil {
		return nil, err
	}
	return ug.FindUserByID(ctx, id)
}

// RecountAllFollows runs RecountFollows for every user. It backs the
// reconciliation pass that repairs counter drift.
func (ug *userGorm) RecountAllFollows(ctx context.Context) error {
	var ids []string
	err := ug.db.WithContext(ctx).Model(&domain.User{}).Pluck("id", &ids).Error
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := ug.RecountFollows(ctx, id); err != nil {
			return err
		}
	}
	return nil
}
