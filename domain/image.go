package domain

import (
	"fmt"
	"net/url"
)

const (
	// OwnerTypePost expresses that an Image belongs to a Post.
	OwnerTypePost = "post"
	// OwnerTypeUser expresses that an Image belongs to a User.
	OwnerTypeUser = "user"
	// ImagesBaseDir determines the general storage location of images.
	ImagesBaseDir = "images"
)

// Image represents an image reference. Images live as files in the
// filesystem and have no dedicated table in the database. They always have
// a polymorphic relationship with an owner, resolved through the location
// of the file: an Image belonging to the Post with ID "abc" is stored in
// images/post/abc/unique_name.jpeg. Deleting the owner releases the whole
// directory.
type Image struct {
	URL       string `json:"url"`
	OwnerType string `json:"-"`
	OwnerID   string `json:"-"`
	Filename  string `json:"-"`
}

// ImageService is a set of methods to work with image references.
type ImageService interface {
	ByOwner(ownerType, ownerID string) ([]Image, error)
	Delete(i *Image) error
	DeleteAll(ownerType, ownerID string) error
}

// Path returns the URL path of an image stored in the filesystem.
func (i *Image) Path() string {
	temp := url.URL{
		Path: "/" + i.RelativePath(),
	}
	return temp.String()
}

// RelativePath returns the relative path to an image stored in the filesystem.
func (i *Image) RelativePath() string {
	return fmt.Sprintf("%v/%v/%v/%v", ImagesBaseDir, i.OwnerType, i.OwnerID, i.Filename)
}
