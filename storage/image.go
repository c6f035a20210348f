// Package storage keeps image references on the filesystem. Images have no
// database table; the directory layout images/<owner type>/<owner id>/ is
// the whole relationship, so releasing an owner's references is a single
// directory removal.
package storage

import (
	"os"
	"path/filepath"

	"wtfSocial/domain"
)

// ImageService manages image references in the filesystem.
// It implements the domain.ImageService interface.
type ImageService struct {
	baseDir string
}

// NewImageService returns an instance of ImageService rooted at the
// default images directory.
func NewImageService() *ImageService {
	return &ImageService{
		baseDir: domain.ImagesBaseDir,
	}
}

var _ domain.ImageService = &ImageService{}

// ByOwner lists the image references of an owner. A missing directory
// simply means the owner has no images.
func (is *ImageService) ByOwner(ownerType, ownerID string) ([]domain.Image, error) {
	dir := is.ownerDir(ownerType, ownerID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var images []domain.Image
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		img := domain.Image{
			OwnerType: ownerType,
			OwnerID:   ownerID,
			Filename:  entry.Name(),
		}
		img.URL = img.Path()
		images = append(images, img)
	}
	return images, nil
}

// Delete removes a single image file.
func (is *ImageService) Delete(i *domain.Image) error {
	return os.Remove(i.RelativePath())
}

// DeleteAll releases every image reference of an owner. Deleting the
// references of an owner that never had any is a no-op.
func (is *ImageService) DeleteAll(ownerType, ownerID string) error {
	return os.RemoveAll(is.ownerDir(ownerType, ownerID))
}

func (is *ImageService) ownerDir(ownerType, ownerID string) string {
	return filepath.Join(is.baseDir, ownerType, ownerID)
}
