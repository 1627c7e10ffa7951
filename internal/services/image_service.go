package services

import (
	"fmt"

	"catalogo/internal/storage"

	"github.com/gosimple/slug"
)

// ImageDir is the prefix under which product images are stored.
const ImageDir = "products_images"

// ImageUpload is a raw image upload: file bytes plus the client's filename.
type ImageUpload struct {
	Data     []byte
	Filename string
}

// ImageService derives product image filenames and writes them to the blob
// store. The stored name is a pure function of the product name and ID at the
// time of the write, so renaming a product and re-uploading changes the path.
type ImageService struct {
	store storage.BlobStore
}

// NewImageService creates a new ImageService.
func NewImageService(store storage.BlobStore) *ImageService {
	return &ImageService{
		store: store,
	}
}

// FileName derives the image filename for a product: "{slug(name)}-{id}.png".
func (s *ImageService) FileName(name string, id uint) string {
	return fmt.Sprintf("%s-%d.png", slug.Make(name), id)
}

// Store writes the upload under ImageDir using the derived filename and
// returns the stored relative path.
func (s *ImageService) Store(upload *ImageUpload, name string, id uint) (string, error) {
	path := ImageDir + "/" + s.FileName(name, id)
	return s.store.Put(path, upload.Data)
}

// Delete removes a previously stored image.
func (s *ImageService) Delete(path string) error {
	return s.store.Delete(path)
}

// Exists reports whether an image is stored at path.
func (s *ImageService) Exists(path string) (bool, error) {
	return s.store.Exists(path)
}
