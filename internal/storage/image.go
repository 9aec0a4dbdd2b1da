package storage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// imagePrefix is the known prefix all post images live under,
// relative to the media root.
const imagePrefix = "tweet_images"

// ImageStore writes uploaded images to local disk under the media
// root, addressed by generated relative paths like
// tweet_images/post_<uuid>.png.
type ImageStore struct {
	root string
}

func NewImageStore(root string) *ImageStore { return &ImageStore{root: root} }

func (s *ImageStore) Save(file *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	rel := filepath.Join(imagePrefix, fmt.Sprintf("post_%s%s", uuid.New().String(), ext))
	abs := filepath.Join(s.root, rel)

	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(abs)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(abs)
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Remove deletes a stored image. Paths outside the media root are
// refused.
func (s *ImageStore) Remove(rel string) error {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return fmt.Errorf("invalid image path %q", rel)
	}
	return os.Remove(filepath.Join(s.root, clean))
}
