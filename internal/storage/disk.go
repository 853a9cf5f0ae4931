package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/rahulds/goblog/internal/models"
)

// uploadsSubdir keeps post images under <root>/posts so the public path
// becomes /uploads/posts/<name>.
const uploadsSubdir = "posts"

// DiskStore writes uploads to the local filesystem.
type DiskStore struct {
	root string
}

// NewDiskStore creates the upload directory if needed.
func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(filepath.Join(root, uploadsSubdir), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{root: root}, nil
}

func (s *DiskStore) Save(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if err := ValidateImage(contentType, size); err != nil {
		return "", err
	}

	name := uuid.NewString() + filepath.Ext(filename)
	rel := filepath.ToSlash(filepath.Join(uploadsSubdir, name))

	f, err := os.Create(filepath.Join(s.root, uploadsSubdir, name))
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, io.LimitReader(r, MaxUploadSize)); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	return rel, nil
}

// Remove deletes a stored upload. The default image sentinel is never a
// stored file and is skipped. Only paths inside the upload root are
// removable; anything that escapes it after cleaning is rejected.
func (s *DiskStore) Remove(ctx context.Context, path string) error {
	if path == "" || path == models.DefaultFeaturedImage {
		return nil
	}
	rel := filepath.Clean(filepath.FromSlash(path))
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("upload path %q escapes the upload root", path)
	}
	full := filepath.Join(s.root, rel)
	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}
