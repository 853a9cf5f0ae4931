// Package storage holds featured-image uploads. Two backends exist:
// local disk (served statically at /uploads) and MinIO object storage.
package storage

import (
	"context"
	"io"
	"strings"

	"github.com/rahulds/goblog/internal/httperr"
)

// MaxUploadSize caps a single image upload at 5 MB.
const MaxUploadSize = 5 << 20

// Store saves and removes uploaded files. Save returns the relative path
// ("posts/<name>") recorded on the post; Remove takes that same path.
type Store interface {
	Save(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, path string) error
}

// ValidateImage enforces the upload policy: image/* content type, size
// within the cap. Called before any bytes reach a backend.
func ValidateImage(contentType string, size int64) error {
	if !strings.HasPrefix(contentType, "image/") {
		return httperr.Validation("Only image uploads are allowed")
	}
	if size > MaxUploadSize {
		return httperr.Validation("Image exceeds the 5MB upload limit")
	}
	return nil
}
