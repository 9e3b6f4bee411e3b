// Package storage keeps uploaded post images.
package storage

import (
	"context"
	"path"

	"github.com/google/uuid"
)

// ImageStore saves image bytes under a key and knows the public URL of a key.
type ImageStore interface {
	Save(ctx context.Context, key, contentType string, data []byte) error
	URL(key string) string
}

// NewImageKey returns a fresh object key for a post image with extension ext
// (".png", ".gif", ...).
func NewImageKey(ext string) string {
	return path.Join("posts", uuid.New().String()+ext)
}
