// Package uploads stores cover-image blobs. Books reference blobs by
// filename only; the store is the single place that knows where the bytes
// live.
package uploads

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store is the blob-store port the book workflow writes covers through.
// Put must return only after the blob is durably stored, so a book row is
// never committed pointing at a missing file.
type Store interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	Delete(ctx context.Context, key string) error
}

// NewObjectKey derives a collision-free storage key for an upload,
// preserving the original file extension.
func NewObjectKey(originalFilename string) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	return uuid.New().String() + ext
}
