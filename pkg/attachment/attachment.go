// Package attachment manages opaque content blobs that can be linked to
// memories. Attachments are identified by UUID and size-limited; memories
// reference them through the attachment_ids metadata key.
package attachment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultMaxSizeBytes is the default attachment size limit (100 MiB).
const DefaultMaxSizeBytes = 100 * 1024 * 1024

var (
	// ErrNotFound indicates the attachment does not exist.
	ErrNotFound = errors.New("attachment not found")

	// ErrTooLarge indicates the content exceeds the configured size limit.
	ErrTooLarge = errors.New("attachment content too large")

	// ErrExists indicates an attachment with the given ID already exists.
	ErrExists = errors.New("attachment already exists")
)

// Attachment is a stored content blob.
type Attachment struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store stores and retrieves attachments.
//
// Create generates an ID when id is nil and fails with ErrExists when the
// supplied ID is already taken. Delete is idempotent.
type Store interface {
	Create(ctx context.Context, content string, id *uuid.UUID) (*Attachment, error)
	Get(ctx context.Context, id uuid.UUID) (*Attachment, error)
	Update(ctx context.Context, id uuid.UUID, content string) (*Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// CheckSize validates content against a size limit. A non-positive limit
// falls back to DefaultMaxSizeBytes.
func CheckSize(content string, maxSizeBytes int64) error {
	if maxSizeBytes <= 0 {
		maxSizeBytes = DefaultMaxSizeBytes
	}
	if int64(len(content)) > maxSizeBytes {
		return ErrTooLarge
	}
	return nil
}
