package attachment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory attachment store. Safe for concurrent use.
type MemStore struct {
	mu           sync.RWMutex
	attachments  map[uuid.UUID]*Attachment
	maxSizeBytes int64
}

// NewMemStore creates an in-memory attachment store with the given size
// limit. A non-positive limit falls back to DefaultMaxSizeBytes.
func NewMemStore(maxSizeBytes int64) *MemStore {
	if maxSizeBytes <= 0 {
		maxSizeBytes = DefaultMaxSizeBytes
	}
	return &MemStore{
		attachments:  make(map[uuid.UUID]*Attachment),
		maxSizeBytes: maxSizeBytes,
	}
}

// Create stores a new attachment. When id is nil a random UUID is assigned.
func (s *MemStore) Create(ctx context.Context, content string, id *uuid.UUID) (*Attachment, error) {
	if err := CheckSize(content, s.maxSizeBytes); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var attachmentID uuid.UUID
	if id != nil {
		if _, ok := s.attachments[*id]; ok {
			return nil, ErrExists
		}
		attachmentID = *id
	} else {
		attachmentID = uuid.New()
	}

	now := time.Now()
	att := &Attachment{
		ID:        attachmentID,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.attachments[attachmentID] = att

	return cloneAttachment(att), nil
}

// Get retrieves an attachment by ID.
func (s *MemStore) Get(ctx context.Context, id uuid.UUID) (*Attachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	att, ok := s.attachments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneAttachment(att), nil
}

// Update replaces an attachment's content.
func (s *MemStore) Update(ctx context.Context, id uuid.UUID, content string) (*Attachment, error) {
	if err := CheckSize(content, s.maxSizeBytes); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	att, ok := s.attachments[id]
	if !ok {
		return nil, ErrNotFound
	}
	att.Content = content
	att.UpdatedAt = time.Now()

	return cloneAttachment(att), nil
}

// Delete removes an attachment. Deleting a missing attachment is a no-op.
func (s *MemStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.attachments, id)
	return nil
}

func cloneAttachment(att *Attachment) *Attachment {
	cp := *att
	return &cp
}
