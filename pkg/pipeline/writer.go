package pipeline

import (
	"context"
	"fmt"

	"github.com/openmemory-ai/openmemory-go/pkg/embedder"
	"github.com/openmemory-ai/openmemory-go/pkg/vectorstore"
)

// Writer executes resolved actions against the vector store.
type Writer struct {
	embedder embedder.Provider
	store    vectorstore.VectorStore
	newID    func() int64
}

// NewWriter creates a store writer. newID supplies identifiers for ADD
// actions.
func NewWriter(emb embedder.Provider, store vectorstore.VectorStore, newID func() int64) *Writer {
	return &Writer{
		embedder: emb,
		store:    store,
		newID:    newID,
	}
}

// Apply executes each action independently. A failure on one action never
// rolls back the others; per-item errors are collected into the results.
// embCache holds fact embeddings computed during retrieval, reused whenever
// an ADD text is unchanged from extraction.
func (w *Writer) Apply(ctx context.Context, actions []Action, embCache map[string][]float64, scope Scope) []ActionResult {
	results := make([]ActionResult, 0, len(actions))

	for _, action := range actions {
		switch action.Event {
		case EventAdd:
			results = append(results, w.applyAdd(ctx, action, embCache, scope))
		case EventUpdate:
			results = append(results, w.applyUpdate(ctx, action, scope))
		case EventDelete:
			results = append(results, w.applyDelete(ctx, action, scope))
		case EventNone:
			results = append(results, ActionResult{
				Text:  action.Text,
				Event: EventNone,
			})
		}
	}

	return results
}

func (w *Writer) applyAdd(ctx context.Context, action Action, embCache map[string][]float64, scope Scope) ActionResult {
	result := ActionResult{
		Text:          action.Text,
		Event:         EventAdd,
		AttachmentIDs: action.AttachmentIDs,
	}

	embedding, ok := embCache[action.Text]
	if !ok {
		var err error
		embedding, err = w.embedder.Embed(ctx, action.Text)
		if err != nil {
			result.Err = fmt.Errorf("embed memory: %w", err)
			return result
		}
	}

	id := w.newID()
	memory := &vectorstore.Memory{
		ID:        id,
		UserID:    scope.UserID,
		AgentID:   scope.AgentID,
		Content:   action.Text,
		Embedding: embedding,
		Metadata:  withAttachmentIDs(scope.Metadata, action.AttachmentIDs),
		State:     vectorstore.StateActive,
	}

	if err := w.store.Insert(ctx, memory); err != nil {
		result.Err = fmt.Errorf("insert memory: %w", err)
		return result
	}

	result.ID = id
	return result
}

func (w *Writer) applyUpdate(ctx context.Context, action Action, scope Scope) ActionResult {
	result := ActionResult{
		ID:            action.MemoryID,
		Text:          action.Text,
		Event:         EventUpdate,
		PreviousText:  action.OldText,
		AttachmentIDs: action.AttachmentIDs,
	}

	embedding, err := w.embedder.Embed(ctx, action.Text)
	if err != nil {
		result.Err = fmt.Errorf("embed memory: %w", err)
		return result
	}

	metadata := withAttachmentIDs(action.OldMetadata, action.AttachmentIDs)

	_, err = w.store.Update(ctx, action.MemoryID, action.Text, embedding, metadata, &vectorstore.UpdateOptions{
		UserID:  scope.UserID,
		AgentID: scope.AgentID,
	})
	if err != nil {
		result.Err = fmt.Errorf("update memory: %w", err)
	}

	return result
}

func (w *Writer) applyDelete(ctx context.Context, action Action, scope Scope) ActionResult {
	result := ActionResult{
		ID:           action.MemoryID,
		Event:        EventDelete,
		PreviousText: action.OldText,
	}

	err := w.store.Delete(ctx, action.MemoryID, &vectorstore.DeleteOptions{
		UserID:  scope.UserID,
		AgentID: scope.AgentID,
	})
	if err != nil {
		result.Err = fmt.Errorf("delete memory: %w", err)
	}

	return result
}

// withAttachmentIDs produces a new metadata map from base with the
// attachment_ids key set to the given list. The base map is never modified.
// An empty list leaves the key absent entirely.
func withAttachmentIDs(base map[string]interface{}, attachmentIDs []string) map[string]interface{} {
	if len(base) == 0 && len(attachmentIDs) == 0 {
		return nil
	}

	metadata := make(map[string]interface{}, len(base)+1)
	for k, v := range base {
		metadata[k] = v
	}

	if len(attachmentIDs) > 0 {
		metadata["attachment_ids"] = attachmentIDs
	} else {
		delete(metadata, "attachment_ids")
	}

	return metadata
}
