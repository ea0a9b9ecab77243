package pipeline

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/openmemory-ai/openmemory-go/pkg/embedder"
	"github.com/openmemory-ai/openmemory-go/pkg/vectorstore"
)

const (
	// defaultSearchLimit is the per-fact nearest-neighbor count.
	defaultSearchLimit = 5

	// maxExisting caps how many distinct existing memories are handed to
	// the resolver in one pass.
	maxExisting = 10
)

// Retriever finds existing memories likely to conflict or overlap with new
// candidate facts. Read-only against the vector store.
type Retriever struct {
	embedder embedder.Provider
	store    vectorstore.VectorStore
	limit    int
	minScore float64
}

// NewRetriever creates a candidate retriever. limit <= 0 falls back to the
// default per-fact neighbor count.
func NewRetriever(emb embedder.Provider, store vectorstore.VectorStore, limit int, minScore float64) *Retriever {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	return &Retriever{
		embedder: emb,
		store:    store,
		limit:    limit,
		minScore: minScore,
	}
}

// Retrieve embeds each fact and searches the vector store within the
// caller's scope. Embeddings are computed concurrently and returned keyed by
// fact text for reuse during writing. Retrieved memories are deduplicated by
// ID, capped, and tagged with stable temp IDs "0".."n".
func (r *Retriever) Retrieve(ctx context.Context, facts []CandidateFact, scope Scope) ([]Existing, map[string][]float64, error) {
	embCache := make(map[string][]float64, len(facts))
	if len(facts) == 0 {
		return nil, embCache, nil
	}

	// Unique fact texts, preserving first-seen order
	var texts []string
	seen := make(map[string]struct{}, len(facts))
	for _, fact := range facts {
		if _, ok := seen[fact.Text]; ok {
			continue
		}
		seen[fact.Text] = struct{}{}
		texts = append(texts, fact.Text)
	}

	// Embed each unique fact once, concurrently
	embeddings := make([][]float64, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			emb, err := r.embedder.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("embed fact: %w", err)
			}
			embeddings[i] = emb
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	for i, text := range texts {
		embCache[text] = embeddings[i]
	}

	// Search per fact, deduplicating memories across facts
	var existing []Existing
	seenIDs := make(map[int64]struct{})

	for i := range texts {
		results, err := r.store.Search(ctx, embeddings[i], &vectorstore.SearchOptions{
			UserID:   scope.UserID,
			AgentID:  scope.AgentID,
			Limit:    r.limit,
			MinScore: r.minScore,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("search similar memories: %w", err)
		}

		for _, mem := range results {
			if _, ok := seenIDs[mem.ID]; ok {
				continue
			}
			seenIDs[mem.ID] = struct{}{}

			existing = append(existing, Existing{
				TempID:        strconv.Itoa(len(existing)),
				MemoryID:      mem.ID,
				Text:          mem.Content,
				AttachmentIDs: attachmentIDsFromMetadata(mem.Metadata),
				Metadata:      mem.Metadata,
			})

			if len(existing) >= maxExisting {
				return existing, embCache, nil
			}
		}
	}

	return existing, embCache, nil
}

// attachmentIDsFromMetadata extracts the attachment_ids list from a stored
// metadata map. JSON round-trips turn string slices into []interface{}, so
// both shapes are handled.
func attachmentIDsFromMetadata(metadata map[string]interface{}) []string {
	if metadata == nil {
		return nil
	}

	switch v := metadata["attachment_ids"].(type) {
	case []string:
		ids := make([]string, len(v))
		copy(ids, v)
		return ids
	case []interface{}:
		ids := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				ids = append(ids, s)
			}
		}
		return ids
	default:
		return nil
	}
}
