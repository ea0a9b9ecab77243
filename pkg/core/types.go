// Package core provides the main OpenMemory client and memory management functionality.
package core

import "time"

// Memory represents a single memory stored in the system.
//
// A memory contains:
//   - Content: The text content of the memory
//   - Embedding: Vector representation for similarity search
//   - Metadata: Additional structured information; the reserved key
//     "attachment_ids" holds the memory's attachment references
//   - State: Lifecycle flag (active, archived, paused, deleted)
//
// Example:
//
//	memory := &core.Memory{
//	    ID:      1234567890,
//	    UserID:  "user_001",
//	    Content: "User likes Python programming",
//	    Metadata: map[string]interface{}{
//	        "source": "conversation",
//	    },
//	}
type Memory struct {
	// ID is the unique identifier of the memory.
	ID int64 `json:"id"`

	// UserID identifies the user who owns this memory.
	UserID string `json:"user_id"`

	// AgentID identifies the agent associated with this memory (optional).
	AgentID string `json:"agent_id,omitempty"`

	// Content is the text content of the memory.
	Content string `json:"content"`

	// Embedding is the vector embedding for similarity search.
	// Omitted from JSON to reduce payload size.
	Embedding []float64 `json:"embedding,omitempty"`

	// Metadata contains additional structured information about the memory.
	// Can be used for filtering and custom attributes.
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// State is the lifecycle state of the memory.
	State MemoryState `json:"state"`

	// CreatedAt is when the memory was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the memory was last updated.
	UpdatedAt time.Time `json:"updated_at"`

	// Score is the similarity score from search operations (0.0-1.0).
	// Higher scores indicate better matches.
	Score float64 `json:"score,omitempty"`
}

// AttachmentIDs returns the memory's attachment references from metadata.
// Returns nil when the memory has none.
func (m *Memory) AttachmentIDs() []string {
	if m.Metadata == nil {
		return nil
	}

	switch v := m.Metadata["attachment_ids"].(type) {
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

// MemoryState defines the lifecycle state of a memory.
//
// Only active memories participate in similarity search; archived and paused
// memories remain stored but are excluded from retrieval.
type MemoryState string

const (
	// StateActive marks a memory as live and searchable.
	StateActive MemoryState = "active"

	// StateArchived marks a memory as kept but excluded from search.
	StateArchived MemoryState = "archived"

	// StatePaused marks a memory as temporarily excluded from search.
	StatePaused MemoryState = "paused"

	// StateDeleted marks a memory as logically removed.
	StateDeleted MemoryState = "deleted"
)

// Event type strings reported in add results.
const (
	EventAdd    = "ADD"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
	EventNone   = "NONE"
)

// AddResult represents the outcome of an add operation.
type AddResult struct {
	// Results contains the list of memory operations performed, in
	// pipeline order.
	Results []MemoryActionResult `json:"results"`
}

// MemoryActionResult represents a single memory operation result.
type MemoryActionResult struct {
	// ID is the memory ID.
	ID int64 `json:"id"`

	// Memory is the memory content.
	Memory string `json:"memory"`

	// Event is the operation type: ADD, UPDATE, DELETE, NONE.
	Event string `json:"event"`

	// PreviousMemory is the previous content (for UPDATE and DELETE).
	PreviousMemory string `json:"previous_memory,omitempty"`

	// AttachmentIDs is the final attachment reference list for the memory.
	AttachmentIDs []string `json:"attachment_ids,omitempty"`

	// Error holds a per-item store write failure. Other actions in the
	// same batch still apply.
	Error error `json:"-"`
}
