// Package vectorstore provides interfaces and types for vector storage backends.
//
// It defines the VectorStore interface that all storage implementations must satisfy,
// along with the stored memory record and operation options.
package vectorstore

import (
	"context"
	"time"
)

// State is the lifecycle state of a stored memory.
//
// State is independent of vector-store presence: archived and paused rows
// stay in the store but are excluded from similarity search. Deleting a
// memory removes the row entirely so that future searches never treat it
// as live.
type State string

const (
	// StateActive marks a memory as live and searchable.
	StateActive State = "active"

	// StateArchived marks a memory as archived: retained but not searched.
	StateArchived State = "archived"

	// StatePaused marks a memory as temporarily excluded from search.
	StatePaused State = "paused"

	// StateDeleted marks a memory as logically deleted. Rows in this state
	// only exist transiently; Delete removes the row itself.
	StateDeleted State = "deleted"
)

// Memory represents a memory record stored in the vector store.
//
// This type is defined in the vectorstore package to avoid circular
// dependencies with the core package. It mirrors the core.Memory structure.
type Memory struct {
	// ID is the unique identifier of the memory.
	ID int64

	// UserID identifies the user who owns this memory.
	UserID string

	// AgentID identifies the agent associated with this memory.
	AgentID string

	// Content is the text content of the memory.
	Content string

	// Embedding is the vector embedding for similarity search.
	Embedding []float64

	// Metadata contains additional structured information. The reserved key
	// "attachment_ids" holds the list of attachment identifiers linked to
	// this memory.
	Metadata map[string]interface{}

	// State is the lifecycle state of the memory.
	State State

	// CreatedAt is when the memory was created.
	CreatedAt time.Time

	// UpdatedAt is when the memory was last updated.
	UpdatedAt time.Time

	// Score is the similarity score from search operations.
	Score float64
}

// VectorStore defines the interface for vector storage backends.
//
// All storage implementations (SQLite, PostgreSQL, MySQL) must implement this interface.
type VectorStore interface {
	// Insert inserts a memory into the store.
	Insert(ctx context.Context, memory *Memory) error

	// Search performs vector similarity search over active memories.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - embedding: Query embedding vector
	//   - opts: Search options (UserID, AgentID, Limit, MinScore, Filters)
	//
	// Returns matching memories sorted by similarity (highest first).
	// Archived and paused memories are never returned.
	Search(ctx context.Context, embedding []float64, opts *SearchOptions) ([]*Memory, error)

	// Get retrieves a memory by ID with optional access control.
	//
	// If opts.UserID or opts.AgentID is specified, the memory will only be returned
	// if it matches the specified user/agent (multi-tenant isolation).
	Get(ctx context.Context, id int64, opts *GetOptions) (*Memory, error)

	// Update overwrites a memory's content, embedding, and metadata payload
	// with optional access control. Passing a nil metadata map leaves the
	// stored metadata unchanged; a non-nil map replaces it entirely, so
	// callers must merge before writing.
	Update(ctx context.Context, id int64, content string, embedding []float64, metadata map[string]interface{}, opts *UpdateOptions) (*Memory, error)

	// UpdateState changes a memory's lifecycle state (archive, pause, reactivate).
	UpdateState(ctx context.Context, id int64, state State, opts *UpdateOptions) error

	// Delete removes the memory row by ID with optional access control.
	//
	// The row is removed, not flagged: a deleted memory must never surface in
	// a later similarity search.
	Delete(ctx context.Context, id int64, opts *DeleteOptions) error

	// GetAll retrieves all memories with optional filtering and pagination.
	GetAll(ctx context.Context, opts *GetAllOptions) ([]*Memory, error)

	// DeleteAll deletes all memories matching the given filters.
	DeleteAll(ctx context.Context, opts *DeleteAllOptions) error

	// Close closes the store and releases resources.
	Close() error
}

// SearchOptions contains options for search operations.
type SearchOptions struct {
	// UserID filters results to a specific user.
	UserID string

	// AgentID filters results to a specific agent.
	AgentID string

	// Limit sets the maximum number of results to return.
	Limit int

	// MinScore sets the minimum similarity score for results.
	MinScore float64

	// Filters provides additional metadata filters. Each entry must match
	// the memory's metadata value exactly for the memory to be returned.
	Filters map[string]interface{}
}

// GetOptions contains options for get operations with access control.
type GetOptions struct {
	// UserID restricts access to memories belonging to this user.
	// If specified, Get will return an error if the memory's UserID doesn't match.
	UserID string

	// AgentID restricts access to memories belonging to this agent.
	AgentID string
}

// UpdateOptions contains options for update operations with access control.
type UpdateOptions struct {
	// UserID restricts updates to memories belonging to this user.
	UserID string

	// AgentID restricts updates to memories belonging to this agent.
	AgentID string
}

// DeleteOptions contains options for delete operations with access control.
type DeleteOptions struct {
	// UserID restricts deletions to memories belonging to this user.
	UserID string

	// AgentID restricts deletions to memories belonging to this agent.
	AgentID string
}

// GetAllOptions contains options for GetAll operations.
type GetAllOptions struct {
	// UserID filters results to a specific user.
	UserID string

	// AgentID filters results to a specific agent.
	AgentID string

	// State filters results to a specific lifecycle state (empty = all states).
	State State

	// Limit sets the maximum number of results to return.
	Limit int

	// Offset sets the number of results to skip (for pagination).
	Offset int
}

// DeleteAllOptions contains options for DeleteAll operations.
type DeleteAllOptions struct {
	// UserID filters deletions to a specific user.
	UserID string

	// AgentID filters deletions to a specific agent.
	AgentID string
}
