// Package pipeline implements the memory add pipeline: fact extraction,
// candidate retrieval, ADD/UPDATE/DELETE/NONE resolution, and store writing.
//
// Attachment references ride through the pipeline as a side channel: existing
// memories and candidate facts may carry attachment IDs, and the resolver
// reconciles them across whatever classification the LLM produces.
package pipeline

import "errors"

// Event is the classification assigned to a memory action.
type Event string

const (
	EventAdd    Event = "ADD"
	EventUpdate Event = "UPDATE"
	EventDelete Event = "DELETE"
	EventNone   Event = "NONE"
)

var (
	// ErrExtractionFailed indicates the LLM returned unusable output during
	// fact extraction. Fatal for the add-call; nothing is written.
	ErrExtractionFailed = errors.New("fact extraction failed")

	// ErrResolutionFailed indicates the LLM returned unusable output during
	// action resolution. Fatal for the add-call; nothing is written.
	ErrResolutionFailed = errors.New("memory resolution failed")
)

// CandidateFact is an extracted fact awaiting resolution. Ephemeral, never
// persisted.
type CandidateFact struct {
	Text          string
	AttachmentIDs []string
}

// Existing is a retrieved memory as seen by the resolver. TempID is the
// short identifier shown to the LLM in place of the real memory ID.
type Existing struct {
	TempID        string
	MemoryID      int64
	Text          string
	AttachmentIDs []string
	Metadata      map[string]interface{}
}

// Scope carries the caller's identity filters and base metadata through the
// pipeline.
type Scope struct {
	UserID   string
	AgentID  string
	Metadata map[string]interface{}
}

// Action is a validated, resolved memory operation ready to apply.
//
// AttachmentIDs is the final reconciled list: for ADD the LLM-assigned
// references, for UPDATE the union of the old memory's references with the
// LLM-assigned ones.
type Action struct {
	Event         Event
	Text          string
	MemoryID      int64
	OldText       string
	OldMetadata   map[string]interface{}
	AttachmentIDs []string
}

// ActionResult reports the outcome of one applied action.
type ActionResult struct {
	ID            int64
	Text          string
	Event         Event
	PreviousText  string
	AttachmentIDs []string
	Err           error
}
