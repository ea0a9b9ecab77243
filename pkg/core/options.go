// Package core provides the main OpenMemory client and memory management functionality.
package core

// AddOption is a function type for configuring Add operations.
//
// Options are applied using the functional options pattern, allowing
// flexible configuration without requiring all parameters.
type AddOption func(*AddOptions)

// AddOptions contains configuration options for Add operations.
type AddOptions struct {
	// UserID identifies the user who owns this memory.
	UserID string

	// AgentID identifies the agent associated with this memory.
	AgentID string

	// RunID identifies the run/session associated with this memory.
	RunID string

	// Metadata contains additional metadata about the memory.
	Metadata map[string]interface{}

	// Infer is the master switch for the LLM pipeline. When false, the
	// input is stored verbatim as a single ADD and the extraction and
	// resolution phases are bypassed entirely. Nil means use the
	// configured default.
	Infer *bool

	// Extract toggles the fact extraction phase. Nil means use the
	// configured default. Ignored when the pipeline is off.
	Extract *bool

	// Deduplicate toggles the resolution phase. Nil means use the
	// configured default. Ignored when the pipeline is off.
	Deduplicate *bool

	// AttachmentID references an existing attachment to link to the
	// memories produced by this call.
	AttachmentID string

	// AttachmentText creates a new attachment with this content and links
	// it to the memories produced by this call. When AttachmentID is also
	// set, the new attachment is created under that ID.
	AttachmentText string

	// ExtractionPrompt overrides the extraction prompt for this call.
	ExtractionPrompt string

	// ResolutionPrompt overrides the resolution prompt for this call.
	ResolutionPrompt string
}

// WithUserID sets the user ID for Add operations.
//
// Example:
//
//	result, _ := client.Add(ctx, "content", core.WithUserID("user_001"))
func WithUserID(userID string) AddOption {
	return func(opts *AddOptions) {
		opts.UserID = userID
	}
}

// WithAgentID sets the agent ID for Add operations.
//
// Example:
//
//	result, _ := client.Add(ctx, "content", core.WithAgentID("agent_001"))
func WithAgentID(agentID string) AddOption {
	return func(opts *AddOptions) {
		opts.AgentID = agentID
	}
}

// WithRunID sets the run ID for Add operations.
//
// RunID identifies a specific run or session, useful for grouping related memories.
//
// Example:
//
//	result, _ := client.Add(ctx, "content", core.WithRunID("run_001"))
func WithRunID(runID string) AddOption {
	return func(opts *AddOptions) {
		opts.RunID = runID
	}
}

// WithMetadata sets metadata for Add operations.
//
// Metadata can be used for filtering and additional context. The key
// "attachment_ids" is reserved and managed by the pipeline.
//
// Example:
//
//	result, _ := client.Add(ctx, "content",
//	    core.WithMetadata(map[string]interface{}{
//	        "source": "conversation",
//	    }),
//	)
func WithMetadata(metadata map[string]interface{}) AddOption {
	return func(opts *AddOptions) {
		opts.Metadata = metadata
	}
}

// WithInfer enables or disables the LLM pipeline for this Add call.
//
// When disabled, the input is stored verbatim as a single ADD; extraction
// and resolution are bypassed regardless of their own settings.
//
// Example:
//
//	result, _ := client.Add(ctx, "content", core.WithInfer(false))
func WithInfer(infer bool) AddOption {
	return func(opts *AddOptions) {
		opts.Infer = &infer
	}
}

// WithExtract enables or disables fact extraction for this Add call.
//
// When disabled under an active pipeline, the input passes through as a
// single candidate fact.
//
// Example:
//
//	result, _ := client.Add(ctx, "content", core.WithExtract(false))
func WithExtract(extract bool) AddOption {
	return func(opts *AddOptions) {
		opts.Extract = &extract
	}
}

// WithDeduplicate enables or disables resolution for this Add call.
//
// When disabled, every candidate fact is stored as a new memory without
// consulting existing ones.
//
// Example:
//
//	result, _ := client.Add(ctx, "content", core.WithDeduplicate(false))
func WithDeduplicate(deduplicate bool) AddOption {
	return func(opts *AddOptions) {
		opts.Deduplicate = &deduplicate
	}
}

// WithAttachmentID links an existing attachment to the memories produced by
// this Add call. The attachment must exist.
//
// Example:
//
//	result, _ := client.Add(ctx, "content", core.WithAttachmentID(id))
func WithAttachmentID(attachmentID string) AddOption {
	return func(opts *AddOptions) {
		opts.AttachmentID = attachmentID
	}
}

// WithAttachmentText creates a new attachment from the given content and
// links it to the memories produced by this Add call.
//
// Example:
//
//	result, _ := client.Add(ctx, "summary of the log",
//	    core.WithAttachmentText(fullLogContent))
func WithAttachmentText(content string) AddOption {
	return func(opts *AddOptions) {
		opts.AttachmentText = content
	}
}

// WithExtractionPrompt overrides the extraction prompt for this Add call.
func WithExtractionPrompt(prompt string) AddOption {
	return func(opts *AddOptions) {
		opts.ExtractionPrompt = prompt
	}
}

// WithResolutionPrompt overrides the resolution prompt for this Add call.
func WithResolutionPrompt(prompt string) AddOption {
	return func(opts *AddOptions) {
		opts.ResolutionPrompt = prompt
	}
}

// SearchOption is a function type for configuring Search operations.
type SearchOption func(*SearchOptions)

// SearchOptions contains configuration options for Search operations.
type SearchOptions struct {
	// UserID filters results to a specific user.
	UserID string

	// AgentID filters results to a specific agent.
	AgentID string

	// Limit sets the maximum number of results to return.
	// Default: 10
	Limit int

	// MinScore sets the minimum similarity score for results.
	// Results with scores below this threshold are excluded.
	// Default: 0.0 (no minimum)
	MinScore float64

	// Filters provides additional metadata filters.
	Filters map[string]interface{}
}

// WithUserIDForSearch sets the user ID for Search operations.
//
// Example:
//
//	results, _ := client.Search(ctx, "query", core.WithUserIDForSearch("user_001"))
func WithUserIDForSearch(userID string) SearchOption {
	return func(opts *SearchOptions) {
		opts.UserID = userID
	}
}

// WithAgentIDForSearch sets the agent ID for Search operations.
func WithAgentIDForSearch(agentID string) SearchOption {
	return func(opts *SearchOptions) {
		opts.AgentID = agentID
	}
}

// WithLimit sets the maximum number of results for Search operations.
//
// Example:
//
//	results, _ := client.Search(ctx, "query", core.WithLimit(20))
func WithLimit(limit int) SearchOption {
	return func(opts *SearchOptions) {
		opts.Limit = limit
	}
}

// WithMinScore sets the minimum similarity score for Search results.
//
// Only results with similarity scores >= minScore are returned.
// Typical range: 0.0-1.0, where 1.0 is identical.
//
// Example:
//
//	results, _ := client.Search(ctx, "query", core.WithMinScore(0.7))
func WithMinScore(score float64) SearchOption {
	return func(opts *SearchOptions) {
		opts.MinScore = score
	}
}

// WithFilters sets metadata filters for Search operations.
//
// Filters allow searching by custom metadata fields.
//
// Example:
//
//	results, _ := client.Search(ctx, "query",
//	    core.WithFilters(map[string]interface{}{
//	        "source": "conversation",
//	    }),
//	)
func WithFilters(filters map[string]interface{}) SearchOption {
	return func(opts *SearchOptions) {
		opts.Filters = filters
	}
}

// GetOption is a function type for configuring Get operations.
type GetOption func(*GetOptions)

// GetOptions contains configuration options for Get operations with access control.
type GetOptions struct {
	// UserID restricts access to memories belonging to this user (multi-tenant isolation).
	UserID string

	// AgentID restricts access to memories belonging to this agent.
	AgentID string
}

// WithUserIDForGet sets the user ID for Get operations (access control).
func WithUserIDForGet(userID string) GetOption {
	return func(opts *GetOptions) {
		opts.UserID = userID
	}
}

// WithAgentIDForGet sets the agent ID for Get operations (access control).
func WithAgentIDForGet(agentID string) GetOption {
	return func(opts *GetOptions) {
		opts.AgentID = agentID
	}
}

// UpdateOption is a function type for configuring Update operations.
type UpdateOption func(*UpdateOptions)

// UpdateOptions contains configuration options for Update operations with access control.
type UpdateOptions struct {
	// UserID restricts updates to memories belonging to this user (prevents cross-tenant updates).
	UserID string

	// AgentID restricts updates to memories belonging to this agent.
	AgentID string
}

// WithUserIDForUpdate sets the user ID for Update operations (access control).
func WithUserIDForUpdate(userID string) UpdateOption {
	return func(opts *UpdateOptions) {
		opts.UserID = userID
	}
}

// WithAgentIDForUpdate sets the agent ID for Update operations (access control).
func WithAgentIDForUpdate(agentID string) UpdateOption {
	return func(opts *UpdateOptions) {
		opts.AgentID = agentID
	}
}

// DeleteOption is a function type for configuring Delete operations.
type DeleteOption func(*DeleteOptions)

// DeleteOptions contains configuration options for Delete operations with access control.
type DeleteOptions struct {
	// UserID restricts deletions to memories belonging to this user (prevents cross-tenant deletions).
	UserID string

	// AgentID restricts deletions to memories belonging to this agent.
	AgentID string
}

// WithUserIDForDelete sets the user ID for Delete operations (access control).
func WithUserIDForDelete(userID string) DeleteOption {
	return func(opts *DeleteOptions) {
		opts.UserID = userID
	}
}

// WithAgentIDForDelete sets the agent ID for Delete operations (access control).
func WithAgentIDForDelete(agentID string) DeleteOption {
	return func(opts *DeleteOptions) {
		opts.AgentID = agentID
	}
}

// GetAllOption is a function type for configuring GetAll operations.
type GetAllOption func(*GetAllOptions)

// GetAllOptions contains configuration options for GetAll operations.
type GetAllOptions struct {
	// UserID filters results to a specific user.
	UserID string

	// AgentID filters results to a specific agent.
	AgentID string

	// State filters results to a specific lifecycle state (empty = all).
	State MemoryState

	// Limit sets the maximum number of results to return.
	// Default: 100
	Limit int

	// Offset sets the number of results to skip (for pagination).
	// Default: 0
	Offset int
}

// WithUserIDForGetAll sets the user ID for GetAll operations.
//
// Example:
//
//	memories, _ := client.GetAll(ctx, core.WithUserIDForGetAll("user_001"))
func WithUserIDForGetAll(userID string) GetAllOption {
	return func(opts *GetAllOptions) {
		opts.UserID = userID
	}
}

// WithAgentIDForGetAll sets the agent ID for GetAll operations.
func WithAgentIDForGetAll(agentID string) GetAllOption {
	return func(opts *GetAllOptions) {
		opts.AgentID = agentID
	}
}

// WithStateForGetAll filters GetAll results to a lifecycle state.
//
// Example:
//
//	archived, _ := client.GetAll(ctx, core.WithStateForGetAll(core.StateArchived))
func WithStateForGetAll(state MemoryState) GetAllOption {
	return func(opts *GetAllOptions) {
		opts.State = state
	}
}

// WithLimitForGetAll sets the maximum number of results for GetAll operations.
func WithLimitForGetAll(limit int) GetAllOption {
	return func(opts *GetAllOptions) {
		opts.Limit = limit
	}
}

// WithOffset sets the offset for GetAll operations (for pagination).
//
// Example:
//
//	// Get second page of results
//	memories, _ := client.GetAll(ctx,
//	    core.WithLimitForGetAll(50),
//	    core.WithOffset(50),
//	)
func WithOffset(offset int) GetAllOption {
	return func(opts *GetAllOptions) {
		opts.Offset = offset
	}
}

// DeleteAllOption is a function type for configuring DeleteAll operations.
type DeleteAllOption func(*DeleteAllOptions)

// DeleteAllOptions contains configuration options for DeleteAll operations.
type DeleteAllOptions struct {
	// UserID filters deletions to a specific user.
	UserID string

	// AgentID filters deletions to a specific agent.
	AgentID string
}

// WithUserIDForDeleteAll sets the user ID for DeleteAll operations.
func WithUserIDForDeleteAll(userID string) DeleteAllOption {
	return func(opts *DeleteAllOptions) {
		opts.UserID = userID
	}
}

// WithAgentIDForDeleteAll sets the agent ID for DeleteAll operations.
func WithAgentIDForDeleteAll(agentID string) DeleteAllOption {
	return func(opts *DeleteAllOptions) {
		opts.AgentID = agentID
	}
}

// applyAddOptions applies Add options to create AddOptions.
func applyAddOptions(opts []AddOption) *AddOptions {
	options := &AddOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// applySearchOptions applies Search options to create SearchOptions.
func applySearchOptions(opts []SearchOption) *SearchOptions {
	options := &SearchOptions{
		Limit:    10,
		MinScore: 0.0,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// applyGetOptions applies Get options to create GetOptions.
func applyGetOptions(opts []GetOption) *GetOptions {
	options := &GetOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// applyUpdateOptions applies Update options to create UpdateOptions.
func applyUpdateOptions(opts []UpdateOption) *UpdateOptions {
	options := &UpdateOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// applyDeleteOptions applies Delete options to create DeleteOptions.
func applyDeleteOptions(opts []DeleteOption) *DeleteOptions {
	options := &DeleteOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// applyGetAllOptions applies GetAll options to create GetAllOptions.
func applyGetAllOptions(opts []GetAllOption) *GetAllOptions {
	options := &GetAllOptions{
		Limit:  100,
		Offset: 0,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// applyDeleteAllOptions applies DeleteAll options to create DeleteAllOptions.
func applyDeleteAllOptions(opts []DeleteAllOption) *DeleteAllOptions {
	options := &DeleteAllOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// resolveFlag resolves a tri-state option against its configured default.
func resolveFlag(opt *bool, configDefault bool) bool {
	if opt != nil {
		return *opt
	}
	return configDefault
}
