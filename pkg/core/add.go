package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/openmemory-ai/openmemory-go/pkg/llm"
	"github.com/openmemory-ai/openmemory-go/pkg/pipeline"
)

// Add runs the memory add pipeline on a piece of text.
//
// The pipeline has three independently switchable phases:
//  1. Fact extraction: the LLM splits the input into atomic facts
//  2. Resolution: the LLM classifies each fact against similar existing
//     memories as ADD, UPDATE, DELETE, or NONE
//  3. Writing: the resolved actions are applied to the vector store
//
// WithInfer(false) bypasses phases 1 and 2 entirely and stores the input
// verbatim as a single ADD. An attachment supplied via WithAttachmentID or
// WithAttachmentText is linked to the memories this call produces; the
// attachment is created or validated before any memory write.
//
// Extraction and resolution failures are fatal: nothing is written and the
// error is returned. Individual store write failures are not: the remaining
// actions still apply and failures are reported per item in the result.
//
// Example:
//
//	result, err := client.Add(ctx, "I moved to Berlin last month",
//	    core.WithUserID("user_001"),
//	    core.WithAttachmentText(relocationChecklist),
//	)
func (c *Client) Add(ctx context.Context, content string, opts ...AddOption) (*AddResult, error) {
	if strings.TrimSpace(content) == "" {
		return nil, NewMemoryError("Add", ErrInvalidInput)
	}

	result, err := c.add(ctx, content, applyAddOptions(opts))
	if err != nil {
		return nil, NewMemoryError("Add", err)
	}
	return result, nil
}

// AddMessages runs the memory add pipeline on a structured message list.
//
// Messages are flattened to role-annotated text (system messages skipped)
// before entering the pipeline; everything else behaves exactly like Add.
//
// Example:
//
//	result, err := client.AddMessages(ctx, []llm.Message{
//	    {Role: "user", Content: "I'm Alice, a software engineer"},
//	    {Role: "assistant", Content: "Nice to meet you!"},
//	}, core.WithUserID("user_001"))
func (c *Client) AddMessages(ctx context.Context, messages []llm.Message, opts ...AddOption) (*AddResult, error) {
	content := pipeline.FlattenMessages(messages)
	if content == "" {
		return nil, NewMemoryError("AddMessages", ErrInvalidInput)
	}

	result, err := c.add(ctx, content, applyAddOptions(opts))
	if err != nil {
		return nil, NewMemoryError("AddMessages", err)
	}
	return result, nil
}

// add is the shared pipeline orchestration behind Add and AddMessages.
// Only the write phase takes the client lock; the LLM round trips run
// outside it so concurrent calls don't serialize on the network.
func (c *Client) add(ctx context.Context, content string, addOpts *AddOptions) (*AddResult, error) {
	pcfg := c.config.pipelineConfig()

	infer := resolveFlag(addOpts.Infer, pcfg.Infer)
	extract := resolveFlag(addOpts.Extract, pcfg.Extract)
	dedup := resolveFlag(addOpts.Deduplicate, pcfg.Deduplicate)

	// infer=false bypasses the whole LLM pipeline regardless of the
	// phase flags.
	if !infer {
		extract = false
		dedup = false
	}

	// Link the current call's attachment before any memory write
	attachmentIDs, err := c.linkAttachment(ctx, addOpts)
	if err != nil {
		return nil, err
	}

	scope := pipeline.Scope{
		UserID:   addOpts.UserID,
		AgentID:  addOpts.AgentID,
		Metadata: baseMetadata(addOpts),
	}

	writer := pipeline.NewWriter(c.embedder, c.storage, c.newMemoryID)

	if !infer {
		actions := []pipeline.Action{{
			Event:         pipeline.EventAdd,
			Text:          strings.TrimSpace(content),
			AttachmentIDs: attachmentIDs,
		}}
		c.mu.Lock()
		results := writer.Apply(ctx, actions, nil, scope)
		c.mu.Unlock()
		return toAddResult(results), nil
	}

	// Phase 1: extract candidate facts
	extractionPrompt := addOpts.ExtractionPrompt
	if extractionPrompt == "" {
		extractionPrompt = pcfg.ExtractionPrompt
	}
	extractor := pipeline.NewExtractor(c.llm, extractionPrompt)

	facts, err := extractor.Extract(ctx, content, extract)
	if err != nil {
		return nil, err
	}

	if len(facts) == 0 {
		log.Println("No facts extracted, nothing to store")
		return &AddResult{Results: []MemoryActionResult{}}, nil
	}
	log.Printf("Extracted %d facts", len(facts))

	candidates := make([]pipeline.CandidateFact, 0, len(facts))
	for _, fact := range facts {
		candidates = append(candidates, pipeline.CandidateFact{
			Text:          fact,
			AttachmentIDs: attachmentIDs,
		})
	}

	// Phase 2: retrieve similar memories and resolve actions
	retriever := pipeline.NewRetriever(c.embedder, c.storage, pcfg.SearchLimit, pcfg.MinScore)
	existing, embCache, err := retriever.Retrieve(ctx, candidates, scope)
	if err != nil {
		return nil, err
	}
	log.Printf("Found %d existing memories to consider", len(existing))

	resolutionPrompt := addOpts.ResolutionPrompt
	if resolutionPrompt == "" {
		resolutionPrompt = pcfg.ResolutionPrompt
	}
	resolver := pipeline.NewResolver(c.llm, resolutionPrompt)

	actions, err := resolver.Resolve(ctx, existing, candidates, dedup)
	if err != nil {
		return nil, err
	}
	log.Printf("Resolved %d memory actions", len(actions))

	// Phase 3: apply
	c.mu.Lock()
	results := writer.Apply(ctx, actions, embCache, scope)
	c.mu.Unlock()
	return toAddResult(results), nil
}

// linkAttachment creates or validates the current call's attachment and
// returns its identifier list.
func (c *Client) linkAttachment(ctx context.Context, addOpts *AddOptions) ([]string, error) {
	if addOpts.AttachmentText != "" {
		var id *uuid.UUID
		if addOpts.AttachmentID != "" {
			parsed, err := parseAttachmentID(addOpts.AttachmentID)
			if err != nil {
				return nil, err
			}
			id = &parsed
		}

		att, err := c.attachments.Create(ctx, addOpts.AttachmentText, id)
		if err != nil {
			return nil, err
		}
		return []string{att.ID.String()}, nil
	}

	if addOpts.AttachmentID != "" {
		parsed, err := parseAttachmentID(addOpts.AttachmentID)
		if err != nil {
			return nil, err
		}
		if _, err := c.attachments.Get(ctx, parsed); err != nil {
			return nil, err
		}
		return []string{addOpts.AttachmentID}, nil
	}

	return nil, nil
}

// parseAttachmentID parses a string attachment identifier.
func parseAttachmentID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid attachment id %q", ErrInvalidInput, id)
	}
	return parsed, nil
}

// baseMetadata builds the caller-supplied metadata carried into every
// memory written by this call.
func baseMetadata(addOpts *AddOptions) map[string]interface{} {
	metadata := make(map[string]interface{}, len(addOpts.Metadata)+1)
	for k, v := range addOpts.Metadata {
		metadata[k] = v
	}
	if addOpts.RunID != "" {
		metadata["run_id"] = addOpts.RunID
	}
	return metadata
}

// toAddResult converts pipeline results into the caller-visible shape.
func toAddResult(results []pipeline.ActionResult) *AddResult {
	converted := make([]MemoryActionResult, 0, len(results))
	for _, r := range results {
		converted = append(converted, MemoryActionResult{
			ID:             r.ID,
			Memory:         r.Text,
			Event:          string(r.Event),
			PreviousMemory: r.PreviousText,
			AttachmentIDs:  r.AttachmentIDs,
			Error:          r.Err,
		})
	}
	return &AddResult{Results: converted}
}
