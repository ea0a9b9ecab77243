package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/openmemory-ai/openmemory-go/pkg/llm"
)

// Resolver classifies candidate facts against existing memories into
// ADD/UPDATE/DELETE/NONE actions, reconciling attachment references across
// the classification in a single LLM pass.
type Resolver struct {
	llm          llm.Provider
	customPrompt string
}

// NewResolver creates an update resolver. customPrompt overrides the
// built-in resolution prompt when non-empty.
func NewResolver(provider llm.Provider, customPrompt string) *Resolver {
	return &Resolver{
		llm:          provider,
		customPrompt: customPrompt,
	}
}

// promptMemory is an existing memory as shown to the LLM on the
// attachment-free path.
type promptMemory struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// promptMemoryAttached is an existing memory as shown to the LLM once any
// attachment exists in context. Attachments is always present, empty when
// the memory has none, so every item has the same shape.
type promptMemoryAttached struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	Attachments []string `json:"attachments"`
}

// promptFact is a candidate fact as shown to the LLM once any attachment
// exists in context.
type promptFact struct {
	Text        string   `json:"text"`
	Attachments []string `json:"attachments"`
}

// rawAction is one item of the LLM's {"memory": [...]} response before
// validation.
type rawAction struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	Memory      string   `json:"memory"`
	Event       string   `json:"event"`
	OldMemory   string   `json:"old_memory"`
	Attachments []string `json:"attachments"`
}

// Resolve produces the validated action list for a batch of candidate facts
// against a batch of existing memories.
//
// With dedup disabled there is no LLM call: every fact becomes an ADD
// carrying its own attachment references. With dedup enabled the whole batch
// is classified in one LLM call; unusable output fails the add-call with
// ErrResolutionFailed and nothing is applied.
func (r *Resolver) Resolve(ctx context.Context, existing []Existing, facts []CandidateFact, dedup bool) ([]Action, error) {
	if len(facts) == 0 {
		return nil, nil
	}

	if !dedup {
		actions := make([]Action, 0, len(facts))
		for _, fact := range facts {
			actions = append(actions, Action{
				Event:         EventAdd,
				Text:          fact.Text,
				AttachmentIDs: sortedUnique(fact.AttachmentIDs),
			})
		}
		return actions, nil
	}

	union := unionAttachmentIDs(existing, facts)

	var tm *tokenMap
	if len(union) > 0 {
		tm = newTokenMap(union)
	}

	userPrompt, err := r.buildUserPrompt(existing, facts, tm)
	if err != nil {
		return nil, fmt.Errorf("build resolution prompt: %w", err)
	}

	systemPrompt := r.customPrompt
	if systemPrompt == "" {
		systemPrompt = defaultResolutionPrompt(tm != nil)
	}

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}

	response, err := r.llm.GenerateWithMessages(ctx, messages, llm.WithJSONResponse())
	if err != nil {
		return nil, fmt.Errorf("resolve memory actions: %w", err)
	}

	return r.parseActions(response, existing, tm)
}

// buildUserPrompt renders the existing-memories list and the candidate list.
// When tm is nil no attachment field appears anywhere in the payload.
func (r *Resolver) buildUserPrompt(existing []Existing, facts []CandidateFact, tm *tokenMap) (string, error) {
	var memoriesJSON, factsJSON []byte
	var err error

	if tm == nil {
		memories := make([]promptMemory, 0, len(existing))
		for _, mem := range existing {
			memories = append(memories, promptMemory{ID: mem.TempID, Text: mem.Text})
		}

		factTexts := make([]string, 0, len(facts))
		for _, fact := range facts {
			factTexts = append(factTexts, fact.Text)
		}

		if memoriesJSON, err = json.Marshal(memories); err != nil {
			return "", err
		}
		if factsJSON, err = json.Marshal(factTexts); err != nil {
			return "", err
		}
	} else {
		memories := make([]promptMemoryAttached, 0, len(existing))
		for _, mem := range existing {
			memories = append(memories, promptMemoryAttached{
				ID:          mem.TempID,
				Text:        mem.Text,
				Attachments: tm.tokensFor(mem.AttachmentIDs),
			})
		}

		promptFacts := make([]promptFact, 0, len(facts))
		for _, fact := range facts {
			promptFacts = append(promptFacts, promptFact{
				Text:        fact.Text,
				Attachments: tm.tokensFor(fact.AttachmentIDs),
			})
		}

		if memoriesJSON, err = json.Marshal(memories); err != nil {
			return "", err
		}
		if factsJSON, err = json.Marshal(promptFacts); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("# Existing Memories\n%s\n\n# New Facts\n%s", memoriesJSON, factsJSON), nil
}

// parseActions validates the LLM response into an action list. Any missing
// required field, unknown event, or unresolvable memory ID fails the whole
// resolution; unknown attachment tokens are dropped with a warning instead.
func (r *Resolver) parseActions(response string, existing []Existing, tm *tokenMap) ([]Action, error) {
	response = removeCodeBlocks(response)

	var envelope struct {
		Memory *[]rawAction `json:"memory"`
	}
	if err := json.Unmarshal([]byte(response), &envelope); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON response: %v", ErrResolutionFailed, err)
	}
	if envelope.Memory == nil {
		return nil, fmt.Errorf("%w: missing memory key", ErrResolutionFailed)
	}

	byTempID := make(map[string]Existing, len(existing))
	for _, mem := range existing {
		byTempID[mem.TempID] = mem
	}

	actions := make([]Action, 0, len(*envelope.Memory))
	for _, raw := range *envelope.Memory {
		event := Event(strings.ToUpper(raw.Event))

		text := raw.Text
		if text == "" {
			text = raw.Memory
		}

		switch event {
		case EventAdd:
			if text == "" {
				return nil, fmt.Errorf("%w: ADD action without text", ErrResolutionFailed)
			}
			actions = append(actions, Action{
				Event:         EventAdd,
				Text:          text,
				AttachmentIDs: r.reverseTokens(raw.Attachments, tm),
			})

		case EventUpdate:
			old, ok := byTempID[raw.ID]
			if !ok {
				return nil, fmt.Errorf("%w: UPDATE references unknown memory id %q", ErrResolutionFailed, raw.ID)
			}
			if text == "" {
				return nil, fmt.Errorf("%w: UPDATE action without text", ErrResolutionFailed)
			}
			// Old attachments are preserved and unioned with whatever the
			// LLM assigned; omission never removes a reference.
			merged := mergeAttachmentIDs(old.AttachmentIDs, r.reverseTokens(raw.Attachments, tm))
			actions = append(actions, Action{
				Event:         EventUpdate,
				Text:          text,
				MemoryID:      old.MemoryID,
				OldText:       old.Text,
				OldMetadata:   old.Metadata,
				AttachmentIDs: merged,
			})

		case EventDelete:
			old, ok := byTempID[raw.ID]
			if !ok {
				return nil, fmt.Errorf("%w: DELETE references unknown memory id %q", ErrResolutionFailed, raw.ID)
			}
			actions = append(actions, Action{
				Event:    EventDelete,
				MemoryID: old.MemoryID,
				OldText:  old.Text,
			})

		case EventNone:
			actions = append(actions, Action{
				Event: EventNone,
				Text:  text,
			})

		default:
			return nil, fmt.Errorf("%w: unknown event %q", ErrResolutionFailed, raw.Event)
		}
	}

	return actions, nil
}

// reverseTokens maps short tokens back to attachment IDs. Unknown tokens are
// dropped with a warning; they never reach stored metadata.
func (r *Resolver) reverseTokens(tokens []string, tm *tokenMap) []string {
	if len(tokens) == 0 {
		return nil
	}

	var ids []string
	for _, token := range tokens {
		if tm != nil {
			if id, ok := tm.idFor(token); ok {
				ids = append(ids, id)
				continue
			}
		}
		log.Printf("Warning: dropping unknown attachment token %q", token)
	}

	sort.Strings(ids)
	return ids
}

// sortedUnique returns a sorted copy of ids with duplicates removed.
func sortedUnique(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
