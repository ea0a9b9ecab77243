package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openmemory-ai/openmemory-go/pkg/llm"
)

// Extractor turns raw input text into atomic candidate facts, or passes the
// input through verbatim when extraction is disabled.
type Extractor struct {
	llm          llm.Provider
	customPrompt string
}

// NewExtractor creates a fact extractor. customPrompt overrides the built-in
// extraction prompt when non-empty.
func NewExtractor(provider llm.Provider, customPrompt string) *Extractor {
	return &Extractor{
		llm:          provider,
		customPrompt: customPrompt,
	}
}

// Extract returns the candidate facts for the given input.
//
// When disabled, the result is exactly one candidate equal to the input with
// surrounding whitespace trimmed and nothing else changed. When enabled, the
// LLM is asked for a {"facts": [...]} object; an empty facts array is valid
// and yields zero candidates. Unusable LLM output fails the add-call with
// ErrExtractionFailed.
func (e *Extractor) Extract(ctx context.Context, input string, enabled bool) ([]string, error) {
	if !enabled {
		return []string{strings.TrimSpace(input)}, nil
	}

	systemPrompt := e.customPrompt
	if systemPrompt == "" {
		systemPrompt = defaultExtractionPrompt()
	}

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf("Input:\n%s", input)},
	}

	response, err := e.llm.GenerateWithMessages(ctx, messages, llm.WithJSONResponse())
	if err != nil {
		return nil, fmt.Errorf("extract facts: %w", err)
	}

	facts, err := parseFactsResponse(response)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	return facts, nil
}

// parseFactsResponse parses the LLM response into a fact list.
func parseFactsResponse(response string) ([]string, error) {
	response = removeCodeBlocks(response)

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(response), &result); err != nil {
		return nil, fmt.Errorf("invalid JSON response: %v", err)
	}

	factsInterface, ok := result["facts"]
	if !ok {
		return nil, fmt.Errorf("missing facts key")
	}

	factsArray, ok := factsInterface.([]interface{})
	if !ok {
		return nil, fmt.Errorf("facts is not an array")
	}

	facts := make([]string, 0, len(factsArray))
	for _, fact := range factsArray {
		if factStr, ok := fact.(string); ok && factStr != "" {
			facts = append(facts, factStr)
		}
	}

	return facts, nil
}

// removeCodeBlocks strips ```json ... ``` fences from a response.
func removeCodeBlocks(response string) string {
	response = strings.ReplaceAll(response, "```json", "")
	response = strings.ReplaceAll(response, "```", "")
	return strings.TrimSpace(response)
}
