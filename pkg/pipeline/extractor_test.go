package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractDisabledPassesInputThroughVerbatim(t *testing.T) {
	provider := &fakeLLM{}
	extractor := NewExtractor(provider, "")

	facts, err := extractor.Extract(context.Background(), "  Remember: deploy on Friday.  ", false)
	require.NoError(t, err)

	assert.Equal(t, []string{"Remember: deploy on Friday."}, facts)
	assert.Empty(t, provider.calls, "extraction disabled must not call the LLM")
}

func TestExtractParsesFactsResponse(t *testing.T) {
	provider := &fakeLLM{responses: []string{`{"facts": ["Lives in Berlin", "Works at Acme"]}`}}
	extractor := NewExtractor(provider, "")

	facts, err := extractor.Extract(context.Background(), "I live in Berlin and work at Acme", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lives in Berlin", "Works at Acme"}, facts)
}

func TestExtractStripsCodeFences(t *testing.T) {
	provider := &fakeLLM{responses: []string{"```json\n{\"facts\": [\"Likes tea\"]}\n```"}}
	extractor := NewExtractor(provider, "")

	facts, err := extractor.Extract(context.Background(), "tea please", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Likes tea"}, facts)
}

func TestExtractEmptyFactsIsValid(t *testing.T) {
	provider := &fakeLLM{responses: []string{`{"facts": []}`}}
	extractor := NewExtractor(provider, "")

	facts, err := extractor.Extract(context.Background(), "hello there", true)
	require.NoError(t, err)
	assert.Empty(t, facts)
}

func TestExtractFailsOnMalformedResponse(t *testing.T) {
	cases := map[string]string{
		"invalid json":    `not json at all`,
		"missing key":     `{"items": ["x"]}`,
		"facts not array": `{"facts": "Lives in Berlin"}`,
	}

	for name, response := range cases {
		t.Run(name, func(t *testing.T) {
			provider := &fakeLLM{responses: []string{response}}
			extractor := NewExtractor(provider, "")

			_, err := extractor.Extract(context.Background(), "input", true)
			assert.ErrorIs(t, err, ErrExtractionFailed)
		})
	}
}

func TestExtractUsesCustomPrompt(t *testing.T) {
	provider := &fakeLLM{responses: []string{`{"facts": ["x"]}`}}
	extractor := NewExtractor(provider, "Only extract project names.")

	_, err := extractor.Extract(context.Background(), "input", true)
	require.NoError(t, err)
	assert.Equal(t, "Only extract project names.", provider.lastSystemPrompt())
}
