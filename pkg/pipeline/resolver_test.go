package pipeline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveNoFactsSkipsLLM(t *testing.T) {
	provider := &fakeLLM{}
	resolver := NewResolver(provider, "")

	actions, err := resolver.Resolve(context.Background(), nil, nil, true)
	require.NoError(t, err)
	assert.Nil(t, actions)
	assert.Empty(t, provider.calls)
}

func TestResolveDedupDisabledFansOutToAdds(t *testing.T) {
	provider := &fakeLLM{}
	resolver := NewResolver(provider, "")

	facts := []CandidateFact{
		{Text: "Lives in Berlin", AttachmentIDs: []string{"att-1", "att-1"}},
		{Text: "Works at Acme"},
		{Text: "Has a dog", AttachmentIDs: []string{"att-3", "att-2"}},
	}
	existing := []Existing{{TempID: "0", MemoryID: 7, Text: "Lives in Paris"}}

	actions, err := resolver.Resolve(context.Background(), existing, facts, false)
	require.NoError(t, err)
	require.Len(t, actions, 3)

	assert.Empty(t, provider.calls, "dedup disabled must not call the LLM")
	for i, action := range actions {
		assert.Equal(t, EventAdd, action.Event)
		assert.Equal(t, facts[i].Text, action.Text)
	}
	assert.Equal(t, []string{"att-1"}, actions[0].AttachmentIDs)
	assert.Nil(t, actions[1].AttachmentIDs)
	assert.Equal(t, []string{"att-2", "att-3"}, actions[2].AttachmentIDs)
}

func TestResolvePromptOmitsAttachmentsWhenNonePresent(t *testing.T) {
	provider := &fakeLLM{responses: []string{`{"memory": []}`}}
	resolver := NewResolver(provider, "")

	existing := []Existing{{TempID: "0", MemoryID: 1, Text: "Lives in Paris"}}
	facts := []CandidateFact{{Text: "Lives in Berlin"}}

	_, err := resolver.Resolve(context.Background(), existing, facts, true)
	require.NoError(t, err)

	user := provider.lastUserPrompt()
	system := provider.lastSystemPrompt()
	assert.NotContains(t, user, "attachment")
	assert.NotContains(t, user, "Attachment")
	assert.NotContains(t, system, "attachment")
	assert.NotContains(t, system, "Attachment")
	assert.Contains(t, user, `{"id":"0","text":"Lives in Paris"}`)
	assert.Contains(t, user, `["Lives in Berlin"]`)
}

func TestResolvePromptCarriesAttachmentsOnEveryItem(t *testing.T) {
	provider := &fakeLLM{responses: []string{`{"memory": []}`}}
	resolver := NewResolver(provider, "")

	existing := []Existing{
		{TempID: "0", MemoryID: 1, Text: "Lives in Paris", AttachmentIDs: []string{"att-b"}},
		{TempID: "1", MemoryID: 2, Text: "Works at Acme"},
	}
	facts := []CandidateFact{
		{Text: "Lives in Berlin", AttachmentIDs: []string{"att-a"}},
		{Text: "Has a dog"},
	}

	_, err := resolver.Resolve(context.Background(), existing, facts, true)
	require.NoError(t, err)

	// att-a sorts before att-b, so tokens are A1=att-a, A2=att-b. Items
	// without attachments still carry an explicit empty array.
	user := provider.lastUserPrompt()
	assert.Contains(t, user, `{"id":"0","text":"Lives in Paris","attachments":["A2"]}`)
	assert.Contains(t, user, `{"id":"1","text":"Works at Acme","attachments":[]}`)
	assert.Contains(t, user, `{"text":"Lives in Berlin","attachments":["A1"]}`)
	assert.Contains(t, user, `{"text":"Has a dog","attachments":[]}`)

	assert.Contains(t, provider.lastSystemPrompt(), "attachments")
}

func TestResolveParsesAllEventKinds(t *testing.T) {
	provider := &fakeLLM{responses: []string{`{"memory": [
		{"event": "ADD", "text": "Has a cat"},
		{"event": "UPDATE", "id": "0", "text": "Lives in Berlin"},
		{"event": "DELETE", "id": "1"},
		{"event": "NONE", "text": "Works at Acme"}
	]}`}}
	resolver := NewResolver(provider, "")

	existing := []Existing{
		{TempID: "0", MemoryID: 11, Text: "Lives in Paris", Metadata: map[string]interface{}{"run_id": "r1"}},
		{TempID: "1", MemoryID: 12, Text: "Plays tennis"},
	}
	facts := []CandidateFact{{Text: "Lives in Berlin"}, {Text: "Has a cat"}}

	actions, err := resolver.Resolve(context.Background(), existing, facts, true)
	require.NoError(t, err)
	require.Len(t, actions, 4)

	assert.Equal(t, Action{Event: EventAdd, Text: "Has a cat"}, actions[0])

	assert.Equal(t, EventUpdate, actions[1].Event)
	assert.Equal(t, int64(11), actions[1].MemoryID)
	assert.Equal(t, "Lives in Berlin", actions[1].Text)
	assert.Equal(t, "Lives in Paris", actions[1].OldText)
	assert.Equal(t, map[string]interface{}{"run_id": "r1"}, actions[1].OldMetadata)

	assert.Equal(t, EventDelete, actions[2].Event)
	assert.Equal(t, int64(12), actions[2].MemoryID)
	assert.Equal(t, "Plays tennis", actions[2].OldText)

	assert.Equal(t, Action{Event: EventNone, Text: "Works at Acme"}, actions[3])
}

func TestResolveAcceptsMemoryFieldAndLowercaseEvent(t *testing.T) {
	provider := &fakeLLM{responses: []string{`{"memory": [
		{"event": "add", "memory": "Has a cat"}
	]}`}}
	resolver := NewResolver(provider, "")

	actions, err := resolver.Resolve(context.Background(), nil, []CandidateFact{{Text: "cat"}}, true)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, EventAdd, actions[0].Event)
	assert.Equal(t, "Has a cat", actions[0].Text)
}

func TestResolveUpdateUnionsOldAndAssignedAttachments(t *testing.T) {
	provider := &fakeLLM{responses: []string{`{"memory": [
		{"event": "UPDATE", "id": "0", "text": "Lives in Berlin", "attachments": ["A2"]}
	]}`}}
	resolver := NewResolver(provider, "")

	existing := []Existing{
		{TempID: "0", MemoryID: 5, Text: "Lives in Paris", AttachmentIDs: []string{"att-x"}},
	}
	facts := []CandidateFact{
		{Text: "Lives in Berlin", AttachmentIDs: []string{"att-y"}},
	}

	actions, err := resolver.Resolve(context.Background(), existing, facts, true)
	require.NoError(t, err)
	require.Len(t, actions, 1)

	// A1=att-x, A2=att-y: the old reference survives even though the LLM
	// only assigned the new one.
	assert.Equal(t, []string{"att-x", "att-y"}, actions[0].AttachmentIDs)
}

func TestResolveDropsUnknownTokens(t *testing.T) {
	provider := &fakeLLM{responses: []string{`{"memory": [
		{"event": "ADD", "text": "Has a cat", "attachments": ["A1", "A9", "bogus"]}
	]}`}}
	resolver := NewResolver(provider, "")

	facts := []CandidateFact{{Text: "Has a cat", AttachmentIDs: []string{"att-1"}}}

	actions, err := resolver.Resolve(context.Background(), nil, facts, true)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, []string{"att-1"}, actions[0].AttachmentIDs)
}

func TestResolveFailsOnUnusableResponse(t *testing.T) {
	cases := map[string]string{
		"invalid json":       `garbage`,
		"missing memory key": `{"actions": []}`,
		"unknown event":      `{"memory": [{"event": "MERGE", "text": "x"}]}`,
		"add without text":   `{"memory": [{"event": "ADD"}]}`,
		"update unknown id":  `{"memory": [{"event": "UPDATE", "id": "42", "text": "x"}]}`,
		"update no text":     `{"memory": [{"event": "UPDATE", "id": "0"}]}`,
		"delete unknown id":  `{"memory": [{"event": "DELETE", "id": "42"}]}`,
	}

	existing := []Existing{{TempID: "0", MemoryID: 1, Text: "Lives in Paris"}}

	for name, response := range cases {
		t.Run(name, func(t *testing.T) {
			provider := &fakeLLM{responses: []string{response}}
			resolver := NewResolver(provider, "")

			_, err := resolver.Resolve(context.Background(), existing, []CandidateFact{{Text: "f"}}, true)
			assert.ErrorIs(t, err, ErrResolutionFailed)
		})
	}
}

func TestResolveUsesCustomPrompt(t *testing.T) {
	provider := &fakeLLM{responses: []string{`{"memory": []}`}}
	resolver := NewResolver(provider, "Classify conservatively.")

	_, err := resolver.Resolve(context.Background(), nil, []CandidateFact{{Text: "f"}}, true)
	require.NoError(t, err)
	assert.Equal(t, "Classify conservatively.", provider.lastSystemPrompt())
}

func TestDefaultResolutionPromptVariants(t *testing.T) {
	plain := defaultResolutionPrompt(false)
	attached := defaultResolutionPrompt(true)

	assert.False(t, strings.Contains(strings.ToLower(plain), "attachment"))
	assert.True(t, strings.Contains(strings.ToLower(attached), "attachment"))
}
