package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openmemory-ai/openmemory-go/pkg/llm"
)

func TestFlattenMessages(t *testing.T) {
	messages := []llm.Message{
		{Role: "system", Content: "you are a helpful assistant"},
		{Role: "user", Content: "I live in Berlin"},
		{Role: "assistant", Content: "Noted!"},
		{Role: "user", Content: ""},
		{Role: "", Content: "orphan"},
	}

	flat := FlattenMessages(messages)
	assert.Equal(t, "user: I live in Berlin\nassistant: Noted!", flat)
}

func TestFlattenMessagesEmpty(t *testing.T) {
	assert.Equal(t, "", FlattenMessages(nil))
	assert.Equal(t, "", FlattenMessages([]llm.Message{{Role: "system", Content: "setup"}}))
}
