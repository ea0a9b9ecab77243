package openai

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClientDefaultsModelAndDimensions(t *testing.T) {
	client, err := NewClient(&Config{APIKey: "test-key"})
	require.NoError(t, err)

	assert.Equal(t, openai.SmallEmbedding3, client.model)
	assert.Equal(t, 1536, client.Dimensions())
}

func TestNewClientAcceptsModelName(t *testing.T) {
	client, err := NewClient(&Config{
		APIKey:     "test-key",
		Model:      "text-embedding-3-large",
		Dimensions: 3072,
	})
	require.NoError(t, err)

	assert.Equal(t, openai.EmbeddingModel("text-embedding-3-large"), client.model)
	assert.Equal(t, 3072, client.Dimensions())
}

func TestToFloat64(t *testing.T) {
	got := toFloat64([]float32{0.5, -1.25, 0})
	assert.Equal(t, []float64{0.5, -1.25, 0}, got)
}
