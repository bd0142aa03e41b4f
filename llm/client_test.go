package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptedModel(t *testing.T) {
	assert.True(t, AcceptedModel(ModelFlash))
	assert.True(t, AcceptedModel(ModelPro))
	assert.False(t, AcceptedModel("gemini-1.5-flash"))
	assert.False(t, AcceptedModel(""))
}

func TestNewGeminiClient_DefaultsModel(t *testing.T) {
	client, err := NewGeminiClient(nil, "")

	require.NoError(t, err)
	assert.Equal(t, DefaultModel, client.Model())
}

func TestNewGeminiClient_RejectsUnknownModel(t *testing.T) {
	_, err := NewGeminiClient(nil, "gpt-4")

	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestGeminiFactory_RejectsUnknownModel(t *testing.T) {
	factory := NewGeminiFactory(nil)

	_, err := factory.GeneratorFor("claude-3")

	assert.ErrorIs(t, err, ErrUnknownModel)
}
