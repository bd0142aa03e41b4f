package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON_PlainObject(t *testing.T) {
	assert.Equal(t, `{"zones": []}`, extractJSON(`{"zones": []}`))
}

func TestExtractJSON_MarkdownFence(t *testing.T) {
	response := "```json\n{\"objectives\": [\"a\"]}\n```"
	assert.Equal(t, `{"objectives": ["a"]}`, extractJSON(response))
}

func TestExtractJSON_SurroundingProse(t *testing.T) {
	response := `Here is the extraction you asked for:

{"references": [{"authors": "not specified"}]}

Let me know if you need anything else.`
	assert.Equal(t, `{"references": [{"authors": "not specified"}]}`, extractJSON(response))
}

func TestExtractJSON_NestedBraces(t *testing.T) {
	response := `{"outer": {"inner": {"deep": 1}}}`
	assert.Equal(t, response, extractJSON(response))
}

func TestExtractJSON_BracesInsideStrings(t *testing.T) {
	response := `{"limits": "between {lat} and {lon}", "note": "brace } in text"}`
	assert.Equal(t, response, extractJSON(response))
}

func TestExtractJSON_EscapedQuotes(t *testing.T) {
	response := `{"name": "Zona \"Nucleo\""}`
	assert.Equal(t, response, extractJSON(response))
}

func TestExtractJSON_NoObject(t *testing.T) {
	assert.Empty(t, extractJSON("no structured data here"))
	assert.Empty(t, extractJSON(""))
}

func TestExtractJSON_UnterminatedObject(t *testing.T) {
	assert.Empty(t, extractJSON(`{"zones": [`))
}

func TestDecodeJSON_IntoSchema(t *testing.T) {
	var parsed struct {
		Objectives []string `json:"objectives"`
	}

	err := DecodeJSON("```json\n{\"objectives\": [\"Conservar\"]}\n```", &parsed)

	require.NoError(t, err)
	assert.Equal(t, []string{"Conservar"}, parsed.Objectives)
}

func TestDecodeJSON_NoObjectInResponse(t *testing.T) {
	var parsed struct{}

	err := DecodeJSON("the model refused to answer", &parsed)

	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestDecodeJSON_SchemaMismatch(t *testing.T) {
	var parsed struct {
		Objectives []string `json:"objectives"`
	}

	err := DecodeJSON(`{"objectives": "not a list"}`, &parsed)

	assert.Error(t, err)
}
