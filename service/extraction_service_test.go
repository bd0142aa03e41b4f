package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mpagent-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator routes prompts to canned responses so evaluator behavior
// can be tested without a live model.
type fakeGenerator struct {
	respond func(prompt string) (string, error)
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return f.respond(prompt)
}

func isZonationPrompt(prompt string) bool {
	return strings.Contains(prompt, "protected-area zones")
}

func isObjectivesPrompt(prompt string) bool {
	return strings.Contains(prompt, "conservation objectives that are defined explicitly")
}

func isLiteraturePrompt(prompt string) bool {
	return strings.Contains(prompt, "bibliographic reference")
}

// extractionResponder answers each extraction evaluator with fixed JSON.
func extractionResponder(zonesJSON, objectivesJSON, referencesJSON string) func(string) (string, error) {
	return func(prompt string) (string, error) {
		switch {
		case isZonationPrompt(prompt):
			return zonesJSON, nil
		case isObjectivesPrompt(prompt):
			return objectivesJSON, nil
		case isLiteraturePrompt(prompt):
			return referencesJSON, nil
		}
		return "", errors.New("unexpected prompt")
	}
}

func TestExtractZones_ParsesResponse(t *testing.T) {
	gen := &fakeGenerator{respond: func(prompt string) (string, error) {
		require.Contains(t, prompt, "texto de prueba")
		return "```json\n{\"zones\": [{\"name\": \"Zona Nucleo\", \"limits\": \"23.5N 109.4W\", \"regulations\": [\"Prohibida la pesca\"]}]}\n```", nil
	}}
	svc := NewExtractionService(ExtractionWithGenerator(gen))

	result := svc.ExtractZones(context.Background(), "texto de prueba")

	assert.Empty(t, result.Error)
	require.Len(t, result.Zones, 1)
	assert.Equal(t, "Zona Nucleo", result.Zones[0].Name)
	assert.Equal(t, "23.5N 109.4W", result.Zones[0].Limits)
	assert.Equal(t, []string{"Prohibida la pesca"}, result.Zones[0].Regulations)
}

func TestExtractZones_GeneratorFailureYieldsEmptyShape(t *testing.T) {
	gen := &fakeGenerator{respond: func(string) (string, error) {
		return "", errors.New("quota exceeded")
	}}
	svc := NewExtractionService(ExtractionWithGenerator(gen))

	result := svc.ExtractZones(context.Background(), "texto")

	assert.NotNil(t, result.Zones)
	assert.Empty(t, result.Zones)
	assert.Contains(t, result.Error, "zonation")
	assert.Contains(t, result.Error, "quota exceeded")
}

func TestExtractObjectives_MalformedResponseYieldsEmptyShape(t *testing.T) {
	gen := &fakeGenerator{respond: func(string) (string, error) {
		return "I could not find any objectives in this text.", nil
	}}
	svc := NewExtractionService(ExtractionWithGenerator(gen))

	result := svc.ExtractObjectives(context.Background(), "texto")

	assert.NotNil(t, result.Objectives)
	assert.Empty(t, result.Objectives)
	assert.NotEmpty(t, result.Error)
}

func TestExtractLiterature_NullListNormalized(t *testing.T) {
	gen := &fakeGenerator{respond: func(string) (string, error) {
		return `{"references": null}`, nil
	}}
	svc := NewExtractionService(ExtractionWithGenerator(gen))

	result := svc.ExtractLiterature(context.Background(), "texto")

	assert.Empty(t, result.Error)
	assert.NotNil(t, result.References)
	assert.Empty(t, result.References)
}

func TestExtractDocument_MergesDuplicateFindings(t *testing.T) {
	// Two chunks, each reporting the same findings; the merge keeps one
	// copy of each.
	text := strings.Repeat("palabra ", 100)
	gen := &fakeGenerator{respond: extractionResponder(
		`{"zones": [{"name": "Zona Nucleo", "limits": "not specified", "regulations": ["No extraccion"]}]}`,
		`{"objectives": ["Conservar los arrecifes de coral"]}`,
		`{"references": [{"authors": "Garcia, J.", "title": "Arrecifes", "source": "Rev. Mar.", "year": "2019"}]}`,
	)}
	svc := NewExtractionService(ExtractionWithGenerator(gen))

	result, err := svc.ExtractDocument(context.Background(), text, 500)

	require.NoError(t, err)
	assert.Equal(t, 2, result.ChunkCount)
	assert.Equal(t, 0, result.FailedChunks)
	assert.Len(t, result.Zonation.Zones, 1)
	assert.Len(t, result.Objectives.Objectives, 1)
	assert.Len(t, result.Literature.References, 1)
}

func TestExtractDocument_DistinctFindingsAccumulateInOrder(t *testing.T) {
	text := strings.Repeat("alfa ", 100) + strings.Repeat("beta ", 100)
	gen := &fakeGenerator{respond: func(prompt string) (string, error) {
		second := strings.Contains(prompt, "beta")
		switch {
		case isZonationPrompt(prompt):
			if second {
				return `{"zones": [{"name": "Zona de Amortiguamiento", "limits": "not specified", "regulations": []}]}`, nil
			}
			return `{"zones": [{"name": "Zona Nucleo", "limits": "not specified", "regulations": []}]}`, nil
		case isObjectivesPrompt(prompt):
			if second {
				return `{"objectives": ["Objetivo B"]}`, nil
			}
			return `{"objectives": ["Objetivo A"]}`, nil
		case isLiteraturePrompt(prompt):
			return `{"references": []}`, nil
		}
		return "", errors.New("unexpected prompt")
	}}
	svc := NewExtractionService(ExtractionWithGenerator(gen))

	result, err := svc.ExtractDocument(context.Background(), text, 500)

	require.NoError(t, err)
	require.Len(t, result.Zonation.Zones, 2)
	assert.Equal(t, "Zona Nucleo", result.Zonation.Zones[0].Name)
	assert.Equal(t, "Zona de Amortiguamiento", result.Zonation.Zones[1].Name)
	assert.Equal(t, []string{"Objetivo A", "Objetivo B"}, result.Objectives.Objectives)
}

func TestExtractDocument_FailedChunkSkippedWithPartialResults(t *testing.T) {
	text := strings.Repeat("alfa ", 100) + strings.Repeat("beta ", 100)
	gen := &fakeGenerator{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "beta") {
			return "", errors.New("service unavailable")
		}
		return extractionResponder(
			`{"zones": [{"name": "Zona Nucleo", "limits": "not specified", "regulations": []}]}`,
			`{"objectives": ["Objetivo A"]}`,
			`{"references": []}`,
		)(prompt)
	}}
	svc := NewExtractionService(ExtractionWithGenerator(gen))

	result, err := svc.ExtractDocument(context.Background(), text, 500)

	require.NoError(t, err)
	assert.Equal(t, 2, result.ChunkCount)
	assert.Equal(t, 1, result.FailedChunks)
	require.Len(t, result.Zonation.Zones, 1)
	assert.Equal(t, "Zona Nucleo", result.Zonation.Zones[0].Name)
	assert.Equal(t, []string{"Objetivo A"}, result.Objectives.Objectives)
}

func TestExtractDocument_AllChunksFailed(t *testing.T) {
	text := strings.Repeat("palabra ", 100)
	gen := &fakeGenerator{respond: func(string) (string, error) {
		return "", errors.New("service unavailable")
	}}
	svc := NewExtractionService(ExtractionWithGenerator(gen))

	result, err := svc.ExtractDocument(context.Background(), text, 500)

	require.ErrorIs(t, err, ErrAllChunksFailed)
	require.NotNil(t, result)
	assert.Equal(t, result.ChunkCount, result.FailedChunks)
	assert.Empty(t, result.Zonation.Zones)
	assert.Empty(t, result.Objectives.Objectives)
	assert.Empty(t, result.Literature.References)
}

func TestExtractDocument_EmptyInput(t *testing.T) {
	gen := &fakeGenerator{respond: func(string) (string, error) {
		t.Fatal("generator must not be called for empty input")
		return "", nil
	}}
	svc := NewExtractionService(ExtractionWithGenerator(gen))

	result, err := svc.ExtractDocument(context.Background(), "   \n  ", 1000)

	require.NoError(t, err)
	assert.Equal(t, 0, result.ChunkCount)
	assert.NotNil(t, result.Zonation.Zones)
	assert.NotNil(t, result.Objectives.Objectives)
	assert.NotNil(t, result.Literature.References)
	assert.Empty(t, result.Zonation.Error)
	assert.Empty(t, result.Objectives.Error)
	assert.Empty(t, result.Literature.Error)
}

func TestExtractDocument_SingleEvaluatorFailureDoesNotFailChunk(t *testing.T) {
	text := strings.Repeat("palabra ", 50)
	gen := &fakeGenerator{respond: func(prompt string) (string, error) {
		if isZonationPrompt(prompt) {
			return "", errors.New("service unavailable")
		}
		return extractionResponder(
			"",
			`{"objectives": ["Objetivo A"]}`,
			`{"references": []}`,
		)(prompt)
	}}
	svc := NewExtractionService(ExtractionWithGenerator(gen))

	result, err := svc.ExtractDocument(context.Background(), text, 500)

	require.NoError(t, err)
	assert.Equal(t, 0, result.FailedChunks)
	assert.Empty(t, result.Zonation.Zones)
	assert.Equal(t, []string{"Objetivo A"}, result.Objectives.Objectives)
}

func TestMergeZones_NearDuplicatesKeptSeparate(t *testing.T) {
	base := models.Zone{Name: "Zona Nucleo", Limits: "not specified", Regulations: []string{"No pesca"}}
	variant := models.Zone{Name: "zona nucleo", Limits: "not specified", Regulations: []string{"No pesca"}}

	merged := mergeZones([]models.Zone{base}, []models.Zone{variant, base})

	// Casing differences make zones distinct; only the verbatim
	// duplicate collapses.
	assert.Len(t, merged, 2)
}
