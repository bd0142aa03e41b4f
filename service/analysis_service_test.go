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

func isMPAGuidePrompt(prompt string) bool {
	return strings.Contains(prompt, "MPA Guide framework")
}

func isSMARTPrompt(prompt string) bool {
	return strings.Contains(prompt, "SMART criteria")
}

func isCongruencePrompt(prompt string) bool {
	return strings.Contains(prompt, "congruence")
}

func TestEvaluateZones_AssignsCategories(t *testing.T) {
	zonation := models.ZonationResult{Zones: []models.Zone{
		{Name: "Zona Nucleo", Limits: "not specified", Regulations: []string{"Prohibida toda pesca", "Prohibida la mineria"}},
		{Name: "Zona sin datos", Limits: "not specified", Regulations: []string{}},
	}}
	gen := &fakeGenerator{respond: func(prompt string) (string, error) {
		require.True(t, isMPAGuidePrompt(prompt))
		require.Contains(t, prompt, "Prohibida toda pesca")
		return `{"zone_evaluations": [
			{"zone_name": "Zona Nucleo", "category": "Fully Protected", "justification": "All extraction is prohibited"},
			{"zone_name": "Zona sin datos", "category": "undetermined", "justification": "No regulations to evaluate"}
		]}`, nil
	}}
	svc := NewAnalysisService(AnalysisWithGenerator(gen))

	result := svc.EvaluateZones(context.Background(), zonation)

	assert.Empty(t, result.Error)
	require.Len(t, result.ZoneEvaluations, 2)
	assert.Equal(t, models.CategoryFullyProtected, result.ZoneEvaluations[0].Category)
	assert.Equal(t, models.CategoryUndetermined, result.ZoneEvaluations[1].Category)
}

func TestEvaluateZones_FailureYieldsEmptyShape(t *testing.T) {
	gen := &fakeGenerator{respond: func(string) (string, error) {
		return "", errors.New("deadline exceeded")
	}}
	svc := NewAnalysisService(AnalysisWithGenerator(gen))

	result := svc.EvaluateZones(context.Background(), models.ZonationResult{Zones: []models.Zone{}})

	assert.NotNil(t, result.ZoneEvaluations)
	assert.Empty(t, result.ZoneEvaluations)
	assert.Contains(t, result.Error, "MPA Guide")
}

func TestEvaluateObjectives_ScoreTakenFromResponse(t *testing.T) {
	objectives := models.ObjectivesResult{Objectives: []string{"Conservar los arrecifes de coral"}}
	gen := &fakeGenerator{respond: func(prompt string) (string, error) {
		require.True(t, isSMARTPrompt(prompt))
		// Score deliberately disagrees with the booleans; it must be
		// reported as returned, not recomputed.
		return `{"objective_evaluations": [{
			"objective": "Conservar los arrecifes de coral",
			"smart": {"specific": true, "measurable": false, "achievable": false, "relevant": true, "time_bound": false},
			"score": 5,
			"feasibility": "Feasible with current monitoring capacity"
		}]}`, nil
	}}
	svc := NewAnalysisService(AnalysisWithGenerator(gen))

	result := svc.EvaluateObjectives(context.Background(), objectives)

	assert.Empty(t, result.Error)
	require.Len(t, result.ObjectiveEvaluations, 1)
	eval := result.ObjectiveEvaluations[0]
	assert.Equal(t, "Conservar los arrecifes de coral", eval.Objective)
	assert.Equal(t, 5, eval.Score)
	assert.True(t, eval.Criteria.Specific)
	assert.False(t, eval.Criteria.Measurable)
}

func TestEvaluateObjectives_PayloadCarriesObjectivesVerbatim(t *testing.T) {
	objective := "Incrementar la cobertura de manglar en un 10% para 2030"
	var captured string
	gen := &fakeGenerator{respond: func(prompt string) (string, error) {
		captured = prompt
		return `{"objective_evaluations": []}`, nil
	}}
	svc := NewAnalysisService(AnalysisWithGenerator(gen))

	svc.EvaluateObjectives(context.Background(), models.ObjectivesResult{Objectives: []string{objective}})

	assert.Contains(t, captured, objective)
}

func TestEvaluateObjectives_NoNormalizationOfReturnedStrings(t *testing.T) {
	objective := "Conservar los arrecifes de coral"
	gen := &fakeGenerator{respond: func(string) (string, error) {
		// Trailing whitespace in the returned objective is kept as-is;
		// downstream joins on the exact string and a variant simply
		// fails to match.
		return `{"objective_evaluations": [{
			"objective": "Conservar los arrecifes de coral ",
			"smart": {"specific": true, "measurable": true, "achievable": true, "relevant": true, "time_bound": true},
			"score": 5,
			"feasibility": "ok"
		}]}`, nil
	}}
	svc := NewAnalysisService(AnalysisWithGenerator(gen))

	result := svc.EvaluateObjectives(context.Background(), models.ObjectivesResult{Objectives: []string{objective}})

	require.Len(t, result.ObjectiveEvaluations, 1)
	assert.Equal(t, "Conservar los arrecifes de coral ", result.ObjectiveEvaluations[0].Objective)
	assert.NotEqual(t, objective, result.ObjectiveEvaluations[0].Objective)
}

func TestAnalyzeCongruence_ParsesVerdictsAndGaps(t *testing.T) {
	objectives := models.ObjectivesResult{Objectives: []string{"Proteger los sitios de anidacion de tortugas"}}
	literature := models.LiteratureResult{References: []models.Reference{
		{Authors: "Lopez, M.", Title: "Tortugas marinas", Source: "Biol. Cons.", Year: "2021"},
	}}
	gen := &fakeGenerator{respond: func(prompt string) (string, error) {
		require.True(t, isCongruencePrompt(prompt))
		require.Contains(t, prompt, "Tortugas marinas")
		return `{"congruence": [{
			"objective": "Proteger los sitios de anidacion de tortugas",
			"supported_by_literature": true,
			"related_themes": ["sea turtle nesting"],
			"related_references": ["Lopez, M. (2021)"],
			"commentary": "Directly supported"
		}], "thematic_gaps": ["water quality"]}`, nil
	}}
	svc := NewAnalysisService(AnalysisWithGenerator(gen))

	result := svc.AnalyzeCongruence(context.Background(), objectives, literature)

	assert.Empty(t, result.Error)
	require.Len(t, result.Congruence, 1)
	assert.True(t, result.Congruence[0].SupportedByLiterature)
	assert.Equal(t, []string{"water quality"}, result.ThematicGaps)
}

func TestAnalyzeCongruence_MalformedResponseYieldsEmptyShape(t *testing.T) {
	gen := &fakeGenerator{respond: func(string) (string, error) {
		return "The objectives look reasonable overall.", nil
	}}
	svc := NewAnalysisService(AnalysisWithGenerator(gen))

	result := svc.AnalyzeCongruence(context.Background(), models.ObjectivesResult{}, models.LiteratureResult{})

	assert.NotNil(t, result.Congruence)
	assert.NotNil(t, result.ThematicGaps)
	assert.Empty(t, result.Congruence)
	assert.NotEmpty(t, result.Error)
}

func TestAnalyzeAll_FailuresAreIsolated(t *testing.T) {
	extraction := &models.ExtractionResult{
		Zonation:   models.ZonationResult{Zones: []models.Zone{{Name: "Zona Nucleo", Limits: "not specified", Regulations: []string{"No pesca"}}}},
		Objectives: models.ObjectivesResult{Objectives: []string{"Objetivo A"}},
		Literature: models.LiteratureResult{References: []models.Reference{}},
	}
	gen := &fakeGenerator{respond: func(prompt string) (string, error) {
		switch {
		case isSMARTPrompt(prompt):
			return "", errors.New("service unavailable")
		case isMPAGuidePrompt(prompt):
			return `{"zone_evaluations": [{"zone_name": "Zona Nucleo", "category": "Highly Protected", "justification": "..."}]}`, nil
		case isCongruencePrompt(prompt):
			return `{"congruence": [], "thematic_gaps": []}`, nil
		}
		return "", errors.New("unexpected prompt")
	}}
	svc := NewAnalysisService(AnalysisWithGenerator(gen))

	result := svc.AnalyzeAll(context.Background(), extraction)

	// The SMART failure carries its own marker and leaves the other two
	// lenses intact.
	assert.NotEmpty(t, result.SMART.Error)
	assert.Empty(t, result.SMART.ObjectiveEvaluations)
	assert.Empty(t, result.MPAGuide.Error)
	require.Len(t, result.MPAGuide.ZoneEvaluations, 1)
	assert.Equal(t, models.CategoryHighlyProtected, result.MPAGuide.ZoneEvaluations[0].Category)
	assert.Empty(t, result.Congruence.Error)
}
