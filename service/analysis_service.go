package service

import (
	"context"
	"fmt"

	"mpagent-backend/llm"
	"mpagent-backend/models"
)

// AnalysisService runs the three analytical evaluators over extracted
// plan data. Each evaluator shares the same contract as extraction: one
// language-model call, and the declared empty shape plus an error marker
// on any failure.
type AnalysisService struct {
	generator llm.Generator
}

// AnalysisServiceOption is a functional option for AnalysisService
type AnalysisServiceOption func(*AnalysisService)

// AnalysisWithGenerator sets the language-model generator
func AnalysisWithGenerator(g llm.Generator) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.generator = g
	}
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const mpaGuideTemplate = `Evaluate the extracted regulations of each zone using the MPA Guide framework.

The MPA Guide framework defines four protection categories:

1. Fully Protected:
   - No extractive or destructive activity is permitted
   - Fishing, mining, and dredging are prohibited
   - No habitat modification is allowed

2. Highly Protected:
   - Only very limited extractive activities are permitted (subsistence or ceremonial)
   - Impact is minimal and localized
   - Natural ecosystems are maintained

3. Lightly Protected:
   - Commercial or recreational fishing is permitted with some restrictions
   - Moderate extractive activities are allowed
   - Some impactful activities are regulated

4. Minimally Protected:
   - Many extractive activities are permitted
   - Few specific restrictions exist
   - The focus is fisheries management rather than full conservation

Instructions:
1. For each zone, weigh its regulations carefully
2. Assign the most appropriate MPA Guide category, using the exact category names above
3. Give a clear justification grounded in the specific regulations
4. If there is insufficient information to evaluate a zone, use the category "undetermined"
5. Use exactly the JSON structure requested

Respond with JSON stating the assigned category and a brief justification:
{
  "zone_evaluations": [
    {
      "zone_name": "...",
      "category": "...",
      "justification": "..."
    }
  ]
}

If there is not enough information to evaluate anything, return:
{
  "zone_evaluations": [],
  "message": "Insufficient information for an MPA Guide evaluation"
}

Zones and regulations:
%s

JSON:`

const smartTemplate = `Evaluate each extracted conservation objective against the SMART criteria and note its practical feasibility.

The SMART criteria are:
- Specific: the objective states clearly and concretely what is to be achieved.
- Measurable: progress toward the objective can be quantified or measured.
- Achievable: the objective is realistic given the resources available.
- Relevant: the objective is aligned with the conservation needs of the marine protected area.
- Time-bound: the objective sets a clear time frame for completion.

Instructions:
1. Judge each objective against each SMART criterion with true or false
2. Give a brief assessment of the objective's practical feasibility
3. Consider required resources, technical capacity, and socioeconomic context
4. If information is insufficient for some aspect, explain that in the feasibility note
5. Repeat each objective string exactly as given, without rewording or trimming
6. Use exactly the JSON structure requested

Respond with JSON in this structure:
{
  "objective_evaluations": [
    {
      "objective": "...",
      "smart": {
        "specific": true,
        "measurable": false,
        "achievable": true,
        "relevant": true,
        "time_bound": false
      },
      "score": 3,
      "feasibility": "brief assessment of practical implementation"
    }
  ]
}

If there are no objectives to evaluate, return:
{
  "objective_evaluations": [],
  "message": "No objectives found to evaluate"
}

Objectives:
%s

JSON:`

const congruenceTemplate = `Compare the conservation objectives with the main themes covered by the extracted bibliographic references.

Instructions:
1. Identify the main themes addressed by each reference
2. Decide whether each conservation objective is backed by pertinent literature
3. Point out objectives that lack support in the provided literature
4. Identify thematic gaps in the cited literature as a whole
5. For each objective, list the related references, if any
6. Give a brief comment explaining the congruence or the gaps for each objective
7. Repeat each objective string exactly as given
8. Use exactly the JSON structure requested

Respond with JSON in this structure:
{
  "congruence": [
    {
      "objective": "...",
      "supported_by_literature": true,
      "related_themes": ["...", "..."],
      "related_references": ["reference 1", "reference 2"],
      "commentary": "brief explanation of congruence or identified gaps"
    }
  ],
  "thematic_gaps": [
    "theme 1 missing from the literature",
    "theme 2 missing from the literature"
  ]
}

If there is not enough information for the analysis, return:
{
  "congruence": [],
  "thematic_gaps": [],
  "message": "Insufficient information for the congruence analysis"
}

Objectives and literature:
%s

JSON:`

// EvaluateZones classifies each zone's regulations into an MPA Guide
// protection category. The four-category rubric is carried verbatim in
// the instruction text; classification is delegated entirely to the
// model, including the "undetermined" escape hatch.
func (s *AnalysisService) EvaluateZones(ctx context.Context, zonation models.ZonationResult) models.MPAGuideResult {
	result := models.MPAGuideResult{ZoneEvaluations: []models.ZoneEvaluation{}}

	payload := serializeInput(map[string]any{"zones": zonation.Zones})
	response, err := s.generator.Generate(ctx, fmt.Sprintf(mpaGuideTemplate, payload))
	if err != nil {
		result.Error = fmt.Sprintf("MPA Guide evaluation failed: %v", err)
		return result
	}

	var parsed models.MPAGuideResult
	if err := llm.DecodeJSON(response, &parsed); err != nil {
		result.Error = fmt.Sprintf("MPA Guide response was not valid JSON: %v", err)
		return result
	}

	if parsed.ZoneEvaluations == nil {
		parsed.ZoneEvaluations = []models.ZoneEvaluation{}
	}
	parsed.Error = ""
	return parsed
}

// EvaluateObjectives scores each objective against the SMART criteria.
// The integer score comes from the model as-is; it is not recomputed
// from the booleans and may disagree with their count.
func (s *AnalysisService) EvaluateObjectives(ctx context.Context, objectives models.ObjectivesResult) models.SMARTResult {
	result := models.SMARTResult{ObjectiveEvaluations: []models.SMARTEvaluation{}}

	payload := serializeInput(map[string]any{"objectives": objectives.Objectives})
	response, err := s.generator.Generate(ctx, fmt.Sprintf(smartTemplate, payload))
	if err != nil {
		result.Error = fmt.Sprintf("SMART evaluation failed: %v", err)
		return result
	}

	var parsed models.SMARTResult
	if err := llm.DecodeJSON(response, &parsed); err != nil {
		result.Error = fmt.Sprintf("SMART response was not valid JSON: %v", err)
		return result
	}

	if parsed.ObjectiveEvaluations == nil {
		parsed.ObjectiveEvaluations = []models.SMARTEvaluation{}
	}
	parsed.Error = ""
	return parsed
}

// AnalyzeCongruence checks the full objective set against the full
// reference set in a single combined call and reports per-objective
// verdicts plus document-level thematic gaps.
func (s *AnalysisService) AnalyzeCongruence(ctx context.Context, objectives models.ObjectivesResult, literature models.LiteratureResult) models.CongruenceResult {
	result := models.CongruenceResult{
		Congruence:   []models.CongruenceEntry{},
		ThematicGaps: []string{},
	}

	payload := serializeInput(map[string]any{
		"objectives": objectives.Objectives,
		"references": literature.References,
	})
	response, err := s.generator.Generate(ctx, fmt.Sprintf(congruenceTemplate, payload))
	if err != nil {
		result.Error = fmt.Sprintf("congruence analysis failed: %v", err)
		return result
	}

	var parsed models.CongruenceResult
	if err := llm.DecodeJSON(response, &parsed); err != nil {
		result.Error = fmt.Sprintf("congruence response was not valid JSON: %v", err)
		return result
	}

	if parsed.Congruence == nil {
		parsed.Congruence = []models.CongruenceEntry{}
	}
	if parsed.ThematicGaps == nil {
		parsed.ThematicGaps = []string{}
	}
	for i := range parsed.Congruence {
		if parsed.Congruence[i].RelatedThemes == nil {
			parsed.Congruence[i].RelatedThemes = []string{}
		}
		if parsed.Congruence[i].RelatedReferences == nil {
			parsed.Congruence[i].RelatedReferences = []string{}
		}
	}
	parsed.Error = ""
	return parsed
}

// AnalyzeAll runs the three analytical evaluators over one merged
// extraction result. The evaluators are isolated: one failing leaves the
// other two results intact, each carrying only its own error marker.
func (s *AnalysisService) AnalyzeAll(ctx context.Context, extraction *models.ExtractionResult) models.AnalysisResult {
	return models.AnalysisResult{
		MPAGuide:   s.EvaluateZones(ctx, extraction.Zonation),
		SMART:      s.EvaluateObjectives(ctx, extraction.Objectives),
		Congruence: s.AnalyzeCongruence(ctx, extraction.Objectives, extraction.Literature),
	}
}
