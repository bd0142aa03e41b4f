package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"mpagent-backend/llm"
	"mpagent-backend/models"
)

// ExtractionService runs the three extraction evaluators over a plan
// document, chunking long text and merging per-chunk results with
// duplicate suppression.
type ExtractionService struct {
	generator llm.Generator
}

// ExtractionServiceOption is a functional option for ExtractionService
type ExtractionServiceOption func(*ExtractionService)

// ExtractionWithGenerator sets the language-model generator
func ExtractionWithGenerator(g llm.Generator) ExtractionServiceOption {
	return func(s *ExtractionService) {
		s.generator = g
	}
}

// NewExtractionService creates a new extraction service
func NewExtractionService(opts ...ExtractionServiceOption) *ExtractionService {
	s := &ExtractionService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var ErrAllChunksFailed = errors.New("extraction failed for every chunk")

const zonationTemplate = `The following text is taken from a Marine Protected Area management plan, typically written in Spanish. Extract the protected-area zones together with the geographic limits and the specific regulations tied to each zone.

Instructions:
1. Identify every zone mentioned in the text (they may be called "zonas", "sectores", "areas", and so on)
2. For each zone, extract its geographic limits (coordinates, boundary descriptions, or similar)
3. For each zone, list the regulations, restrictions, or permitted uses, keeping the original wording
4. If the text gives no information for one of these elements, use "not specified"
5. Use exactly the JSON structure requested

Respond ONLY with JSON in this structure:
{
  "zones": [
    {
      "name": "...",
      "limits": "...",
      "regulations": ["...", "..."]
    }
  ]
}

If the text contains no zoning information, return:
{
  "zones": []
}

Management plan text:
%s

JSON:`

const objectivesTemplate = `From the following Marine Protected Area management plan text, extract the conservation objectives that are defined explicitly.

Instructions:
1. Identify the main conservation or management objectives
2. Look for sections titled "Objetivos", "Objetivos de conservacion", "Objectives", and similar headings
3. Include both general and specific objectives when present
4. Keep each objective's original wording verbatim
5. Do not include operational targets, indicators, or activities (objectives only)
6. Use exactly the JSON structure requested

Respond ONLY with JSON in this structure:
{
  "objectives": [
    "objective 1",
    "objective 2"
  ]
}

If no explicit objectives are found, return:
{
  "objectives": []
}

Text:
%s

JSON:`

const literatureTemplate = `From the following Marine Protected Area management plan text, extract every bibliographic reference that is cited.

Instructions:
1. Look for sections titled "Referencias", "Bibliografia", "Literatura citada", "References", and similar headings
2. Include each complete bibliographic reference
3. Split each reference into the components requested in the JSON structure
4. If a component is unavailable, use "not specified"
5. Preserve accents and special characters correctly
6. Use exactly the JSON structure requested

Respond ONLY with JSON in this structure:
{
  "references": [
    {
      "authors": "...",
      "title": "...",
      "source": "...",
      "year": "..."
    }
  ]
}

If there are no bibliographic references, return:
{
  "references": []
}

Text:
%s

JSON:`

// ExtractZones extracts zones and regulations from one text chunk. On
// any failure it returns the empty zone list with the error marker set;
// it never propagates the failure to the caller.
func (s *ExtractionService) ExtractZones(ctx context.Context, text string) models.ZonationResult {
	result := models.ZonationResult{Zones: []models.Zone{}}

	response, err := s.generator.Generate(ctx, fmt.Sprintf(zonationTemplate, text))
	if err != nil {
		result.Error = fmt.Sprintf("zonation extraction failed: %v", err)
		return result
	}

	var parsed models.ZonationResult
	if err := llm.DecodeJSON(response, &parsed); err != nil {
		result.Error = fmt.Sprintf("zonation response was not valid JSON: %v", err)
		return result
	}

	if parsed.Zones == nil {
		parsed.Zones = []models.Zone{}
	}
	for i := range parsed.Zones {
		if parsed.Zones[i].Regulations == nil {
			parsed.Zones[i].Regulations = []string{}
		}
	}
	parsed.Error = ""
	return parsed
}

// ExtractObjectives extracts conservation objectives from one text
// chunk, keeping the source wording verbatim.
func (s *ExtractionService) ExtractObjectives(ctx context.Context, text string) models.ObjectivesResult {
	result := models.ObjectivesResult{Objectives: []string{}}

	response, err := s.generator.Generate(ctx, fmt.Sprintf(objectivesTemplate, text))
	if err != nil {
		result.Error = fmt.Sprintf("objectives extraction failed: %v", err)
		return result
	}

	var parsed models.ObjectivesResult
	if err := llm.DecodeJSON(response, &parsed); err != nil {
		result.Error = fmt.Sprintf("objectives response was not valid JSON: %v", err)
		return result
	}

	if parsed.Objectives == nil {
		parsed.Objectives = []string{}
	}
	parsed.Error = ""
	return parsed
}

// ExtractLiterature extracts cited bibliographic references from one
// text chunk.
func (s *ExtractionService) ExtractLiterature(ctx context.Context, text string) models.LiteratureResult {
	result := models.LiteratureResult{References: []models.Reference{}}

	response, err := s.generator.Generate(ctx, fmt.Sprintf(literatureTemplate, text))
	if err != nil {
		result.Error = fmt.Sprintf("literature extraction failed: %v", err)
		return result
	}

	var parsed models.LiteratureResult
	if err := llm.DecodeJSON(response, &parsed); err != nil {
		result.Error = fmt.Sprintf("literature response was not valid JSON: %v", err)
		return result
	}

	if parsed.References == nil {
		parsed.References = []models.Reference{}
	}
	parsed.Error = ""
	return parsed
}

// ChunkExtraction holds the three evaluator results for a single chunk.
type ChunkExtraction struct {
	Zonation   models.ZonationResult
	Objectives models.ObjectivesResult
	Literature models.LiteratureResult
}

// Failed reports whether every evaluator failed for this chunk. A chunk
// with at least one usable result still contributes to the merge.
func (c ChunkExtraction) Failed() bool {
	return c.Zonation.Error != "" && c.Objectives.Error != "" && c.Literature.Error != ""
}

// ExtractChunk runs the three extraction evaluators over one chunk.
// The evaluators are independent: each sees the same text and none sees
// another's output.
func (s *ExtractionService) ExtractChunk(ctx context.Context, text string) ChunkExtraction {
	return ChunkExtraction{
		Zonation:   s.ExtractZones(ctx, text),
		Objectives: s.ExtractObjectives(ctx, text),
		Literature: s.ExtractLiterature(ctx, text),
	}
}

// ExtractDocument chunks the document text, runs the extraction stage
// per chunk in sequence, and merges results with exact-structural
// duplicate suppression. A failed chunk is skipped with a warning and
// the merge proceeds with whatever chunks succeeded. The returned error
// is non-nil only when every chunk fails.
func (s *ExtractionService) ExtractDocument(ctx context.Context, text string, chunkSize int) (*models.ExtractionResult, error) {
	if s.generator == nil {
		return nil, errors.New("generator not set")
	}

	chunkSize = models.ClampChunkSize(chunkSize)
	chunks := SplitIntoChunks(text, chunkSize)

	merged := &models.ExtractionResult{
		Zonation:   models.ZonationResult{Zones: []models.Zone{}},
		Objectives: models.ObjectivesResult{Objectives: []string{}},
		Literature: models.LiteratureResult{References: []models.Reference{}},
		ChunkCount: len(chunks),
	}

	// Empty or whitespace-only input yields zero chunks and empty
	// sequences, not an error.
	if len(chunks) == 0 {
		return merged, nil
	}

	for i, chunk := range chunks {
		result := s.ExtractChunk(ctx, chunk)
		if result.Failed() {
			log.Printf("Warning: extraction failed for chunk %d of %d, skipping: %s", i+1, len(chunks), result.Zonation.Error)
			merged.FailedChunks++
			continue
		}

		if result.Zonation.Error == "" {
			merged.Zonation.Zones = mergeZones(merged.Zonation.Zones, result.Zonation.Zones)
		} else {
			log.Printf("Warning: chunk %d of %d: %s", i+1, len(chunks), result.Zonation.Error)
		}
		if result.Objectives.Error == "" {
			merged.Objectives.Objectives = mergeStrings(merged.Objectives.Objectives, result.Objectives.Objectives)
		} else {
			log.Printf("Warning: chunk %d of %d: %s", i+1, len(chunks), result.Objectives.Error)
		}
		if result.Literature.Error == "" {
			merged.Literature.References = mergeReferences(merged.Literature.References, result.Literature.References)
		} else {
			log.Printf("Warning: chunk %d of %d: %s", i+1, len(chunks), result.Literature.Error)
		}
	}

	if merged.FailedChunks == merged.ChunkCount {
		return merged, ErrAllChunksFailed
	}

	return merged, nil
}

// mergeZones appends zones not already present, comparing structurally.
// Near-duplicates with trivial textual variation are kept as distinct
// entries; only verbatim duplicates collapse.
func mergeZones(existing, incoming []models.Zone) []models.Zone {
	for _, zone := range incoming {
		duplicate := false
		for _, have := range existing {
			if have.Equal(zone) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			existing = append(existing, zone)
		}
	}
	return existing
}

func mergeStrings(existing, incoming []string) []string {
	for _, s := range incoming {
		duplicate := false
		for _, have := range existing {
			if have == s {
				duplicate = true
				break
			}
		}
		if !duplicate {
			existing = append(existing, s)
		}
	}
	return existing
}

func mergeReferences(existing, incoming []models.Reference) []models.Reference {
	for _, ref := range incoming {
		duplicate := false
		for _, have := range existing {
			if have == ref {
				duplicate = true
				break
			}
		}
		if !duplicate {
			existing = append(existing, ref)
		}
	}
	return existing
}

// serializeInput renders structured evaluator input as indented JSON for
// prompt interpolation.
func serializeInput(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
