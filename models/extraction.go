package models

import (
	"database/sql/driver"
	"encoding/json"
)

// NotSpecified is the sentinel value extractors emit when a reference
// component is absent from the source text.
const NotSpecified = "not specified"

// Zone represents a management-plan zone with its geographic limits and
// the regulations that apply inside it. Zones are compared structurally
// when merging extraction results across chunks.
type Zone struct {
	Name        string   `json:"name"`
	Limits      string   `json:"limits"`
	Regulations []string `json:"regulations"`
}

// Equal reports whether two zones are structurally identical. Trivial
// textual variation (casing, whitespace) does NOT make zones equal; only
// verbatim duplicates are suppressed during the merge.
func (z Zone) Equal(other Zone) bool {
	if z.Name != other.Name || z.Limits != other.Limits {
		return false
	}
	if len(z.Regulations) != len(other.Regulations) {
		return false
	}
	for i := range z.Regulations {
		if z.Regulations[i] != other.Regulations[i] {
			return false
		}
	}
	return true
}

// Reference represents a bibliographic citation extracted from the plan.
// Components that could not be identified carry the NotSpecified sentinel.
type Reference struct {
	Authors string `json:"authors"`
	Title   string `json:"title"`
	Source  string `json:"source"`
	Year    string `json:"year"`
}

// ZonationResult holds the zones extracted from one text chunk or the
// merged document. Error is the evaluator's failure marker: when set, the
// zone list is the declared empty shape for this evaluator.
type ZonationResult struct {
	Zones []Zone `json:"zones"`
	Error string `json:"error,omitempty"`
}

// ObjectivesResult holds conservation objectives verbatim from the source
// text. Downstream analysis joins on these exact strings.
type ObjectivesResult struct {
	Objectives []string `json:"objectives"`
	Error      string   `json:"error,omitempty"`
}

// LiteratureResult holds the bibliographic references extracted from the plan.
type LiteratureResult struct {
	References []Reference `json:"references"`
	Error      string      `json:"error,omitempty"`
}

// ExtractionResult aggregates the three extraction targets after the
// per-chunk merge. ChunkCount and FailedChunks record the partial-result
// outcome of the chunk loop.
type ExtractionResult struct {
	Zonation     ZonationResult   `json:"zonation"`
	Objectives   ObjectivesResult `json:"objectives"`
	Literature   LiteratureResult `json:"literature"`
	ChunkCount   int              `json:"chunk_count"`
	FailedChunks int              `json:"failed_chunks"`
}

// Value implements driver.Valuer for JSONB
func (e ExtractionResult) Value() (driver.Value, error) {
	return json.Marshal(e)
}

// Scan implements sql.Scanner for JSONB
func (e *ExtractionResult) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	if len(bytes) == 0 {
		return nil
	}

	return json.Unmarshal(bytes, e)
}
