package models

import (
	"database/sql/driver"
	"encoding/json"
)

// ProtectionCategory is one of the four MPA Guide protection levels, or
// CategoryUndetermined when the regulation text is too thin to classify.
type ProtectionCategory string

const (
	CategoryFullyProtected     ProtectionCategory = "Fully Protected"
	CategoryHighlyProtected    ProtectionCategory = "Highly Protected"
	CategoryLightlyProtected   ProtectionCategory = "Lightly Protected"
	CategoryMinimallyProtected ProtectionCategory = "Minimally Protected"
	CategoryUndetermined       ProtectionCategory = "undetermined"
)

// ZoneEvaluation is the MPA Guide verdict for a single zone.
type ZoneEvaluation struct {
	ZoneName      string             `json:"zone_name"`
	Category      ProtectionCategory `json:"category"`
	Justification string             `json:"justification"`
}

// MPAGuideResult holds the per-zone protection-category classification.
type MPAGuideResult struct {
	ZoneEvaluations []ZoneEvaluation `json:"zone_evaluations"`
	Error           string           `json:"error,omitempty"`
}

// SMARTCriteria holds the five independent boolean judgments for one
// objective.
type SMARTCriteria struct {
	Specific   bool `json:"specific"`
	Measurable bool `json:"measurable"`
	Achievable bool `json:"achievable"`
	Relevant   bool `json:"relevant"`
	TimeBound  bool `json:"time_bound"`
}

// SMARTEvaluation is the goal-quality verdict for a single objective.
// Objective must match the extracted objective string exactly; the report
// joins on it. Score is produced by the model directly and may disagree
// with the count of true criteria. Both are exposed as returned.
type SMARTEvaluation struct {
	Objective   string        `json:"objective"`
	Criteria    SMARTCriteria `json:"smart"`
	Score       int           `json:"score"`
	Feasibility string        `json:"feasibility"`
}

// SMARTResult holds the per-objective SMART evaluations.
type SMARTResult struct {
	ObjectiveEvaluations []SMARTEvaluation `json:"objective_evaluations"`
	Error                string            `json:"error,omitempty"`
}

// CongruenceEntry is the literature-congruence verdict for one objective.
type CongruenceEntry struct {
	Objective             string   `json:"objective"`
	SupportedByLiterature bool     `json:"supported_by_literature"`
	RelatedThemes         []string `json:"related_themes"`
	RelatedReferences     []string `json:"related_references"`
	Commentary            string   `json:"commentary"`
}

// CongruenceResult holds per-objective verdicts plus the document-level
// list of themes missing from the cited literature.
type CongruenceResult struct {
	Congruence   []CongruenceEntry `json:"congruence"`
	ThematicGaps []string          `json:"thematic_gaps"`
	Error        string            `json:"error,omitempty"`
}

// AnalysisResult aggregates the three analysis lenses. Each lens carries
// its own error marker; one lens failing leaves the others intact.
type AnalysisResult struct {
	MPAGuide   MPAGuideResult   `json:"mpa_guide_evaluation"`
	SMART      SMARTResult      `json:"smart_evaluation"`
	Congruence CongruenceResult `json:"congruence_analysis"`
}

// Value implements driver.Valuer for JSONB
func (a AnalysisResult) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner for JSONB
func (a *AnalysisResult) Scan(value interface{}) error {
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

	return json.Unmarshal(bytes, a)
}
