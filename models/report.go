package models

import (
	"time"

	"github.com/google/uuid"
)

// Report is the downloadable document combining extraction and analysis
// results for one plan. It is a convenience export; its shape carries no
// compatibility guarantee across versions.
type Report struct {
	PlanID      uuid.UUID        `json:"plan_id"`
	Title       string           `json:"title"`
	Model       string           `json:"model"`
	GeneratedAt time.Time        `json:"generated_at"`
	Extraction  ExtractionResult `json:"extraction"`
	Analysis    AnalysisResult   `json:"analysis"`
}
