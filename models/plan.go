package models

import (
	"time"

	"github.com/google/uuid"
)

// PlanStatus represents the status of a management plan under review
type PlanStatus string

const (
	StatusDraft      PlanStatus = "draft"
	StatusInProgress PlanStatus = "in_progress"
	StatusCompleted  PlanStatus = "completed"
	StatusArchived   PlanStatus = "archived"
)

// Chunk-size bounds in characters. The threshold is measured in
// characters even though the original tooling called it tokens.
const (
	MinChunkSize     = 500
	MaxChunkSize     = 2000
	DefaultChunkSize = 1000
)

// ClampChunkSize forces a chunk size into the accepted range, applying
// the default when unset.
func ClampChunkSize(size int) int {
	if size == 0 {
		return DefaultChunkSize
	}
	if size < MinChunkSize {
		return MinChunkSize
	}
	if size > MaxChunkSize {
		return MaxChunkSize
	}
	return size
}

// Plan represents one management-plan review session. It is the explicit
// session-scoped context object: document text, pipeline settings, and
// the extraction/analysis results all hang off this row.
type Plan struct {
	ID     uuid.UUID  `json:"id"`
	UserID uuid.UUID  `json:"user_id"`
	Status PlanStatus `json:"status"`

	// Intake
	Title          string     `json:"title"`
	DocumentFileID *uuid.UUID `json:"document_file_id"`

	// Source text, already extracted from the PDF by an upstream step.
	DocumentText string `json:"document_text"`

	// Pipeline settings
	Model     string `json:"model"`
	ChunkSize int    `json:"chunk_size"`

	// Pipeline output
	Extraction *ExtractionResult `json:"extraction"`
	Analysis   *AnalysisResult   `json:"analysis"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
