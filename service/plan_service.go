package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mpagent-backend/llm"
	"mpagent-backend/models"
	"mpagent-backend/repository"

	"github.com/google/uuid"
)

// PlanService handles business logic for plans
type PlanService struct {
	planRepo *repository.PlanRepository
}

// PlanServiceOption is a functional option for PlanService
type PlanServiceOption func(*PlanService)

// WithPlanRepository sets the plan repository
func WithPlanRepository(repo *repository.PlanRepository) PlanServiceOption {
	return func(s *PlanService) {
		s.planRepo = repo
	}
}

// NewPlanService creates a new plan service
func NewPlanService(opts ...PlanServiceOption) *PlanService {
	s := &PlanService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var ErrReportNotReady = errors.New("plan has no analysis results to report")

// CreatePlanRequest represents a request to create a plan
type CreatePlanRequest struct {
	UserID uuid.UUID
	Title  string
}

// CreatePlanResult represents the result of creating a plan
type CreatePlanResult struct {
	Plan *models.Plan
}

// CreatePlan creates a new plan with default pipeline settings
func (s *PlanService) CreatePlan(ctx context.Context, req CreatePlanRequest) (*CreatePlanResult, error) {
	if s.planRepo == nil {
		return nil, errors.New("plan repository not set")
	}

	plan := &models.Plan{
		UserID:    req.UserID,
		Status:    models.StatusDraft,
		Title:     req.Title,
		Model:     llm.DefaultModel,
		ChunkSize: models.DefaultChunkSize,
	}

	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, err
	}

	return &CreatePlanResult{Plan: plan}, nil
}

// GetPlanRequest represents a request to get a plan
type GetPlanRequest struct {
	ID uuid.UUID
}

// GetPlanResult represents the result of getting a plan
type GetPlanResult struct {
	Plan *models.Plan
}

// GetPlan retrieves a plan by ID
func (s *PlanService) GetPlan(ctx context.Context, req GetPlanRequest) (*GetPlanResult, error) {
	if s.planRepo == nil {
		return nil, errors.New("plan repository not set")
	}

	plan, err := s.planRepo.GetByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	return &GetPlanResult{Plan: plan}, nil
}

// UpdatePlanRequest represents a request to update a plan
type UpdatePlanRequest struct {
	Plan *models.Plan
}

// UpdatePlanResult represents the result of updating a plan
type UpdatePlanResult struct {
	Plan *models.Plan
}

// UpdatePlan updates a plan, normalizing its pipeline settings. The
// model must be one of the accepted identifiers; the chunk size is
// clamped into the allowed character range.
func (s *PlanService) UpdatePlan(ctx context.Context, req UpdatePlanRequest) (*UpdatePlanResult, error) {
	if s.planRepo == nil {
		return nil, errors.New("plan repository not set")
	}

	plan := req.Plan
	if plan.Model == "" {
		plan.Model = llm.DefaultModel
	}
	if !llm.AcceptedModel(plan.Model) {
		return nil, fmt.Errorf("%w: %s", llm.ErrUnknownModel, plan.Model)
	}
	plan.ChunkSize = models.ClampChunkSize(plan.ChunkSize)

	if err := s.planRepo.Update(ctx, plan); err != nil {
		return nil, err
	}

	return &UpdatePlanResult{Plan: plan}, nil
}

// ListPlansRequest represents a request to list plans
type ListPlansRequest struct {
	UserID uuid.UUID
	Status *models.PlanStatus
	Limit  int
	Offset int
}

// ListPlansResult represents the result of listing plans
type ListPlansResult struct {
	Plans []*models.Plan
}

// ListPlans lists plans for a user
func (s *PlanService) ListPlans(ctx context.Context, req ListPlansRequest) (*ListPlansResult, error) {
	if s.planRepo == nil {
		return nil, errors.New("plan repository not set")
	}

	plans, err := s.planRepo.ListByUserID(ctx, req.UserID, req.Status, req.Limit, req.Offset)
	if err != nil {
		return nil, err
	}

	return &ListPlansResult{Plans: plans}, nil
}

// BuildReportRequest represents a request to build a plan report
type BuildReportRequest struct {
	PlanID uuid.UUID
}

// BuildReportResult represents the result of building a plan report
type BuildReportResult struct {
	Report *models.Report
}

// BuildReport assembles the downloadable report from a plan's stored
// extraction and analysis results.
func (s *PlanService) BuildReport(ctx context.Context, req BuildReportRequest) (*BuildReportResult, error) {
	if s.planRepo == nil {
		return nil, errors.New("plan repository not set")
	}

	plan, err := s.planRepo.GetByID(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}

	if plan.Extraction == nil || plan.Analysis == nil {
		return nil, ErrReportNotReady
	}

	report := &models.Report{
		PlanID:      plan.ID,
		Title:       plan.Title,
		Model:       plan.Model,
		GeneratedAt: time.Now().UTC(),
		Extraction:  *plan.Extraction,
		Analysis:    *plan.Analysis,
	}

	return &BuildReportResult{Report: report}, nil
}
