package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"mpagent-backend/llm"
	"mpagent-backend/models"
	"mpagent-backend/repository"

	"github.com/google/uuid"
)

// PipelineService drives one full extract-then-analyze run over a plan,
// recorded as an analysis job that clients poll while the pipeline runs
// in a background goroutine.
type PipelineService struct {
	planRepo *repository.PlanRepository
	jobRepo  *repository.AnalysisJobRepository
	factory  llm.Factory
}

// PipelineServiceOption is a functional option for PipelineService
type PipelineServiceOption func(*PipelineService)

// PipelineWithPlanRepository sets the plan repository
func PipelineWithPlanRepository(repo *repository.PlanRepository) PipelineServiceOption {
	return func(s *PipelineService) {
		s.planRepo = repo
	}
}

// PipelineWithAnalysisJobRepository sets the analysis job repository
func PipelineWithAnalysisJobRepository(repo *repository.AnalysisJobRepository) PipelineServiceOption {
	return func(s *PipelineService) {
		s.jobRepo = repo
	}
}

// PipelineWithGeneratorFactory sets the language-model factory
func PipelineWithGeneratorFactory(factory llm.Factory) PipelineServiceOption {
	return func(s *PipelineService) {
		s.factory = factory
	}
}

// NewPipelineService creates a new pipeline service
func NewPipelineService(opts ...PipelineServiceOption) *PipelineService {
	s := &PipelineService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	ErrPlanNotFound        = errors.New("plan not found")
	ErrMissingDocumentText = errors.New("plan has no document text to analyze")
	ErrAnalysisInProgress  = errors.New("an analysis is already running for this plan")
	ErrJobCreationFailed   = errors.New("failed to create analysis job")
	ErrJobNotFound         = errors.New("analysis job not found")
)

// Pipeline step names, in run order.
const (
	StepExtraction = "Extracting Document Data"
	StepMPAGuide   = "MPA Guide Classification"
	StepSMART      = "SMART Criteria Evaluation"
	StepCongruence = "Literature Congruence Analysis"
	StepReport     = "Assembling Report"
)

// StartAnalysisRequest represents a request to start an analysis run
type StartAnalysisRequest struct {
	PlanID uuid.UUID
}

// StartAnalysisResult represents the result of creating an analysis job
type StartAnalysisResult struct {
	JobID uuid.UUID
}

// GetJobStatusRequest represents a request to get job status
type GetJobStatusRequest struct {
	JobID uuid.UUID
}

// GetJobStatusResult represents the result of getting job status
type GetJobStatusResult struct {
	Job *models.AnalysisJob
}

// StartAnalysis validates the plan and creates a pending analysis job.
// The actual pipeline runs in ProcessAnalysis; this method returns fast
// so the HTTP handler can respond immediately.
func (s *PipelineService) StartAnalysis(
	ctx context.Context,
	req StartAnalysisRequest,
) (*StartAnalysisResult, error) {
	if s.planRepo == nil {
		return nil, errors.New("plan repository not set")
	}
	if s.jobRepo == nil {
		return nil, errors.New("analysis job repository not set")
	}

	plan, err := s.planRepo.GetByID(ctx, req.PlanID)
	if err != nil {
		return nil, ErrPlanNotFound
	}

	// Document ingestion failures surface before the pipeline runs: a
	// plan with no usable text never reaches extraction.
	if strings.TrimSpace(plan.DocumentText) == "" {
		return nil, ErrMissingDocumentText
	}

	if plan.Model != "" && !llm.AcceptedModel(plan.Model) {
		return nil, fmt.Errorf("%w: %s", llm.ErrUnknownModel, plan.Model)
	}

	// One active run per plan. The trigger is rejected, not queued.
	latest, err := s.jobRepo.GetLatestByPlanID(ctx, req.PlanID)
	if err == nil && latest.Active() {
		return nil, ErrAnalysisInProgress
	}

	job := &models.AnalysisJob{
		PlanID: req.PlanID,
		Status: models.JobStatusPending,
		Steps:  initializeSteps(),
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, ErrJobCreationFailed
	}

	return &StartAnalysisResult{JobID: job.ID}, nil
}

// GetJobStatus retrieves the status of an analysis job
func (s *PipelineService) GetJobStatus(
	ctx context.Context,
	req GetJobStatusRequest,
) (*GetJobStatusResult, error) {
	if s.jobRepo == nil {
		return nil, errors.New("analysis job repository not set")
	}

	job, err := s.jobRepo.GetByID(ctx, req.JobID)
	if err != nil {
		return nil, ErrJobNotFound
	}

	return &GetJobStatusResult{Job: job}, nil
}

// initializeSteps creates the pending step list for a new run
func initializeSteps() models.AnalysisSteps {
	names := []string{StepExtraction, StepMPAGuide, StepSMART, StepCongruence, StepReport}

	steps := make(models.AnalysisSteps, 0, len(names))
	for _, name := range names {
		steps = append(steps, models.AnalysisStep{
			Name:   name,
			Status: "pending",
		})
	}
	return steps
}

// ProcessAnalysis performs the pipeline work in the background. Chunked
// extraction runs first; the three analysis evaluators follow, each
// isolated so one failing leaves the others' results intact. Only a
// total extraction failure (every chunk failed) fails the job.
func (s *PipelineService) ProcessAnalysis(
	ctx context.Context,
	jobID uuid.UUID,
) error {
	if s.jobRepo == nil {
		return errors.New("analysis job repository not set")
	}
	if s.planRepo == nil {
		return errors.New("plan repository not set")
	}
	if s.factory == nil {
		return errors.New("generator factory not set")
	}

	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load analysis job: %w", err)
	}

	plan, err := s.planRepo.GetByID(ctx, job.PlanID)
	if err != nil {
		s.markJobFailed(ctx, jobID, "failed to load plan: "+err.Error())
		return err
	}

	if err := s.jobRepo.UpdateStatus(ctx, jobID, models.JobStatusInProgress); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	if err := s.planRepo.UpdateStatus(ctx, plan.ID, models.StatusInProgress); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update plan status: "+err.Error())
		return err
	}

	generator, err := s.factory.GeneratorFor(plan.Model)
	if err != nil {
		s.markJobFailed(ctx, jobID, "failed to configure model: "+err.Error())
		return err
	}

	// Extraction stage: chunk, extract per chunk, merge.
	if err := s.updateStepStatus(ctx, jobID, StepExtraction, "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	extractor := NewExtractionService(ExtractionWithGenerator(generator))
	extraction, err := extractor.ExtractDocument(ctx, plan.DocumentText, plan.ChunkSize)
	if err != nil {
		s.updateStepStatus(ctx, jobID, StepExtraction, "failed")
		s.markJobFailed(ctx, jobID, fmt.Sprintf("extraction failed: %v", err))
		return fmt.Errorf("extraction failed: %w", err)
	}
	if extraction.FailedChunks > 0 {
		log.Printf("Warning: plan %s: %d of %d chunks failed, continuing with partial extraction", plan.ID, extraction.FailedChunks, extraction.ChunkCount)
	}

	if err := s.planRepo.UpdateExtraction(ctx, plan.ID, extraction); err != nil {
		s.markJobFailed(ctx, jobID, "failed to store extraction: "+err.Error())
		return err
	}
	if err := s.updateStepStatus(ctx, jobID, StepExtraction, "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	// Analysis stage: three independent evaluators over the merged
	// extraction. An evaluator failure is recorded in its own result
	// and never aborts the run.
	analyzer := NewAnalysisService(AnalysisWithGenerator(generator))
	analysis := models.AnalysisResult{}

	if err := s.updateStepStatus(ctx, jobID, StepMPAGuide, "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}
	analysis.MPAGuide = analyzer.EvaluateZones(ctx, extraction.Zonation)
	if analysis.MPAGuide.Error != "" {
		log.Printf("Warning: plan %s: %s", plan.ID, analysis.MPAGuide.Error)
	}
	if err := s.updateStepStatus(ctx, jobID, StepMPAGuide, "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	if err := s.updateStepStatus(ctx, jobID, StepSMART, "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}
	analysis.SMART = analyzer.EvaluateObjectives(ctx, extraction.Objectives)
	if analysis.SMART.Error != "" {
		log.Printf("Warning: plan %s: %s", plan.ID, analysis.SMART.Error)
	}
	if err := s.updateStepStatus(ctx, jobID, StepSMART, "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	if err := s.updateStepStatus(ctx, jobID, StepCongruence, "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}
	analysis.Congruence = analyzer.AnalyzeCongruence(ctx, extraction.Objectives, extraction.Literature)
	if analysis.Congruence.Error != "" {
		log.Printf("Warning: plan %s: %s", plan.ID, analysis.Congruence.Error)
	}
	if err := s.updateStepStatus(ctx, jobID, StepCongruence, "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	// Store the combined result and close out the run.
	if err := s.updateStepStatus(ctx, jobID, StepReport, "in_progress"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}
	if err := s.planRepo.UpdateAnalysis(ctx, plan.ID, &analysis); err != nil {
		s.markJobFailed(ctx, jobID, "failed to store analysis: "+err.Error())
		return err
	}
	if err := s.planRepo.UpdateStatus(ctx, plan.ID, models.StatusCompleted); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update plan status: "+err.Error())
		return err
	}
	if err := s.updateStepStatus(ctx, jobID, StepReport, "completed"); err != nil {
		s.markJobFailed(ctx, jobID, "failed to update step: "+err.Error())
		return err
	}

	if err := s.jobRepo.Complete(ctx, jobID); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	return nil
}

// updateStepStatus updates the status of one named step in the job
func (s *PipelineService) updateStepStatus(ctx context.Context, jobID uuid.UUID, stepName, status string) error {
	job, err := s.jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return err
	}

	steps := job.Steps
	var currentStep string
	if job.CurrentStep != nil {
		currentStep = *job.CurrentStep
	}

	for i := range steps {
		if steps[i].Name == stepName {
			steps[i].Status = status
			if status == "in_progress" {
				currentStep = stepName
			}
			break
		}
	}

	return s.jobRepo.UpdateProgress(ctx, jobID, currentStep, steps)
}

// markJobFailed marks a job as failed with an error message
func (s *PipelineService) markJobFailed(ctx context.Context, jobID uuid.UUID, errorMessage string) {
	if err := s.jobRepo.Fail(ctx, jobID, errorMessage); err != nil {
		log.Printf("Warning: failed to mark job %s as failed: %v", jobID, err)
	}
}
