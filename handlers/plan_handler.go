package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"mpagent-backend/models"
	"mpagent-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PlanHandler handles HTTP requests for management plans
type PlanHandler struct {
	planService     *service.PlanService
	pipelineService *service.PipelineService
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(planService *service.PlanService, pipelineService *service.PipelineService) *PlanHandler {
	return &PlanHandler{
		planService:     planService,
		pipelineService: pipelineService,
	}
}

// CreatePlanRequest represents the request body for creating a plan
type CreatePlanRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Title  string `json:"title"`
}

// CreatePlan handles POST /api/plans
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_USER_ID",
				"message": "Invalid user_id format",
			},
		})
		return
	}

	serviceReq := service.CreatePlanRequest{
		UserID: userID,
		Title:  req.Title,
	}

	result, err := h.planService.CreatePlan(c.Request.Context(), serviceReq)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CREATE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    result.Plan,
	})
}

// GetPlan handles GET /api/plans/:id
func (h *PlanHandler) GetPlan(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid plan ID format",
			},
		})
		return
	}

	serviceReq := service.GetPlanRequest{
		ID: id,
	}

	result, err := h.planService.GetPlan(c.Request.Context(), serviceReq)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Plan not found",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Plan,
	})
}

// UpdatePlanRequest represents the request body for updating a plan
type UpdatePlanRequest struct {
	Status       string  `json:"status"`
	Title        string  `json:"title"`
	DocumentText *string `json:"document_text"`
	Model        string  `json:"model"`
	ChunkSize    *int    `json:"chunk_size"`
}

// UpdatePlan handles PUT /api/plans/:id
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid plan ID format",
			},
		})
		return
	}

	// Get existing plan
	getReq := service.GetPlanRequest{ID: id}
	result, err := h.planService.GetPlan(c.Request.Context(), getReq)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Plan not found",
			},
		})
		return
	}

	plan := result.Plan

	var req UpdatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	// Update fields if provided
	if req.Status != "" {
		plan.Status = models.PlanStatus(req.Status)
	}
	if req.Title != "" {
		plan.Title = req.Title
	}
	if req.DocumentText != nil {
		plan.DocumentText = *req.DocumentText
	}
	if req.Model != "" {
		plan.Model = req.Model
	}
	if req.ChunkSize != nil {
		plan.ChunkSize = *req.ChunkSize
	}

	updateReq := service.UpdatePlanRequest{
		Plan: plan,
	}

	updateResult, err := h.planService.UpdatePlan(c.Request.Context(), updateReq)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UPDATE_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    updateResult.Plan,
	})
}

// ListPlans handles GET /api/plans
func (h *PlanHandler) ListPlans(c *gin.Context) {
	userIDStr := c.Query("user_id")
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_USER_ID",
				"message": "Invalid or missing user_id",
			},
		})
		return
	}

	serviceReq := service.ListPlansRequest{
		UserID: userID,
		Limit:  50,
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.PlanStatus(statusStr)
		serviceReq.Status = &status
	}

	result, err := h.planService.ListPlans(c.Request.Context(), serviceReq)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Plans,
	})
}

// Analyze handles POST /api/plans/:id/analyze
func (h *PlanHandler) Analyze(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid plan ID format",
			},
		})
		return
	}

	serviceReq := service.StartAnalysisRequest{
		PlanID: id,
	}

	// Create job (synchronous, fast)
	result, err := h.pipelineService.StartAnalysis(c.Request.Context(), serviceReq)
	if err != nil {
		status := http.StatusInternalServerError
		code := "ANALYSIS_FAILED"
		switch {
		case errors.Is(err, service.ErrPlanNotFound):
			status = http.StatusNotFound
			code = "NOT_FOUND"
		case errors.Is(err, service.ErrMissingDocumentText):
			status = http.StatusBadRequest
			code = "NO_DOCUMENT_TEXT"
		case errors.Is(err, service.ErrAnalysisInProgress):
			status = http.StatusConflict
			code = "ANALYSIS_IN_PROGRESS"
		}
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	// Spawn background goroutine for actual processing
	// Use background context (not request context) to avoid cancellation
	go func() {
		bgCtx := context.Background()
		if err := h.pipelineService.ProcessAnalysis(bgCtx, result.JobID); err != nil {
			// Error is logged and stored in job.ErrorMessage
			// No need to return to HTTP client (they'll poll status)
			log.Printf("Analysis job %s failed: %v", result.JobID, err)
		}
	}()

	// Return immediately (within 100ms)
	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"data": gin.H{
			"job_id":  result.JobID,
			"status":  "pending",
			"message": "Analysis job created. Poll /api/jobs/:id for updates.",
		},
	})
}

// GetJobStatus handles GET /api/jobs/:id
func (h *PlanHandler) GetJobStatus(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid job ID format",
			},
		})
		return
	}

	serviceReq := service.GetJobStatusRequest{
		JobID: id,
	}

	result, err := h.pipelineService.GetJobStatus(c.Request.Context(), serviceReq)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Analysis job not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "RETRIEVAL_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result.Job,
	})
}

// ExportReport handles GET /api/plans/:id/report
func (h *PlanHandler) ExportReport(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid plan ID format",
			},
		})
		return
	}

	serviceReq := service.BuildReportRequest{
		PlanID: id,
	}

	result, err := h.planService.BuildReport(c.Request.Context(), serviceReq)
	if err != nil {
		if errors.Is(err, service.ErrReportNotReady) {
			c.JSON(http.StatusConflict, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "REPORT_NOT_READY",
					"message": "Plan has not been analyzed yet",
				},
			})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NOT_FOUND",
				"message": "Plan not found",
			},
		})
		return
	}

	filename := fmt.Sprintf("mpa_analysis_%s.json", id)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.JSON(http.StatusOK, result.Report)
}
