package repository

import (
	"context"
	"fmt"
	"time"

	"mpagent-backend/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PlanRepository handles database operations for plans
type PlanRepository struct {
	db *pgxpool.Pool
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *pgxpool.Pool) *PlanRepository {
	return &PlanRepository{db: db}
}

// Create creates a new plan
func (r *PlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	query := `
		INSERT INTO plans (
			user_id, status, title, document_file_id, document_text,
			model, chunk_size, extraction, analysis
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9
		) RETURNING id, created_at, updated_at`

	err := r.db.QueryRow(
		ctx, query,
		plan.UserID,
		plan.Status,
		plan.Title,
		plan.DocumentFileID,
		plan.DocumentText,
		plan.Model,
		plan.ChunkSize,
		plan.Extraction,
		plan.Analysis,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)

	return err
}

// GetByID retrieves a plan by ID
func (r *PlanRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Plan, error) {
	plan := &models.Plan{}
	query := `
		SELECT id, user_id, status, title, document_file_id, document_text,
			model, chunk_size, extraction, analysis,
			created_at, updated_at, completed_at
		FROM plans
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&plan.ID,
		&plan.UserID,
		&plan.Status,
		&plan.Title,
		&plan.DocumentFileID,
		&plan.DocumentText,
		&plan.Model,
		&plan.ChunkSize,
		&plan.Extraction,
		&plan.Analysis,
		&plan.CreatedAt,
		&plan.UpdatedAt,
		&plan.CompletedAt,
	)

	if err != nil {
		return nil, err
	}

	return plan, nil
}

// Update updates a plan
func (r *PlanRepository) Update(ctx context.Context, plan *models.Plan) error {
	query := `
		UPDATE plans SET
			status = $2,
			title = $3,
			document_file_id = $4,
			document_text = $5,
			model = $6,
			chunk_size = $7,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(
		ctx, query,
		plan.ID,
		plan.Status,
		plan.Title,
		plan.DocumentFileID,
		plan.DocumentText,
		plan.Model,
		plan.ChunkSize,
	).Scan(&plan.UpdatedAt)

	return err
}

// UpdateExtraction stores the merged extraction result for a plan
func (r *PlanRepository) UpdateExtraction(ctx context.Context, id uuid.UUID, extraction *models.ExtractionResult) error {
	query := `
		UPDATE plans SET
			extraction = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, extraction)
	return err
}

// UpdateAnalysis stores the analysis result for a plan
func (r *PlanRepository) UpdateAnalysis(ctx context.Context, id uuid.UUID, analysis *models.AnalysisResult) error {
	query := `
		UPDATE plans SET
			analysis = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, analysis)
	return err
}

// UpdateStatus updates only the status, setting completed_at when the
// plan reaches the completed status
func (r *PlanRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.PlanStatus) error {
	if status == models.StatusCompleted {
		now := time.Now()
		query := `
			UPDATE plans SET
				status = $2,
				completed_at = $3,
				updated_at = $3
			WHERE id = $1`
		_, err := r.db.Exec(ctx, query, id, status, now)
		return err
	}

	query := `
		UPDATE plans SET
			status = $2,
			updated_at = NOW()
		WHERE id = $1`

	_, err := r.db.Exec(ctx, query, id, status)
	return err
}

// ListByUserID retrieves all plans for a user
func (r *PlanRepository) ListByUserID(ctx context.Context, userID uuid.UUID, status *models.PlanStatus, limit, offset int) ([]*models.Plan, error) {
	query := `
		SELECT id, user_id, status, title, document_file_id, document_text,
			model, chunk_size, extraction, analysis,
			created_at, updated_at, completed_at
		FROM plans
		WHERE user_id = $1`

	args := []interface{}{userID}
	argIndex := 2

	if status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIndex)
		args = append(args, *status)
		argIndex++
	}

	query += " ORDER BY created_at DESC"

	if limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, limit)
		argIndex++
		if offset > 0 {
			query += fmt.Sprintf(" OFFSET $%d", argIndex)
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		plan := &models.Plan{}
		err := rows.Scan(
			&plan.ID,
			&plan.UserID,
			&plan.Status,
			&plan.Title,
			&plan.DocumentFileID,
			&plan.DocumentText,
			&plan.Model,
			&plan.ChunkSize,
			&plan.Extraction,
			&plan.Analysis,
			&plan.CreatedAt,
			&plan.UpdatedAt,
			&plan.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}

	return plans, rows.Err()
}

// Delete deletes a plan
func (r *PlanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM plans WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}
