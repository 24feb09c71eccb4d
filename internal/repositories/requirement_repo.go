package repositories

import (
	"context"

	"compliflow/internal/models"

	"github.com/google/uuid"
)

type RequirementRepository interface {
	Create(ctx context.Context, req *models.ComplianceRequirement) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ComplianceRequirement, error)
	Update(ctx context.Context, req *models.ComplianceRequirement) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.ComplianceRequirement, error)
}

type requirementRepo struct {
	db DBTX
}

func NewRequirementRepo(db DBTX) RequirementRepository {
	return &requirementRepo{db: db}
}

func (r *requirementRepo) Create(ctx context.Context, req *models.ComplianceRequirement) error {
	query := `
		INSERT INTO compliance_requirements (id, title, description, frequency, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, req.ID, req.Title, req.Description, req.Frequency)
	return err
}

func (r *requirementRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ComplianceRequirement, error) {
	req := &models.ComplianceRequirement{}
	query := `
		SELECT id, title, description, frequency, created_at, updated_at
		FROM compliance_requirements
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&req.ID, &req.Title, &req.Description, &req.Frequency, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (r *requirementRepo) Update(ctx context.Context, req *models.ComplianceRequirement) error {
	query := `
		UPDATE compliance_requirements
		SET title = $1, description = $2, frequency = $3, updated_at = NOW()
		WHERE id = $4
	`
	_, err := r.db.Exec(ctx, query, req.Title, req.Description, req.Frequency, req.ID)
	return err
}

func (r *requirementRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM compliance_requirements WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *requirementRepo) List(ctx context.Context, limit, offset int) ([]*models.ComplianceRequirement, error) {
	query := `
		SELECT id, title, description, frequency, created_at, updated_at
		FROM compliance_requirements
		ORDER BY title ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []*models.ComplianceRequirement
	for rows.Next() {
		req := &models.ComplianceRequirement{}
		if err := rows.Scan(&req.ID, &req.Title, &req.Description, &req.Frequency, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}
