package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"compliflow/internal/models"

	"github.com/google/uuid"
)

type FormTemplateRepository interface {
	Create(ctx context.Context, template *models.FormTemplate) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.FormTemplate, error)
	Update(ctx context.Context, template *models.FormTemplate) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.FormTemplate, error)
}

type formTemplateRepo struct {
	db DBTX
}

func NewFormTemplateRepo(db DBTX) FormTemplateRepository {
	return &formTemplateRepo{db: db}
}

func (r *formTemplateRepo) Create(ctx context.Context, template *models.FormTemplate) error {
	structureBytes, err := json.Marshal(template.Structure)
	if err != nil {
		return fmt.Errorf("failed to marshal template structure: %w", err)
	}

	query := `
		INSERT INTO form_templates (id, name, structure, requirement_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	_, err = r.db.Exec(ctx, query, template.ID, template.Name, structureBytes, template.RequirementID)
	return err
}

func (r *formTemplateRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.FormTemplate, error) {
	template := &models.FormTemplate{}
	var structureBytes []byte
	query := `
		SELECT id, name, structure, requirement_id, created_at, updated_at
		FROM form_templates
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&template.ID, &template.Name, &structureBytes, &template.RequirementID, &template.CreatedAt, &template.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(structureBytes) > 0 {
		if err := json.Unmarshal(structureBytes, &template.Structure); err != nil {
			return nil, err
		}
	}
	return template, nil
}

func (r *formTemplateRepo) Update(ctx context.Context, template *models.FormTemplate) error {
	structureBytes, err := json.Marshal(template.Structure)
	if err != nil {
		return fmt.Errorf("failed to marshal template structure: %w", err)
	}

	query := `
		UPDATE form_templates
		SET name = $1, structure = $2, requirement_id = $3, updated_at = NOW()
		WHERE id = $4
	`
	_, err = r.db.Exec(ctx, query, template.Name, structureBytes, template.RequirementID, template.ID)
	return err
}

func (r *formTemplateRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM form_templates WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *formTemplateRepo) List(ctx context.Context, limit, offset int) ([]*models.FormTemplate, error) {
	query := `
		SELECT id, name, structure, requirement_id, created_at, updated_at
		FROM form_templates
		ORDER BY name ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []*models.FormTemplate
	for rows.Next() {
		template := &models.FormTemplate{}
		var structureBytes []byte
		if err := rows.Scan(&template.ID, &template.Name, &structureBytes, &template.RequirementID, &template.CreatedAt, &template.UpdatedAt); err != nil {
			return nil, err
		}
		if len(structureBytes) > 0 {
			if err := json.Unmarshal(structureBytes, &template.Structure); err != nil {
				return nil, err
			}
		}
		templates = append(templates, template)
	}
	return templates, rows.Err()
}
