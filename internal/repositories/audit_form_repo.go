package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"compliflow/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type AuditFormRepository interface {
	Create(ctx context.Context, form *models.AuditForm) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.AuditForm, error)
	UpdateValue(ctx context.Context, id uuid.UUID, value models.JSONB, statusID uuid.UUID) error
	UpdateStatus(ctx context.Context, id, statusID uuid.UUID) error
	SetAIAnalysis(ctx context.Context, id uuid.UUID, analysis models.JSONB) error

	// ListByAudit returns every form joined to the audit, with status code
	// and template structure resolved.
	ListByAudit(ctx context.Context, auditID uuid.UUID) ([]*models.AuditFormDetail, error)

	// Link inserts an audit_audit_form row joining formID to auditID.
	Link(ctx context.Context, auditID, formID uuid.UUID) error

	// UnlinkAll removes every join row for auditID (audit destroy path).
	UnlinkAll(ctx context.Context, auditID uuid.UUID) error

	// HasRejectedForms reports whether any form joined to the audit carries
	// the rejected form status.
	HasRejectedForms(ctx context.Context, auditID uuid.UUID) (bool, error)

	// CurrentAuditForForm resolves the latest-version audit a form belongs
	// to. This is the single home of the "latest owner of a form" join.
	CurrentAuditForForm(ctx context.Context, formID uuid.UUID) (*models.AuditDetail, error)

	// CountByAudit returns total and submitted form counts for an audit,
	// used to recompute progress.
	CountByAudit(ctx context.Context, auditID uuid.UUID) (total int, submitted int, err error)
}

type auditFormRepo struct {
	db DBTX
}

func NewAuditFormRepo(db DBTX) AuditFormRepository {
	return &auditFormRepo{db: db}
}

func marshalJSONB(m models.JSONB) ([]byte, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (r *auditFormRepo) Create(ctx context.Context, form *models.AuditForm) error {
	valueBytes, err := marshalJSONB(form.Value)
	if err != nil {
		return fmt.Errorf("failed to marshal form value: %w", err)
	}
	analysisBytes, err := marshalJSONB(form.AIAnalysis)
	if err != nil {
		return fmt.Errorf("failed to marshal ai_analysis: %w", err)
	}

	query := `
		INSERT INTO audit_forms (id, template_id, name, value, status_id, ai_analysis, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err = r.db.Exec(ctx, query, form.ID, form.TemplateID, form.Name, valueBytes, form.StatusID, analysisBytes)
	return err
}

func (r *auditFormRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.AuditForm, error) {
	form := &models.AuditForm{}
	var valueBytes, analysisBytes []byte
	query := `
		SELECT id, template_id, name, value, status_id, ai_analysis, created_at, updated_at
		FROM audit_forms
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&form.ID, &form.TemplateID, &form.Name, &valueBytes, &form.StatusID, &analysisBytes, &form.CreatedAt, &form.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(valueBytes, &form.Value); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(analysisBytes, &form.AIAnalysis); err != nil {
		return nil, err
	}
	return form, nil
}

func unmarshalJSONB(data []byte, dst *models.JSONB) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

func (r *auditFormRepo) UpdateValue(ctx context.Context, id uuid.UUID, value models.JSONB, statusID uuid.UUID) error {
	valueBytes, err := marshalJSONB(value)
	if err != nil {
		return fmt.Errorf("failed to marshal form value: %w", err)
	}

	query := `
		UPDATE audit_forms
		SET value = $1, status_id = $2, updated_at = NOW()
		WHERE id = $3
	`
	_, err = r.db.Exec(ctx, query, valueBytes, statusID, id)
	return err
}

func (r *auditFormRepo) UpdateStatus(ctx context.Context, id, statusID uuid.UUID) error {
	query := `
		UPDATE audit_forms
		SET status_id = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, statusID, id)
	return err
}

func (r *auditFormRepo) SetAIAnalysis(ctx context.Context, id uuid.UUID, analysis models.JSONB) error {
	analysisBytes, err := marshalJSONB(analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal ai_analysis: %w", err)
	}

	query := `
		UPDATE audit_forms
		SET ai_analysis = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err = r.db.Exec(ctx, query, analysisBytes, id)
	return err
}

func (r *auditFormRepo) ListByAudit(ctx context.Context, auditID uuid.UUID) ([]*models.AuditFormDetail, error) {
	query := `
		SELECT f.id, f.template_id, f.name, f.value, f.status_id, f.ai_analysis, f.created_at, f.updated_at,
		       s.code, t.structure
		FROM audit_forms f
		JOIN audit_audit_form aaf ON aaf.audit_form_id = f.id
		LEFT JOIN statuses s ON s.id = f.status_id
		JOIN form_templates t ON t.id = f.template_id
		WHERE aaf.audit_id = $1
		ORDER BY f.created_at ASC
	`
	rows, err := r.db.Query(ctx, query, auditID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var forms []*models.AuditFormDetail
	for rows.Next() {
		d := &models.AuditFormDetail{}
		var valueBytes, analysisBytes, structureBytes []byte
		if err := rows.Scan(&d.ID, &d.TemplateID, &d.Name, &valueBytes, &d.StatusID, &analysisBytes, &d.CreatedAt, &d.UpdatedAt, &d.StatusCode, &structureBytes); err != nil {
			return nil, err
		}
		if err := unmarshalJSONB(valueBytes, &d.Value); err != nil {
			return nil, err
		}
		if err := unmarshalJSONB(analysisBytes, &d.AIAnalysis); err != nil {
			return nil, err
		}
		if err := unmarshalJSONB(structureBytes, &d.TemplateStructure); err != nil {
			return nil, err
		}
		forms = append(forms, d)
	}
	return forms, rows.Err()
}

func (r *auditFormRepo) Link(ctx context.Context, auditID, formID uuid.UUID) error {
	query := `
		INSERT INTO audit_audit_form (audit_id, audit_form_id, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, auditID, formID)
	return err
}

func (r *auditFormRepo) UnlinkAll(ctx context.Context, auditID uuid.UUID) error {
	query := `DELETE FROM audit_audit_form WHERE audit_id = $1`
	_, err := r.db.Exec(ctx, query, auditID)
	return err
}

func (r *auditFormRepo) HasRejectedForms(ctx context.Context, auditID uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM audit_audit_form aaf
			JOIN audit_forms f ON f.id = aaf.audit_form_id
			JOIN statuses s ON s.id = f.status_id
			WHERE aaf.audit_id = $1 AND s.code = $2
		)
	`
	err := r.db.QueryRow(ctx, query, auditID, models.StatusFormRejected).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *auditFormRepo) CurrentAuditForForm(ctx context.Context, formID uuid.UUID) (*models.AuditDetail, error) {
	query := `
		SELECT` + auditDetailColumns + auditDetailJoins + `
		JOIN audit_audit_form aaf ON aaf.audit_id = a.id
		WHERE aaf.audit_form_id = $1
		AND (
			NOT EXISTS (SELECT 1 FROM audit_versions v WHERE v.audit_id = a.id)
			OR a.id IN (
				SELECT DISTINCT ON (first_audit_id) audit_id
				FROM audit_versions
				ORDER BY first_audit_id, audit_version DESC
			)
		)
		ORDER BY a.created_at DESC
		LIMIT 1
	`
	row := r.db.QueryRow(ctx, query, formID)
	d := &models.AuditDetail{}
	err := row.Scan(
		&d.ID, &d.OutletID, &d.RequirementID, &d.UserID, &d.StatusID, &d.StartTime, &d.DueDate, &d.Progress, &d.CreatedAt, &d.UpdatedAt,
		&d.OutletName, &d.UserName, &d.StatusCode, &d.StatusName, &d.RequirementTitle,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

func (r *auditFormRepo) CountByAudit(ctx context.Context, auditID uuid.UUID) (int, int, error) {
	var total, submitted int
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE s.code IN ($2, $3))
		FROM audit_audit_form aaf
		JOIN audit_forms f ON f.id = aaf.audit_form_id
		LEFT JOIN statuses s ON s.id = f.status_id
		WHERE aaf.audit_id = $1
	`
	err := r.db.QueryRow(ctx, query, auditID, models.StatusFormSubmitted, models.StatusFormApproved).Scan(&total, &submitted)
	if err != nil {
		return 0, 0, err
	}
	return total, submitted, nil
}
