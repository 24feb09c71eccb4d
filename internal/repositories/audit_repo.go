package repositories

import (
	"context"

	"compliflow/internal/models"

	"github.com/google/uuid"
)

type AuditRepository interface {
	Create(ctx context.Context, audit *models.Audit) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Audit, error)
	GetDetailByID(ctx context.Context, id uuid.UUID) (*models.AuditDetail, error)
	UpdateStatus(ctx context.Context, id, statusID uuid.UUID) error
	UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ListCurrent returns only latest-version audits: those holding the max
	// version of their chain plus every audit with no chain row at all. The
	// latest filter lives here so listings never duplicate the join logic.
	ListCurrent(ctx context.Context, filters models.AuditFilters) ([]*models.AuditDetail, error)

	// ListAllDetailed returns every audit with display relations resolved,
	// the raw input of history reconstruction.
	ListAllDetailed(ctx context.Context) ([]*models.AuditDetail, error)
}

type auditRepo struct {
	db DBTX
}

func NewAuditRepo(db DBTX) AuditRepository {
	return &auditRepo{db: db}
}

func (r *auditRepo) Create(ctx context.Context, audit *models.Audit) error {
	query := `
		INSERT INTO audits (id, outlet_id, requirement_id, user_id, status_id, start_time, due_date, progress, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, audit.ID, audit.OutletID, audit.RequirementID, audit.UserID, audit.StatusID, audit.StartTime, audit.DueDate, audit.Progress)
	return err
}

func (r *auditRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Audit, error) {
	audit := &models.Audit{}
	query := `
		SELECT id, outlet_id, requirement_id, user_id, status_id, start_time, due_date, progress, created_at, updated_at
		FROM audits
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&audit.ID, &audit.OutletID, &audit.RequirementID, &audit.UserID, &audit.StatusID, &audit.StartTime, &audit.DueDate, &audit.Progress, &audit.CreatedAt, &audit.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return audit, nil
}

func (r *auditRepo) UpdateStatus(ctx context.Context, id, statusID uuid.UUID) error {
	query := `
		UPDATE audits
		SET status_id = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, statusID, id)
	return err
}

func (r *auditRepo) UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error {
	query := `
		UPDATE audits
		SET progress = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, progress, id)
	return err
}

func (r *auditRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM audits WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

const auditDetailColumns = `
		a.id, a.outlet_id, a.requirement_id, a.user_id, a.status_id, a.start_time, a.due_date, a.progress, a.created_at, a.updated_at,
		o.name, u.name, s.code, s.name, cr.title
`

const auditDetailJoins = `
		FROM audits a
		JOIN outlets o ON o.id = a.outlet_id
		JOIN users u ON u.id = a.user_id
		JOIN statuses s ON s.id = a.status_id
		JOIN compliance_requirements cr ON cr.id = a.requirement_id
`

func scanAuditDetailRows(rows interface {
	Scan(dest ...any) error
}) (*models.AuditDetail, error) {
	d := &models.AuditDetail{}
	err := rows.Scan(
		&d.ID, &d.OutletID, &d.RequirementID, &d.UserID, &d.StatusID, &d.StartTime, &d.DueDate, &d.Progress, &d.CreatedAt, &d.UpdatedAt,
		&d.OutletName, &d.UserName, &d.StatusCode, &d.StatusName, &d.RequirementTitle,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *auditRepo) GetDetailByID(ctx context.Context, id uuid.UUID) (*models.AuditDetail, error) {
	query := `
		SELECT` + auditDetailColumns + auditDetailJoins + `
		WHERE a.id = $1
	`
	return scanAuditDetailRows(r.db.QueryRow(ctx, query, id))
}

func (r *auditRepo) ListCurrent(ctx context.Context, filters models.AuditFilters) ([]*models.AuditDetail, error) {
	query := `
		SELECT` + auditDetailColumns + auditDetailJoins + `
		WHERE (
			NOT EXISTS (SELECT 1 FROM audit_versions v WHERE v.audit_id = a.id)
			OR a.id IN (
				SELECT DISTINCT ON (first_audit_id) audit_id
				FROM audit_versions
				ORDER BY first_audit_id, audit_version DESC
			)
		)
		AND ($1::uuid IS NULL OR a.status_id = $1)
		AND ($2::uuid IS NULL OR a.outlet_id = $2)
		ORDER BY a.updated_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, filters.StatusID, filters.OutletID, filters.Limit, filters.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var audits []*models.AuditDetail
	for rows.Next() {
		d, err := scanAuditDetailRows(rows)
		if err != nil {
			return nil, err
		}
		audits = append(audits, d)
	}
	return audits, rows.Err()
}

func (r *auditRepo) ListAllDetailed(ctx context.Context) ([]*models.AuditDetail, error) {
	query := `
		SELECT` + auditDetailColumns + auditDetailJoins + `
		ORDER BY a.created_at ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var audits []*models.AuditDetail
	for rows.Next() {
		d, err := scanAuditDetailRows(rows)
		if err != nil {
			return nil, err
		}
		audits = append(audits, d)
	}
	return audits, rows.Err()
}
