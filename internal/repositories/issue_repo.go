package repositories

import (
	"context"
	"time"

	"compliflow/internal/models"

	"github.com/google/uuid"
)

type IssueRepository interface {
	Create(ctx context.Context, issue *models.Issue) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Issue, error)
	UpdateStatus(ctx context.Context, id, statusID uuid.UUID) error

	// ListByAudit returns issues raised against any form joined to the
	// audit, each with its corrective actions nested.
	ListByAudit(ctx context.Context, auditID uuid.UUID) ([]*models.IssueDetail, error)

	// ListOverdue returns unresolved issues whose due date has passed.
	ListOverdue(ctx context.Context, asOf time.Time) ([]*models.IssueDetail, error)

	CreateAction(ctx context.Context, action *models.CorrectiveAction) error
	GetAction(ctx context.Context, id uuid.UUID) (*models.CorrectiveAction, error)
	UpdateAction(ctx context.Context, action *models.CorrectiveAction) error
	ListActionsByIssue(ctx context.Context, issueID uuid.UUID) ([]*models.CorrectiveAction, error)
}

type issueRepo struct {
	db DBTX
}

func NewIssueRepo(db DBTX) IssueRepository {
	return &issueRepo{db: db}
}

func (r *issueRepo) Create(ctx context.Context, issue *models.Issue) error {
	query := `
		INSERT INTO issues (id, audit_form_id, description, severity, due_date, status_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, issue.ID, issue.AuditFormID, issue.Description, issue.Severity, issue.DueDate, issue.StatusID)
	return err
}

func (r *issueRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Issue, error) {
	issue := &models.Issue{}
	query := `
		SELECT id, audit_form_id, description, severity, due_date, status_id, created_at, updated_at
		FROM issues
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&issue.ID, &issue.AuditFormID, &issue.Description, &issue.Severity, &issue.DueDate, &issue.StatusID, &issue.CreatedAt, &issue.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return issue, nil
}

func (r *issueRepo) UpdateStatus(ctx context.Context, id, statusID uuid.UUID) error {
	query := `
		UPDATE issues
		SET status_id = $1, updated_at = NOW()
		WHERE id = $2
	`
	_, err := r.db.Exec(ctx, query, statusID, id)
	return err
}

func (r *issueRepo) scanIssueDetails(ctx context.Context, query string, args ...any) ([]*models.IssueDetail, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var issues []*models.IssueDetail
	for rows.Next() {
		d := &models.IssueDetail{}
		if err := rows.Scan(&d.ID, &d.AuditFormID, &d.Description, &d.Severity, &d.DueDate, &d.StatusID, &d.CreatedAt, &d.UpdatedAt, &d.StatusCode); err != nil {
			return nil, err
		}
		issues = append(issues, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, issue := range issues {
		actions, err := r.ListActionsByIssue(ctx, issue.ID)
		if err != nil {
			return nil, err
		}
		issue.CorrectiveActions = actions
	}
	return issues, nil
}

func (r *issueRepo) ListByAudit(ctx context.Context, auditID uuid.UUID) ([]*models.IssueDetail, error) {
	query := `
		SELECT i.id, i.audit_form_id, i.description, i.severity, i.due_date, i.status_id, i.created_at, i.updated_at, s.code
		FROM issues i
		JOIN statuses s ON s.id = i.status_id
		JOIN audit_audit_form aaf ON aaf.audit_form_id = i.audit_form_id
		WHERE aaf.audit_id = $1
		ORDER BY i.created_at ASC
	`
	return r.scanIssueDetails(ctx, query, auditID)
}

func (r *issueRepo) ListOverdue(ctx context.Context, asOf time.Time) ([]*models.IssueDetail, error) {
	query := `
		SELECT i.id, i.audit_form_id, i.description, i.severity, i.due_date, i.status_id, i.created_at, i.updated_at, s.code
		FROM issues i
		JOIN statuses s ON s.id = i.status_id
		WHERE i.due_date < $1 AND s.code NOT IN ($2, $3)
		ORDER BY i.due_date ASC
	`
	return r.scanIssueDetails(ctx, query, asOf, models.StatusIssueResolved, models.StatusIssueClosed)
}

func (r *issueRepo) CreateAction(ctx context.Context, action *models.CorrectiveAction) error {
	query := `
		INSERT INTO corrective_actions (id, issue_id, description, completion_date, verification_date, status_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, action.ID, action.IssueID, action.Description, action.CompletionDate, action.VerificationDate, action.StatusID)
	return err
}

func (r *issueRepo) GetAction(ctx context.Context, id uuid.UUID) (*models.CorrectiveAction, error) {
	action := &models.CorrectiveAction{}
	query := `
		SELECT id, issue_id, description, completion_date, verification_date, status_id, created_at, updated_at
		FROM corrective_actions
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&action.ID, &action.IssueID, &action.Description, &action.CompletionDate, &action.VerificationDate, &action.StatusID, &action.CreatedAt, &action.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return action, nil
}

func (r *issueRepo) UpdateAction(ctx context.Context, action *models.CorrectiveAction) error {
	query := `
		UPDATE corrective_actions
		SET description = $1, completion_date = $2, verification_date = $3, status_id = $4, updated_at = NOW()
		WHERE id = $5
	`
	_, err := r.db.Exec(ctx, query, action.Description, action.CompletionDate, action.VerificationDate, action.StatusID, action.ID)
	return err
}

func (r *issueRepo) ListActionsByIssue(ctx context.Context, issueID uuid.UUID) ([]*models.CorrectiveAction, error) {
	query := `
		SELECT id, issue_id, description, completion_date, verification_date, status_id, created_at, updated_at
		FROM corrective_actions
		WHERE issue_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []*models.CorrectiveAction
	for rows.Next() {
		action := &models.CorrectiveAction{}
		if err := rows.Scan(&action.ID, &action.IssueID, &action.Description, &action.CompletionDate, &action.VerificationDate, &action.StatusID, &action.CreatedAt, &action.UpdatedAt); err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}
