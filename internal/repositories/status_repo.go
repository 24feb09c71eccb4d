package repositories

import (
	"context"
	"fmt"

	"compliflow/internal/models"

	"github.com/google/uuid"
)

type StatusRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Status, error)
	GetByCode(ctx context.Context, code string) (*models.Status, error)
	List(ctx context.Context, category string) ([]*models.Status, error)

	// ResolveCatalog loads every workflow status id by code. Called once at
	// startup; a missing code is a deployment error.
	ResolveCatalog(ctx context.Context) (models.StatusCatalog, error)
}

type statusRepo struct {
	db DBTX
}

func NewStatusRepo(db DBTX) StatusRepository {
	return &statusRepo{db: db}
}

func (r *statusRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Status, error) {
	status := &models.Status{}
	query := `
		SELECT id, code, name, category, created_at, updated_at
		FROM statuses
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&status.ID, &status.Code, &status.Name, &status.Category, &status.CreatedAt, &status.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (r *statusRepo) GetByCode(ctx context.Context, code string) (*models.Status, error) {
	status := &models.Status{}
	query := `
		SELECT id, code, name, category, created_at, updated_at
		FROM statuses
		WHERE code = $1
	`
	err := r.db.QueryRow(ctx, query, code).Scan(&status.ID, &status.Code, &status.Name, &status.Category, &status.CreatedAt, &status.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return status, nil
}

func (r *statusRepo) List(ctx context.Context, category string) ([]*models.Status, error) {
	query := `
		SELECT id, code, name, category, created_at, updated_at
		FROM statuses
		WHERE ($1 = '' OR category = $1)
		ORDER BY category, code
	`
	rows, err := r.db.Query(ctx, query, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []*models.Status
	for rows.Next() {
		status := &models.Status{}
		if err := rows.Scan(&status.ID, &status.Code, &status.Name, &status.Category, &status.CreatedAt, &status.UpdatedAt); err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, rows.Err()
}

func (r *statusRepo) ResolveCatalog(ctx context.Context) (models.StatusCatalog, error) {
	var catalog models.StatusCatalog

	targets := map[string]*uuid.UUID{
		models.StatusDraft:             &catalog.Draft,
		models.StatusPending:           &catalog.Pending,
		models.StatusApproved:          &catalog.Approved,
		models.StatusRejected:          &catalog.Rejected,
		models.StatusRevisionRequested: &catalog.RevisionRequested,
		models.StatusFormPending:       &catalog.FormPending,
		models.StatusFormSubmitted:     &catalog.FormSubmitted,
		models.StatusFormApproved:      &catalog.FormApproved,
		models.StatusFormRejected:      &catalog.FormRejected,
		models.StatusIssueOpen:         &catalog.IssueOpen,
		models.StatusIssueInProgress:   &catalog.IssueInProgress,
		models.StatusIssueResolved:     &catalog.IssueResolved,
		models.StatusIssueClosed:       &catalog.IssueClosed,
	}

	statuses, err := r.List(ctx, "")
	if err != nil {
		return catalog, err
	}

	seen := make(map[string]bool, len(targets))
	for _, status := range statuses {
		if target, ok := targets[status.Code]; ok {
			*target = status.ID
			seen[status.Code] = true
		}
	}

	for code := range targets {
		if !seen[code] {
			return catalog, fmt.Errorf("status catalog is missing code %q", code)
		}
	}

	return catalog, nil
}
