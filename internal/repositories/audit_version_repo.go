package repositories

import (
	"context"
	"errors"
	"fmt"

	"compliflow/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AuditVersionRepository is the version chain store. One row per audit that
// participates in a rejection chain; audits absent from the table are
// implicitly version 1 of their own singleton chain.
type AuditVersionRepository interface {
	// RecordFirstVersion inserts (auditID, auditID, 1). The primary key on
	// audit_id turns a concurrent duplicate into a conflict error.
	RecordFirstVersion(ctx context.Context, auditID uuid.UUID) error

	// RecordNextVersion appends newAuditID to the chain rooted at
	// firstAuditID with version max+1. Calling it on an empty chain is a
	// programming error and fails.
	RecordNextVersion(ctx context.Context, firstAuditID, newAuditID uuid.UUID) (int, error)

	// GetChainInfo returns the chain row for auditID, or the unversioned
	// sentinel (version 1, Versioned=false, first = itself) if none exists.
	GetChainInfo(ctx context.Context, auditID uuid.UUID) (*models.AuditVersion, error)

	// MaxVersion returns the highest version recorded for the chain rooted
	// at firstAuditID, or 0 when the chain has no rows.
	MaxVersion(ctx context.Context, firstAuditID uuid.UUID) (int, error)

	// LatestVersionIDs returns, for every chain, the audit id holding the
	// maximum version.
	LatestVersionIDs(ctx context.Context) ([]uuid.UUID, error)

	// AllVersionedIDs returns every audit id present anywhere in the table.
	AllVersionedIDs(ctx context.Context) ([]uuid.UUID, error)

	// ListAll returns every chain row ordered by chain then version.
	ListAll(ctx context.Context) ([]*models.AuditVersion, error)

	// DeleteByAuditID removes an audit's chain row (audit destroy path).
	DeleteByAuditID(ctx context.Context, auditID uuid.UUID) error
}

type auditVersionRepo struct {
	db DBTX
}

func NewAuditVersionRepo(db DBTX) AuditVersionRepository {
	return &auditVersionRepo{db: db}
}

func (r *auditVersionRepo) RecordFirstVersion(ctx context.Context, auditID uuid.UUID) error {
	query := `
		INSERT INTO audit_versions (audit_id, first_audit_id, audit_version, created_at, updated_at)
		VALUES ($1, $1, 1, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, auditID)
	return err
}

func (r *auditVersionRepo) RecordNextVersion(ctx context.Context, firstAuditID, newAuditID uuid.UUID) (int, error) {
	maxVersion, err := r.MaxVersion(ctx, firstAuditID)
	if err != nil {
		return 0, err
	}
	if maxVersion == 0 {
		return 0, fmt.Errorf("no chain rows for first audit %s: record the first version before appending", firstAuditID)
	}

	next := maxVersion + 1
	insert := `
		INSERT INTO audit_versions (audit_id, first_audit_id, audit_version, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
	`
	if _, err := r.db.Exec(ctx, insert, newAuditID, firstAuditID, next); err != nil {
		return 0, err
	}
	return next, nil
}

func (r *auditVersionRepo) GetChainInfo(ctx context.Context, auditID uuid.UUID) (*models.AuditVersion, error) {
	av := &models.AuditVersion{}
	query := `
		SELECT audit_id, first_audit_id, audit_version
		FROM audit_versions
		WHERE audit_id = $1
	`
	err := r.db.QueryRow(ctx, query, auditID).Scan(&av.AuditID, &av.FirstAuditID, &av.AuditVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &models.AuditVersion{
				AuditID:      auditID,
				FirstAuditID: auditID,
				AuditVersion: 1,
				Versioned:    false,
			}, nil
		}
		return nil, err
	}
	av.Versioned = true
	return av, nil
}

func (r *auditVersionRepo) MaxVersion(ctx context.Context, firstAuditID uuid.UUID) (int, error) {
	var maxVersion *int
	query := `
		SELECT MAX(audit_version)
		FROM audit_versions
		WHERE first_audit_id = $1
	`
	if err := r.db.QueryRow(ctx, query, firstAuditID).Scan(&maxVersion); err != nil {
		return 0, err
	}
	if maxVersion == nil {
		return 0, nil
	}
	return *maxVersion, nil
}

func (r *auditVersionRepo) LatestVersionIDs(ctx context.Context) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT ON (first_audit_id) audit_id
		FROM audit_versions
		ORDER BY first_audit_id, audit_version DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *auditVersionRepo) AllVersionedIDs(ctx context.Context) ([]uuid.UUID, error) {
	query := `SELECT audit_id FROM audit_versions`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *auditVersionRepo) ListAll(ctx context.Context) ([]*models.AuditVersion, error) {
	query := `
		SELECT audit_id, first_audit_id, audit_version
		FROM audit_versions
		ORDER BY first_audit_id, audit_version ASC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []*models.AuditVersion
	for rows.Next() {
		av := &models.AuditVersion{Versioned: true}
		if err := rows.Scan(&av.AuditID, &av.FirstAuditID, &av.AuditVersion); err != nil {
			return nil, err
		}
		versions = append(versions, av)
	}
	return versions, rows.Err()
}

func (r *auditVersionRepo) DeleteByAuditID(ctx context.Context, auditID uuid.UUID) error {
	query := `DELETE FROM audit_versions WHERE audit_id = $1`
	_, err := r.db.Exec(ctx, query, auditID)
	return err
}
