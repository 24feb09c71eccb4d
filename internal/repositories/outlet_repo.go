package repositories

import (
	"context"

	"compliflow/internal/models"

	"github.com/google/uuid"
)

type OutletRepository interface {
	Create(ctx context.Context, outlet *models.Outlet) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Outlet, error)
	Update(ctx context.Context, outlet *models.Outlet) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, limit, offset int) ([]*models.Outlet, error)
}

type outletRepo struct {
	db DBTX
}

func NewOutletRepo(db DBTX) OutletRepository {
	return &outletRepo{db: db}
}

func (r *outletRepo) Create(ctx context.Context, outlet *models.Outlet) error {
	query := `
		INSERT INTO outlets (id, name, location, contact_email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	_, err := r.db.Exec(ctx, query, outlet.ID, outlet.Name, outlet.Location, outlet.ContactEmail)
	return err
}

func (r *outletRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Outlet, error) {
	outlet := &models.Outlet{}
	query := `
		SELECT id, name, location, contact_email, created_at, updated_at
		FROM outlets
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, id).Scan(&outlet.ID, &outlet.Name, &outlet.Location, &outlet.ContactEmail, &outlet.CreatedAt, &outlet.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return outlet, nil
}

func (r *outletRepo) Update(ctx context.Context, outlet *models.Outlet) error {
	query := `
		UPDATE outlets
		SET name = $1, location = $2, contact_email = $3, updated_at = NOW()
		WHERE id = $4
	`
	_, err := r.db.Exec(ctx, query, outlet.Name, outlet.Location, outlet.ContactEmail, outlet.ID)
	return err
}

func (r *outletRepo) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM outlets WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	return err
}

func (r *outletRepo) List(ctx context.Context, limit, offset int) ([]*models.Outlet, error) {
	query := `
		SELECT id, name, location, contact_email, created_at, updated_at
		FROM outlets
		ORDER BY name ASC
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outlets []*models.Outlet
	for rows.Next() {
		outlet := &models.Outlet{}
		if err := rows.Scan(&outlet.ID, &outlet.Name, &outlet.Location, &outlet.ContactEmail, &outlet.CreatedAt, &outlet.UpdatedAt); err != nil {
			return nil, err
		}
		outlets = append(outlets, outlet)
	}
	return outlets, rows.Err()
}
