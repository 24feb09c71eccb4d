package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"compliflow/internal/models"

	"github.com/google/uuid"
)

type ActivityLogRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error

	// LatestReviewers returns, per entity id, the user name on the most
	// recent "review" activity row for the given entity type.
	LatestReviewers(ctx context.Context, entityType string) (map[uuid.UUID]string, error)

	ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]*models.ActivityLog, error)
}

type activityLogRepo struct {
	db DBTX
}

func NewActivityLogRepo(db DBTX) ActivityLogRepository {
	return &activityLogRepo{db: db}
}

func (r *activityLogRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()

	var detailsBytes []byte
	var err error
	if entry.Details != nil {
		detailsBytes, err = json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal activity details: %w", err)
		}
	}

	query := `
		INSERT INTO activity_logs (id, user_id, action, entity_type, entity_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.Exec(ctx, query, entry.ID, entry.UserID, entry.Action, entry.EntityType, entry.EntityID, detailsBytes, entry.CreatedAt)
	return err
}

func (r *activityLogRepo) LatestReviewers(ctx context.Context, entityType string) (map[uuid.UUID]string, error) {
	query := `
		SELECT DISTINCT ON (al.entity_id) al.entity_id, u.name
		FROM activity_logs al
		JOIN users u ON u.id = al.user_id
		WHERE al.action = $1 AND al.entity_type = $2
		ORDER BY al.entity_id, al.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, models.ActivityReview, entityType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviewers := make(map[uuid.UUID]string)
	for rows.Next() {
		var entityID uuid.UUID
		var name string
		if err := rows.Scan(&entityID, &name); err != nil {
			return nil, err
		}
		reviewers[entityID] = name
	}
	return reviewers, rows.Err()
}

func (r *activityLogRepo) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]*models.ActivityLog, error) {
	query := `
		SELECT id, user_id, action, entity_type, entity_id, details, created_at
		FROM activity_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, entityType, entityID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*models.ActivityLog
	for rows.Next() {
		entry := &models.ActivityLog{}
		var detailsBytes []byte
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Action, &entry.EntityType, &entry.EntityID, &detailsBytes, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if len(detailsBytes) > 0 {
			if err := json.Unmarshal(detailsBytes, &entry.Details); err != nil {
				return nil, err
			}
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
