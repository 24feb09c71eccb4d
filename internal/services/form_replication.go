package services

import (
	"context"
	"fmt"

	"compliflow/internal/models"
	"compliflow/internal/repositories"

	"github.com/google/uuid"
)

// FormReplicator carries an audit's forms over to its successor when a
// rejection spawns a new version. Rejected forms are duplicated so their
// content stays frozen on the old audit as review evidence; every other
// form is relinked and shared between the two versions through the join
// table.
type FormReplicator interface {
	// Replicate runs against q (a transaction during the rejection flow)
	// and returns how many forms were duplicated.
	Replicate(ctx context.Context, q repositories.DBTX, sourceAuditID, targetAuditID uuid.UUID) (int, error)
}

type formReplicator struct {
	statuses models.StatusCatalog
}

func NewFormReplicator(statuses models.StatusCatalog) FormReplicator {
	return &formReplicator{statuses: statuses}
}

func (fr *formReplicator) Replicate(ctx context.Context, q repositories.DBTX, sourceAuditID, targetAuditID uuid.UUID) (int, error) {
	formRepo := repositories.NewAuditFormRepo(q)

	forms, err := formRepo.ListByAudit(ctx, sourceAuditID)
	if err != nil {
		return 0, fmt.Errorf("failed to list forms for audit %s: %w", sourceAuditID, err)
	}

	duplicated := 0
	for _, form := range forms {
		if fr.isRejected(form) {
			// Fresh editable copy for the successor; the original form
			// stays joined to the source audit untouched.
			pendingStatus := fr.statuses.FormPending
			dup := &models.AuditForm{
				ID:         uuid.New(),
				TemplateID: form.TemplateID,
				Name:       form.Name,
				Value:      form.Value,
				StatusID:   &pendingStatus,
			}
			if err := formRepo.Create(ctx, dup); err != nil {
				return duplicated, fmt.Errorf("failed to duplicate form %s: %w", form.ID, err)
			}
			if err := formRepo.Link(ctx, targetAuditID, dup.ID); err != nil {
				return duplicated, fmt.Errorf("failed to link duplicated form %s: %w", dup.ID, err)
			}
			duplicated++
			continue
		}

		if err := formRepo.Link(ctx, targetAuditID, form.ID); err != nil {
			return duplicated, fmt.Errorf("failed to relink form %s: %w", form.ID, err)
		}
	}

	return duplicated, nil
}

// isRejected checks the joined status code. A form with no discoverable
// status takes the relink path; replication never blocks on missing status.
func (fr *formReplicator) isRejected(form *models.AuditFormDetail) bool {
	return form.StatusCode != nil && *form.StatusCode == models.StatusFormRejected
}
