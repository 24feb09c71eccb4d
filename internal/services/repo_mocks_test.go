package services

import (
	"context"
	"time"

	"compliflow/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock repositories shared by the service test suites.

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Create(ctx context.Context, audit *models.Audit) error {
	args := m.Called(ctx, audit)
	return args.Error(0)
}

func (m *MockAuditRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Audit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Audit), args.Error(1)
}

func (m *MockAuditRepository) GetDetailByID(ctx context.Context, id uuid.UUID) (*models.AuditDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuditDetail), args.Error(1)
}

func (m *MockAuditRepository) UpdateStatus(ctx context.Context, id, statusID uuid.UUID) error {
	args := m.Called(ctx, id, statusID)
	return args.Error(0)
}

func (m *MockAuditRepository) UpdateProgress(ctx context.Context, id uuid.UUID, progress int) error {
	args := m.Called(ctx, id, progress)
	return args.Error(0)
}

func (m *MockAuditRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAuditRepository) ListCurrent(ctx context.Context, filters models.AuditFilters) ([]*models.AuditDetail, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditDetail), args.Error(1)
}

func (m *MockAuditRepository) ListAllDetailed(ctx context.Context) ([]*models.AuditDetail, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditDetail), args.Error(1)
}

type MockAuditVersionRepository struct {
	mock.Mock
}

func (m *MockAuditVersionRepository) RecordFirstVersion(ctx context.Context, auditID uuid.UUID) error {
	args := m.Called(ctx, auditID)
	return args.Error(0)
}

func (m *MockAuditVersionRepository) RecordNextVersion(ctx context.Context, firstAuditID, newAuditID uuid.UUID) (int, error) {
	args := m.Called(ctx, firstAuditID, newAuditID)
	return args.Int(0), args.Error(1)
}

func (m *MockAuditVersionRepository) GetChainInfo(ctx context.Context, auditID uuid.UUID) (*models.AuditVersion, error) {
	args := m.Called(ctx, auditID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuditVersion), args.Error(1)
}

func (m *MockAuditVersionRepository) MaxVersion(ctx context.Context, firstAuditID uuid.UUID) (int, error) {
	args := m.Called(ctx, firstAuditID)
	return args.Int(0), args.Error(1)
}

func (m *MockAuditVersionRepository) LatestVersionIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockAuditVersionRepository) AllVersionedIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockAuditVersionRepository) ListAll(ctx context.Context) ([]*models.AuditVersion, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditVersion), args.Error(1)
}

func (m *MockAuditVersionRepository) DeleteByAuditID(ctx context.Context, auditID uuid.UUID) error {
	args := m.Called(ctx, auditID)
	return args.Error(0)
}

type MockAuditFormRepository struct {
	mock.Mock
}

func (m *MockAuditFormRepository) Create(ctx context.Context, form *models.AuditForm) error {
	args := m.Called(ctx, form)
	return args.Error(0)
}

func (m *MockAuditFormRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AuditForm, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuditForm), args.Error(1)
}

func (m *MockAuditFormRepository) UpdateValue(ctx context.Context, id uuid.UUID, value models.JSONB, statusID uuid.UUID) error {
	args := m.Called(ctx, id, value, statusID)
	return args.Error(0)
}

func (m *MockAuditFormRepository) UpdateStatus(ctx context.Context, id, statusID uuid.UUID) error {
	args := m.Called(ctx, id, statusID)
	return args.Error(0)
}

func (m *MockAuditFormRepository) SetAIAnalysis(ctx context.Context, id uuid.UUID, analysis models.JSONB) error {
	args := m.Called(ctx, id, analysis)
	return args.Error(0)
}

func (m *MockAuditFormRepository) ListByAudit(ctx context.Context, auditID uuid.UUID) ([]*models.AuditFormDetail, error) {
	args := m.Called(ctx, auditID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.AuditFormDetail), args.Error(1)
}

func (m *MockAuditFormRepository) Link(ctx context.Context, auditID, formID uuid.UUID) error {
	args := m.Called(ctx, auditID, formID)
	return args.Error(0)
}

func (m *MockAuditFormRepository) UnlinkAll(ctx context.Context, auditID uuid.UUID) error {
	args := m.Called(ctx, auditID)
	return args.Error(0)
}

func (m *MockAuditFormRepository) HasRejectedForms(ctx context.Context, auditID uuid.UUID) (bool, error) {
	args := m.Called(ctx, auditID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuditFormRepository) CurrentAuditForForm(ctx context.Context, formID uuid.UUID) (*models.AuditDetail, error) {
	args := m.Called(ctx, formID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.AuditDetail), args.Error(1)
}

func (m *MockAuditFormRepository) CountByAudit(ctx context.Context, auditID uuid.UUID) (int, int, error) {
	args := m.Called(ctx, auditID)
	return args.Int(0), args.Int(1), args.Error(2)
}

type MockIssueRepository struct {
	mock.Mock
}

func (m *MockIssueRepository) Create(ctx context.Context, issue *models.Issue) error {
	args := m.Called(ctx, issue)
	return args.Error(0)
}

func (m *MockIssueRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Issue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Issue), args.Error(1)
}

func (m *MockIssueRepository) UpdateStatus(ctx context.Context, id, statusID uuid.UUID) error {
	args := m.Called(ctx, id, statusID)
	return args.Error(0)
}

func (m *MockIssueRepository) ListByAudit(ctx context.Context, auditID uuid.UUID) ([]*models.IssueDetail, error) {
	args := m.Called(ctx, auditID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.IssueDetail), args.Error(1)
}

func (m *MockIssueRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]*models.IssueDetail, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.IssueDetail), args.Error(1)
}

func (m *MockIssueRepository) CreateAction(ctx context.Context, action *models.CorrectiveAction) error {
	args := m.Called(ctx, action)
	return args.Error(0)
}

func (m *MockIssueRepository) GetAction(ctx context.Context, id uuid.UUID) (*models.CorrectiveAction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CorrectiveAction), args.Error(1)
}

func (m *MockIssueRepository) UpdateAction(ctx context.Context, action *models.CorrectiveAction) error {
	args := m.Called(ctx, action)
	return args.Error(0)
}

func (m *MockIssueRepository) ListActionsByIssue(ctx context.Context, issueID uuid.UUID) ([]*models.CorrectiveAction, error) {
	args := m.Called(ctx, issueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.CorrectiveAction), args.Error(1)
}

type MockOutletRepository struct {
	mock.Mock
}

func (m *MockOutletRepository) Create(ctx context.Context, outlet *models.Outlet) error {
	args := m.Called(ctx, outlet)
	return args.Error(0)
}

func (m *MockOutletRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Outlet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Outlet), args.Error(1)
}

func (m *MockOutletRepository) Update(ctx context.Context, outlet *models.Outlet) error {
	args := m.Called(ctx, outlet)
	return args.Error(0)
}

func (m *MockOutletRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutletRepository) List(ctx context.Context, limit, offset int) ([]*models.Outlet, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Outlet), args.Error(1)
}

type MockActivityLogRepository struct {
	mock.Mock
}

func (m *MockActivityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockActivityLogRepository) LatestReviewers(ctx context.Context, entityType string) (map[uuid.UUID]string, error) {
	args := m.Called(ctx, entityType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]string), args.Error(1)
}

func (m *MockActivityLogRepository) ListByEntity(ctx context.Context, entityType string, entityID uuid.UUID, limit, offset int) ([]*models.ActivityLog, error) {
	args := m.Called(ctx, entityType, entityID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ActivityLog), args.Error(1)
}

type MockStatusRepository struct {
	mock.Mock
}

func (m *MockStatusRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Status, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Status), args.Error(1)
}

func (m *MockStatusRepository) GetByCode(ctx context.Context, code string) (*models.Status, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Status), args.Error(1)
}

func (m *MockStatusRepository) List(ctx context.Context, category string) ([]*models.Status, error) {
	args := m.Called(ctx, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Status), args.Error(1)
}

func (m *MockStatusRepository) ResolveCatalog(ctx context.Context) (models.StatusCatalog, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.StatusCatalog), args.Error(1)
}
