package services

import (
	"context"
	"testing"
	"time"

	"compliflow/internal/common"
	"compliflow/internal/models"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type AuditServiceTestSuite struct {
	suite.Suite
	db           pgxmock.PgxPoolIface
	statuses     models.StatusCatalog
	auditRepo    *MockAuditRepository
	versionRepo  *MockAuditVersionRepository
	formRepo     *MockAuditFormRepository
	statusRepo   *MockStatusRepository
	outletRepo   *MockOutletRepository
	activityRepo *MockActivityLogRepository
	service      AuditService
	context      context.Context
}

func (suite *AuditServiceTestSuite) SetupTest() {
	db, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.db = db

	suite.statuses = models.StatusCatalog{
		Draft:             uuid.New(),
		Pending:           uuid.New(),
		Approved:          uuid.New(),
		Rejected:          uuid.New(),
		RevisionRequested: uuid.New(),
	}
	suite.auditRepo = new(MockAuditRepository)
	suite.versionRepo = new(MockAuditVersionRepository)
	suite.formRepo = new(MockAuditFormRepository)
	suite.statusRepo = new(MockStatusRepository)
	suite.outletRepo = new(MockOutletRepository)
	suite.activityRepo = new(MockActivityLogRepository)
	suite.service = NewAuditService(db, suite.statuses, suite.auditRepo, suite.versionRepo, suite.formRepo, suite.statusRepo, suite.outletRepo, suite.activityRepo, nil)
	suite.context = context.Background()
}

func (suite *AuditServiceTestSuite) TearDownTest() {
	suite.db.Close()
}

func TestAuditServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuditServiceTestSuite))
}

func (suite *AuditServiceTestSuite) TestCreateAudit_StartsInDraft() {
	userID := uuid.New()
	input := AuditCreate{
		OutletID:      uuid.New(),
		RequirementID: uuid.New(),
		UserID:        userID,
		DueDate:       time.Now().Add(7 * 24 * time.Hour),
	}

	suite.auditRepo.On("Create", mock.Anything, mock.MatchedBy(func(a *models.Audit) bool {
		return a.StatusID == suite.statuses.Draft && a.Progress == 0 && a.OutletID == input.OutletID
	})).Return(nil)
	suite.activityRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	audit, err := suite.service.CreateAudit(suite.context, input)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.statuses.Draft, audit.StatusID)
	assert.Equal(suite.T(), 0, audit.Progress)
	suite.auditRepo.AssertExpectations(suite.T())
}

func (suite *AuditServiceTestSuite) TestCreateAudit_RequiresDueDate() {
	_, err := suite.service.CreateAudit(suite.context, AuditCreate{OutletID: uuid.New()})
	assert.ErrorIs(suite.T(), err, common.ErrValidation)
}

func (suite *AuditServiceTestSuite) TestCreateAudit_DueDateBeforeStart() {
	start := time.Now().Add(48 * time.Hour)
	_, err := suite.service.CreateAudit(suite.context, AuditCreate{
		OutletID:  uuid.New(),
		StartTime: &start,
		DueDate:   time.Now().Add(24 * time.Hour),
	})
	assert.ErrorIs(suite.T(), err, common.ErrValidation)
}

func (suite *AuditServiceTestSuite) TestCurrentAuditIDs_LatestPartition() {
	chainRoot := uuid.New()
	chainLatest := uuid.New()
	unversioned := uuid.New()

	suite.versionRepo.On("LatestVersionIDs", mock.Anything).Return([]uuid.UUID{chainLatest}, nil)
	suite.versionRepo.On("AllVersionedIDs", mock.Anything).Return([]uuid.UUID{chainRoot, chainLatest}, nil)
	suite.auditRepo.On("ListAllDetailed", mock.Anything).Return([]*models.AuditDetail{
		{Audit: models.Audit{ID: chainRoot}},
		{Audit: models.Audit{ID: chainLatest}},
		{Audit: models.Audit{ID: unversioned}},
	}, nil)

	ids, err := suite.service.CurrentAuditIDs(suite.context)
	assert.NoError(suite.T(), err)

	// the superseded chain root is excluded; the chain head and the
	// never-rejected audit are current
	assert.ElementsMatch(suite.T(), []uuid.UUID{chainLatest, unversioned}, ids)
}

func (suite *AuditServiceTestSuite) TestDeleteAudit_DraftDeletedInTransaction() {
	auditID := uuid.New()
	statusID := suite.statuses.Draft
	actorID := uuid.New()

	suite.auditRepo.On("GetByID", mock.Anything, auditID).Return(&models.Audit{ID: auditID, StatusID: statusID}, nil)
	suite.statusRepo.On("GetByID", mock.Anything, statusID).Return(&models.Status{ID: statusID, Code: models.StatusDraft, Category: models.StatusCategoryAudit}, nil)
	suite.versionRepo.On("GetChainInfo", mock.Anything, auditID).Return(&models.AuditVersion{
		AuditID: auditID, FirstAuditID: auditID, AuditVersion: 1, Versioned: false,
	}, nil)
	suite.activityRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	suite.db.ExpectBegin()
	suite.db.ExpectExec(`DELETE FROM audit_audit_form WHERE audit_id = \$1`).
		WithArgs(auditID).WillReturnResult(pgxmock.NewResult("DELETE", 2))
	suite.db.ExpectExec(`DELETE FROM audit_versions WHERE audit_id = \$1`).
		WithArgs(auditID).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	suite.db.ExpectExec(`DELETE FROM audits WHERE id = \$1`).
		WithArgs(auditID).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	suite.db.ExpectCommit()

	err := suite.service.DeleteAudit(suite.context, auditID, &actorID)
	assert.NoError(suite.T(), err)
	assert.NoError(suite.T(), suite.db.ExpectationsWereMet())
}

func (suite *AuditServiceTestSuite) TestCurrentAuditIDs_CachedSetSkipsQueries() {
	cached := []uuid.UUID{uuid.New(), uuid.New()}
	cache := new(MockCacheService)
	cache.On("GetLatestAuditIDs", mock.Anything).Return(cached, nil)

	svc := NewAuditService(suite.db, suite.statuses, suite.auditRepo, suite.versionRepo, suite.formRepo, suite.statusRepo, suite.outletRepo, suite.activityRepo, cache)

	ids, err := svc.CurrentAuditIDs(suite.context)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), cached, ids)
	suite.versionRepo.AssertNotCalled(suite.T(), "LatestVersionIDs", mock.Anything)
	suite.auditRepo.AssertNotCalled(suite.T(), "ListAllDetailed", mock.Anything)
}

func (suite *AuditServiceTestSuite) TestCurrentAuditIDs_MissPopulatesCache() {
	current := uuid.New()
	cache := new(MockCacheService)
	cache.On("GetLatestAuditIDs", mock.Anything).Return(nil, nil)
	cache.On("SetLatestAuditIDs", mock.Anything, []uuid.UUID{current}, latestIDsTTL).Return(nil)

	suite.versionRepo.On("LatestVersionIDs", mock.Anything).Return([]uuid.UUID{current}, nil)
	suite.versionRepo.On("AllVersionedIDs", mock.Anything).Return([]uuid.UUID{current}, nil)
	suite.auditRepo.On("ListAllDetailed", mock.Anything).Return([]*models.AuditDetail{
		{Audit: models.Audit{ID: current}},
	}, nil)

	svc := NewAuditService(suite.db, suite.statuses, suite.auditRepo, suite.versionRepo, suite.formRepo, suite.statusRepo, suite.outletRepo, suite.activityRepo, cache)

	ids, err := svc.CurrentAuditIDs(suite.context)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), []uuid.UUID{current}, ids)
	cache.AssertExpectations(suite.T())
}

func (suite *AuditServiceTestSuite) TestFilterMeta_ReferenceLists() {
	current := uuid.New()
	statuses := []*models.Status{
		{ID: suite.statuses.Draft, Code: models.StatusDraft, Category: models.StatusCategoryAudit},
		{ID: suite.statuses.Rejected, Code: models.StatusRejected, Category: models.StatusCategoryAudit},
	}
	outlets := []*models.Outlet{{ID: uuid.New(), Name: "Riverside Branch"}}

	suite.statusRepo.On("List", mock.Anything, models.StatusCategoryAudit).Return(statuses, nil)
	suite.outletRepo.On("List", mock.Anything, 100, 0).Return(outlets, nil)
	suite.versionRepo.On("LatestVersionIDs", mock.Anything).Return([]uuid.UUID{current}, nil)
	suite.versionRepo.On("AllVersionedIDs", mock.Anything).Return([]uuid.UUID{current}, nil)
	suite.auditRepo.On("ListAllDetailed", mock.Anything).Return([]*models.AuditDetail{
		{Audit: models.Audit{ID: current}},
	}, nil)

	meta, err := suite.service.FilterMeta(suite.context)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), meta.Statuses, 2)
	assert.Len(suite.T(), meta.Outlets, 1)
	assert.Equal(suite.T(), 1, meta.TotalCurrent)
}

func (suite *AuditServiceTestSuite) TestDeleteAudit_LatestChainMemberDeleted() {
	firstAuditID := uuid.New()
	auditID := uuid.New()
	statusID := suite.statuses.RevisionRequested

	suite.auditRepo.On("GetByID", mock.Anything, auditID).Return(&models.Audit{ID: auditID, StatusID: statusID}, nil)
	suite.statusRepo.On("GetByID", mock.Anything, statusID).Return(&models.Status{ID: statusID, Code: models.StatusRevisionRequested, Category: models.StatusCategoryAudit}, nil)
	suite.versionRepo.On("GetChainInfo", mock.Anything, auditID).Return(&models.AuditVersion{
		AuditID: auditID, FirstAuditID: firstAuditID, AuditVersion: 3, Versioned: true,
	}, nil)
	suite.versionRepo.On("MaxVersion", mock.Anything, firstAuditID).Return(3, nil)
	suite.activityRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	suite.db.ExpectBegin()
	suite.db.ExpectExec(`DELETE FROM audit_audit_form WHERE audit_id = \$1`).
		WithArgs(auditID).WillReturnResult(pgxmock.NewResult("DELETE", 2))
	suite.db.ExpectExec(`DELETE FROM audit_versions WHERE audit_id = \$1`).
		WithArgs(auditID).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	suite.db.ExpectExec(`DELETE FROM audits WHERE id = \$1`).
		WithArgs(auditID).WillReturnResult(pgxmock.NewResult("DELETE", 1))
	suite.db.ExpectCommit()

	err := suite.service.DeleteAudit(suite.context, auditID, nil)
	assert.NoError(suite.T(), err)
	assert.NoError(suite.T(), suite.db.ExpectationsWereMet())
}

func (suite *AuditServiceTestSuite) TestDeleteAudit_RejectsMidChainVersion() {
	// Version 2 of a three-member chain. Removing it would leave versions
	// 1 and 3 with a gap, so the delete must be refused before any query
	// touches the chain.
	firstAuditID := uuid.New()
	auditID := uuid.New()
	statusID := suite.statuses.RevisionRequested

	suite.auditRepo.On("GetByID", mock.Anything, auditID).Return(&models.Audit{ID: auditID, StatusID: statusID}, nil)
	suite.statusRepo.On("GetByID", mock.Anything, statusID).Return(&models.Status{ID: statusID, Code: models.StatusRevisionRequested, Category: models.StatusCategoryAudit}, nil)
	suite.versionRepo.On("GetChainInfo", mock.Anything, auditID).Return(&models.AuditVersion{
		AuditID: auditID, FirstAuditID: firstAuditID, AuditVersion: 2, Versioned: true,
	}, nil)
	suite.versionRepo.On("MaxVersion", mock.Anything, firstAuditID).Return(3, nil)

	err := suite.service.DeleteAudit(suite.context, auditID, nil)
	assert.ErrorIs(suite.T(), err, common.ErrValidation)

	// no transaction was ever opened
	assert.NoError(suite.T(), suite.db.ExpectationsWereMet())
	suite.activityRepo.AssertNotCalled(suite.T(), "Create", mock.Anything, mock.Anything)
}

func (suite *AuditServiceTestSuite) TestDeleteAudit_RejectsSubmittedAudit() {
	auditID := uuid.New()
	statusID := suite.statuses.Pending

	suite.auditRepo.On("GetByID", mock.Anything, auditID).Return(&models.Audit{ID: auditID, StatusID: statusID}, nil)
	suite.statusRepo.On("GetByID", mock.Anything, statusID).Return(&models.Status{ID: statusID, Code: models.StatusPending, Category: models.StatusCategoryAudit}, nil)

	err := suite.service.DeleteAudit(suite.context, auditID, nil)
	assert.ErrorIs(suite.T(), err, common.ErrValidation)
	assert.NoError(suite.T(), suite.db.ExpectationsWereMet())
}

func (suite *AuditServiceTestSuite) TestDeleteAudit_NotFound() {
	auditID := uuid.New()
	suite.auditRepo.On("GetByID", mock.Anything, auditID).Return(nil, pgx.ErrNoRows)

	err := suite.service.DeleteAudit(suite.context, auditID, nil)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}

func (suite *AuditServiceTestSuite) TestUpdateProgress_Bounds() {
	assert.ErrorIs(suite.T(), suite.service.UpdateProgress(suite.context, uuid.New(), -1), common.ErrValidation)
	assert.ErrorIs(suite.T(), suite.service.UpdateProgress(suite.context, uuid.New(), 101), common.ErrValidation)

	auditID := uuid.New()
	suite.auditRepo.On("UpdateProgress", mock.Anything, auditID, 60).Return(nil)
	assert.NoError(suite.T(), suite.service.UpdateProgress(suite.context, auditID, 60))
}

func (suite *AuditServiceTestSuite) TestGetAudit_NotFound() {
	auditID := uuid.New()
	suite.auditRepo.On("GetDetailByID", mock.Anything, auditID).Return(nil, pgx.ErrNoRows)

	_, err := suite.service.GetAudit(suite.context, auditID)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)
}
