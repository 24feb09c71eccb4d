package services

import (
	"context"
	"testing"
	"time"

	"compliflow/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type HistoryServiceTestSuite struct {
	suite.Suite
	auditRepo    *MockAuditRepository
	versionRepo  *MockAuditVersionRepository
	formRepo     *MockAuditFormRepository
	issueRepo    *MockIssueRepository
	activityRepo *MockActivityLogRepository
	service      HistoryService
	context      context.Context
}

func (suite *HistoryServiceTestSuite) SetupTest() {
	suite.auditRepo = new(MockAuditRepository)
	suite.versionRepo = new(MockAuditVersionRepository)
	suite.formRepo = new(MockAuditFormRepository)
	suite.issueRepo = new(MockIssueRepository)
	suite.activityRepo = new(MockActivityLogRepository)
	suite.service = NewHistoryService(suite.auditRepo, suite.versionRepo, suite.formRepo, suite.issueRepo, suite.activityRepo)
	suite.context = context.Background()
}

func TestHistoryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(HistoryServiceTestSuite))
}

func (suite *HistoryServiceTestSuite) auditDetail(id uuid.UUID, statusCode string, createdAt time.Time) *models.AuditDetail {
	return &models.AuditDetail{
		Audit: models.Audit{
			ID:        id,
			OutletID:  uuid.New(),
			UserID:    uuid.New(),
			StatusID:  uuid.New(),
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		},
		OutletName:       "Downtown Branch",
		UserName:         "jane.auditor",
		StatusCode:       statusCode,
		StatusName:       statusCode,
		RequirementTitle: "Food safety annual check",
	}
}

func (suite *HistoryServiceTestSuite) expectEmptyVersionDetails(auditIDs ...uuid.UUID) {
	for _, id := range auditIDs {
		suite.issueRepo.On("ListByAudit", mock.Anything, id).Return([]*models.IssueDetail{}, nil)
		suite.formRepo.On("ListByAudit", mock.Anything, id).Return([]*models.AuditFormDetail{}, nil)
	}
}

func (suite *HistoryServiceTestSuite) TestBuildHistory_ChainsAndSingletons() {
	now := time.Now()
	firstID := uuid.New()
	secondID := uuid.New()
	loneID := uuid.New()

	rejected := suite.auditDetail(firstID, models.StatusRejected, now.Add(-72*time.Hour))
	revision := suite.auditDetail(secondID, models.StatusRevisionRequested, now.Add(-24*time.Hour))
	lone := suite.auditDetail(loneID, models.StatusApproved, now.Add(-48*time.Hour))

	suite.auditRepo.On("ListAllDetailed", mock.Anything).Return([]*models.AuditDetail{rejected, revision, lone}, nil)
	suite.versionRepo.On("ListAll", mock.Anything).Return([]*models.AuditVersion{
		{AuditID: firstID, FirstAuditID: firstID, AuditVersion: 1, Versioned: true},
		{AuditID: secondID, FirstAuditID: firstID, AuditVersion: 2, Versioned: true},
	}, nil)
	suite.activityRepo.On("LatestReviewers", mock.Anything, models.EntityAudit).Return(map[uuid.UUID]string{
		firstID: "sam.reviewer",
	}, nil)

	hygieneIssue := &models.IssueDetail{
		Issue: models.Issue{ID: uuid.New(), Description: "Expired extinguisher certificates"},
	}
	suite.issueRepo.On("ListByAudit", mock.Anything, firstID).Return([]*models.IssueDetail{hygieneIssue}, nil)
	suite.formRepo.On("ListByAudit", mock.Anything, firstID).Return([]*models.AuditFormDetail{}, nil)
	suite.expectEmptyVersionDetails(secondID, loneID)

	page, err := suite.service.BuildHistory(suite.context, 1, 20)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, page.TotalChains)
	assert.Len(suite.T(), page.Chains, 2)

	// most recent action first: the rejection chain acted 24h ago, the
	// lone approval 48h ago
	chain := page.Chains[0]
	assert.Equal(suite.T(), firstID, chain.FirstAuditID)
	assert.Equal(suite.T(), 2, chain.NumVersions)
	assert.Equal(suite.T(), 1, chain.Versions[0].AuditVersion)
	assert.Equal(suite.T(), 2, chain.Versions[1].AuditVersion)
	assert.Equal(suite.T(), models.StatusRevisionRequested, chain.CurrentStatusCode)
	assert.Equal(suite.T(), "jane.auditor", chain.InitiatedBy)

	// reviewer and rejection reason resolve on the rejected version
	v1 := chain.Versions[0]
	assert.NotNil(suite.T(), v1.Reviewer)
	assert.Equal(suite.T(), "sam.reviewer", *v1.Reviewer)
	assert.NotNil(suite.T(), v1.RejectionReason)
	assert.Equal(suite.T(), "Expired extinguisher certificates", *v1.RejectionReason)
	assert.Nil(suite.T(), chain.Versions[1].RejectionReason)

	single := page.Chains[1]
	assert.Equal(suite.T(), loneID, single.FirstAuditID)
	assert.Equal(suite.T(), 1, single.NumVersions)
	assert.Equal(suite.T(), models.StatusApproved, single.CurrentStatusCode)
}

func (suite *HistoryServiceTestSuite) TestBuildHistory_EveryAuditAppearsExactlyOnce() {
	now := time.Now()
	firstID := uuid.New()
	secondID := uuid.New()
	loneID := uuid.New()

	suite.auditRepo.On("ListAllDetailed", mock.Anything).Return([]*models.AuditDetail{
		suite.auditDetail(firstID, models.StatusRejected, now),
		suite.auditDetail(secondID, models.StatusPending, now),
		suite.auditDetail(loneID, models.StatusDraft, now),
	}, nil)
	suite.versionRepo.On("ListAll", mock.Anything).Return([]*models.AuditVersion{
		{AuditID: firstID, FirstAuditID: firstID, AuditVersion: 1, Versioned: true},
		{AuditID: secondID, FirstAuditID: firstID, AuditVersion: 2, Versioned: true},
	}, nil)
	suite.activityRepo.On("LatestReviewers", mock.Anything, models.EntityAudit).Return(map[uuid.UUID]string{}, nil)
	suite.expectEmptyVersionDetails(firstID, secondID, loneID)

	page, err := suite.service.BuildHistory(suite.context, 1, 20)
	assert.NoError(suite.T(), err)

	seen := make(map[uuid.UUID]int)
	for _, chain := range page.Chains {
		for _, v := range chain.Versions {
			seen[v.AuditID]++
		}
	}
	assert.Equal(suite.T(), map[uuid.UUID]int{firstID: 1, secondID: 1, loneID: 1}, seen)
}

func (suite *HistoryServiceTestSuite) TestBuildHistory_OrphanedChainDropped() {
	now := time.Now()
	missingFirstID := uuid.New()
	memberID := uuid.New()
	loneID := uuid.New()

	// the chain root audit is gone; its surviving member must not leak
	// back in as a synthetic singleton
	suite.auditRepo.On("ListAllDetailed", mock.Anything).Return([]*models.AuditDetail{
		suite.auditDetail(memberID, models.StatusRevisionRequested, now),
		suite.auditDetail(loneID, models.StatusApproved, now),
	}, nil)
	suite.versionRepo.On("ListAll", mock.Anything).Return([]*models.AuditVersion{
		{AuditID: missingFirstID, FirstAuditID: missingFirstID, AuditVersion: 1, Versioned: true},
		{AuditID: memberID, FirstAuditID: missingFirstID, AuditVersion: 2, Versioned: true},
	}, nil)
	suite.activityRepo.On("LatestReviewers", mock.Anything, models.EntityAudit).Return(map[uuid.UUID]string{}, nil)
	suite.expectEmptyVersionDetails(loneID)

	page, err := suite.service.BuildHistory(suite.context, 1, 20)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, page.TotalChains)
	assert.Equal(suite.T(), loneID, page.Chains[0].FirstAuditID)
}

func (suite *HistoryServiceTestSuite) TestBuildHistory_MissingMemberSkipped() {
	now := time.Now()
	firstID := uuid.New()
	missingID := uuid.New()
	thirdID := uuid.New()

	suite.auditRepo.On("ListAllDetailed", mock.Anything).Return([]*models.AuditDetail{
		suite.auditDetail(firstID, models.StatusRejected, now.Add(-time.Hour)),
		suite.auditDetail(thirdID, models.StatusPending, now),
	}, nil)
	suite.versionRepo.On("ListAll", mock.Anything).Return([]*models.AuditVersion{
		{AuditID: firstID, FirstAuditID: firstID, AuditVersion: 1, Versioned: true},
		{AuditID: missingID, FirstAuditID: firstID, AuditVersion: 2, Versioned: true},
		{AuditID: thirdID, FirstAuditID: firstID, AuditVersion: 3, Versioned: true},
	}, nil)
	suite.activityRepo.On("LatestReviewers", mock.Anything, models.EntityAudit).Return(map[uuid.UUID]string{}, nil)
	suite.expectEmptyVersionDetails(firstID, thirdID)

	page, err := suite.service.BuildHistory(suite.context, 1, 20)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, page.TotalChains)

	chain := page.Chains[0]
	assert.Equal(suite.T(), 2, chain.NumVersions)
	assert.Equal(suite.T(), 1, chain.Versions[0].AuditVersion)
	assert.Equal(suite.T(), 3, chain.Versions[1].AuditVersion)
}

func (suite *HistoryServiceTestSuite) TestBuildHistory_Pagination() {
	now := time.Now()
	ids := make([]uuid.UUID, 5)
	audits := make([]*models.AuditDetail, 5)
	for i := range ids {
		ids[i] = uuid.New()
		audits[i] = suite.auditDetail(ids[i], models.StatusApproved, now.Add(-time.Duration(i)*time.Hour))
	}

	suite.auditRepo.On("ListAllDetailed", mock.Anything).Return(audits, nil)
	suite.versionRepo.On("ListAll", mock.Anything).Return([]*models.AuditVersion{}, nil)
	suite.activityRepo.On("LatestReviewers", mock.Anything, models.EntityAudit).Return(map[uuid.UUID]string{}, nil)
	suite.expectEmptyVersionDetails(ids...)

	page, err := suite.service.BuildHistory(suite.context, 2, 2)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 5, page.TotalChains)
	assert.Len(suite.T(), page.Chains, 2)
	assert.Equal(suite.T(), 2, page.Page)

	// newest first, so page 2 holds the third and fourth most recent
	assert.Equal(suite.T(), ids[2], page.Chains[0].FirstAuditID)
	assert.Equal(suite.T(), ids[3], page.Chains[1].FirstAuditID)

	beyond, err := suite.service.BuildHistory(suite.context, 4, 2)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), beyond.Chains, 0)
	assert.Equal(suite.T(), 5, beyond.TotalChains)
}
