package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"compliflow/internal/models"
	"compliflow/internal/services"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

// MockIssueService mocks the IssueService interface for testing
type MockIssueService struct {
	mock.Mock
}

func (m *MockIssueService) RaiseIssue(ctx context.Context, input services.IssueCreate, actorID *uuid.UUID) (*models.Issue, error) {
	args := m.Called(ctx, input, actorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Issue), args.Error(1)
}

func (m *MockIssueService) AddCorrectiveAction(ctx context.Context, input services.ActionCreate) (*models.CorrectiveAction, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CorrectiveAction), args.Error(1)
}

func (m *MockIssueService) CompleteAction(ctx context.Context, actionID uuid.UUID) error {
	args := m.Called(ctx, actionID)
	return args.Error(0)
}

func (m *MockIssueService) ResolveIssue(ctx context.Context, issueID uuid.UUID, actorID *uuid.UUID) error {
	args := m.Called(ctx, issueID, actorID)
	return args.Error(0)
}

func (m *MockIssueService) ListByAudit(ctx context.Context, auditID uuid.UUID) ([]*models.IssueDetail, error) {
	args := m.Called(ctx, auditID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.IssueDetail), args.Error(1)
}

func (m *MockIssueService) Overdue(ctx context.Context, asOf time.Time) ([]*models.IssueDetail, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.IssueDetail), args.Error(1)
}

type IssueAlertsTestSuite struct {
	suite.Suite
	issueService *MockIssueService
	alerts       *IssueAlertService
	context      context.Context
}

func (suite *IssueAlertsTestSuite) SetupTest() {
	suite.issueService = new(MockIssueService)
	suite.alerts = NewIssueAlertService(suite.issueService)
	suite.context = context.Background()
}

func TestIssueAlertsTestSuite(t *testing.T) {
	suite.Run(t, new(IssueAlertsTestSuite))
}

func (suite *IssueAlertsTestSuite) overdueIssue(severity string, dueDaysAgo int, asOf time.Time) *models.IssueDetail {
	return &models.IssueDetail{
		Issue: models.Issue{
			ID:          uuid.New(),
			AuditFormID: uuid.New(),
			Description: "Temperature log gaps",
			Severity:    severity,
			DueDate:     asOf.Add(-time.Duration(dueDaysAgo) * 24 * time.Hour),
		},
		StatusCode: models.StatusIssueOpen,
	}
}

func (suite *IssueAlertsTestSuite) TestCheckOverdueIssues_ComputesDaysOverdue() {
	asOf := time.Now()
	issue := suite.overdueIssue(models.SeverityHigh, 3, asOf)

	suite.issueService.On("Overdue", mock.Anything, asOf).Return([]*models.IssueDetail{issue}, nil)

	alerts, err := suite.alerts.CheckOverdueIssues(suite.context, asOf)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), alerts, 1)
	assert.Equal(suite.T(), issue.ID, alerts[0].IssueID)
	assert.Equal(suite.T(), issue.AuditFormID, alerts[0].AuditFormID)
	assert.Equal(suite.T(), models.SeverityHigh, alerts[0].Severity)
	assert.Equal(suite.T(), 3, alerts[0].DaysOverdue)
}

func (suite *IssueAlertsTestSuite) TestCheckOverdueIssues_Empty() {
	asOf := time.Now()
	suite.issueService.On("Overdue", mock.Anything, asOf).Return([]*models.IssueDetail{}, nil)

	alerts, err := suite.alerts.CheckOverdueIssues(suite.context, asOf)
	assert.NoError(suite.T(), err)
	assert.Empty(suite.T(), alerts)
}

func (suite *IssueAlertsTestSuite) TestCheckOverdueIssues_PropagatesError() {
	asOf := time.Now()
	suite.issueService.On("Overdue", mock.Anything, asOf).Return(nil, errors.New("db unavailable"))

	alerts, err := suite.alerts.CheckOverdueIssues(suite.context, asOf)
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), alerts)
}

func (suite *IssueAlertsTestSuite) TestScheduledOverdueCheck_CountsCritical() {
	asOf := time.Now()
	critical := suite.overdueIssue(models.SeverityCritical, 5, asOf)
	low := suite.overdueIssue(models.SeverityLow, 1, asOf)

	suite.issueService.On("Overdue", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]*models.IssueDetail{critical, low}, nil)

	err := suite.alerts.ScheduledOverdueCheck(suite.context)
	assert.NoError(suite.T(), err)
	suite.issueService.AssertExpectations(suite.T())
}
