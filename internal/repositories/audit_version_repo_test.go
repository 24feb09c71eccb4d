package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type AuditVersionRepoTestSuite struct {
	suite.Suite
	mock    pgxmock.PgxPoolIface
	repo    AuditVersionRepository
	auditID uuid.UUID
	context context.Context
}

func (suite *AuditVersionRepoTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	assert.NoError(suite.T(), err)
	suite.mock = mock

	suite.repo = NewAuditVersionRepo(mock)
	suite.auditID = uuid.New()
	suite.context = context.Background()
}

func (suite *AuditVersionRepoTestSuite) TearDownTest() {
	suite.mock.Close()
}

func TestAuditVersionRepoTestSuite(t *testing.T) {
	suite.Run(t, new(AuditVersionRepoTestSuite))
}

func (suite *AuditVersionRepoTestSuite) TestRecordFirstVersion_Success() {
	suite.mock.ExpectExec(`
		INSERT INTO audit_versions \(audit_id, first_audit_id, audit_version, created_at, updated_at\)
		VALUES \(\$1, \$1, 1, NOW\(\), NOW\(\)\)
	`).WithArgs(suite.auditID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := suite.repo.RecordFirstVersion(suite.context, suite.auditID)
	assert.NoError(suite.T(), err)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *AuditVersionRepoTestSuite) TestRecordNextVersion_AppendsMaxPlusOne() {
	newAuditID := uuid.New()
	maxVersion := 3

	suite.mock.ExpectQuery(`
		SELECT MAX\(audit_version\)
		FROM audit_versions
		WHERE first_audit_id = \$1
	`).WithArgs(suite.auditID).
		WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(&maxVersion))

	suite.mock.ExpectExec(`
		INSERT INTO audit_versions \(audit_id, first_audit_id, audit_version, created_at, updated_at\)
		VALUES \(\$1, \$2, \$3, NOW\(\), NOW\(\)\)
	`).WithArgs(newAuditID, suite.auditID, 4).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	next, err := suite.repo.RecordNextVersion(suite.context, suite.auditID, newAuditID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 4, next)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *AuditVersionRepoTestSuite) TestRecordNextVersion_EmptyChainFails() {
	newAuditID := uuid.New()

	suite.mock.ExpectQuery(`
		SELECT MAX\(audit_version\)
		FROM audit_versions
		WHERE first_audit_id = \$1
	`).WithArgs(suite.auditID).
		WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow((*int)(nil)))

	_, err := suite.repo.RecordNextVersion(suite.context, suite.auditID, newAuditID)
	assert.Error(suite.T(), err)
	assert.Contains(suite.T(), err.Error(), "record the first version before appending")
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *AuditVersionRepoTestSuite) TestMaxVersion_ReturnsChainMax() {
	maxVersion := 4
	suite.mock.ExpectQuery(`
		SELECT MAX\(audit_version\)
		FROM audit_versions
		WHERE first_audit_id = \$1
	`).WithArgs(suite.auditID).
		WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow(&maxVersion))

	got, err := suite.repo.MaxVersion(suite.context, suite.auditID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 4, got)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *AuditVersionRepoTestSuite) TestMaxVersion_EmptyChainIsZero() {
	suite.mock.ExpectQuery(`
		SELECT MAX\(audit_version\)
		FROM audit_versions
		WHERE first_audit_id = \$1
	`).WithArgs(suite.auditID).
		WillReturnRows(pgxmock.NewRows([]string{"max"}).AddRow((*int)(nil)))

	got, err := suite.repo.MaxVersion(suite.context, suite.auditID)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, got)
	assert.NoError(suite.T(), suite.mock.ExpectationsWereMet())
}

func (suite *AuditVersionRepoTestSuite) TestGetChainInfo_VersionedRow() {
	firstID := uuid.New()

	suite.mock.ExpectQuery(`
		SELECT audit_id, first_audit_id, audit_version
		FROM audit_versions
		WHERE audit_id = \$1
	`).WithArgs(suite.auditID).
		WillReturnRows(pgxmock.NewRows([]string{"audit_id", "first_audit_id", "audit_version"}).
			AddRow(suite.auditID, firstID, 2))

	chain, err := suite.repo.GetChainInfo(suite.context, suite.auditID)
	assert.NoError(suite.T(), err)
	assert.True(suite.T(), chain.Versioned)
	assert.Equal(suite.T(), firstID, chain.FirstAuditID)
	assert.Equal(suite.T(), 2, chain.AuditVersion)
}

func (suite *AuditVersionRepoTestSuite) TestGetChainInfo_UnversionedSentinel() {
	suite.mock.ExpectQuery(`
		SELECT audit_id, first_audit_id, audit_version
		FROM audit_versions
		WHERE audit_id = \$1
	`).WithArgs(suite.auditID).
		WillReturnError(pgx.ErrNoRows)

	chain, err := suite.repo.GetChainInfo(suite.context, suite.auditID)
	assert.NoError(suite.T(), err)
	assert.False(suite.T(), chain.Versioned)
	assert.Equal(suite.T(), suite.auditID, chain.AuditID)
	assert.Equal(suite.T(), suite.auditID, chain.FirstAuditID)
	assert.Equal(suite.T(), 1, chain.AuditVersion)
}

func (suite *AuditVersionRepoTestSuite) TestGetChainInfo_QueryError() {
	suite.mock.ExpectQuery(`
		SELECT audit_id, first_audit_id, audit_version
		FROM audit_versions
		WHERE audit_id = \$1
	`).WithArgs(suite.auditID).
		WillReturnError(errors.New("connection reset"))

	chain, err := suite.repo.GetChainInfo(suite.context, suite.auditID)
	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), chain)
}

func (suite *AuditVersionRepoTestSuite) TestLatestVersionIDs() {
	latest1 := uuid.New()
	latest2 := uuid.New()

	suite.mock.ExpectQuery(`
		SELECT DISTINCT ON \(first_audit_id\) audit_id
		FROM audit_versions
		ORDER BY first_audit_id, audit_version DESC
	`).WillReturnRows(pgxmock.NewRows([]string{"audit_id"}).
		AddRow(latest1).
		AddRow(latest2))

	ids, err := suite.repo.LatestVersionIDs(suite.context)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), []uuid.UUID{latest1, latest2}, ids)
}

func (suite *AuditVersionRepoTestSuite) TestListAll_OrderedByChainThenVersion() {
	chainA := uuid.New()
	chainAv2 := uuid.New()

	suite.mock.ExpectQuery(`
		SELECT audit_id, first_audit_id, audit_version
		FROM audit_versions
		ORDER BY first_audit_id, audit_version ASC
	`).WillReturnRows(pgxmock.NewRows([]string{"audit_id", "first_audit_id", "audit_version"}).
		AddRow(chainA, chainA, 1).
		AddRow(chainAv2, chainA, 2))

	rows, err := suite.repo.ListAll(suite.context)
	assert.NoError(suite.T(), err)
	assert.Len(suite.T(), rows, 2)
	assert.Equal(suite.T(), 1, rows[0].AuditVersion)
	assert.Equal(suite.T(), 2, rows[1].AuditVersion)
	assert.True(suite.T(), rows[0].Versioned)
	assert.Equal(suite.T(), chainA, rows[1].FirstAuditID)
}

func (suite *AuditVersionRepoTestSuite) TestDeleteByAuditID() {
	suite.mock.ExpectExec(`DELETE FROM audit_versions WHERE audit_id = \$1`).
		WithArgs(suite.auditID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	err := suite.repo.DeleteByAuditID(suite.context, suite.auditID)
	assert.NoError(suite.T(), err)
}
