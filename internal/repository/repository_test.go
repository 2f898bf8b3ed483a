package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"surveillance/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestMarkReviewed_WinsWhenPending(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRegistrationRepository(db)
	id, reviewer := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "user_registrations" SET .* WHERE .*id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	won, err := repo.MarkReviewed(context.Background(), id, model.RegistrationApproved, reviewer, time.Now(), "ok")

	require.NoError(t, err)
	assert.True(t, won)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkReviewed_LosesWhenAlreadyReviewed(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewRegistrationRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "user_registrations" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	won, err := repo.MarkReviewed(context.Background(), uuid.New(), model.RegistrationRejected, uuid.New(), time.Now(), "")

	require.NoError(t, err)
	assert.False(t, won)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttachRole_InsertsJoinRow(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewUserRepository(db)
	userID, roleID := uuid.New(), uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING")).
		WithArgs(userID, roleID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.AttachRole(context.Background(), userID, roleID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDelete_NoRowsIsNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAlertRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "district_alerts" WHERE id = \$1`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), uuid.New())

	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountHighSeverity_FiltersDistrictAndStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewStatisticsRepository(db)
	districtID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "asha_reports" WHERE asha_reports.district_id = \$1 AND asha_reports.status = \$2 AND LOWER\(asha_reports.symptoms_json->>'severity'\) = 'high'`).
		WithArgs(districtID, model.ReportSubmitted).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountHighSeverity(context.Background(), &districtID, model.ReportSubmitted)

	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDistrictBreakdown_ScansRows(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewStatisticsRepository(db)
	a, b := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT .* FROM "district_boundaries" LEFT JOIN asha_reports`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "district_name", "report_count", "high_risk_count"}).
			AddRow(a, "Anantapur", 4, 1).
			AddRow(b, "Chittoor", 0, 0))

	rows, err := repo.DistrictBreakdown(context.Background())

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Anantapur", rows[0].DistrictName)
	assert.Equal(t, int64(4), rows[0].ReportCount)
	assert.Equal(t, int64(1), rows[0].HighRiskCount)
	assert.Equal(t, int64(0), rows[1].ReportCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_RollsBackOnError(t *testing.T) {
	db, mock := setupMockDB(t)
	txm := NewTransactionManager(db)
	audit := NewAuditRepository(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectRollback()

	err := txm.RunInTx(context.Background(), func(txCtx context.Context) error {
		if err := audit.Log(txCtx, &model.AuditLog{Action: model.ActionVerifiedReport, Target: "Report #1 (High)"}); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRunInTx_NestedCallJoinsOuterTransaction(t *testing.T) {
	db, mock := setupMockDB(t)
	txm := NewTransactionManager(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	var innerRan bool
	err := txm.RunInTx(context.Background(), func(txCtx context.Context) error {
		assert.True(t, InTx(txCtx))
		return txm.RunInTx(txCtx, func(inner context.Context) error {
			innerRan = true
			assert.Equal(t, txCtx, inner)
			return nil
		})
	})

	require.NoError(t, err)
	assert.True(t, innerRan)
	assert.False(t, InTx(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportUpdateDetails_LeavesStatusColumnsAlone(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReportRepository(db)
	district := uuid.New()
	report := &model.AshaReport{ID: uuid.New(), DistrictID: &district, Status: model.ReportSubmitted}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "asha_reports" SET "district_id"=\$\d+,"symptoms_json"=\$\d+,"updated_at"=\$\d+,"village_id"=\$\d+ WHERE id = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateDetails(context.Background(), report))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportUpdateDetails_MissingRowIsNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewReportRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "asha_reports" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.UpdateDetails(context.Background(), &model.AshaReport{ID: uuid.New()})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAlertTransitionStatus_GuardsCurrentStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAlertRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "district_alerts" SET "status"=\$\d+,"updated_at"=\$\d+ WHERE .*id = \$\d+ AND status = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	won, err := repo.TransitionStatus(context.Background(), uuid.New(), model.AlertOpen, model.AlertAcknowledged)
	require.NoError(t, err)
	assert.False(t, won)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "district_alerts" SET "description"=\$\d+,"title"=\$\d+,"updated_at"=\$\d+ WHERE id = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.UpdateDetails(context.Background(), uuid.New(), "Flood advisory", "River level rising"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
