package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

func newRepoDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func TestEnrollmentCreateTxInsertsRow(t *testing.T) {
	db, mock := newRepoDB(t)
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	enrollment := &models.Enrollment{
		StudentID:   "stu-1",
		CycleID:     "cyc-1",
		CareerID:    "car-1",
		AdmissionID: "adm-1",
		StartDate:   time.Now(),
		EndDate:     time.Now().AddDate(0, 10, 0),
		Modality:    "ON_SITE",
		Shift:       "MORNING",
		TotalCost:   decimal.NewFromInt(1000),
	}
	require.NoError(t, repo.CreateTx(context.Background(), tx, enrollment))
	require.NoError(t, tx.Commit())

	assert.NotEmpty(t, enrollment.ID)
	assert.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentExistsActiveTx(t *testing.T) {
	db, mock := newRepoDB(t)
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments")).
		WithArgs("stu-1", "cyc-1", "car-1", "adm-1", string(models.EnrollmentStatusActive)).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback() //nolint:errcheck

	exists, err := repo.ExistsActiveTx(context.Background(), tx, "stu-1", "cyc-1", "car-1", "adm-1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestEnrollmentExistsActiveTxNoRow(t *testing.T) {
	db, mock := newRepoDB(t)
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments")).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback() //nolint:errcheck

	exists, err := repo.ExistsActiveTx(context.Background(), tx, "stu-1", "cyc-1", "car-1", "adm-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestEnrollmentCodeExistsTx(t *testing.T) {
	db, mock := newRepoDB(t)
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments WHERE code = $1")).
		WithArgs("A-B-XY-001").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	defer tx.Rollback() //nolint:errcheck

	taken, err := repo.CodeExistsTx(context.Background(), tx, "A-B-XY-001")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestEnrollmentAssignCodeTx(t *testing.T) {
	db, mock := newRepoDB(t)
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET code = $2")).
		WithArgs("enr-1", "A-B-XY-001", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, repo.AssignCodeTx(context.Background(), tx, "enr-1", "A-B-XY-001"))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentSoftDeleteTx(t *testing.T) {
	db, mock := newRepoDB(t)
	repo := NewEnrollmentRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET status = $2")).
		WithArgs("enr-1", string(models.EnrollmentStatusDeleted), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, repo.SoftDeleteTx(context.Background(), tx, "enr-1"))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentUpdateInfoBuildsDynamicSet(t *testing.T) {
	db, mock := newRepoDB(t)
	repo := NewEnrollmentRepository(db)

	modality := "ONLINE"
	notes := "moved online"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET updated_at = $1, modality = $2, notes = $3 WHERE id = $4")).
		WithArgs(sqlmock.AnyArg(), modality, notes, "enr-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateInfo(context.Background(), "enr-1", models.EnrollmentPatch{
		Modality: &modality,
		Notes:    &notes,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
