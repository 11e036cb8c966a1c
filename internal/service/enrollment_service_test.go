package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-billing-api/internal/models"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
)

type stubEnrollmentRepo struct {
	enrollments map[string]models.Enrollment
	activeTuple bool
	takenCodes  map[string]bool
	assignErrs  []error

	created      []models.Enrollment
	assignedCode string
	softDeleted  []string
}

func (m *stubEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

func (m *stubEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *stubEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	if e, ok := m.enrollments[id]; ok {
		return &models.EnrollmentDetail{Enrollment: e}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *stubEnrollmentRepo) ExistsActiveTx(ctx context.Context, tx *sqlx.Tx, studentID, cycleID, careerID, admissionID string) (bool, error) {
	return m.activeTuple, nil
}

func (m *stubEnrollmentRepo) CreateTx(ctx context.Context, tx *sqlx.Tx, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = "enr-1"
	}
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.Enrollment)
	}
	m.enrollments[enrollment.ID] = *enrollment
	m.created = append(m.created, *enrollment)
	return nil
}

func (m *stubEnrollmentRepo) CodeExistsTx(ctx context.Context, tx *sqlx.Tx, code string) (bool, error) {
	return m.takenCodes[code], nil
}

func (m *stubEnrollmentRepo) AssignCodeTx(ctx context.Context, tx *sqlx.Tx, id, code string) error {
	if len(m.assignErrs) > 0 {
		err := m.assignErrs[0]
		m.assignErrs = m.assignErrs[1:]
		if err != nil {
			return err
		}
	}
	m.assignedCode = code
	if e, ok := m.enrollments[id]; ok {
		e.Code = &code
		m.enrollments[id] = e
	}
	return nil
}

func (m *stubEnrollmentRepo) SoftDeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	m.softDeleted = append(m.softDeleted, id)
	if e, ok := m.enrollments[id]; ok {
		e.Status = models.EnrollmentStatusDeleted
		m.enrollments[id] = e
	}
	return nil
}

func (m *stubEnrollmentRepo) UpdateInfo(ctx context.Context, id string, patch models.EnrollmentPatch) error {
	return nil
}

type stubReceivableWriter struct {
	created     []models.AccountReceivable
	conceptRecs []models.AccountReceivable
	voided      []string
}

func (m *stubReceivableWriter) CreateTx(ctx context.Context, tx *sqlx.Tx, rec *models.AccountReceivable) error {
	if rec.ID == "" {
		rec.ID = "rec-" + string(rune('1'+len(m.created)))
	}
	m.created = append(m.created, *rec)
	return nil
}

func (m *stubReceivableWriter) FindByConceptContainsTx(ctx context.Context, tx *sqlx.Tx, fragment string) ([]models.AccountReceivable, error) {
	return m.conceptRecs, nil
}

func (m *stubReceivableWriter) MarkVoidTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	m.voided = append(m.voided, id)
	return nil
}

type stubPaymentWriter struct {
	created       []models.Payment
	voidedByAccts []string
}

func (m *stubPaymentWriter) CreateTx(ctx context.Context, tx *sqlx.Tx, payment *models.Payment) error {
	if payment.ID == "" {
		payment.ID = "pay-1"
	}
	m.created = append(m.created, *payment)
	return nil
}

func (m *stubPaymentWriter) VoidByAccountsTx(ctx context.Context, tx *sqlx.Tx, accountIDs []string) error {
	m.voidedByAccts = append(m.voidedByAccts, accountIDs...)
	return nil
}

type stubStudentReader struct {
	student *models.Student
	err     error
}

func (m *stubStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.student, nil
}

type stubCareerReader struct{ career *models.CareerDetail }

func (m *stubCareerReader) FindDetailByID(ctx context.Context, id string) (*models.CareerDetail, error) {
	return m.career, nil
}

type stubCycleReader struct{ cycle *models.Cycle }

func (m *stubCycleReader) FindByID(ctx context.Context, id string) (*models.Cycle, error) {
	return m.cycle, nil
}

type stubAdmissionReader struct{ admission *models.Admission }

func (m *stubAdmissionReader) FindByID(ctx context.Context, id string) (*models.Admission, error) {
	return m.admission, nil
}

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func validEnrollmentRequest() CreateEnrollmentRequest {
	return CreateEnrollmentRequest{
		StudentID:       "stu-1",
		CycleID:         "cyc-1",
		CareerID:        "car-1",
		AdmissionID:     "adm-1",
		StartDate:       time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2026, time.December, 15, 0, 0, 0, 0, time.UTC),
		Modality:        "ON_SITE",
		Shift:           "MORNING",
		TotalCost:       decimal.NewFromInt(1000),
		Credit:          true,
		NumInstallments: 4,
	}
}

func newEnrollmentService(repo *stubEnrollmentRepo, recs *stubReceivableWriter, pays *stubPaymentWriter, db *sqlx.DB, studentErr error) *EnrollmentService {
	students := &stubStudentReader{
		student: &models.Student{ID: "stu-1", FirstName: "John", LastName: "Doe"},
		err:     studentErr,
	}
	careers := &stubCareerReader{career: &models.CareerDetail{
		Career:   models.Career{ID: "car-1", Name: "Nursing"},
		AreaName: "Science",
	}}
	cycles := &stubCycleReader{cycle: &models.Cycle{ID: "cyc-1", Name: "2026-I"}}
	admissions := &stubAdmissionReader{admission: &models.Admission{ID: "adm-1", Name: "2026"}}

	cacheSvc := NewCacheService(nil, nil, 0, zap.NewNop(), false)
	return NewEnrollmentService(
		repo, recs, pays, students, careers, cycles, admissions, db,
		NewBillingScheduler(4), NewCodeGenerator(), cacheSvc, zap.NewNop(), 3,
	)
}

func TestEnrollmentCreatePersistsSchedule(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	repo := &stubEnrollmentRepo{}
	recs := &stubReceivableWriter{}
	pays := &stubPaymentWriter{}
	svc := newEnrollmentService(repo, recs, pays, db, nil)

	detail, err := svc.Create(context.Background(), validEnrollmentRequest())
	require.NoError(t, err)
	require.NotNil(t, detail)

	require.Len(t, repo.created, 1)
	assert.Equal(t, "2026-SCIENCE-JODO-001", repo.assignedCode)
	require.NotNil(t, detail.Code)
	assert.Equal(t, "2026-SCIENCE-JODO-001", *detail.Code)

	require.Len(t, recs.created, 4)
	for _, rec := range recs.created {
		assert.Equal(t, "stu-1", rec.StudentID)
		assert.True(t, rec.TotalAmount.Equal(decimal.NewFromInt(250)))
		assert.Contains(t, rec.Concept, "2026-SCIENCE-JODO-001")
	}
	assert.Len(t, pays.created, 4)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentCreateDuplicateTupleConflicts(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	repo := &stubEnrollmentRepo{activeTuple: true}
	svc := newEnrollmentService(repo, &stubReceivableWriter{}, &stubPaymentWriter{}, db, nil)

	_, err := svc.Create(context.Background(), validEnrollmentRequest())
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "2026-I")
	assert.Contains(t, appErr.Message, "Nursing")
	assert.Empty(t, repo.created)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentCreateStudentNotFound(t *testing.T) {
	db, _ := newMockDB(t)

	repo := &stubEnrollmentRepo{}
	svc := newEnrollmentService(repo, &stubReceivableWriter{}, &stubPaymentWriter{}, db, sql.ErrNoRows)

	_, err := svc.Create(context.Background(), validEnrollmentRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestEnrollmentCreateRetriesOnCodeRace(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectCommit()

	codeRace := &pq.Error{Code: "23505", Constraint: "enrollments_code_key"}
	repo := &stubEnrollmentRepo{assignErrs: []error{codeRace, nil}}
	svc := newEnrollmentService(repo, &stubReceivableWriter{}, &stubPaymentWriter{}, db, nil)

	detail, err := svc.Create(context.Background(), validEnrollmentRequest())
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, "2026-SCIENCE-JODO-001", repo.assignedCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentCreateInvalidPayload(t *testing.T) {
	db, _ := newMockDB(t)
	svc := newEnrollmentService(&stubEnrollmentRepo{}, &stubReceivableWriter{}, &stubPaymentWriter{}, db, nil)

	req := validEnrollmentRequest()
	req.StudentID = ""
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentCreateNegativeMoneyRejected(t *testing.T) {
	db, _ := newMockDB(t)
	svc := newEnrollmentService(&stubEnrollmentRepo{}, &stubReceivableWriter{}, &stubPaymentWriter{}, db, nil)

	req := validEnrollmentRequest()
	req.TotalCost = decimal.NewFromInt(-100)
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollmentRemoveCascadesVoid(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	code := "2026-SCIENCE-JODO-001"
	repo := &stubEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", StudentID: "stu-1", Code: &code, Status: models.EnrollmentStatusActive},
	}}
	recs := &stubReceivableWriter{conceptRecs: []models.AccountReceivable{
		{ID: "rec-1"}, {ID: "rec-2"},
	}}
	pays := &stubPaymentWriter{}
	svc := newEnrollmentService(repo, recs, pays, db, nil)

	enrollment, err := svc.Remove(context.Background(), "enr-1")
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusDeleted, enrollment.Status)
	assert.ElementsMatch(t, []string{"rec-1", "rec-2"}, pays.voidedByAccts)
	assert.ElementsMatch(t, []string{"rec-1", "rec-2"}, recs.voided)
	assert.Equal(t, []string{"enr-1"}, repo.softDeleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRemoveTwiceFails(t *testing.T) {
	db, _ := newMockDB(t)

	repo := &stubEnrollmentRepo{enrollments: map[string]models.Enrollment{
		"enr-1": {ID: "enr-1", Status: models.EnrollmentStatusDeleted},
	}}
	svc := newEnrollmentService(repo, &stubReceivableWriter{}, &stubPaymentWriter{}, db, nil)

	_, err := svc.Remove(context.Background(), "enr-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.softDeleted)
}

func TestEnrollmentRemoveUnknownNotFound(t *testing.T) {
	db, _ := newMockDB(t)
	svc := newEnrollmentService(&stubEnrollmentRepo{}, &stubReceivableWriter{}, &stubPaymentWriter{}, db, nil)

	_, err := svc.Remove(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
