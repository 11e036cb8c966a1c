package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-billing-api/internal/models"
	"github.com/noah-isme/academy-billing-api/internal/repository"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ExistsActiveTx(ctx context.Context, tx *sqlx.Tx, studentID, cycleID, careerID, admissionID string) (bool, error)
	CreateTx(ctx context.Context, tx *sqlx.Tx, enrollment *models.Enrollment) error
	CodeExistsTx(ctx context.Context, tx *sqlx.Tx, code string) (bool, error)
	AssignCodeTx(ctx context.Context, tx *sqlx.Tx, id, code string) error
	SoftDeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error
	UpdateInfo(ctx context.Context, id string, patch models.EnrollmentPatch) error
}

type receivableWriter interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, rec *models.AccountReceivable) error
	FindByConceptContainsTx(ctx context.Context, tx *sqlx.Tx, fragment string) ([]models.AccountReceivable, error)
	MarkVoidTx(ctx context.Context, tx *sqlx.Tx, id string) error
}

type paymentWriter interface {
	CreateTx(ctx context.Context, tx *sqlx.Tx, payment *models.Payment) error
	VoidByAccountsTx(ctx context.Context, tx *sqlx.Tx, accountIDs []string) error
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type careerReader interface {
	FindDetailByID(ctx context.Context, id string) (*models.CareerDetail, error)
}

type cycleReader interface {
	FindByID(ctx context.Context, id string) (*models.Cycle, error)
}

type admissionReader interface {
	FindByID(ctx context.Context, id string) (*models.Admission, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// CreateEnrollmentRequest is the payload for opening an enrollment.
type CreateEnrollmentRequest struct {
	StudentID   string `json:"student_id" validate:"required"`
	CycleID     string `json:"cycle_id" validate:"required"`
	CareerID    string `json:"career_id" validate:"required"`
	AdmissionID string `json:"admission_id" validate:"required"`

	StartDate time.Time `json:"start_date" validate:"required"`
	EndDate   time.Time `json:"end_date" validate:"required"`
	Modality  string    `json:"modality" validate:"required"`
	Shift     string    `json:"shift" validate:"required"`

	TotalCost       decimal.Decimal `json:"total_cost"`
	Discounts       decimal.Decimal `json:"discounts"`
	InitialPayment  decimal.Decimal `json:"initial_payment"`
	CarnetCost      decimal.Decimal `json:"carnet_cost"`
	CarnetPrepaid   bool            `json:"carnet_prepaid"`
	Credit          bool            `json:"credit"`
	NumInstallments int             `json:"num_installments"`

	Notes *string `json:"notes,omitempty"`
}

// EnrollmentService orchestrates the enrollment-to-billing workflow.
type EnrollmentService struct {
	repo        enrollmentRepository
	receivables receivableWriter
	payments    paymentWriter
	students    studentReader
	careers     careerReader
	cycles      cycleReader
	admissions  admissionReader
	tx          txProvider

	scheduler *BillingScheduler
	codes     *CodeGenerator
	cache     *CacheService
	validate  *validator.Validate
	logger    *zap.Logger

	maxAttempts int
}

// NewEnrollmentService wires the workflow dependencies.
func NewEnrollmentService(
	repo enrollmentRepository,
	receivables receivableWriter,
	payments paymentWriter,
	students studentReader,
	careers careerReader,
	cycles cycleReader,
	admissions admissionReader,
	tx txProvider,
	scheduler *BillingScheduler,
	codes *CodeGenerator,
	cache *CacheService,
	logger *zap.Logger,
	maxAttempts int,
) *EnrollmentService {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &EnrollmentService{
		repo:        repo,
		receivables: receivables,
		payments:    payments,
		students:    students,
		careers:     careers,
		cycles:      cycles,
		admissions:  admissions,
		tx:          tx,
		scheduler:   scheduler,
		codes:       codes,
		cache:       cache,
		validate:    validator.New(),
		logger:      logger,
		maxAttempts: maxAttempts,
	}
}

// txCodeLookup lets the code generator probe codes through the workflow's
// open transaction.
type txCodeLookup struct {
	tx   *sqlx.Tx
	repo enrollmentRepository
}

func (l *txCodeLookup) CodeExists(ctx context.Context, code string) (bool, error) {
	return l.repo.CodeExistsTx(ctx, l.tx, code)
}

// Create runs the atomic enrollment workflow: duplicate check, enrollment
// row, student code, receivables and their payments all commit together or
// not at all. The whole transaction retries a bounded number of times when a
// concurrent enrollment wins the race on the code or on serialization.
func (s *EnrollmentService) Create(ctx context.Context, req CreateEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	econ := EnrollmentEconomics{
		TotalCost:       req.TotalCost,
		Discounts:       req.Discounts,
		InitialPayment:  req.InitialPayment,
		CarnetCost:      req.CarnetCost,
		CarnetPrepaid:   req.CarnetPrepaid,
		Credit:          req.Credit,
		NumInstallments: req.NumInstallments,
	}
	if err := s.scheduler.ValidateEconomics(econ); err != nil {
		return nil, err
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		return nil, collaboratorErr(err, "student")
	}
	career, err := s.careers.FindDetailByID(ctx, req.CareerID)
	if err != nil {
		return nil, collaboratorErr(err, "career")
	}
	cycle, err := s.cycles.FindByID(ctx, req.CycleID)
	if err != nil {
		return nil, collaboratorErr(err, "cycle")
	}
	admission, err := s.admissions.FindByID(ctx, req.AdmissionID)
	if err != nil {
		return nil, collaboratorErr(err, "admission")
	}

	conflictMessage := fmt.Sprintf("student already has an active enrollment for cycle %q, career %q, admission %q",
		cycle.Name, career.Name, admission.Name)

	var enrollmentID string
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		enrollmentID, err = s.createOnce(ctx, req, econ, student, career, admission, conflictMessage)
		if err == nil {
			break
		}
		if retryableCreateErr(err) && attempt < s.maxAttempts {
			s.logger.Warn("enrollment transaction lost a race, retrying",
				zap.Int("attempt", attempt),
				zap.String("student_id", req.StudentID),
				zap.Error(err))
			continue
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, receivablesCachePattern(req.StudentID))
	}

	detail, err := s.repo.FindDetailByID(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load created enrollment")
	}
	return detail, nil
}

func (s *EnrollmentService) createOnce(
	ctx context.Context,
	req CreateEnrollmentRequest,
	econ EnrollmentEconomics,
	student *models.Student,
	career *models.CareerDetail,
	admission *models.Admission,
	conflictMessage string,
) (string, error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin enrollment transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	exists, err := s.repo.ExistsActiveTx(ctx, tx, req.StudentID, req.CycleID, req.CareerID, req.AdmissionID)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "check duplicate enrollment")
	}
	if exists {
		return "", appErrors.Clone(appErrors.ErrConflict, conflictMessage)
	}

	enrollment := &models.Enrollment{
		StudentID:       req.StudentID,
		CycleID:         req.CycleID,
		CareerID:        req.CareerID,
		AdmissionID:     req.AdmissionID,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		Modality:        req.Modality,
		Shift:           req.Shift,
		TotalCost:       req.TotalCost,
		Discounts:       req.Discounts,
		InitialPayment:  req.InitialPayment,
		CarnetCost:      req.CarnetCost,
		CarnetPrepaid:   req.CarnetPrepaid,
		Credit:          req.Credit,
		NumInstallments: req.NumInstallments,
		Status:          models.EnrollmentStatusActive,
		Notes:           req.Notes,
	}
	if err := s.repo.CreateTx(ctx, tx, enrollment); err != nil {
		if constraint, ok := repository.UniqueViolation(err); ok && constraint == repository.ConstraintEnrollmentActiveTuple {
			return "", appErrors.Clone(appErrors.ErrConflict, conflictMessage)
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist enrollment")
	}

	code, err := s.codes.Generate(ctx, &txCodeLookup{tx: tx, repo: s.repo}, CodeInput{
		AdmissionName: admission.Name,
		AreaName:      career.AreaName,
		FirstName:     student.FirstName,
		LastName:      student.LastName,
	})
	if err != nil {
		return "", err
	}

	items, err := s.scheduler.Schedule(econ, code)
	if err != nil {
		return "", err
	}
	now := time.Now().UTC()
	for _, item := range items {
		rec := &models.AccountReceivable{
			StudentID:      req.StudentID,
			Concept:        item.Receivable.Concept,
			TotalAmount:    item.Receivable.TotalAmount,
			PendingBalance: item.Receivable.PendingBalance,
			Status:         item.Receivable.Status,
			DueDate:        item.Receivable.DueDate,
		}
		if err := s.receivables.CreateTx(ctx, tx, rec); err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist receivable")
		}
		if item.Payment == nil {
			continue
		}
		notes := item.Payment.Notes
		payment := &models.Payment{
			AccountReceivableID: rec.ID,
			InvoiceNumber:       fmt.Sprintf("INV-%s%s", rec.ID, item.Payment.InvoiceSuffix),
			AmountPaid:          item.Payment.AmountPaid,
			PaymentMethod:       item.Payment.Method,
			Status:              item.Payment.Status,
			PaymentDate:         now,
			DueDate:             item.Receivable.DueDate,
			Notes:               &notes,
		}
		if err := s.payments.CreateTx(ctx, tx, payment); err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist payment")
		}
	}

	if err := s.repo.AssignCodeTx(ctx, tx, enrollment.ID, code); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	committed = true
	return enrollment.ID, nil
}

// retryableCreateErr reports whether the failed attempt should be replayed:
// either another transaction claimed the probed code first, or the database
// aborted on serialization.
func retryableCreateErr(err error) bool {
	if repository.SerializationFailure(err) {
		return true
	}
	constraint, ok := repository.UniqueViolation(err)
	return ok && constraint == repository.ConstraintEnrollmentCode
}

// Remove soft-deletes the enrollment and voids every receivable and payment
// generated for it. Running it twice fails with an invalid state error.
func (s *EnrollmentService) Remove(ctx context.Context, id string) (*models.Enrollment, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load enrollment")
	}
	if enrollment.Status == models.EnrollmentStatusDeleted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "enrollment already deleted")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "begin removal transaction")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if enrollment.Code != nil && *enrollment.Code != "" {
		recs, err := s.receivables.FindByConceptContainsTx(ctx, tx, *enrollment.Code)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "locate enrollment receivables")
		}
		ids := make([]string, 0, len(recs))
		for _, rec := range recs {
			ids = append(ids, rec.ID)
		}
		if err := s.payments.VoidByAccountsTx(ctx, tx, ids); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "void enrollment payments")
		}
		for _, recID := range ids {
			if err := s.receivables.MarkVoidTx(ctx, tx, recID); err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "void enrollment receivable")
			}
		}
	}

	if err := s.repo.SoftDeleteTx(ctx, tx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "soft delete enrollment")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "commit removal")
	}
	committed = true

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, receivablesCachePattern(enrollment.StudentID))
	}

	enrollment.Status = models.EnrollmentStatusDeleted
	return enrollment, nil
}

// List returns enrollments matching the filter plus pagination totals.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return enrollments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Find returns one enrollment with collaborator names resolved.
func (s *EnrollmentService) Find(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load enrollment")
	}
	return detail, nil
}

// Update patches the descriptive fields of an active enrollment. Billing
// economics never change after creation.
func (s *EnrollmentService) Update(ctx context.Context, id string, patch models.EnrollmentPatch) (*models.EnrollmentDetail, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load enrollment")
	}
	if enrollment.Status == models.EnrollmentStatusDeleted {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "enrollment already deleted")
	}

	if err := s.repo.UpdateInfo(ctx, id, patch); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update enrollment")
	}
	return s.Find(ctx, id)
}

func collaboratorErr(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load "+entity)
}

func receivablesCachePattern(studentID string) string {
	return "receivables:student:" + studentID + "*"
}
