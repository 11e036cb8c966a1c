package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-billing-api/internal/models"
	appErrors "github.com/noah-isme/academy-billing-api/pkg/errors"
	"github.com/noah-isme/academy-billing-api/pkg/export"
)

type receivableRepository interface {
	Create(ctx context.Context, rec *models.AccountReceivable) error
	FindByID(ctx context.Context, id string) (*models.AccountReceivable, error)
	FindByStudent(ctx context.Context, studentID string) ([]models.AccountReceivable, error)
	List(ctx context.Context, filter models.ReceivableFilter) ([]models.AccountReceivable, int, error)
	Update(ctx context.Context, rec *models.AccountReceivable) error
	MarkVoid(ctx context.Context, id string) error
}

// CreateReceivableRequest is the payload for registering an obligation
// outside the enrollment workflow, such as an exam fee.
type CreateReceivableRequest struct {
	StudentID   string          `json:"student_id" validate:"required"`
	Concept     string          `json:"concept" validate:"required"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	DueDate     time.Time       `json:"due_date" validate:"required"`
}

// StatementFormat selects the export encoding for account statements.
type StatementFormat string

const (
	StatementFormatCSV StatementFormat = "csv"
	StatementFormatPDF StatementFormat = "pdf"
)

// Statement is a rendered account statement export.
type Statement struct {
	Content     []byte
	ContentType string
	Filename    string
}

// ReceivableService manages accounts receivable and their statements.
type ReceivableService struct {
	repo     receivableRepository
	students studentReader
	cache    *CacheService
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	validate *validator.Validate
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewReceivableService wires the receivable dependencies.
func NewReceivableService(repo receivableRepository, students studentReader, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *ReceivableService {
	return &ReceivableService{
		repo:     repo,
		students: students,
		cache:    cache,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		validate: validator.New(),
		logger:   logger,
		cacheTTL: cacheTTL,
	}
}

// Create registers a standalone receivable. Its pending balance starts equal
// to the total amount.
func (s *ReceivableService) Create(ctx context.Context, req CreateReceivableRequest) (*models.AccountReceivable, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid receivable payload")
	}
	if req.TotalAmount.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "total amount must not be negative")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		return nil, collaboratorErr(err, "student")
	}

	rec := &models.AccountReceivable{
		StudentID:      req.StudentID,
		Concept:        req.Concept,
		TotalAmount:    req.TotalAmount,
		PendingBalance: req.TotalAmount,
		Status:         models.PaymentStatusPending,
		DueDate:        req.DueDate,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist receivable")
	}

	s.invalidate(ctx, req.StudentID)
	return rec, nil
}

// Find returns one receivable, settled or not.
func (s *ReceivableService) Find(ctx context.Context, id string) (*models.AccountReceivable, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "account receivable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load receivable")
	}
	return rec, nil
}

// FindByStudent returns every receivable of a student, served through the
// cache when enabled. The second return value reports a cache hit.
func (s *ReceivableService) FindByStudent(ctx context.Context, studentID string) ([]models.AccountReceivable, bool, error) {
	key := receivablesCacheKey(studentID)
	if s.cache.Enabled() {
		var cached []models.AccountReceivable
		if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
			return cached, true, nil
		}
	}

	recs, err := s.repo.FindByStudent(ctx, studentID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list student receivables")
	}
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, key, recs, s.cacheTTL); err != nil {
			s.logger.Warn("cache receivables failed", zap.String("student_id", studentID), zap.Error(err))
		}
	}
	return recs, false, nil
}

// List returns receivables still carrying a pending balance unless the
// filter asks for settled ones too.
func (s *ReceivableService) List(ctx context.Context, filter models.ReceivableFilter) ([]models.AccountReceivable, *models.Pagination, error) {
	recs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list receivables")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return recs, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Update applies administrative corrections. The total amount can never drop
// below the outstanding balance and balances never go negative.
func (s *ReceivableService) Update(ctx context.Context, id string, patch models.ReceivablePatch) (*models.AccountReceivable, error) {
	rec, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Status == models.PaymentStatusVoid {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "cannot update a voided receivable")
	}

	if patch.Concept != nil {
		rec.Concept = *patch.Concept
	}
	if patch.TotalAmount != nil {
		rec.TotalAmount = *patch.TotalAmount
	}
	if patch.PendingBalance != nil {
		rec.PendingBalance = *patch.PendingBalance
	}
	if patch.DueDate != nil {
		rec.DueDate = *patch.DueDate
	}

	if rec.PendingBalance.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "pending balance must not be negative")
	}
	if rec.TotalAmount.LessThan(rec.PendingBalance) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "total amount must not be less than the pending balance")
	}
	if rec.PendingBalance.IsZero() {
		rec.Status = models.PaymentStatusPaid
	} else {
		rec.Status = models.PaymentStatusPending
	}

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update receivable")
	}
	s.invalidate(ctx, rec.StudentID)
	return rec, nil
}

// Remove voids a receivable. Voiding an already voided record is a no-op.
func (s *ReceivableService) Remove(ctx context.Context, id string) (*models.AccountReceivable, error) {
	rec, err := s.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.MarkVoid(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "void receivable")
	}
	rec.Status = models.PaymentStatusVoid
	s.invalidate(ctx, rec.StudentID)
	return rec, nil
}

// Statement renders the account statement of a student in the requested
// format.
func (s *ReceivableService) Statement(ctx context.Context, studentID string, format StatementFormat) (*Statement, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, collaboratorErr(err, "student")
	}
	recs, _, err := s.FindByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{
		Headers: []string{"Concept", "Total", "Pending", "Status", "Due Date"},
	}
	for _, rec := range recs {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Concept":  rec.Concept,
			"Total":    rec.TotalAmount.StringFixed(2),
			"Pending":  rec.PendingBalance.StringFixed(2),
			"Status":   string(rec.Status),
			"Due Date": rec.DueDate.Format("2006-01-02"),
		})
	}

	switch format {
	case StatementFormatCSV:
		content, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render csv statement")
		}
		return &Statement{
			Content:     content,
			ContentType: "text/csv",
			Filename:    fmt.Sprintf("statement-%s.csv", studentID),
		}, nil
	case StatementFormatPDF:
		title := fmt.Sprintf("Account Statement - %s %s", student.FirstName, student.LastName)
		content, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "render pdf statement")
		}
		return &Statement{
			Content:     content,
			ContentType: "application/pdf",
			Filename:    fmt.Sprintf("statement-%s.pdf", studentID),
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

func (s *ReceivableService) invalidate(ctx context.Context, studentID string) {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, receivablesCachePattern(studentID))
	}
}

func receivablesCacheKey(studentID string) string {
	return "receivables:student:" + studentID
}
