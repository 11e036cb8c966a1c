package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

const enrollmentColumns = `e.id, e.student_id, e.cycle_id, e.career_id, e.admission_id,
e.start_date, e.end_date, e.modality, e.shift,
e.total_cost, e.discounts, e.initial_payment, e.carnet_cost, e.carnet_prepaid, e.credit, e.num_installments,
e.code, e.status, e.notes, e.created_at, e.updated_at`

// EnrollmentRepository handles persistence of enrollments.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments filtered by the provided criteria. Deleted
// enrollments are excluded unless explicitly requested through the status
// filter.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
LEFT JOIN students s ON s.id = e.student_id
LEFT JOIN cycles cy ON cy.id = e.cycle_id
LEFT JOIN careers ca ON ca.id = e.career_id
LEFT JOIN areas ar ON ar.id = ca.area_id
LEFT JOIN admissions ad ON ad.id = e.admission_id`

	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CycleID != "" {
		conditions = append(conditions, fmt.Sprintf("e.cycle_id = $%d", len(args)+1))
		args = append(args, filter.CycleID)
	}
	if filter.CareerID != "" {
		conditions = append(conditions, fmt.Sprintf("e.career_id = $%d", len(args)+1))
		args = append(args, filter.CareerID)
	}
	if filter.AdmissionID != "" {
		conditions = append(conditions, fmt.Sprintf("e.admission_id = $%d", len(args)+1))
		args = append(args, filter.AdmissionID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	} else {
		conditions = append(conditions, fmt.Sprintf("e.status <> $%d", len(args)+1))
		args = append(args, models.EnrollmentStatusDeleted)
	}

	clause := " WHERE " + strings.Join(conditions, " AND ")

	allowedSorts := map[string]string{
		"created_at":   "e.created_at",
		"start_date":   "e.start_date",
		"student_name": "s.last_name",
		"code":         "e.code",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "e.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s,
        s.first_name AS student_first_name, s.last_name AS student_last_name,
        cy.name AS cycle_name, ca.name AS career_name, ar.name AS area_name, ad.name AS admission_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, enrollmentColumns, base+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	query := fmt.Sprintf("SELECT %s FROM enrollments e WHERE e.id = $1", enrollmentColumns)
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns an enrollment with collaborator names resolved.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	query := fmt.Sprintf(`SELECT %s,
        s.first_name AS student_first_name, s.last_name AS student_last_name,
        cy.name AS cycle_name, ca.name AS career_name, ar.name AS area_name, ad.name AS admission_name
        FROM enrollments e
        LEFT JOIN students s ON s.id = e.student_id
        LEFT JOIN cycles cy ON cy.id = e.cycle_id
        LEFT JOIN careers ca ON ca.id = e.career_id
        LEFT JOIN areas ar ON ar.id = ca.area_id
        LEFT JOIN admissions ad ON ad.id = e.admission_id
        WHERE e.id = $1`, enrollmentColumns)
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsActiveTx checks within the transaction whether an active enrollment
// already exists for the tuple. The check is advisory; the partial unique
// index on the same tuple is what actually closes the race.
func (r *EnrollmentRepository) ExistsActiveTx(ctx context.Context, tx *sqlx.Tx, studentID, cycleID, careerID, admissionID string) (bool, error) {
	const query = `SELECT 1 FROM enrollments
        WHERE student_id = $1 AND cycle_id = $2 AND career_id = $3 AND admission_id = $4 AND status = $5 LIMIT 1`
	var exists int
	if err := tx.GetContext(ctx, &exists, query, studentID, cycleID, careerID, admissionID, models.EnrollmentStatusActive); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// CreateTx persists a new enrollment record inside the transaction. The code
// column stays NULL until the workflow assigns it.
func (r *EnrollmentRepository) CreateTx(ctx context.Context, tx *sqlx.Tx, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	enrollment.CreatedAt = now
	enrollment.UpdatedAt = now
	if enrollment.Status == "" {
		enrollment.Status = models.EnrollmentStatusActive
	}
	const query = `INSERT INTO enrollments (id, student_id, cycle_id, career_id, admission_id,
        start_date, end_date, modality, shift,
        total_cost, discounts, initial_payment, carnet_cost, carnet_prepaid, credit, num_installments,
        code, status, notes, created_at, updated_at)
        VALUES (:id, :student_id, :cycle_id, :career_id, :admission_id,
        :start_date, :end_date, :modality, :shift,
        :total_cost, :discounts, :initial_payment, :carnet_cost, :carnet_prepaid, :credit, :num_installments,
        :code, :status, :notes, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, enrollment); err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	return nil
}

// CodeExistsTx probes whether a generated student code is already taken.
func (r *EnrollmentRepository) CodeExistsTx(ctx context.Context, tx *sqlx.Tx, code string) (bool, error) {
	const query = `SELECT 1 FROM enrollments WHERE code = $1 LIMIT 1`
	var exists int
	if err := tx.GetContext(ctx, &exists, query, code); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment code: %w", err)
	}
	return true, nil
}

// AssignCodeTx attaches the generated student code to the enrollment.
func (r *EnrollmentRepository) AssignCodeTx(ctx context.Context, tx *sqlx.Tx, id, code string) error {
	const query = `UPDATE enrollments SET code = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, code, time.Now().UTC()); err != nil {
		return fmt.Errorf("assign enrollment code: %w", err)
	}
	return nil
}

// SoftDeleteTx flips the enrollment status to DELETED.
func (r *EnrollmentRepository) SoftDeleteTx(ctx context.Context, tx *sqlx.Tx, id string) error {
	const query = `UPDATE enrollments SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, id, models.EnrollmentStatusDeleted, time.Now().UTC()); err != nil {
		return fmt.Errorf("soft delete enrollment: %w", err)
	}
	return nil
}

// UpdateInfo applies an administrative patch to descriptive fields.
func (r *EnrollmentRepository) UpdateInfo(ctx context.Context, id string, patch models.EnrollmentPatch) error {
	sets := []string{"updated_at = $1"}
	args := []interface{}{time.Now().UTC()}

	appendSet := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.StartDate != nil {
		appendSet("start_date", *patch.StartDate)
	}
	if patch.EndDate != nil {
		appendSet("end_date", *patch.EndDate)
	}
	if patch.Modality != nil {
		appendSet("modality", *patch.Modality)
	}
	if patch.Shift != nil {
		appendSet("shift", *patch.Shift)
	}
	if patch.Notes != nil {
		appendSet("notes", *patch.Notes)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE enrollments SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	return nil
}
