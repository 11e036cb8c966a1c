package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

const tutorColumns = `id, first_name, last_name, phone, email, address, deleted_at, created_at, updated_at`

// TutorRepository handles persistence of tutors.
type TutorRepository struct {
	db *sqlx.DB
}

// NewTutorRepository constructs the repository.
func NewTutorRepository(db *sqlx.DB) *TutorRepository {
	return &TutorRepository{db: db}
}

// FindByID returns a non-deleted tutor.
func (r *TutorRepository) FindByID(ctx context.Context, id string) (*models.Tutor, error) {
	query := fmt.Sprintf("SELECT %s FROM tutors WHERE id = $1 AND deleted_at IS NULL", tutorColumns)
	var tutor models.Tutor
	if err := r.db.GetContext(ctx, &tutor, query, id); err != nil {
		return nil, err
	}
	return &tutor, nil
}

// List returns all non-deleted tutors.
func (r *TutorRepository) List(ctx context.Context) ([]models.Tutor, error) {
	query := fmt.Sprintf("SELECT %s FROM tutors WHERE deleted_at IS NULL ORDER BY last_name ASC", tutorColumns)
	var tutors []models.Tutor
	if err := r.db.SelectContext(ctx, &tutors, query); err != nil {
		return nil, fmt.Errorf("list tutors: %w", err)
	}
	return tutors, nil
}

// Create persists a new tutor.
func (r *TutorRepository) Create(ctx context.Context, tutor *models.Tutor) error {
	if tutor.ID == "" {
		tutor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	tutor.CreatedAt = now
	tutor.UpdatedAt = now
	const query = `INSERT INTO tutors (id, first_name, last_name, phone, email, address, created_at, updated_at)
        VALUES (:id, :first_name, :last_name, :phone, :email, :address, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tutor); err != nil {
		return fmt.Errorf("create tutor: %w", err)
	}
	return nil
}

// Update persists mutable tutor fields.
func (r *TutorRepository) Update(ctx context.Context, tutor *models.Tutor) error {
	tutor.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tutors SET first_name = :first_name, last_name = :last_name, phone = :phone,
        email = :email, address = :address, updated_at = :updated_at
        WHERE id = :id AND deleted_at IS NULL`
	if _, err := r.db.NamedExecContext(ctx, query, tutor); err != nil {
		return fmt.Errorf("update tutor: %w", err)
	}
	return nil
}

// SoftDelete marks the tutor as removed.
func (r *TutorRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE tutors SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete tutor: %w", err)
	}
	return nil
}
