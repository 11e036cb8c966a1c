package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

// AdmissionRepository handles persistence of admission campaigns.
type AdmissionRepository struct {
	db *sqlx.DB
}

func NewAdmissionRepository(db *sqlx.DB) *AdmissionRepository {
	return &AdmissionRepository{db: db}
}

func (r *AdmissionRepository) FindByID(ctx context.Context, id string) (*models.Admission, error) {
	const query = `SELECT id, name, deleted_at, created_at, updated_at FROM admissions WHERE id = $1 AND deleted_at IS NULL`
	var admission models.Admission
	if err := r.db.GetContext(ctx, &admission, query, id); err != nil {
		return nil, err
	}
	return &admission, nil
}

func (r *AdmissionRepository) List(ctx context.Context) ([]models.Admission, error) {
	const query = `SELECT id, name, deleted_at, created_at, updated_at FROM admissions WHERE deleted_at IS NULL ORDER BY name ASC`
	var admissions []models.Admission
	if err := r.db.SelectContext(ctx, &admissions, query); err != nil {
		return nil, fmt.Errorf("list admissions: %w", err)
	}
	return admissions, nil
}

func (r *AdmissionRepository) Create(ctx context.Context, admission *models.Admission) error {
	if admission.ID == "" {
		admission.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	admission.CreatedAt = now
	admission.UpdatedAt = now
	const query = `INSERT INTO admissions (id, name, created_at, updated_at) VALUES (:id, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, admission); err != nil {
		return fmt.Errorf("create admission: %w", err)
	}
	return nil
}

func (r *AdmissionRepository) Update(ctx context.Context, admission *models.Admission) error {
	admission.UpdatedAt = time.Now().UTC()
	const query = `UPDATE admissions SET name = :name, updated_at = :updated_at WHERE id = :id AND deleted_at IS NULL`
	if _, err := r.db.NamedExecContext(ctx, query, admission); err != nil {
		return fmt.Errorf("update admission: %w", err)
	}
	return nil
}

func (r *AdmissionRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE admissions SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete admission: %w", err)
	}
	return nil
}
