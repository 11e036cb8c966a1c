package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

// CareerRepository handles persistence of careers.
type CareerRepository struct {
	db *sqlx.DB
}

func NewCareerRepository(db *sqlx.DB) *CareerRepository {
	return &CareerRepository{db: db}
}

func (r *CareerRepository) FindByID(ctx context.Context, id string) (*models.Career, error) {
	const query = `SELECT id, name, area_id, deleted_at, created_at, updated_at FROM careers WHERE id = $1 AND deleted_at IS NULL`
	var career models.Career
	if err := r.db.GetContext(ctx, &career, query, id); err != nil {
		return nil, err
	}
	return &career, nil
}

// FindDetailByID resolves the career together with its area name, which the
// enrollment workflow needs for student code generation.
func (r *CareerRepository) FindDetailByID(ctx context.Context, id string) (*models.CareerDetail, error) {
	const query = `SELECT c.id, c.name, c.area_id, c.deleted_at, c.created_at, c.updated_at, a.name AS area_name
        FROM careers c
        JOIN areas a ON a.id = c.area_id
        WHERE c.id = $1 AND c.deleted_at IS NULL`
	var detail models.CareerDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

func (r *CareerRepository) List(ctx context.Context) ([]models.CareerDetail, error) {
	const query = `SELECT c.id, c.name, c.area_id, c.deleted_at, c.created_at, c.updated_at, a.name AS area_name
        FROM careers c
        JOIN areas a ON a.id = c.area_id
        WHERE c.deleted_at IS NULL
        ORDER BY c.name ASC`
	var careers []models.CareerDetail
	if err := r.db.SelectContext(ctx, &careers, query); err != nil {
		return nil, fmt.Errorf("list careers: %w", err)
	}
	return careers, nil
}

func (r *CareerRepository) Create(ctx context.Context, career *models.Career) error {
	if career.ID == "" {
		career.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	career.CreatedAt = now
	career.UpdatedAt = now
	const query = `INSERT INTO careers (id, name, area_id, created_at, updated_at) VALUES (:id, :name, :area_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, career); err != nil {
		return fmt.Errorf("create career: %w", err)
	}
	return nil
}

func (r *CareerRepository) Update(ctx context.Context, career *models.Career) error {
	career.UpdatedAt = time.Now().UTC()
	const query = `UPDATE careers SET name = :name, area_id = :area_id, updated_at = :updated_at WHERE id = :id AND deleted_at IS NULL`
	if _, err := r.db.NamedExecContext(ctx, query, career); err != nil {
		return fmt.Errorf("update career: %w", err)
	}
	return nil
}

func (r *CareerRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE careers SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete career: %w", err)
	}
	return nil
}
