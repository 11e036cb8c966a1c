package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

// AreaRepository handles persistence of academic areas.
type AreaRepository struct {
	db *sqlx.DB
}

func NewAreaRepository(db *sqlx.DB) *AreaRepository {
	return &AreaRepository{db: db}
}

func (r *AreaRepository) FindByID(ctx context.Context, id string) (*models.Area, error) {
	const query = `SELECT id, name, deleted_at, created_at, updated_at FROM areas WHERE id = $1 AND deleted_at IS NULL`
	var area models.Area
	if err := r.db.GetContext(ctx, &area, query, id); err != nil {
		return nil, err
	}
	return &area, nil
}

func (r *AreaRepository) List(ctx context.Context) ([]models.Area, error) {
	const query = `SELECT id, name, deleted_at, created_at, updated_at FROM areas WHERE deleted_at IS NULL ORDER BY name ASC`
	var areas []models.Area
	if err := r.db.SelectContext(ctx, &areas, query); err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}
	return areas, nil
}

func (r *AreaRepository) Create(ctx context.Context, area *models.Area) error {
	if area.ID == "" {
		area.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	area.CreatedAt = now
	area.UpdatedAt = now
	const query = `INSERT INTO areas (id, name, created_at, updated_at) VALUES (:id, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, area); err != nil {
		return fmt.Errorf("create area: %w", err)
	}
	return nil
}

func (r *AreaRepository) Update(ctx context.Context, area *models.Area) error {
	area.UpdatedAt = time.Now().UTC()
	const query = `UPDATE areas SET name = :name, updated_at = :updated_at WHERE id = :id AND deleted_at IS NULL`
	if _, err := r.db.NamedExecContext(ctx, query, area); err != nil {
		return fmt.Errorf("update area: %w", err)
	}
	return nil
}

func (r *AreaRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE areas SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete area: %w", err)
	}
	return nil
}
