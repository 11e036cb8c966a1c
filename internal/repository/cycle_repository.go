package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academy-billing-api/internal/models"
)

// CycleRepository handles persistence of academic cycles.
type CycleRepository struct {
	db *sqlx.DB
}

func NewCycleRepository(db *sqlx.DB) *CycleRepository {
	return &CycleRepository{db: db}
}

func (r *CycleRepository) FindByID(ctx context.Context, id string) (*models.Cycle, error) {
	const query = `SELECT id, name, start_date, end_date, deleted_at, created_at, updated_at FROM cycles WHERE id = $1 AND deleted_at IS NULL`
	var cycle models.Cycle
	if err := r.db.GetContext(ctx, &cycle, query, id); err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *CycleRepository) List(ctx context.Context) ([]models.Cycle, error) {
	const query = `SELECT id, name, start_date, end_date, deleted_at, created_at, updated_at FROM cycles WHERE deleted_at IS NULL ORDER BY start_date DESC`
	var cycles []models.Cycle
	if err := r.db.SelectContext(ctx, &cycles, query); err != nil {
		return nil, fmt.Errorf("list cycles: %w", err)
	}
	return cycles, nil
}

func (r *CycleRepository) Create(ctx context.Context, cycle *models.Cycle) error {
	if cycle.ID == "" {
		cycle.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	cycle.CreatedAt = now
	cycle.UpdatedAt = now
	const query = `INSERT INTO cycles (id, name, start_date, end_date, created_at, updated_at)
        VALUES (:id, :name, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cycle); err != nil {
		return fmt.Errorf("create cycle: %w", err)
	}
	return nil
}

func (r *CycleRepository) Update(ctx context.Context, cycle *models.Cycle) error {
	cycle.UpdatedAt = time.Now().UTC()
	const query = `UPDATE cycles SET name = :name, start_date = :start_date, end_date = :end_date, updated_at = :updated_at
        WHERE id = :id AND deleted_at IS NULL`
	if _, err := r.db.NamedExecContext(ctx, query, cycle); err != nil {
		return fmt.Errorf("update cycle: %w", err)
	}
	return nil
}

func (r *CycleRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `UPDATE cycles SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("delete cycle: %w", err)
	}
	return nil
}
