package repository

import (
	"context"
	"fmt"

	"car-fleet/internal/fleet/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DriverRepository struct {
	db *pgxpool.Pool
}

func NewDriverRepository(db *pgxpool.Pool) *DriverRepository {
	return &DriverRepository{db: db}
}

func (r *DriverRepository) Create(ctx context.Context, name string) (domain.Driver, error) {
	var driver domain.Driver
	err := r.db.QueryRow(ctx, `
		INSERT INTO drivers (name)
		VALUES ($1)
		RETURNING id, name
	`, name).Scan(&driver.ID, &driver.Name)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("insert driver: %w", err)
	}
	return driver, nil
}

func (r *DriverRepository) FindByID(ctx context.Context, id int64) (domain.Driver, error) {
	var driver domain.Driver
	err := r.db.QueryRow(ctx, `
		SELECT id, name
		FROM drivers
		WHERE id = $1
	`, id).Scan(&driver.ID, &driver.Name)
	if err == pgx.ErrNoRows {
		return domain.Driver{}, domain.ErrDriverNotFound
	}
	if err != nil {
		return domain.Driver{}, fmt.Errorf("select driver: %w", err)
	}
	return driver, nil
}
