package repository

import (
	"context"
	"errors"
	"fmt"

	"car-fleet/internal/fleet/domain"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CarRepository struct {
	db *pgxpool.Pool
}

func NewCarRepository(db *pgxpool.Pool) *CarRepository {
	return &CarRepository{db: db}
}

func (r *CarRepository) Create(ctx context.Context, plate string, driverID *int64) (domain.Car, error) {
	var car domain.Car
	err := r.db.QueryRow(ctx, `
		INSERT INTO cars (license_plate, driver_id)
		VALUES ($1, $2)
		RETURNING id, license_plate, driver_id
	`, plate, driverID).Scan(&car.ID, &car.LicensePlate, &car.DriverID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.Car{}, domain.ErrDuplicatePlate
		}
		return domain.Car{}, fmt.Errorf("insert car: %w", err)
	}
	return car, nil
}

func (r *CarRepository) FindByPlate(ctx context.Context, plate string) (domain.Car, error) {
	var car domain.Car
	err := r.db.QueryRow(ctx, `
		SELECT id, license_plate, driver_id
		FROM cars
		WHERE license_plate = $1
	`, plate).Scan(&car.ID, &car.LicensePlate, &car.DriverID)
	if err == pgx.ErrNoRows {
		return domain.Car{}, domain.ErrCarNotFound
	}
	if err != nil {
		return domain.Car{}, fmt.Errorf("select car: %w", err)
	}
	return car, nil
}

func (r *CarRepository) UpdateDriver(ctx context.Context, carID int64, driverID *int64) (domain.Car, error) {
	var car domain.Car
	err := r.db.QueryRow(ctx, `
		UPDATE cars
		SET driver_id = $2
		WHERE id = $1
		RETURNING id, license_plate, driver_id
	`, carID, driverID).Scan(&car.ID, &car.LicensePlate, &car.DriverID)
	if err == pgx.ErrNoRows {
		return domain.Car{}, domain.ErrCarNotFound
	}
	if err != nil {
		return domain.Car{}, fmt.Errorf("update car driver: %w", err)
	}
	return car, nil
}

// Delete removes the car and its positions in one transaction.
func (r *CarRepository) Delete(ctx context.Context, carID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		DELETE FROM positions
		WHERE car_id = $1
	`, carID); err != nil {
		return fmt.Errorf("delete positions: %w", err)
	}

	ct, err := tx.Exec(ctx, `
		DELETE FROM cars
		WHERE id = $1
	`, carID)
	if err != nil {
		return fmt.Errorf("delete car: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrCarNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *CarRepository) List(ctx context.Context) ([]domain.Car, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, license_plate, driver_id
		FROM cars
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("select cars: %w", err)
	}
	defer rows.Close()

	cars := make([]domain.Car, 0)
	for rows.Next() {
		var car domain.Car
		if err := rows.Scan(&car.ID, &car.LicensePlate, &car.DriverID); err != nil {
			return nil, fmt.Errorf("scan car: %w", err)
		}
		cars = append(cars, car)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cars: %w", err)
	}
	return cars, nil
}
