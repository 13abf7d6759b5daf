package repository

import (
	"context"
	"fmt"
	"time"

	"car-fleet/internal/fleet/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PositionRepository struct {
	db *pgxpool.Pool
}

func NewPositionRepository(db *pgxpool.Pool) *PositionRepository {
	return &PositionRepository{db: db}
}

func (r *PositionRepository) Create(ctx context.Context, carID int64, lat, lon float64, date time.Time, address string) (domain.Position, error) {
	var pos domain.Position
	err := r.db.QueryRow(ctx, `
		INSERT INTO positions (car_id, latitude, longitude, date, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, car_id, latitude, longitude, date, address
	`, carID, lat, lon, date, address).Scan(
		&pos.ID, &pos.CarID, &pos.Latitude, &pos.Longitude, &pos.Date, &pos.Address,
	)
	if err != nil {
		return domain.Position{}, fmt.Errorf("insert position: %w", err)
	}
	return pos, nil
}

// ListByCar returns the car's positions ordered by ingestion time
// ascending. Equal timestamps fall back to insertion order.
func (r *PositionRepository) ListByCar(ctx context.Context, carID int64) ([]domain.Position, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, car_id, latitude, longitude, date, address
		FROM positions
		WHERE car_id = $1
		ORDER BY date ASC, id ASC
	`, carID)
	if err != nil {
		return nil, fmt.Errorf("select positions: %w", err)
	}
	defer rows.Close()

	positions := make([]domain.Position, 0)
	for rows.Next() {
		var pos domain.Position
		if err := rows.Scan(&pos.ID, &pos.CarID, &pos.Latitude, &pos.Longitude, &pos.Date, &pos.Address); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		positions = append(positions, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate positions: %w", err)
	}
	return positions, nil
}
