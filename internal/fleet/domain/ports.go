package domain

import (
	"context"
	"time"
)

type CarRepository interface {
	Create(ctx context.Context, plate string, driverID *int64) (Car, error)
	FindByPlate(ctx context.Context, plate string) (Car, error)
	UpdateDriver(ctx context.Context, carID int64, driverID *int64) (Car, error)
	Delete(ctx context.Context, carID int64) error
	List(ctx context.Context) ([]Car, error)
}

type DriverRepository interface {
	Create(ctx context.Context, name string) (Driver, error)
	FindByID(ctx context.Context, id int64) (Driver, error)
}

type PositionRepository interface {
	Create(ctx context.Context, carID int64, lat, lon float64, date time.Time, address string) (Position, error)
	ListByCar(ctx context.Context, carID int64) ([]Position, error)
}

// Geocoder resolves coordinates into a human-readable address. An
// empty string means the provider had no result; callers treat errors
// the same way.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

type Publisher interface {
	PublishPosition(ctx context.Context, plate string, pos Position) error
}

type FeedPort interface {
	Broadcast(ctx context.Context, plate string, pos Position) error
}
