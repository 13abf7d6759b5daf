package app

import (
	"context"
	"time"

	"car-fleet/internal/fleet/domain"
)

type mockCarRepo struct {
	createFn       func(ctx context.Context, plate string, driverID *int64) (domain.Car, error)
	findByPlateFn  func(ctx context.Context, plate string) (domain.Car, error)
	updateDriverFn func(ctx context.Context, carID int64, driverID *int64) (domain.Car, error)
	deleteFn       func(ctx context.Context, carID int64) error
	listFn         func(ctx context.Context) ([]domain.Car, error)
}

func (m *mockCarRepo) Create(ctx context.Context, plate string, driverID *int64) (domain.Car, error) {
	return m.createFn(ctx, plate, driverID)
}

func (m *mockCarRepo) FindByPlate(ctx context.Context, plate string) (domain.Car, error) {
	return m.findByPlateFn(ctx, plate)
}

func (m *mockCarRepo) UpdateDriver(ctx context.Context, carID int64, driverID *int64) (domain.Car, error) {
	return m.updateDriverFn(ctx, carID, driverID)
}

func (m *mockCarRepo) Delete(ctx context.Context, carID int64) error {
	return m.deleteFn(ctx, carID)
}

func (m *mockCarRepo) List(ctx context.Context) ([]domain.Car, error) {
	return m.listFn(ctx)
}

type mockDriverRepo struct {
	createFn   func(ctx context.Context, name string) (domain.Driver, error)
	findByIDFn func(ctx context.Context, id int64) (domain.Driver, error)
}

func (m *mockDriverRepo) Create(ctx context.Context, name string) (domain.Driver, error) {
	return m.createFn(ctx, name)
}

func (m *mockDriverRepo) FindByID(ctx context.Context, id int64) (domain.Driver, error) {
	return m.findByIDFn(ctx, id)
}

type mockPositionRepo struct {
	createFn    func(ctx context.Context, carID int64, lat, lon float64, date time.Time, address string) (domain.Position, error)
	listByCarFn func(ctx context.Context, carID int64) ([]domain.Position, error)
}

func (m *mockPositionRepo) Create(ctx context.Context, carID int64, lat, lon float64, date time.Time, address string) (domain.Position, error) {
	return m.createFn(ctx, carID, lat, lon, date, address)
}

func (m *mockPositionRepo) ListByCar(ctx context.Context, carID int64) ([]domain.Position, error) {
	return m.listByCarFn(ctx, carID)
}

type mockGeocoder struct {
	reverseFn func(ctx context.Context, lat, lon float64) (string, error)
}

func (m *mockGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	return m.reverseFn(ctx, lat, lon)
}

type mockPublisher struct {
	publishFn func(ctx context.Context, plate string, pos domain.Position) error
}

func (m *mockPublisher) PublishPosition(ctx context.Context, plate string, pos domain.Position) error {
	return m.publishFn(ctx, plate, pos)
}

type mockFeed struct {
	broadcastFn func(ctx context.Context, plate string, pos domain.Position) error
}

func (m *mockFeed) Broadcast(ctx context.Context, plate string, pos domain.Position) error {
	return m.broadcastFn(ctx, plate, pos)
}

func int64ptr(v int64) *int64 { return &v }

func float64ptr(v float64) *float64 { return &v }
