package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"car-fleet/internal/fleet/domain"
)

// FleetService is the car registry: create, look up, list, re-assign,
// and delete cars, plus driver registration.
type FleetService struct {
	carRepo    domain.CarRepository
	driverRepo domain.DriverRepository
	assignment *DriverAssignmentService
}

func NewFleetService(cr domain.CarRepository, dr domain.DriverRepository, as *DriverAssignmentService) *FleetService {
	return &FleetService{carRepo: cr, driverRepo: dr, assignment: as}
}

func (s *FleetService) CreateCar(ctx context.Context, plate string, driverID *int64) (domain.Car, error) {
	if strings.TrimSpace(plate) == "" {
		return domain.Car{}, domain.ErrInvalidPlate
	}

	// An already taken plate is reported before a dangling driver
	// reference. The unique constraint on Create still backstops
	// concurrent inserts.
	switch _, err := s.carRepo.FindByPlate(ctx, plate); {
	case err == nil:
		return domain.Car{}, domain.ErrDuplicatePlate
	case !errors.Is(err, domain.ErrCarNotFound):
		return domain.Car{}, fmt.Errorf("check plate: %w", err)
	}

	if err := s.assignment.ValidateDriverRef(ctx, driverID); err != nil {
		return domain.Car{}, err
	}

	car, err := s.carRepo.Create(ctx, plate, driverID)
	if err != nil {
		return domain.Car{}, err
	}
	return car, nil
}

func (s *FleetService) GetCar(ctx context.Context, plate string) (domain.Car, error) {
	return s.carRepo.FindByPlate(ctx, plate)
}

func (s *FleetService) ListCars(ctx context.Context) ([]domain.Car, error) {
	cars, err := s.carRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cars: %w", err)
	}
	return cars, nil
}

// UpdateCarDriver sets or clears the car's driver reference. A nil
// driverID clears it.
func (s *FleetService) UpdateCarDriver(ctx context.Context, plate string, driverID *int64) (domain.Car, error) {
	car, err := s.carRepo.FindByPlate(ctx, plate)
	if err != nil {
		return domain.Car{}, err
	}

	if err := s.assignment.ValidateDriverRef(ctx, driverID); err != nil {
		return domain.Car{}, err
	}

	updated, err := s.carRepo.UpdateDriver(ctx, car.ID, driverID)
	if err != nil {
		return domain.Car{}, fmt.Errorf("update car driver: %w", err)
	}
	return updated, nil
}

// DeleteCar removes the car and, in the same transaction, its recorded
// positions.
func (s *FleetService) DeleteCar(ctx context.Context, plate string) error {
	car, err := s.carRepo.FindByPlate(ctx, plate)
	if err != nil {
		return err
	}

	if err := s.carRepo.Delete(ctx, car.ID); err != nil {
		return fmt.Errorf("delete car: %w", err)
	}
	return nil
}

func (s *FleetService) CreateDriver(ctx context.Context, name string) (domain.Driver, error) {
	if strings.TrimSpace(name) == "" {
		return domain.Driver{}, domain.ErrInvalidDriverName
	}

	driver, err := s.driverRepo.Create(ctx, name)
	if err != nil {
		return domain.Driver{}, fmt.Errorf("create driver: %w", err)
	}
	return driver, nil
}

func (s *FleetService) GetDriver(ctx context.Context, id int64) (domain.Driver, error) {
	return s.driverRepo.FindByID(ctx, id)
}
