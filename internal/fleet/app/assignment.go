package app

import (
	"context"
	"fmt"

	"car-fleet/internal/fleet/domain"
)

// DriverAssignmentService enforces the car-driver association rules:
// a car holds at most one driver, assignment overwrites, and
// unassignment is check-before-clear.
type DriverAssignmentService struct {
	carRepo    domain.CarRepository
	driverRepo domain.DriverRepository
}

func NewDriverAssignmentService(cr domain.CarRepository, dr domain.DriverRepository) *DriverAssignmentService {
	return &DriverAssignmentService{carRepo: cr, driverRepo: dr}
}

// Assign sets the car's driver reference, overwriting any prior
// assignment. Re-assigning the same driver is a no-op success.
func (s *DriverAssignmentService) Assign(ctx context.Context, plate string, driverID int64) (domain.Car, error) {
	car, err := s.carRepo.FindByPlate(ctx, plate)
	if err != nil {
		return domain.Car{}, err
	}

	if _, err := s.driverRepo.FindByID(ctx, driverID); err != nil {
		return domain.Car{}, err
	}

	if car.DriverID != nil && *car.DriverID == driverID {
		return car, nil
	}

	updated, err := s.carRepo.UpdateDriver(ctx, car.ID, &driverID)
	if err != nil {
		return domain.Car{}, fmt.Errorf("update car driver: %w", err)
	}
	return updated, nil
}

// Unassign clears the car's driver reference, but only when the
// current driver matches. A car with no driver, or a different driver,
// is an assignment mismatch rather than a silent no-op.
func (s *DriverAssignmentService) Unassign(ctx context.Context, plate string, driverID int64) error {
	car, err := s.carRepo.FindByPlate(ctx, plate)
	if err != nil {
		return err
	}

	if car.DriverID == nil || *car.DriverID != driverID {
		return domain.ErrAssignmentMismatch
	}

	if _, err := s.carRepo.UpdateDriver(ctx, car.ID, nil); err != nil {
		return fmt.Errorf("clear car driver: %w", err)
	}
	return nil
}

// ValidateDriverRef is the shared validation for car create/update: a
// nil reference is always valid (clears the assignment), a non-nil one
// must name an existing driver.
func (s *DriverAssignmentService) ValidateDriverRef(ctx context.Context, driverID *int64) error {
	if driverID == nil {
		return nil
	}
	if _, err := s.driverRepo.FindByID(ctx, *driverID); err != nil {
		return err
	}
	return nil
}
