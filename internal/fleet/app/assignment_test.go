package app

import (
	"context"
	"errors"
	"testing"

	"car-fleet/internal/fleet/domain"
)

func TestAssign_CarNotFound(t *testing.T) {
	carRepo := &mockCarRepo{
		findByPlateFn: func(_ context.Context, _ string) (domain.Car, error) {
			return domain.Car{}, domain.ErrCarNotFound
		},
	}

	svc := NewDriverAssignmentService(carRepo, &mockDriverRepo{})
	_, err := svc.Assign(context.Background(), "UNKNOWN", 1)
	if !errors.Is(err, domain.ErrCarNotFound) {
		t.Fatalf("expected ErrCarNotFound, got %v", err)
	}
}

func TestAssign_DriverNotFound(t *testing.T) {
	updateCalled := false
	carRepo := &mockCarRepo{
		findByPlateFn: func(_ context.Context, plate string) (domain.Car, error) {
			return domain.Car{ID: 1, LicensePlate: plate}, nil
		},
		updateDriverFn: func(_ context.Context, _ int64, _ *int64) (domain.Car, error) {
			updateCalled = true
			return domain.Car{}, nil
		},
	}
	driverRepo := &mockDriverRepo{
		findByIDFn: func(_ context.Context, _ int64) (domain.Driver, error) {
			return domain.Driver{}, domain.ErrDriverNotFound
		},
	}

	svc := NewDriverAssignmentService(carRepo, driverRepo)
	_, err := svc.Assign(context.Background(), "ABC123", 42)
	if !errors.Is(err, domain.ErrDriverNotFound) {
		t.Fatalf("expected ErrDriverNotFound, got %v", err)
	}
	if updateCalled {
		t.Fatal("driver reference must stay unchanged when the driver does not exist")
	}
}

func TestAssign_OverwritesPriorAssignment(t *testing.T) {
	var gotDriverID *int64
	carRepo := &mockCarRepo{
		findByPlateFn: func(_ context.Context, plate string) (domain.Car, error) {
			return domain.Car{ID: 7, LicensePlate: plate, DriverID: int64ptr(1)}, nil
		},
		updateDriverFn: func(_ context.Context, carID int64, driverID *int64) (domain.Car, error) {
			gotDriverID = driverID
			return domain.Car{ID: carID, LicensePlate: "XYZ999", DriverID: driverID}, nil
		},
	}
	driverRepo := &mockDriverRepo{
		findByIDFn: func(_ context.Context, id int64) (domain.Driver, error) {
			return domain.Driver{ID: id, Name: "Bob"}, nil
		},
	}

	svc := NewDriverAssignmentService(carRepo, driverRepo)
	car, err := svc.Assign(context.Background(), "XYZ999", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotDriverID == nil || *gotDriverID != 2 {
		t.Fatalf("expected driver 2 to be written, got %v", gotDriverID)
	}
	if car.DriverID == nil || *car.DriverID != 2 {
		t.Fatalf("expected returned car to carry driver 2, got %v", car.DriverID)
	}
}

func TestAssign_SameDriverIsIdempotent(t *testing.T) {
	updateCalled := false
	carRepo := &mockCarRepo{
		findByPlateFn: func(_ context.Context, plate string) (domain.Car, error) {
			return domain.Car{ID: 7, LicensePlate: plate, DriverID: int64ptr(5)}, nil
		},
		updateDriverFn: func(_ context.Context, _ int64, _ *int64) (domain.Car, error) {
			updateCalled = true
			return domain.Car{}, nil
		},
	}
	driverRepo := &mockDriverRepo{
		findByIDFn: func(_ context.Context, id int64) (domain.Driver, error) {
			return domain.Driver{ID: id}, nil
		},
	}

	svc := NewDriverAssignmentService(carRepo, driverRepo)
	car, err := svc.Assign(context.Background(), "XYZ999", 5)
	if err != nil {
		t.Fatalf("expected idempotent success, got %v", err)
	}
	if updateCalled {
		t.Fatal("re-assigning the same driver must not write")
	}
	if car.DriverID == nil || *car.DriverID != 5 {
		t.Fatalf("expected driver reference to stay 5, got %v", car.DriverID)
	}
}

func TestUnassign_MismatchedDriver(t *testing.T) {
	updateCalled := false
	carRepo := &mockCarRepo{
		findByPlateFn: func(_ context.Context, plate string) (domain.Car, error) {
			return domain.Car{ID: 7, LicensePlate: plate, DriverID: int64ptr(5)}, nil
		},
		updateDriverFn: func(_ context.Context, _ int64, _ *int64) (domain.Car, error) {
			updateCalled = true
			return domain.Car{}, nil
		},
	}

	svc := NewDriverAssignmentService(carRepo, &mockDriverRepo{})
	err := svc.Unassign(context.Background(), "XYZ999", 6)
	if !errors.Is(err, domain.ErrAssignmentMismatch) {
		t.Fatalf("expected ErrAssignmentMismatch, got %v", err)
	}
	if updateCalled {
		t.Fatal("state must stay unchanged on mismatch")
	}
}

func TestUnassign_NoDriverAssigned(t *testing.T) {
	carRepo := &mockCarRepo{
		findByPlateFn: func(_ context.Context, plate string) (domain.Car, error) {
			return domain.Car{ID: 7, LicensePlate: plate}, nil
		},
	}

	svc := NewDriverAssignmentService(carRepo, &mockDriverRepo{})
	err := svc.Unassign(context.Background(), "XYZ999", 6)
	if !errors.Is(err, domain.ErrAssignmentMismatch) {
		t.Fatalf("expected ErrAssignmentMismatch for unassigned car, got %v", err)
	}
}

func TestUnassign_ClearsReference(t *testing.T) {
	var gotDriverID *int64 = int64ptr(99)
	carRepo := &mockCarRepo{
		findByPlateFn: func(_ context.Context, plate string) (domain.Car, error) {
			return domain.Car{ID: 7, LicensePlate: plate, DriverID: int64ptr(5)}, nil
		},
		updateDriverFn: func(_ context.Context, _ int64, driverID *int64) (domain.Car, error) {
			gotDriverID = driverID
			return domain.Car{ID: 7}, nil
		},
	}

	svc := NewDriverAssignmentService(carRepo, &mockDriverRepo{})
	if err := svc.Unassign(context.Background(), "XYZ999", 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotDriverID != nil {
		t.Fatalf("expected driver reference cleared, got %v", *gotDriverID)
	}
}

func TestValidateDriverRef(t *testing.T) {
	driverRepo := &mockDriverRepo{
		findByIDFn: func(_ context.Context, id int64) (domain.Driver, error) {
			if id == 1 {
				return domain.Driver{ID: 1, Name: "Alice"}, nil
			}
			return domain.Driver{}, domain.ErrDriverNotFound
		},
	}
	svc := NewDriverAssignmentService(&mockCarRepo{}, driverRepo)

	if err := svc.ValidateDriverRef(context.Background(), nil); err != nil {
		t.Fatalf("nil reference must be valid, got %v", err)
	}
	if err := svc.ValidateDriverRef(context.Background(), int64ptr(1)); err != nil {
		t.Fatalf("existing driver must be valid, got %v", err)
	}
	if err := svc.ValidateDriverRef(context.Background(), int64ptr(2)); !errors.Is(err, domain.ErrDriverNotFound) {
		t.Fatalf("expected ErrDriverNotFound, got %v", err)
	}
}
