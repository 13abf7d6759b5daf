package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"car-fleet/internal/fleet/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func knownCarRepo() *mockCarRepo {
	return &mockCarRepo{
		findByPlateFn: func(_ context.Context, plate string) (domain.Car, error) {
			if plate == "XYZ999" {
				return domain.Car{ID: 3, LicensePlate: plate}, nil
			}
			return domain.Car{}, domain.ErrCarNotFound
		},
	}
}

func recordingPositionRepo(created *[]domain.Position) *mockPositionRepo {
	return &mockPositionRepo{
		createFn: func(_ context.Context, carID int64, lat, lon float64, date time.Time, address string) (domain.Position, error) {
			pos := domain.Position{
				ID:        int64(len(*created) + 1),
				CarID:     carID,
				Latitude:  lat,
				Longitude: lon,
				Date:      date,
				Address:   address,
			}
			*created = append(*created, pos)
			return pos, nil
		},
	}
}

func okGeocoder(addr string) *mockGeocoder {
	return &mockGeocoder{
		reverseFn: func(_ context.Context, _, _ float64) (string, error) {
			return addr, nil
		},
	}
}

func TestIngest_CarNotFound(t *testing.T) {
	var created []domain.Position
	svc := NewPositionIngestionService(knownCarRepo(), recordingPositionRepo(&created), okGeocoder("somewhere"), nil, nil, testLogger())

	_, err := svc.Ingest(context.Background(), "NOPE", float64ptr(40.7), float64ptr(-74.0), time.Now())
	if !errors.Is(err, domain.ErrCarNotFound) {
		t.Fatalf("expected ErrCarNotFound, got %v", err)
	}
	if len(created) != 0 {
		t.Fatal("no position must be created for an unknown car")
	}
}

func TestIngest_InvalidCoordinates(t *testing.T) {
	cases := []struct {
		name string
		lat  *float64
		lon  *float64
	}{
		{"missing latitude", nil, float64ptr(-74.0)},
		{"missing longitude", float64ptr(40.7), nil},
		{"both missing", nil, nil},
		{"nan latitude", float64ptr(math.NaN()), float64ptr(-74.0)},
		{"inf longitude", float64ptr(40.7), float64ptr(math.Inf(1))},
		{"latitude out of range", float64ptr(91), float64ptr(-74.0)},
		{"longitude out of range", float64ptr(40.7), float64ptr(-181)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var created []domain.Position
			svc := NewPositionIngestionService(knownCarRepo(), recordingPositionRepo(&created), okGeocoder(""), nil, nil, testLogger())

			_, err := svc.Ingest(context.Background(), "XYZ999", tc.lat, tc.lon, time.Now())
			if !errors.Is(err, domain.ErrInvalidCoordinates) {
				t.Fatalf("expected ErrInvalidCoordinates, got %v", err)
			}
			if len(created) != 0 {
				t.Fatal("no position must be created for invalid coordinates")
			}
		})
	}
}

func TestIngest_GeocodeFailureKeepsPosition(t *testing.T) {
	var created []domain.Position
	geocoder := &mockGeocoder{
		reverseFn: func(_ context.Context, _, _ float64) (string, error) {
			return "", errors.New("provider timeout")
		},
	}
	svc := NewPositionIngestionService(knownCarRepo(), recordingPositionRepo(&created), geocoder, nil, nil, testLogger())

	pos, err := svc.Ingest(context.Background(), "XYZ999", float64ptr(40.7128), float64ptr(-74.0060), time.Now())
	if err != nil {
		t.Fatalf("enrichment failure must not abort ingestion: %v", err)
	}
	if pos.Address != "" {
		t.Fatalf("expected empty address, got %q", pos.Address)
	}
	if len(created) != 1 {
		t.Fatalf("expected 1 persisted position, got %d", len(created))
	}
}

func TestIngest_EmptyGeocodeResult(t *testing.T) {
	var created []domain.Position
	svc := NewPositionIngestionService(knownCarRepo(), recordingPositionRepo(&created), okGeocoder(""), nil, nil, testLogger())

	pos, err := svc.Ingest(context.Background(), "XYZ999", float64ptr(0.0), float64ptr(0.0), time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pos.Address != "" {
		t.Fatalf("expected empty address, got %q", pos.Address)
	}
}

func TestIngest_ServerAssignedDate(t *testing.T) {
	var created []domain.Position
	svc := NewPositionIngestionService(knownCarRepo(), recordingPositionRepo(&created), okGeocoder("Broadway, New York"), nil, nil, testLogger())

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	pos, err := svc.Ingest(context.Background(), "XYZ999", float64ptr(40.7128), float64ptr(-74.0060), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !pos.Date.Equal(now) {
		t.Fatalf("expected server-assigned date %v, got %v", now, pos.Date)
	}
	if pos.Address != "Broadway, New York" {
		t.Fatalf("expected enriched address, got %q", pos.Address)
	}
}

func TestIngest_SideChannelFailuresAreSwallowed(t *testing.T) {
	var created []domain.Position
	publisher := &mockPublisher{
		publishFn: func(_ context.Context, _ string, _ domain.Position) error {
			return errors.New("broker down")
		},
	}
	feed := &mockFeed{
		broadcastFn: func(_ context.Context, _ string, _ domain.Position) error {
			return errors.New("no subscribers")
		},
	}
	svc := NewPositionIngestionService(knownCarRepo(), recordingPositionRepo(&created), okGeocoder("x"), publisher, feed, testLogger())

	if _, err := svc.Ingest(context.Background(), "XYZ999", float64ptr(1.0), float64ptr(2.0), time.Now()); err != nil {
		t.Fatalf("publish/broadcast failures must not surface: %v", err)
	}
	if len(created) != 1 {
		t.Fatalf("expected the position to be persisted, got %d", len(created))
	}
}

func TestListForCar_UnknownPlate(t *testing.T) {
	svc := NewPositionIngestionService(knownCarRepo(), &mockPositionRepo{}, okGeocoder(""), nil, nil, testLogger())

	_, err := svc.ListForCar(context.Background(), "NOPE")
	if !errors.Is(err, domain.ErrCarNotFound) {
		t.Fatalf("expected ErrCarNotFound, got %v", err)
	}
}

func TestListForCar_ReturnsRepositoryOrder(t *testing.T) {
	t1 := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)
	positionRepo := &mockPositionRepo{
		listByCarFn: func(_ context.Context, carID int64) ([]domain.Position, error) {
			return []domain.Position{
				{ID: 1, CarID: carID, Date: t1},
				{ID: 2, CarID: carID, Date: t2},
			}, nil
		},
	}
	svc := NewPositionIngestionService(knownCarRepo(), positionRepo, okGeocoder(""), nil, nil, testLogger())

	positions, err := svc.ListForCar(context.Background(), "XYZ999")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(positions) != 2 {
		t.Fatalf("expected 2 positions, got %d", len(positions))
	}
	if !positions[0].Date.Before(positions[1].Date) {
		t.Fatal("expected ascending date order")
	}
}
