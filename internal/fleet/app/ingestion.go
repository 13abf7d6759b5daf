package app

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"car-fleet/internal/common/log"
	"car-fleet/internal/fleet/domain"
)

// PositionIngestionService validates incoming GPS samples, persists
// them per car, and enriches each one with a reverse-geocoded address.
// Position durability takes priority over enrichment completeness: a
// failed lookup degrades to an empty address, never to a lost sample.
type PositionIngestionService struct {
	carRepo      domain.CarRepository
	positionRepo domain.PositionRepository
	geocoder     domain.Geocoder
	publisher    domain.Publisher
	feed         domain.FeedPort
	logger       *slog.Logger
}

func NewPositionIngestionService(
	cr domain.CarRepository,
	pr domain.PositionRepository,
	geo domain.Geocoder,
	pub domain.Publisher,
	feed domain.FeedPort,
	logger *slog.Logger,
) *PositionIngestionService {
	return &PositionIngestionService{
		carRepo:      cr,
		positionRepo: pr,
		geocoder:     geo,
		publisher:    pub,
		feed:         feed,
		logger:       logger,
	}
}

// Ingest records a new position for the car identified by plate. The
// timestamp is server-assigned from now, never client-supplied. The
// coordinate pointers distinguish a missing field from a zero value.
func (s *PositionIngestionService) Ingest(ctx context.Context, plate string, lat, lon *float64, now time.Time) (domain.Position, error) {
	car, err := s.carRepo.FindByPlate(ctx, plate)
	if err != nil {
		return domain.Position{}, err
	}

	if !validCoords(lat, lon) {
		return domain.Position{}, domain.ErrInvalidCoordinates
	}

	address, err := s.geocoder.ReverseGeocode(ctx, *lat, *lon)
	if err != nil {
		log.Warn(ctx, s.logger, "geocode_fail", "Address enrichment failed, keeping empty address", err)
		address = ""
	}

	pos, err := s.positionRepo.Create(ctx, car.ID, *lat, *lon, now.UTC(), address)
	if err != nil {
		return domain.Position{}, fmt.Errorf("create position: %w", err)
	}

	// side-channels are best-effort once the position is committed
	if s.publisher != nil {
		if err := s.publisher.PublishPosition(ctx, plate, pos); err != nil {
			log.Warn(ctx, s.logger, "publish_fail", "Position event publish failed", err)
		}
	}
	if s.feed != nil {
		if err := s.feed.Broadcast(ctx, plate, pos); err != nil {
			log.Warn(ctx, s.logger, "feed_broadcast_fail", "Position feed broadcast failed", err)
		}
	}

	return pos, nil
}

// ListForCar returns all positions for the car ordered by ingestion
// time ascending.
func (s *PositionIngestionService) ListForCar(ctx context.Context, plate string) ([]domain.Position, error) {
	car, err := s.carRepo.FindByPlate(ctx, plate)
	if err != nil {
		return nil, err
	}

	positions, err := s.positionRepo.ListByCar(ctx, car.ID)
	if err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}
	return positions, nil
}

func validCoords(lat, lon *float64) bool {
	if lat == nil || lon == nil {
		return false
	}
	if math.IsNaN(*lat) || math.IsInf(*lat, 0) || math.IsNaN(*lon) || math.IsInf(*lon, 0) {
		return false
	}
	return !(*lat < -90 || *lat > 90 || *lon < -180 || *lon > 180)
}
