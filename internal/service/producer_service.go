package service

import (
	"context"
	"fmt"
	"math"

	"agrolinq/internal/geo"
	"agrolinq/internal/model"
	"agrolinq/internal/repository"
	"agrolinq/internal/validate"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MaxSearchRadiusKm is half the earth's circumference.
const MaxSearchRadiusKm = 20040

type producerService struct {
	accountRepo repository.AccountRepository
	logger      zerolog.Logger
}

// NewProducerService creates a new producer lookup service.
func NewProducerService(accountRepo repository.AccountRepository, logger zerolog.Logger) ProducerService {
	return &producerService{
		accountRepo: accountRepo,
		logger:      logger.With().Str("service", "producer").Logger(),
	}
}

// locatedProducer adapts a producer to geo.Located.
type locatedProducer struct {
	model.Producer
}

func (p locatedProducer) Position() (geo.Point, bool) {
	if p.Latitude == nil || p.Longitude == nil {
		return geo.Point{}, false
	}
	return geo.Point{Lat: *p.Latitude, Lng: *p.Longitude}, true
}

func (s *producerService) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]model.NearbyProducer, error) {
	if !validate.Latitude(lat) || !validate.Longitude(lng) {
		return nil, model.NewValidationError("coordinates are out of range")
	}
	if math.IsNaN(radiusKm) || radiusKm <= 0 || radiusKm > MaxSearchRadiusKm {
		return nil, model.NewValidationError("radius must be greater than 0 and at most %d km", MaxSearchRadiusKm)
	}

	producers, err := s.accountRepo.ListLocatedProducers(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list producers")
		return nil, fmt.Errorf("failed to list producers: %w", err)
	}

	located := make([]locatedProducer, len(producers))
	for i, p := range producers {
		located[i] = locatedProducer{p}
	}

	matches := geo.WithinRadius(geo.Point{Lat: lat, Lng: lng}, radiusKm, located)
	nearby := make([]model.NearbyProducer, len(matches))
	for i, m := range matches {
		nearby[i] = model.NearbyProducer{
			Producer:   m.Item.Producer,
			DistanceKm: math.Round(m.DistanceKm*100) / 100,
		}
	}

	s.logger.Debug().
		Float64("radius_km", radiusKm).
		Int("candidates", len(producers)).
		Int("matches", len(nearby)).
		Msg("nearby producers")

	return nearby, nil
}

func (s *producerService) Get(ctx context.Context, id uuid.UUID) (*model.Producer, error) {
	producer, err := s.accountRepo.GetProducer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get producer: %w", err)
	}
	if producer == nil {
		return nil, model.NewDomainError(model.ErrCodeAccountNotFound, "Producer not found")
	}
	return producer, nil
}
