package service

import (
	"context"
	"errors"

	"github.com/nandanugg/courier-tracking/module/tracking/domain"
	"github.com/nandanugg/courier-tracking/module/tracking/internal/repository/database"
)

var ErrInvalidRange = errors.New("history range end is before start")

// LocationService keeps the courier location history of every tracked order.
type LocationService struct {
	repo database.LocationRepository
}

func NewLocationService(repo database.LocationRepository) *LocationService {
	return &LocationService{repo: repo}
}

func (s *LocationService) SaveLocation(ctx context.Context, cl *domain.CourierLocation) error {
	if err := cl.Coordinate.Validate(); err != nil {
		return err
	}
	return s.repo.Insert(ctx, cl)
}

func (s *LocationService) GetLatest(ctx context.Context, orderID string) (*domain.CourierLocation, error) {
	return s.repo.GetLatest(ctx, orderID)
}

func (s *LocationService) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.CourierLocation, error) {
	if query.End.Before(query.Start) {
		return nil, ErrInvalidRange
	}
	return s.repo.GetHistory(ctx, query)
}
