package database

import (
	"context"

	"github.com/nandanugg/courier-tracking/module/tracking/domain"
)

type LocationRepository interface {
	Insert(ctx context.Context, loc *domain.CourierLocation) error
	GetLatest(ctx context.Context, orderID string) (*domain.CourierLocation, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.CourierLocation, error)
}
