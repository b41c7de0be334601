package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nandanugg/courier-tracking/module/tracking/domain"
	"github.com/nandanugg/courier-tracking/module/tracking/internal/repository/database"
)

var _ database.LocationRepository = (*LocationRepo)(nil)

type LocationRepo struct {
	db *sql.DB
}

func NewLocationRepo(db *sql.DB) *LocationRepo {
	return &LocationRepo{db: db}
}

func (r *LocationRepo) Insert(ctx context.Context, loc *domain.CourierLocation) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO courier_locations (order_id, latitude, longitude, received_at) VALUES ($1, $2, $3, $4)`,
		loc.OrderID, loc.Coordinate.Lat, loc.Coordinate.Lon, loc.ReceivedAt,
	)
	if err != nil {
		return fmt.Errorf("insert courier location: %w", err)
	}
	return nil
}

// GetLatest returns domain.ErrLocationNotFound when the order has no fix yet.
func (r *LocationRepo) GetLatest(ctx context.Context, orderID string) (*domain.CourierLocation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT order_id, latitude, longitude, received_at FROM courier_locations WHERE order_id = $1 ORDER BY received_at DESC LIMIT 1`,
		orderID,
	)

	var cl domain.CourierLocation
	if err := row.Scan(&cl.OrderID, &cl.Coordinate.Lat, &cl.Coordinate.Lon, &cl.ReceivedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLocationNotFound
		}
		return nil, fmt.Errorf("latest courier location: %w", err)
	}
	return &cl, nil
}

func (r *LocationRepo) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.CourierLocation, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT order_id, latitude, longitude, received_at FROM courier_locations WHERE order_id = $1 AND received_at >= $2 AND received_at <= $3 ORDER BY received_at ASC`,
		query.OrderID, query.Start, query.End,
	)
	if err != nil {
		return nil, fmt.Errorf("courier location history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := []domain.CourierLocation{}
	for rows.Next() {
		var cl domain.CourierLocation
		if err := rows.Scan(&cl.OrderID, &cl.Coordinate.Lat, &cl.Coordinate.Lon, &cl.ReceivedAt); err != nil {
			return nil, err
		}
		results = append(results, cl)
	}
	return results, rows.Err()
}
