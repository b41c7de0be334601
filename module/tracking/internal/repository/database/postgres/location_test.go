package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/nandanugg/courier-tracking/module/tracking/domain"
)

var columns = []string{"order_id", "latitude", "longitude", "received_at"}

func TestInsert_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	ts := time.Unix(1715003456, 0)
	mock.ExpectExec(`INSERT INTO courier_locations`).
		WithArgs("ORD-42", 10.7769, 106.7009, ts).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewLocationRepo(db)
	err = repo.Insert(context.Background(), &domain.CourierLocation{
		OrderID:    "ORD-42",
		Coordinate: domain.Coordinate{Lat: 10.7769, Lon: 106.7009},
		ReceivedAt: ts,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestInsert_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	ts := time.Unix(1715003456, 0)
	mock.ExpectExec(`INSERT INTO courier_locations`).
		WithArgs("ORD-42", 10.7769, 106.7009, ts).
		WillReturnError(sqlmock.ErrCancelled)

	repo := NewLocationRepo(db)
	err = repo.Insert(context.Background(), &domain.CourierLocation{
		OrderID:    "ORD-42",
		Coordinate: domain.Coordinate{Lat: 10.7769, Lon: 106.7009},
		ReceivedAt: ts,
	})
	if !errors.Is(err, sqlmock.ErrCancelled) {
		t.Fatalf("expected wrapped ErrCancelled, got %v", err)
	}
}

func TestGetLatest_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	ts := time.Unix(1715003456, 0)
	rows := sqlmock.NewRows(columns).AddRow("ORD-42", 10.7769, 106.7009, ts)

	mock.ExpectQuery(`SELECT order_id, latitude, longitude, received_at FROM courier_locations WHERE order_id = (.+) ORDER BY received_at DESC LIMIT 1`).
		WithArgs("ORD-42").
		WillReturnRows(rows)

	repo := NewLocationRepo(db)
	cl, err := repo.GetLatest(context.Background(), "ORD-42")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cl.OrderID != "ORD-42" {
		t.Errorf("expected ORD-42, got %s", cl.OrderID)
	}
	if cl.Coordinate.Lat != 10.7769 {
		t.Errorf("expected 10.7769, got %f", cl.Coordinate.Lat)
	}
	if !cl.ReceivedAt.Equal(ts) {
		t.Errorf("expected %v, got %v", ts, cl.ReceivedAt)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetLatest_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`SELECT order_id, latitude, longitude, received_at FROM courier_locations WHERE order_id = (.+)`).
		WithArgs("UNKNOWN").
		WillReturnRows(sqlmock.NewRows(columns))

	repo := NewLocationRepo(db)
	_, err = repo.GetLatest(context.Background(), "UNKNOWN")
	if !errors.Is(err, domain.ErrLocationNotFound) {
		t.Fatalf("expected ErrLocationNotFound, got %v", err)
	}
}

func TestGetHistory_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	ts1 := time.Unix(1715000000, 0)
	ts2 := time.Unix(1715005000, 0)
	start := time.Unix(1715000000, 0)
	end := time.Unix(1715009999, 0)

	rows := sqlmock.NewRows(columns).
		AddRow("ORD-42", 10.98, 106.74, ts1).
		AddRow("ORD-42", 10.95, 106.73, ts2)

	mock.ExpectQuery(`SELECT order_id, latitude, longitude, received_at FROM courier_locations WHERE order_id = (.+) AND received_at >= (.+) AND received_at <= (.+) ORDER BY received_at ASC`).
		WithArgs("ORD-42", start, end).
		WillReturnRows(rows)

	repo := NewLocationRepo(db)
	results, err := repo.GetHistory(context.Background(), &domain.HistoryQuery{
		OrderID: "ORD-42",
		Start:   start,
		End:     end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Coordinate.Lat != 10.98 || results[1].Coordinate.Lat != 10.95 {
		t.Errorf("unexpected order %+v", results)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestGetHistory_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	start := time.Unix(1715000000, 0)
	end := time.Unix(1715009999, 0)

	mock.ExpectQuery(`SELECT order_id, latitude, longitude, received_at FROM courier_locations`).
		WithArgs("ORD-42", start, end).
		WillReturnRows(sqlmock.NewRows(columns))

	repo := NewLocationRepo(db)
	results, err := repo.GetHistory(context.Background(), &domain.HistoryQuery{
		OrderID: "ORD-42",
		Start:   start,
		End:     end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results == nil || len(results) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", results)
	}
}

func TestGetHistory_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	start := time.Unix(1715000000, 0)
	end := time.Unix(1715009999, 0)

	mock.ExpectQuery(`SELECT order_id, latitude, longitude, received_at FROM courier_locations`).
		WithArgs("ORD-42", start, end).
		WillReturnError(sqlmock.ErrCancelled)

	repo := NewLocationRepo(db)
	_, err = repo.GetHistory(context.Background(), &domain.HistoryQuery{
		OrderID: "ORD-42",
		Start:   start,
		End:     end,
	})
	if err == nil {
		t.Fatal("expected error")
	}
}
