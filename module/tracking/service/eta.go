package service

import (
	"fmt"
	"math"
	"strconv"

	"github.com/nandanugg/courier-tracking/module/tracking/domain"
)

// Messages holds the user-facing texts of the tracking panel.
// ETAFormat receives the minutes (int) and the kilometres (string, one decimal).
type Messages struct {
	WaitingForSignal string
	Recalculating    string
	RouteUnavailable string
	ETAFormat        string

	StatusSearching        string
	StatusEnRoute          string
	StatusRouteUnavailable string
}

var DefaultMessages = Messages{
	WaitingForSignal: "Vui lòng chờ trong giây lát.",
	Recalculating:    "Đang tính toán lại lộ trình...",
	RouteUnavailable: "Không thể tính toán đường đi.",
	ETAFormat:        "Khoảng %d phút (%s km)",

	StatusSearching:        "Đang tìm tài xế...",
	StatusEnRoute:          "Tài xế đang đến!",
	StatusRouteUnavailable: "Tài xế đang đến (chưa có lộ trình)",
}

// ETAText derives the ETA line from a snapshot.
func ETAText(s domain.TrackingState, m Messages) string {
	switch {
	case s.CourierLocation == nil:
		return m.WaitingForSignal
	case s.IsRouteLoading:
		return m.Recalculating
	case s.Route == nil || s.Route.DurationSeconds <= 0:
		return m.RouteUnavailable
	}

	minutes := int(math.Ceil(s.Route.DurationSeconds / 60))
	km := strconv.FormatFloat(s.Route.DistanceMeters/1000, 'f', 1, 64)
	return fmt.Sprintf(m.ETAFormat, minutes, km)
}

func StatusText(s domain.TrackingState, m Messages) string {
	switch s.Status {
	case domain.StatusEnRoute:
		return m.StatusEnRoute
	case domain.StatusRouteUnavailable:
		return m.StatusRouteUnavailable
	default:
		return m.StatusSearching
	}
}
