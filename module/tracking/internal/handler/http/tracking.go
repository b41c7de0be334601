package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/courier-tracking/module/tracking/domain"
	"github.com/nandanugg/courier-tracking/module/tracking/service"
)

type trackingService interface {
	Open(orderID string, customer domain.Coordinate) (domain.TrackingState, error)
	Snapshot(orderID string) (domain.TrackingState, error)
	Close(orderID string) error
}

type locationService interface {
	GetLatest(ctx context.Context, orderID string) (*domain.CourierLocation, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.CourierLocation, error)
}

type coordinateRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

type openTrackingRequest struct {
	Customer *coordinateRequest `json:"customer" validate:"required"`
}

type trackingResponse struct {
	OrderID            string                `json:"order_id"`
	Status             domain.TrackingStatus `json:"status"`
	StatusText         string                `json:"status_text"`
	ETAText            string                `json:"eta_text"`
	Courier            *domain.Coordinate    `json:"courier"`
	Customer           domain.Coordinate     `json:"customer"`
	Route              *domain.RouteResult   `json:"route"`
	IsRouteLoading     bool                  `json:"is_route_loading"`
	StraightLineMeters float64               `json:"straight_line_meters"`
	UpdatedAt          int64                 `json:"updated_at"`
}

type locationResponse struct {
	OrderID    string  `json:"order_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	ReceivedAt int64   `json:"received_at"`
}

type TrackingHandler struct {
	trackingSvc trackingService
	locationSvc locationService
	messages    service.Messages
	validator   *requestValidator
}

func NewTrackingHandler(trackingSvc trackingService, locationSvc locationService, messages service.Messages) *TrackingHandler {
	return &TrackingHandler{
		trackingSvc: trackingSvc,
		locationSvc: locationSvc,
		messages:    messages,
		validator:   newRequestValidator(),
	}
}

func (h *TrackingHandler) Register(r *gin.RouterGroup) {
	r.POST("/orders/:order_id/tracking", h.OpenTracking)
	r.GET("/orders/:order_id/tracking", h.GetTracking)
	r.DELETE("/orders/:order_id/tracking", h.CloseTracking)
	r.GET("/orders/:order_id/courier/location", h.GetLatestLocation)
	r.GET("/orders/:order_id/courier/history", h.GetHistory)
}

func (h *TrackingHandler) OpenTracking(c *gin.Context) {
	orderID := c.Param("order_id")

	var req openTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer := domain.Coordinate{Lat: *req.Customer.Latitude, Lon: *req.Customer.Longitude}
	state, err := h.trackingSvc.Open(orderID, customer)
	switch {
	case errors.Is(err, domain.ErrSessionExists):
		c.JSON(http.StatusConflict, gin.H{"error": "tracking already open for order"})
		return
	case errors.Is(err, domain.ErrInvalidCoordinate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, domain.ErrSessionClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "shutting down"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to open tracking"})
		return
	}

	c.JSON(http.StatusCreated, h.toTrackingResponse(state))
}

func (h *TrackingHandler) GetTracking(c *gin.Context) {
	state, err := h.trackingSvc.Snapshot(c.Param("order_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "tracking not found"})
		return
	}

	c.JSON(http.StatusOK, h.toTrackingResponse(state))
}

func (h *TrackingHandler) CloseTracking(c *gin.Context) {
	if err := h.trackingSvc.Close(c.Param("order_id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "tracking not found"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *TrackingHandler) GetLatestLocation(c *gin.Context) {
	cl, err := h.locationSvc.GetLatest(c.Request.Context(), c.Param("order_id"))
	switch {
	case errors.Is(err, domain.ErrLocationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "courier location not found"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch location"})
		return
	}

	c.JSON(http.StatusOK, toLocationResponse(cl))
}

func (h *TrackingHandler) GetHistory(c *gin.Context) {
	orderID := c.Param("order_id")

	start, err := strconv.ParseInt(c.Query("start"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start parameter"})
		return
	}

	end, err := strconv.ParseInt(c.Query("end"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end parameter"})
		return
	}

	query := &domain.HistoryQuery{
		OrderID: orderID,
		Start:   time.Unix(start, 0),
		End:     time.Unix(end, 0),
	}

	locations, err := h.locationSvc.GetHistory(c.Request.Context(), query)
	switch {
	case errors.Is(err, service.ErrInvalidRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}

	results := make([]locationResponse, len(locations))
	for i := range locations {
		results[i] = toLocationResponse(&locations[i])
	}
	c.JSON(http.StatusOK, results)
}

func (h *TrackingHandler) toTrackingResponse(s domain.TrackingState) trackingResponse {
	return trackingResponse{
		OrderID:            s.OrderID,
		Status:             s.Status,
		StatusText:         service.StatusText(s, h.messages),
		ETAText:            service.ETAText(s, h.messages),
		Courier:            s.CourierLocation,
		Customer:           s.CustomerLocation,
		Route:              s.Route,
		IsRouteLoading:     s.IsRouteLoading,
		StraightLineMeters: s.StraightLineMeters(),
		UpdatedAt:          s.UpdatedAt.Unix(),
	}
}

func toLocationResponse(cl *domain.CourierLocation) locationResponse {
	return locationResponse{
		OrderID:    cl.OrderID,
		Latitude:   cl.Coordinate.Lat,
		Longitude:  cl.Coordinate.Lon,
		ReceivedAt: cl.ReceivedAt.Unix(),
	}
}
