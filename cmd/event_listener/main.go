package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nandanugg/courier-tracking/config"
	"github.com/nandanugg/courier-tracking/module/tracking"
	"github.com/nandanugg/courier-tracking/module/tracking/domain"
	"github.com/nandanugg/courier-tracking/pkg/logger"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fallback := logger.New(logger.Options{})
		fallback.Fatal().Err(err).Msg("config")
	}
	log := logger.New(logger.Options{Level: cfg.LogLevel, Pretty: true, Service: "event-listener"})

	conn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbitmq")
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("rabbitmq channel")
	}
	defer func() { _ = ch.Close() }()

	if err := tracking.DeclareEventTopology(ch); err != nil {
		log.Fatal().Err(err).Msg("declare topology")
	}

	msgs, err := ch.ConsumeWithContext(ctx, tracking.EventQueue, "", true, false, false, false, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("consume")
	}

	log.Info().Str("queue", tracking.EventQueue).Msg("waiting for tracking events")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("shutting down")
			return
		case msg, ok := <-msgs:
			if !ok {
				log.Warn().Msg("delivery channel closed")
				return
			}
			var event domain.TrackingEvent
			if err := json.Unmarshal(msg.Body, &event); err != nil {
				log.Warn().Err(err).Msg("skipping malformed event")
				continue
			}
			entry := log.Info().
				Str("id", event.ID).
				Str("order_id", event.OrderID).
				Str("type", string(event.Type))
			if event.Status != "" {
				entry = entry.Str("status", string(event.Status))
			}
			if event.Viewport != nil {
				entry = entry.Interface("viewport", event.Viewport.Coordinates)
			}
			entry.Msg("tracking event")
		}
	}
}
