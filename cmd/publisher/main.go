package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nandanugg/courier-tracking/config"
	"github.com/nandanugg/courier-tracking/pkg/logger"
)

// courier walks from start towards the destination in fixed steps.
type courier struct {
	lat, lon         float64
	destLat, destLon float64
	step             float64
}

func (c *courier) advance() {
	c.lat += (c.destLat-c.lat)*c.step + (rand.Float64()-0.5)*0.0002
	c.lon += (c.destLon-c.lon)*c.step + (rand.Float64()-0.5)*0.0002
}

// payload alternates between the two field conventions the feed accepts and
// now and then drops the position to simulate a lost GPS signal.
func (c *courier) payload(n int) []byte {
	var msg map[string]any
	switch {
	case n > 0 && n%10 == 0:
		msg = map[string]any{}
	case n%2 == 0:
		msg = map[string]any{"latitude": c.lat, "longitude": c.lon}
	default:
		msg = map[string]any{"lat": c.lat, "lng": c.lon}
	}
	msg["sent_at"] = time.Now().Unix()
	b, _ := json.Marshal(msg)
	return b
}

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <order_id> <interval_seconds>\n", os.Args[0])
		os.Exit(1)
	}
	orderID := os.Args[1]

	intervalSec, err := strconv.Atoi(os.Args[2])
	if err != nil || intervalSec <= 0 {
		fmt.Fprintf(os.Stderr, "error: interval must be a positive integer\n")
		os.Exit(1)
	}

	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fallback := logger.New(logger.Options{})
		fallback.Fatal().Err(err).Msg("config")
	}
	cfg.MQTT.ClientID = "courier-mock-" + orderID

	log := logger.New(logger.Options{Level: cfg.LogLevel, Pretty: true, Service: "courier-mock"})

	client, err := config.NewMQTT(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("mqtt")
	}
	defer client.Disconnect(250)

	topic := strings.ReplaceAll(cfg.MQTT.TopicTemplate, "{key}", orderID)
	c := &courier{
		lat: 10.7769, lon: 106.7009,
		destLat: 10.8231, destLon: 106.6297,
		step: 0.05,
	}

	log.Info().Str("topic", topic).Int("interval_s", intervalSec).Msg("publishing courier positions")

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)
	defer ticker.Stop()

	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		c.advance()
		body := c.payload(n)

		token := client.Publish(topic, byte(cfg.MQTT.QoS), false, body)
		token.Wait()
		if err := token.Error(); err != nil {
			log.Warn().Err(err).Msg("publish failed")
			continue
		}
		log.Info().RawJSON("payload", body).Msg("published")
	}
}
