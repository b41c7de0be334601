package config

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

const healthCheckTimeout = 2 * time.Second

var errNotConnected = errors.New("not connected")

type pinger interface {
	PingContext(ctx context.Context) error
}

type connState interface {
	IsClosed() bool
}

type brokerState interface {
	IsConnected() bool
}

type HealthChecker struct {
	db    pinger
	amqp  connState
	mqtt  brokerState
	redis func(ctx context.Context) error
}

// NewHealthChecker reports redis only when a client is configured.
func NewHealthChecker(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, redisClient *redis.Client) *HealthChecker {
	h := &HealthChecker{db: db, amqp: amqpConn, mqtt: mqttClient}
	if redisClient != nil {
		h.redis = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	return h
}

func (h *HealthChecker) Register(r *gin.Engine) {
	r.GET("/healthz", h.Handle)
}

func (h *HealthChecker) Handle(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	deps := gin.H{}
	report := func(name string, err error) {
		if err != nil {
			deps[name] = gin.H{"status": "down", "error": err.Error()}
			status = http.StatusServiceUnavailable
			return
		}
		deps[name] = gin.H{"status": "up"}
	}

	report("postgres", h.db.PingContext(ctx))

	if h.amqp.IsClosed() {
		report("rabbitmq", amqp.ErrClosed)
	} else {
		report("rabbitmq", nil)
	}

	if !h.mqtt.IsConnected() {
		report("mqtt", errNotConnected)
	} else {
		report("mqtt", nil)
	}

	if h.redis != nil {
		report("redis", h.redis(ctx))
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":       overall,
		"dependencies": deps,
	})
}
