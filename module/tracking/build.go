package tracking

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nandanugg/courier-tracking/module/tracking/domain"
	handler "github.com/nandanugg/courier-tracking/module/tracking/internal/handler/http"
	"github.com/nandanugg/courier-tracking/module/tracking/internal/handler/subscriber"
	rediscache "github.com/nandanugg/courier-tracking/module/tracking/internal/repository/cache/redis"
	"github.com/nandanugg/courier-tracking/module/tracking/internal/repository/database/postgres"
	"github.com/nandanugg/courier-tracking/module/tracking/internal/repository/publisher/rabbitmq"
	"github.com/nandanugg/courier-tracking/module/tracking/internal/repository/router/locationiq"
	"github.com/nandanugg/courier-tracking/module/tracking/internal/repository/router/osrm"
	"github.com/nandanugg/courier-tracking/module/tracking/service"
)

type Options struct {
	TopicTemplate string
	QoS           byte

	LocationIQBaseURL string
	LocationIQKey     string
	OSRMBaseURL       string
	AttemptTimeout    time.Duration

	RouteCacheTTL time.Duration
}

type Module struct {
	Sessions    *service.SessionManager
	LocationSvc *service.LocationService
	RouteSvc    *service.RouteService
	handler     *handler.TrackingHandler
}

// Build wires the tracking module. redisClient may be nil, which disables
// route caching.
func Build(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, redisClient *redis.Client, httpClient *http.Client, opts Options, log zerolog.Logger) (*Module, error) {
	locationRepo := postgres.NewLocationRepo(db)

	eventPub, err := rabbitmq.NewEventPublisher(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("tracking event publisher: %w", err)
	}

	var cache service.RouteCache
	if redisClient != nil {
		cache = rediscache.NewRouteCache(redisClient, opts.RouteCacheTTL)
	}

	primary := locationiq.NewClient(httpClient, opts.LocationIQBaseURL, opts.LocationIQKey)
	secondary := osrm.NewClient(httpClient, opts.OSRMBaseURL)

	routeSvc := service.NewRouteService(primary, secondary, cache, opts.AttemptTimeout, log.With().Str("component", "routing").Logger())
	locationSvc := service.NewLocationService(locationRepo)

	feed := subscriber.NewLocationFeed(mqttClient, opts.TopicTemplate, opts.QoS, log.With().Str("component", "feed").Logger())
	sessions := service.NewSessionManager(feedAdapter{feed: feed}, routeSvc, locationSvc, eventPub, log.With().Str("component", "session").Logger())

	h := handler.NewTrackingHandler(sessions, locationSvc, service.DefaultMessages)

	return &Module{
		Sessions:    sessions,
		LocationSvc: locationSvc,
		RouteSvc:    routeSvc,
		handler:     h,
	}, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.handler.Register(r)
}

// Shutdown closes every open tracking session.
func (m *Module) Shutdown() {
	m.Sessions.CloseAll()
}

// EventQueue is the durable queue bound to the tracking event exchange.
const EventQueue = rabbitmq.QueueName

// DeclareEventTopology declares the exchange and queue tracking events flow through.
func DeclareEventTopology(ch *amqp.Channel) error {
	return rabbitmq.Declare(ch)
}

type feedAdapter struct {
	feed *subscriber.LocationFeed
}

func (a feedAdapter) Subscribe(key string, fn func(domain.LocationUpdate)) (service.Canceler, error) {
	sub, err := a.feed.Subscribe(key, fn)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
