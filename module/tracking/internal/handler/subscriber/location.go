package subscriber

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/nandanugg/courier-tracking/module/tracking/domain"
	"github.com/nandanugg/courier-tracking/module/tracking/metrics"
)

const (
	DefaultTopicTemplate = "tracking/orders/{key}/courier"
	keyPlaceholder       = "{key}"
	subscribeTimeout     = 10 * time.Second
	unsubscribeTimeout   = 2 * time.Second
)

var ErrSubscribeTimeout = errors.New("subscribe not acknowledged")

// locationMessage accepts both field conventions couriers push.
// Pointers tell a missing or null field apart from a zero coordinate.
type locationMessage struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
}

// LocationFeed delivers courier positions pushed over MQTT, one topic per
// tracking key. It never polls.
type LocationFeed struct {
	client        mqtt.Client
	topicTemplate string
	qos           byte
	log           zerolog.Logger
	now           func() time.Time
}

func NewLocationFeed(client mqtt.Client, topicTemplate string, qos byte, log zerolog.Logger) *LocationFeed {
	if !strings.Contains(topicTemplate, keyPlaceholder) {
		topicTemplate = DefaultTopicTemplate
	}
	return &LocationFeed{
		client:        client,
		topicTemplate: topicTemplate,
		qos:           qos,
		log:           log,
		now:           time.Now,
	}
}

func (f *LocationFeed) Topic(key string) string {
	return strings.ReplaceAll(f.topicTemplate, keyPlaceholder, key)
}

// Subscribe calls fn for every push on the key's topic until the returned
// subscription is cancelled.
func (f *LocationFeed) Subscribe(key string, fn func(domain.LocationUpdate)) (*Subscription, error) {
	if key == "" || strings.ContainsAny(key, "/+#") {
		return nil, fmt.Errorf("invalid tracking key %q", key)
	}

	sub := &Subscription{
		client: f.client,
		topic:  f.Topic(key),
		log:    f.log.With().Str("key", key).Logger(),
	}

	// While reconnecting paho stores the subscribe and its token only
	// completes once the broker is back, hence the bounded wait.
	token := f.client.Subscribe(sub.topic, f.qos, f.handler(sub, fn))
	if err := waitToken(token, subscribeTimeout); err != nil {
		sub.drop()
		return nil, fmt.Errorf("mqtt subscribe %s: %w", sub.topic, err)
	}

	sub.log.Info().Str("topic", sub.topic).Msg("subscribed to courier feed")
	return sub, nil
}

func waitToken(token mqtt.Token, timeout time.Duration) error {
	if !token.WaitTimeout(timeout) {
		return fmt.Errorf("%w after %s", ErrSubscribeTimeout, timeout)
	}
	return token.Error()
}

func (f *LocationFeed) handler(sub *Subscription, fn func(domain.LocationUpdate)) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		if sub.cancelled.Load() {
			return
		}
		update := f.Normalize(msg.Payload(), f.now())
		metrics.FeedUpdatesTotal.WithLabelValues(update.Kind.String()).Inc()
		fn(update)
	}
}

// Normalize turns a raw push into a fix or a no-signal update. A convention
// counts only when both of its fields are present and non-null; the
// latitude/longitude pair wins over lat/lng. Anything else, including
// malformed or out-of-range input, means no signal.
func (f *LocationFeed) Normalize(payload []byte, receivedAt time.Time) domain.LocationUpdate {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return domain.NoSignal(receivedAt)
	}

	var raw locationMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		f.log.Warn().Err(err).Msg("unreadable location payload, treating as no signal")
		return domain.NoSignal(receivedAt)
	}

	var c domain.Coordinate
	switch {
	case raw.Latitude != nil && raw.Longitude != nil:
		c = domain.Coordinate{Lat: *raw.Latitude, Lon: *raw.Longitude}
	case raw.Lat != nil && raw.Lng != nil:
		c = domain.Coordinate{Lat: *raw.Lat, Lon: *raw.Lng}
	default:
		return domain.NoSignal(receivedAt)
	}

	if err := c.Validate(); err != nil {
		f.log.Warn().Err(err).Msg("location out of range, treating as no signal")
		return domain.NoSignal(receivedAt)
	}
	return domain.Fix(c, receivedAt)
}

type Subscription struct {
	client    mqtt.Client
	topic     string
	log       zerolog.Logger
	once      sync.Once
	cancelled atomic.Bool
}

func (s *Subscription) Topic() string { return s.topic }

// Cancel stops delivery. It may be called any number of times and does
// nothing beyond that when the connection is already gone.
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.cancelled.Store(true)
		if !s.client.IsConnectionOpen() {
			s.log.Debug().Str("topic", s.topic).Msg("connection already closed, skipping unsubscribe")
			return
		}

		token := s.client.Unsubscribe(s.topic)
		if !token.WaitTimeout(unsubscribeTimeout) {
			s.log.Warn().Str("topic", s.topic).Msg("unsubscribe timed out")
			return
		}
		if err := token.Error(); err != nil {
			s.log.Warn().Err(err).Str("topic", s.topic).Msg("unsubscribe failed")
			return
		}
		s.log.Info().Str("topic", s.topic).Msg("unsubscribed from courier feed")
	})
}

// drop undoes a subscribe that failed. paho registers the message route
// before the broker answers, so the route is removed and made inert.
func (s *Subscription) drop() {
	s.once.Do(func() {
		s.cancelled.Store(true)
		token := s.client.Unsubscribe(s.topic)
		if !token.WaitTimeout(unsubscribeTimeout) {
			s.log.Debug().Str("topic", s.topic).Msg("unsubscribe after failed subscribe timed out")
			return
		}
		if err := token.Error(); err != nil {
			s.log.Debug().Err(err).Str("topic", s.topic).Msg("unsubscribe after failed subscribe failed")
		}
	})
}
