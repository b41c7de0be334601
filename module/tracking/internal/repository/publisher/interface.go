package publisher

import (
	"context"

	"github.com/nandanugg/courier-tracking/module/tracking/domain"
)

type EventPublisher interface {
	Publish(ctx context.Context, event *domain.TrackingEvent) error
}
