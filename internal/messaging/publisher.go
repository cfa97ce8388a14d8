package messaging

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/votetripling/ambassador-api/internal/domain"
)

// Publisher defines the interface for publishing tripler lifecycle events to the message broker
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishTriplerEvent publishes a tripler lifecycle event
	PublishTriplerEvent(ctx context.Context, event *domain.TriplerEvent) error
	// Close closes the connection
	Close()
}

// NewTriplerEvent builds an event with a time ordered id
func NewTriplerEvent(eventType domain.TriplerEventType, triplerID string, ambassadorID string, at time.Time) *domain.TriplerEvent {
	return &domain.TriplerEvent{
		ID:           ulid.MustNewDefault(at).String(),
		Type:         eventType,
		TriplerID:    triplerID,
		AmbassadorID: ambassadorID,
		OccurredAt:   at,
	}
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops every event, used when no broker is configured
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PublishTriplerEvent(context.Context, *domain.TriplerEvent) error {
	return nil
}

func (noopPublisher) Close() {}
