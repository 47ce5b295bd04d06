package mongodb

import (
	"context"
	"fmt"

	"github.com/kitchenops/inventory-ledger/internal/domain"
	"github.com/kitchenops/inventory-ledger/pkg/cloudevents"
	"github.com/kitchenops/inventory-ledger/pkg/kafka"
	"github.com/kitchenops/inventory-ledger/pkg/outbox"
)

const lotAggregateType = "InventoryLot"

// OutboxEventRecorder stores ledger events in the outbox collection. Called with a session
// context, the events commit or roll back together with the lot changes.
type OutboxEventRecorder struct {
	outbox       outbox.Repository
	eventFactory *cloudevents.EventFactory
	topic        string
}

// NewOutboxEventRecorder creates a recorder publishing to kafka.Topics.InventoryEvents
func NewOutboxEventRecorder(repo outbox.Repository, eventFactory *cloudevents.EventFactory) *OutboxEventRecorder {
	return &OutboxEventRecorder{
		outbox:       repo,
		eventFactory: eventFactory,
		topic:        kafka.Topics.InventoryEvents,
	}
}

// Record implements domain.EventRecorder
func (r *OutboxEventRecorder) Record(ctx context.Context, events ...domain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	outboxEvents := make([]*outbox.OutboxEvent, 0, len(events))
	for _, event := range events {
		cloudEvent := r.eventFactory.CreateEvent(ctx, event.EventType(), "lots/"+event.AggregateID(), event)
		cloudEvent.Time = event.OccurredAt()

		outboxEvent, err := outbox.NewOutboxEventFromCloudEvent(event.AggregateID(), lotAggregateType, r.topic, cloudEvent)
		if err != nil {
			return fmt.Errorf("failed to create outbox event: %w", err)
		}
		outboxEvents = append(outboxEvents, outboxEvent)
	}

	return r.outbox.SaveAll(ctx, outboxEvents)
}
