package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"marketplace-api/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishCatalogImportRequested publishes a pending import request; the
// import worker consumes it.
func (ep *EventPublisher) PublishCatalogImportRequested(ctx context.Context, event *models.CatalogImportRequestedEvent) error {
	key := fmt.Sprintf("import-%d", event.UserID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishCatalogImportFinished publishes the outcome of a feed load.
func (ep *EventPublisher) PublishCatalogImportFinished(ctx context.Context, event *models.CatalogImportFinishedEvent) error {
	key := fmt.Sprintf("import-%d", event.UserID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishOrderConfirmed publishes OrderConfirmed event
func (ep *EventPublisher) PublishOrderConfirmed(ctx context.Context, event *models.OrderConfirmedEvent) error {
	key := fmt.Sprintf("order-%d", event.OrderID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming events to registered handlers.
type EventHandler struct {
	onImportRequested func(context.Context, *models.CatalogImportRequestedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnCatalogImportRequested registers a handler for import requests.
func (eh *EventHandler) OnCatalogImportRequested(handler func(context.Context, *models.CatalogImportRequestedEvent) error) {
	eh.onImportRequested = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	log.Printf("Handling event: type=%s, id=%s", baseEvent.EventType, baseEvent.EventID)

	switch baseEvent.EventType {
	case models.EventTypeCatalogImportRequested:
		if eh.onImportRequested != nil {
			var event models.CatalogImportRequestedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal CatalogImportRequested event: %w", err)
			}
			return eh.onImportRequested(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
