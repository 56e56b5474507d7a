package worker

import (
	"context"
	"log"
	"time"

	"marketplace-api/internal/broker"
	"marketplace-api/internal/importer"
	"marketplace-api/internal/models"
	"marketplace-api/internal/redisclient"

	"github.com/google/uuid"
)

// ImportWorker consumes catalog-import requests and runs the feed loads
// in the background, decoupled from the HTTP requests that triggered
// them.
type ImportWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	importer     *importer.Importer
	publisher    *broker.EventPublisher
	cache        *redisclient.Client
}

// NewImportWorker creates a new import worker
func NewImportWorker(
	consumer *broker.Consumer,
	imp *importer.Importer,
	publisher *broker.EventPublisher,
	cache *redisclient.Client,
) *ImportWorker {
	w := &ImportWorker{
		consumer:  consumer,
		importer:  imp,
		publisher: publisher,
		cache:     cache,
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnCatalogImportRequested(w.handleImportRequested)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *ImportWorker) Start(ctx context.Context) error {
	log.Println("Starting import worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ImportWorker) Stop() error {
	log.Println("Stopping import worker...")
	return w.consumer.Close()
}

func (w *ImportWorker) handleImportRequested(ctx context.Context, event *models.CatalogImportRequestedEvent) error {
	log.Printf("Processing catalog import: user=%d, url=%s", event.UserID, event.FeedURL)

	shopID, goods, err := w.importer.Run(ctx, event.UserID, event.FeedURL)

	finished := &models.CatalogImportFinishedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCatalogImportFinished,
			Timestamp: time.Now(),
		},
		UserID:  event.UserID,
		FeedURL: event.FeedURL,
	}

	if err != nil {
		log.Printf("Catalog import failed: user=%d, err=%v", event.UserID, err)
		finished.Error = err.Error()
	} else {
		finished.ShopID = shopID
		finished.Goods = goods

		// The import replaced the shop's SKUs, so cached product
		// payloads are stale.
		if w.cache != nil {
			if err := w.cache.InvalidateProducts(ctx); err != nil {
				log.Printf("Failed to invalidate product cache: %v", err)
			}
		}
	}

	if pubErr := w.publisher.PublishCatalogImportFinished(ctx, finished); pubErr != nil {
		log.Printf("Failed to publish CatalogImportFinished event: %v", pubErr)
	}

	// The request itself is consumed either way; a broken feed is not
	// retried until the vendor posts it again.
	return nil
}
