package models

import "time"

// Event types
const (
	EventTypeCatalogImportRequested = "CATALOG_IMPORT_REQUESTED"
	EventTypeCatalogImportFinished  = "CATALOG_IMPORT_FINISHED"
	EventTypeOrderConfirmed         = "ORDER_CONFIRMED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// CatalogImportRequestedEvent is published when a shop user posts a feed
// URL. The import worker picks it up and runs the actual load.
type CatalogImportRequestedEvent struct {
	BaseEvent
	UserID  int64  `json:"user_id"`
	FeedURL string `json:"feed_url"`
}

// CatalogImportFinishedEvent reports the outcome of a feed load.
type CatalogImportFinishedEvent struct {
	BaseEvent
	UserID  int64  `json:"user_id"`
	FeedURL string `json:"feed_url"`
	ShopID  int64  `json:"shop_id,omitempty"`
	Goods   int    `json:"goods,omitempty"`
	Error   string `json:"error,omitempty"`
}

// OrderConfirmedEvent is published after a successful confirmation, for
// downstream consumers (notifications, analytics).
type OrderConfirmedEvent struct {
	BaseEvent
	OrderID     int64  `json:"order_id"`
	OrderItemID int64  `json:"order_item_id"`
	UserID      int64  `json:"user_id"`
	OrderNumber string `json:"order_number"`
	Total       int64  `json:"total"`
}
