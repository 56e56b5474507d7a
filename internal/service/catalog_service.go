package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"marketplace-api/internal/models"
	"marketplace-api/internal/store"
	"marketplace-api/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogStore is the slice of the store the catalog service reads from.
type CatalogStore interface {
	GetProductInfoByID(ctx context.Context, id int64) (*store.ProductInfoDetail, error)
	GetProductInfos(ctx context.Context) ([]store.ProductInfoDetail, error)
	GetProductParameters(ctx context.Context, productInfoID int64) (map[string]string, error)
}

// ProductCache caches serialized SKU payloads.
type ProductCache interface {
	GetProduct(ctx context.Context, id int64) ([]byte, error)
	SetProduct(ctx context.Context, id int64, payload []byte, ttl time.Duration) error
}

// ImportPublisher hands import requests to the background worker.
type ImportPublisher interface {
	PublishCatalogImportRequested(ctx context.Context, event *models.CatalogImportRequestedEvent) error
}

// CatalogService serves the product catalog and accepts feed-import
// requests from shop users.
type CatalogService struct {
	store     CatalogStore
	cache     ProductCache
	publisher ImportPublisher
	logger    *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(store CatalogStore, cache ProductCache, publisher ImportPublisher) *CatalogService {
	return &CatalogService{
		store:     store,
		cache:     cache,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// ProductListing is one SKU in the catalog listing or detail view.
type ProductListing struct {
	ID       int64             `json:"id"`
	Model    string            `json:"model"`
	Product  ListedProduct     `json:"product"`
	Params   map[string]string `json:"params,omitempty"`
	Shop     ListedShop        `json:"shop"`
	Quantity int               `json:"quantity"`
	Price    int64             `json:"price"`
}

type ListedProduct struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type ListedShop struct {
	Name      string `json:"name"`
	Placement string `json:"placement"`
}

// ListProducts returns all SKUs from shops currently accepting orders.
func (s *CatalogService) ListProducts(ctx context.Context) ([]ProductListing, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ListProducts")
	defer span.End()

	details, err := s.store.GetProductInfos(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	listings := make([]ProductListing, 0, len(details))
	for _, d := range details {
		listings = append(listings, toListing(&d, nil))
	}
	return listings, nil
}

const productCacheTTL = 5 * time.Minute

// GetProduct returns one SKU with its parameter bag. Reads go through the
// Redis cache; a miss falls back to the store and repopulates the cache.
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*ProductListing, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProduct")
	defer span.End()

	if s.cache != nil {
		if payload, err := s.cache.GetProduct(ctx, id); err == nil && payload != nil {
			var listing ProductListing
			if err := json.Unmarshal(payload, &listing); err == nil {
				util.ProductCacheHits.Inc()
				return &listing, nil
			}
		}
		util.ProductCacheMisses.Inc()
	}

	detail, err := s.store.GetProductInfoByID(ctx, id)
	if err != nil {
		return nil, err
	}

	params, err := s.store.GetProductParameters(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load product parameters: %w", err)
	}

	listing := toListing(detail, params)

	if s.cache != nil {
		if payload, err := json.Marshal(listing); err == nil {
			if err := s.cache.SetProduct(ctx, id, payload, productCacheTTL); err != nil {
				s.logger.Warn("Failed to cache product", zap.Int64("id", id), zap.Error(err))
			}
		}
	}

	return &listing, nil
}

// TriggerImport validates an import request and hands it off to the
// background worker. Only shop-type users may publish catalogs; the
// request returns as soon as the event is accepted.
func (s *CatalogService) TriggerImport(ctx context.Context, user *models.User, feedURL string) error {
	ctx, span := util.StartSpan(ctx, "CatalogService.TriggerImport")
	defer span.End()

	if user.Type != models.UserTypeShop {
		return fmt.Errorf("user %d: %w", user.ID, ErrShopsOnly)
	}

	if feedURL == "" {
		return FieldErrors{"url": "This field is required"}
	}
	parsed, err := url.Parse(feedURL)
	if err != nil || !parsed.IsAbs() || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return FieldErrors{"url": "Enter a valid URL"}
	}

	event := &models.CatalogImportRequestedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeCatalogImportRequested,
			Timestamp: time.Now(),
		},
		UserID:  user.ID,
		FeedURL: feedURL,
	}

	if err := s.publisher.PublishCatalogImportRequested(ctx, event); err != nil {
		return fmt.Errorf("failed to publish import request: %w", err)
	}

	util.CatalogImportsRequested.Inc()
	s.logger.Info("Catalog import requested",
		zap.Int64("user_id", user.ID),
		zap.String("url", feedURL))
	return nil
}

// IsNotFound reports whether err is a missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func toListing(d *store.ProductInfoDetail, params map[string]string) ProductListing {
	return ProductListing{
		ID:    d.ID,
		Model: d.Model,
		Product: ListedProduct{
			Name:     d.ProductName,
			Category: d.CategoryName,
		},
		Params: params,
		Shop: ListedShop{
			Name:      d.ShopName,
			Placement: d.ShopPlacement,
		},
		Quantity: d.Quantity,
		Price:    d.Price,
	}
}
