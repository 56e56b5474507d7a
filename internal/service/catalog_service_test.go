package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"marketplace-api/internal/models"
	"marketplace-api/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalogStore struct {
	products map[int64]*store.ProductInfoDetail
	params   map[int64]map[string]string
	reads    int
}

func (f *fakeCatalogStore) GetProductInfoByID(_ context.Context, id int64) (*store.ProductInfoDetail, error) {
	f.reads++
	p, ok := f.products[id]
	if !ok {
		return nil, fmt.Errorf("product info %d: %w", id, store.ErrNotFound)
	}
	return p, nil
}

func (f *fakeCatalogStore) GetProductInfos(_ context.Context) ([]store.ProductInfoDetail, error) {
	var out []store.ProductInfoDetail
	for _, p := range f.products {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeCatalogStore) GetProductParameters(_ context.Context, id int64) (map[string]string, error) {
	return f.params[id], nil
}

type fakeProductCache struct {
	data map[int64][]byte
}

func (f *fakeProductCache) GetProduct(_ context.Context, id int64) ([]byte, error) {
	return f.data[id], nil
}

func (f *fakeProductCache) SetProduct(_ context.Context, id int64, payload []byte, _ time.Duration) error {
	f.data[id] = payload
	return nil
}

type fakeImportPublisher struct {
	events []*models.CatalogImportRequestedEvent
	err    error
}

func (f *fakeImportPublisher) PublishCatalogImportRequested(_ context.Context, event *models.CatalogImportRequestedEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func newTestCatalogService() (*CatalogService, *fakeCatalogStore, *fakeProductCache, *fakeImportPublisher) {
	catalogStore := &fakeCatalogStore{
		products: map[int64]*store.ProductInfoDetail{
			5: {
				ProductInfo:   models.ProductInfo{ID: 5, Model: "apple/iphone", Quantity: 3, Price: 110000},
				ProductName:   "iPhone XS Max",
				CategoryName:  "Smartphones",
				ShopName:      "Svyaznoy",
				ShopPlacement: "Moscow",
			},
		},
		params: map[int64]map[string]string{
			5: {"Color": "golden"},
		},
	}
	cache := &fakeProductCache{data: make(map[int64][]byte)}
	publisher := &fakeImportPublisher{}
	return NewCatalogService(catalogStore, cache, publisher), catalogStore, cache, publisher
}

func TestGetProductPopulatesCache(t *testing.T) {
	svc, catalogStore, cache, _ := newTestCatalogService()

	listing, err := svc.GetProduct(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "iPhone XS Max", listing.Product.Name)
	assert.Equal(t, "Moscow", listing.Shop.Placement)
	assert.Equal(t, "golden", listing.Params["Color"])
	assert.Equal(t, 1, catalogStore.reads)
	assert.NotEmpty(t, cache.data[5])

	// Second read is served from the cache.
	again, err := svc.GetProduct(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, listing, again)
	assert.Equal(t, 1, catalogStore.reads)
}

func TestGetProductIgnoresCorruptCache(t *testing.T) {
	svc, catalogStore, cache, _ := newTestCatalogService()
	cache.data[5] = []byte("{broken")

	listing, err := svc.GetProduct(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, "iPhone XS Max", listing.Product.Name)
	assert.Equal(t, 1, catalogStore.reads)

	// Cache was repopulated with a valid payload.
	var cached ProductListing
	require.NoError(t, json.Unmarshal(cache.data[5], &cached))
	assert.Equal(t, *listing, cached)
}

func TestGetProductNotFound(t *testing.T) {
	svc, _, _, _ := newTestCatalogService()

	_, err := svc.GetProduct(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListProducts(t *testing.T) {
	svc, _, _, _ := newTestCatalogService()

	listings, err := svc.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, int64(5), listings[0].ID)
	assert.Equal(t, "Smartphones", listings[0].Product.Category)
}

func TestTriggerImport(t *testing.T) {
	svc, _, _, publisher := newTestCatalogService()
	shopUser := &models.User{ID: 3, Type: models.UserTypeShop}

	err := svc.TriggerImport(context.Background(), shopUser, "https://example.com/feed.yaml")
	require.NoError(t, err)

	require.Len(t, publisher.events, 1)
	event := publisher.events[0]
	assert.Equal(t, models.EventTypeCatalogImportRequested, event.EventType)
	assert.Equal(t, int64(3), event.UserID)
	assert.Equal(t, "https://example.com/feed.yaml", event.FeedURL)
	assert.NotEmpty(t, event.EventID)
}

func TestTriggerImportBuyerRejected(t *testing.T) {
	svc, _, _, publisher := newTestCatalogService()
	buyer := &models.User{ID: 4, Type: models.UserTypeBuyer}

	err := svc.TriggerImport(context.Background(), buyer, "https://example.com/feed.yaml")
	assert.ErrorIs(t, err, ErrShopsOnly)
	assert.Empty(t, publisher.events)
}

func TestTriggerImportURLValidation(t *testing.T) {
	svc, _, _, publisher := newTestCatalogService()
	shopUser := &models.User{ID: 3, Type: models.UserTypeShop}

	tests := []struct {
		name    string
		url     string
		message string
	}{
		{"Empty", "", "This field is required"},
		{"Relative", "feed.yaml", "Enter a valid URL"},
		{"WrongScheme", "ftp://example.com/feed.yaml", "Enter a valid URL"},
		{"NoHost", "https://", "Enter a valid URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.TriggerImport(context.Background(), shopUser, tt.url)
			fieldErrs, ok := AsFieldErrors(err)
			require.True(t, ok, "expected field errors, got %v", err)
			assert.Equal(t, tt.message, fieldErrs["url"])
		})
	}
	assert.Empty(t, publisher.events)
}
