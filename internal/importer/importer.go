package importer

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"marketplace-api/internal/store"
	"marketplace-api/internal/util"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Feed is the YAML document a vendor publishes at their feed URL.
type Feed struct {
	Shop       string         `yaml:"shop"`
	Placement  string         `yaml:"placement"`
	Categories []FeedCategory `yaml:"categories"`
	Goods      []FeedGood     `yaml:"goods"`
}

type FeedCategory struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

type FeedGood struct {
	ID         int64             `yaml:"id"`
	Category   int64             `yaml:"category"`
	Model      string            `yaml:"model"`
	Name       string            `yaml:"name"`
	Price      int64             `yaml:"price"`
	PriceRRC   int64             `yaml:"price_rrc"`
	Quantity   int               `yaml:"quantity"`
	Parameters map[string]string `yaml:"parameters"`
}

// CatalogStore applies a parsed feed to the backing store.
type CatalogStore interface {
	ReplaceShopCatalog(ctx context.Context, ownerID int64, catalog *store.CatalogUpsert) (int64, error)
}

// Importer fetches vendor feeds and loads them into the catalog.
type Importer struct {
	store  CatalogStore
	client *http.Client
	logger *zap.Logger
}

// NewImporter creates a new catalog importer
func NewImporter(catalogStore CatalogStore) *Importer {
	return &Importer{
		store:  catalogStore,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: util.GetLogger(),
	}
}

// Run fetches the feed at url, parses it and replaces the owner's shop
// catalog. Returns the shop ID and the number of goods loaded.
func (i *Importer) Run(ctx context.Context, ownerID int64, url string) (int64, int, error) {
	start := time.Now()
	defer func() {
		util.CatalogImportDuration.Observe(time.Since(start).Seconds())
	}()

	feed, err := i.fetch(ctx, url)
	if err != nil {
		util.CatalogImportsFailed.WithLabelValues("fetch").Inc()
		return 0, 0, err
	}

	if err := ValidateFeed(feed); err != nil {
		util.CatalogImportsFailed.WithLabelValues("invalid_feed").Inc()
		return 0, 0, err
	}

	shopID, err := i.store.ReplaceShopCatalog(ctx, ownerID, toCatalogUpsert(url, feed))
	if err != nil {
		util.CatalogImportsFailed.WithLabelValues("db_error").Inc()
		return 0, 0, fmt.Errorf("failed to apply catalog: %w", err)
	}

	util.CatalogImportsCompleted.Inc()
	i.logger.Info("Catalog imported",
		zap.Int64("shop_id", shopID),
		zap.String("shop", feed.Shop),
		zap.Int("goods", len(feed.Goods)))
	return shopID, len(feed.Goods), nil
}

func (i *Importer) fetch(ctx context.Context, url string) (*Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build feed request: %w", err)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}

	return ParseFeed(body)
}

// ParseFeed decodes a YAML feed document.
func ParseFeed(data []byte) (*Feed, error) {
	var feed Feed
	if err := yaml.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}
	return &feed, nil
}

// ValidateFeed rejects feeds missing required structure before any row is
// touched.
func ValidateFeed(feed *Feed) error {
	if feed.Shop == "" {
		return fmt.Errorf("feed is missing shop name")
	}

	categories := make(map[int64]bool, len(feed.Categories))
	for _, cat := range feed.Categories {
		if cat.Name == "" {
			return fmt.Errorf("category %d is missing a name", cat.ID)
		}
		categories[cat.ID] = true
	}

	for _, good := range feed.Goods {
		if good.Name == "" {
			return fmt.Errorf("good %d is missing a name", good.ID)
		}
		if !categories[good.Category] {
			return fmt.Errorf("good %d references unknown category %d", good.ID, good.Category)
		}
		if good.Quantity < 0 {
			return fmt.Errorf("good %d has negative quantity", good.ID)
		}
	}
	return nil
}

func toCatalogUpsert(url string, feed *Feed) *store.CatalogUpsert {
	catalog := &store.CatalogUpsert{
		ShopName:  feed.Shop,
		ShopURL:   url,
		Placement: feed.Placement,
	}
	for _, cat := range feed.Categories {
		catalog.Categories = append(catalog.Categories, store.CatalogCategory{
			ID:   cat.ID,
			Name: cat.Name,
		})
	}
	for _, good := range feed.Goods {
		catalog.Goods = append(catalog.Goods, store.CatalogGood{
			ExternalID: good.ID,
			CategoryID: good.Category,
			Name:       good.Name,
			Model:      good.Model,
			Price:      good.Price,
			PriceRRC:   good.PriceRRC,
			Quantity:   good.Quantity,
			Parameters: good.Parameters,
		})
	}
	return catalog
}
