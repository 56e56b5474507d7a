package store

import (
	"context"
	"fmt"
)

// CatalogCategory is one category entry from a vendor feed. The feed
// assigns category IDs, so they are upserted verbatim.
type CatalogCategory struct {
	ID   int64
	Name string
}

// CatalogGood is one sellable item from a vendor feed.
type CatalogGood struct {
	ExternalID int64
	CategoryID int64
	Name       string
	Model      string
	Price      int64
	PriceRRC   int64
	Quantity   int
	Parameters map[string]string
}

// CatalogUpsert is a full parsed vendor feed ready to be applied.
type CatalogUpsert struct {
	ShopName   string
	ShopURL    string
	Placement  string
	Categories []CatalogCategory
	Goods      []CatalogGood
}

// ReplaceShopCatalog applies a vendor feed in one transaction: upsert the
// shop (keyed by owner and name), upsert categories and their shop links,
// wipe the shop's SKUs and reinsert them from the feed. Each import fully
// replaces the shop's previous listing.
func (s *Store) ReplaceShopCatalog(ctx context.Context, ownerID int64, catalog *CatalogUpsert) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var shopID int64
	err = tx.GetContext(ctx, &shopID, `
		INSERT INTO shops (owner_id, name, url, state, placement)
		VALUES ($1, $2, $3, true, $4)
		ON CONFLICT (owner_id, name)
		DO UPDATE SET url = EXCLUDED.url, placement = EXCLUDED.placement, state = true
		RETURNING id`,
		ownerID, catalog.ShopName, catalog.ShopURL, catalog.Placement)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert shop: %w", err)
	}

	for _, cat := range catalog.Categories {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO categories (id, name)
			VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
			cat.ID, cat.Name)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert category %d: %w", cat.ID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO shop_categories (shop_id, category_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING`,
			shopID, cat.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to link category %d: %w", cat.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx, "DELETE FROM product_info WHERE shop_id = $1", shopID)
	if err != nil {
		return 0, fmt.Errorf("failed to clear shop catalog: %w", err)
	}

	for _, good := range catalog.Goods {
		var productID int64
		err = tx.GetContext(ctx, &productID, `
			INSERT INTO products (name, category_id)
			VALUES ($1, $2)
			ON CONFLICT (category_id, name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`,
			good.Name, good.CategoryID)
		if err != nil {
			return 0, fmt.Errorf("failed to upsert product %q: %w", good.Name, err)
		}

		var productInfoID int64
		err = tx.GetContext(ctx, &productInfoID, `
			INSERT INTO product_info (product_id, shop_id, external_id, model, quantity, price, price_rrc)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			productID, shopID, good.ExternalID, good.Model, good.Quantity, good.Price, good.PriceRRC)
		if err != nil {
			return 0, fmt.Errorf("failed to insert product info %d: %w", good.ExternalID, err)
		}

		for name, value := range good.Parameters {
			var parameterID int64
			err = tx.GetContext(ctx, &parameterID, `
				INSERT INTO parameters (name)
				VALUES ($1)
				ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
				RETURNING id`,
				name)
			if err != nil {
				return 0, fmt.Errorf("failed to upsert parameter %q: %w", name, err)
			}

			_, err = tx.ExecContext(ctx, `
				INSERT INTO product_parameters (product_info_id, parameter_id, value)
				VALUES ($1, $2, $3)
				ON CONFLICT (product_info_id, parameter_id) DO UPDATE SET value = EXCLUDED.value`,
				productInfoID, parameterID, value)
			if err != nil {
				return 0, fmt.Errorf("failed to upsert parameter value %q: %w", name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return shopID, nil
}
