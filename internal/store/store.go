package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"marketplace-api/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Sentinel errors the service layer maps to API error payloads.
var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrOrderNotConfirmable = errors.New("order state does not allow confirmation")
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// NewStoreWithDB wraps an existing connection, used by tests.
func NewStoreWithDB(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// ProductInfoDetail is a SKU joined with its product, category and shop.
type ProductInfoDetail struct {
	models.ProductInfo
	ProductName   string `db:"product_name" json:"product_name"`
	CategoryName  string `db:"category_name" json:"category_name"`
	ShopName      string `db:"shop_name" json:"shop_name"`
	ShopPlacement string `db:"shop_placement" json:"shop_placement"`
}

const productInfoDetailQuery = `
	SELECT pi.id, pi.product_id, pi.shop_id, pi.external_id, pi.model,
	       pi.quantity, pi.price, pi.price_rrc,
	       p.name AS product_name, c.name AS category_name,
	       s.name AS shop_name, s.placement AS shop_placement
	FROM product_info pi
	JOIN products p ON p.id = pi.product_id
	JOIN categories c ON c.id = p.category_id
	JOIN shops s ON s.id = pi.shop_id`

// GetProductInfoByID retrieves a SKU with product and shop details.
func (s *Store) GetProductInfoByID(ctx context.Context, id int64) (*ProductInfoDetail, error) {
	var detail ProductInfoDetail
	err := s.db.GetContext(ctx, &detail, productInfoDetailQuery+" WHERE pi.id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product info %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetProductInfos retrieves all SKUs from shops that accept orders.
func (s *Store) GetProductInfos(ctx context.Context) ([]ProductInfoDetail, error) {
	var details []ProductInfoDetail
	err := s.db.SelectContext(ctx, &details,
		productInfoDetailQuery+" WHERE s.state = true ORDER BY pi.id")
	return details, err
}

// GetProductParameters returns the attribute bag of a SKU as a name to
// value map.
func (s *Store) GetProductParameters(ctx context.Context, productInfoID int64) (map[string]string, error) {
	rows := []struct {
		Name  string `db:"name"`
		Value string `db:"value"`
	}{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT pm.name, pp.value
		FROM product_parameters pp
		JOIN parameters pm ON pm.id = pp.parameter_id
		WHERE pp.product_info_id = $1
		ORDER BY pm.name`, productInfoID)
	if err != nil {
		return nil, err
	}

	params := make(map[string]string, len(rows))
	for _, r := range rows {
		params[r.Name] = r.Value
	}
	return params, nil
}
