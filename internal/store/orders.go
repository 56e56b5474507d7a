package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"marketplace-api/internal/models"
)

// OrderItemSummary is one row of the caller's order list.
type OrderItemSummary struct {
	ID          int64     `db:"id" json:"id"`
	OrderNumber string    `db:"order_number" json:"order_number"`
	Total       int64     `db:"total" json:"total"`
	State       string    `db:"state" json:"state"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// OrderItemDetail is an order item joined with its order, contact, owner,
// product and shop.
type OrderItemDetail struct {
	models.OrderItem
	OrderUserID    int64     `db:"order_user_id"`
	OrderState     string    `db:"order_state"`
	OrderCreatedAt time.Time `db:"order_created_at"`
	ContactID      int64     `db:"contact_id"`
	City           string    `db:"city"`
	Address        string    `db:"address"`
	Phone          string    `db:"phone"`
	OwnerEmail     string    `db:"owner_email"`
	OwnerFirstName string    `db:"owner_first_name"`
	OwnerLastName  string    `db:"owner_last_name"`
	ProductName    string    `db:"product_name"`
	ShopName       string    `db:"shop_name"`
	Price          int64     `db:"price"`
}

const orderItemDetailQuery = `
	SELECT oi.id, oi.order_id, oi.product_info_id, oi.quantity, oi.total, oi.order_number,
	       o.user_id AS order_user_id, o.state AS order_state, o.created_at AS order_created_at,
	       ct.id AS contact_id, ct.city, ct.address, ct.phone,
	       u.email AS owner_email, u.first_name AS owner_first_name, u.last_name AS owner_last_name,
	       p.name AS product_name, s.name AS shop_name, pi.price
	FROM order_items oi
	JOIN orders o ON o.id = oi.order_id
	JOIN contacts ct ON ct.id = o.contact_id
	JOIN users u ON u.id = o.user_id
	JOIN product_info pi ON pi.id = oi.product_info_id
	JOIN products p ON p.id = pi.product_id
	JOIN shops s ON s.id = pi.shop_id`

// GetOrderItemDetail retrieves one order item with all joined context.
func (s *Store) GetOrderItemDetail(ctx context.Context, itemID int64) (*OrderItemDetail, error) {
	var detail OrderItemDetail
	err := s.db.GetContext(ctx, &detail, orderItemDetailQuery+" WHERE oi.id = $1", itemID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order item %d: %w", itemID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListOrderItemsByUser returns every order item owned by the user, newest
// first.
func (s *Store) ListOrderItemsByUser(ctx context.Context, userID int64) ([]OrderItemSummary, error) {
	var items []OrderItemSummary
	err := s.db.SelectContext(ctx, &items, `
		SELECT oi.id, oi.order_number, oi.total, o.state, o.created_at
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, oi.id DESC`, userID)
	return items, err
}

// CreateOrderWithItem persists contact, order and order item in one
// transaction. A failure at any step rolls back all three rows, so no
// orphan contacts or orders survive a failed creation.
func (s *Store) CreateOrderWithItem(
	ctx context.Context,
	contact *models.Contact,
	order *models.Order,
	item *models.OrderItem,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	err = tx.GetContext(ctx, &contact.ID, `
		INSERT INTO contacts (user_id, city, address, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		contact.UserID, contact.City, contact.Address, contact.Phone)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}

	order.ContactID = contact.ID
	err = tx.GetContext(ctx, order, `
		INSERT INTO orders (user_id, contact_id, state)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		order.UserID, order.ContactID, order.State)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	item.OrderID = order.ID
	err = tx.GetContext(ctx, &item.ID, `
		INSERT INTO order_items (order_id, product_info_id, quantity, total, order_number)
		VALUES ($1, $2, $3, $4, '')
		RETURNING id`,
		item.OrderID, item.ProductInfoID, item.Quantity, item.Total)
	if err != nil {
		return fmt.Errorf("failed to create order item: %w", err)
	}

	return tx.Commit()
}

// ConfirmOrderItemParams carries everything ConfirmOrderItemTx mutates.
type ConfirmOrderItemParams struct {
	ItemID        int64
	OrderID       int64
	ContactID     int64
	ProductInfoID int64
	Quantity      int
	Address       string
	Phone         string
	OrderNumber   string
}

// ConfirmOrderItemTx runs the confirmation as one transaction: fill the
// contact, move the order to confirmed (guarded so re-confirmation is
// rejected), decrement stock with a conditional update (never below
// zero), and stamp the order number. Any failed step rolls the whole
// confirmation back.
func (s *Store) ConfirmOrderItemTx(ctx context.Context, p ConfirmOrderItemParams) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"UPDATE contacts SET address = $1, phone = $2 WHERE id = $3",
		p.Address, p.Phone, p.ContactID)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE orders SET state = $1 WHERE id = $2 AND state IN ($3, $4)",
		models.OrderStateConfirmed, p.OrderID, models.OrderStateBasket, models.OrderStateNew)
	if err != nil {
		return fmt.Errorf("failed to update order state: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("order %d: %w", p.OrderID, ErrOrderNotConfirmable)
	}

	res, err = tx.ExecContext(ctx,
		"UPDATE product_info SET quantity = quantity - $1 WHERE id = $2 AND quantity >= $1",
		p.Quantity, p.ProductInfoID)
	if err != nil {
		return fmt.Errorf("failed to decrement stock: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return fmt.Errorf("product info %d: %w", p.ProductInfoID, ErrInsufficientStock)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE order_items SET order_number = $1 WHERE id = $2",
		p.OrderNumber, p.ItemID)
	if err != nil {
		return fmt.Errorf("failed to stamp order number: %w", err)
	}

	return tx.Commit()
}
