package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"marketplace-api/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStoreWithDB(sqlx.NewDb(db, "sqlmock")), mock
}

func confirmParams() ConfirmOrderItemParams {
	return ConfirmOrderItemParams{
		ItemID:        17,
		OrderID:       9,
		ContactID:     4,
		ProductInfoID: 10,
		Quantity:      3,
		Address:       "Nevsky 1",
		Phone:         "+7 900 000-00-00",
		OrderNumber:   "Moscow_017_240509",
	}
}

func TestConfirmOrderItemTx(t *testing.T) {
	s, mock := newMockStore(t)
	p := confirmParams()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE contacts SET address = $1, phone = $2 WHERE id = $3")).
		WithArgs(p.Address, p.Phone, p.ContactID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE orders SET state = $1 WHERE id = $2 AND state IN ($3, $4)")).
		WithArgs(models.OrderStateConfirmed, p.OrderID, models.OrderStateBasket, models.OrderStateNew).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE product_info SET quantity = quantity - $1 WHERE id = $2 AND quantity >= $1")).
		WithArgs(p.Quantity, p.ProductInfoID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE order_items SET order_number = $1 WHERE id = $2")).
		WithArgs(p.OrderNumber, p.ItemID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.ConfirmOrderItemTx(context.Background(), p)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmOrderItemTxStateGuard(t *testing.T) {
	s, mock := newMockStore(t)
	p := confirmParams()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE contacts").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Order already confirmed: the guarded update touches no rows.
	mock.ExpectExec("UPDATE orders SET state").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.ConfirmOrderItemTx(context.Background(), p)
	assert.ErrorIs(t, err, ErrOrderNotConfirmable)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmOrderItemTxInsufficientStock(t *testing.T) {
	s, mock := newMockStore(t)
	p := confirmParams()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE contacts").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE orders SET state").
		WillReturnResult(sqlmock.NewResult(0, 1))
	// Conditional decrement misses: not enough stock.
	mock.ExpectExec("UPDATE product_info SET quantity").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.ConfirmOrderItemTx(context.Background(), p)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderWithItem(t *testing.T) {
	s, mock := newMockStore(t)

	contact := &models.Contact{UserID: 1, City: "Pskov", Address: models.NotSpecified, Phone: models.NotSpecified}
	order := &models.Order{UserID: 1, State: models.OrderStateBasket}
	item := &models.OrderItem{ProductInfoID: 10, Quantity: 2, Total: 3000}

	createdAt := time.Date(2024, 5, 9, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO contacts").
		WithArgs(contact.UserID, contact.City, contact.Address, contact.Phone).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectQuery("INSERT INTO orders").
		WithArgs(order.UserID, int64(4), order.State).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(9, createdAt))
	mock.ExpectQuery("INSERT INTO order_items").
		WithArgs(int64(9), item.ProductInfoID, item.Quantity, item.Total).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(17))
	mock.ExpectCommit()

	err := s.CreateOrderWithItem(context.Background(), contact, order, item)
	require.NoError(t, err)

	assert.Equal(t, int64(4), contact.ID)
	assert.Equal(t, int64(9), order.ID)
	assert.Equal(t, int64(4), order.ContactID)
	assert.Equal(t, createdAt, order.CreatedAt)
	assert.Equal(t, int64(17), item.ID)
	assert.Equal(t, int64(9), item.OrderID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderWithItemRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	contact := &models.Contact{UserID: 1, City: "Pskov"}
	order := &models.Order{UserID: 1, State: models.OrderStateBasket}
	item := &models.OrderItem{ProductInfoID: 10, Quantity: 2, Total: 3000}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO contacts").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))
	mock.ExpectQuery("INSERT INTO orders").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := s.CreateOrderWithItem(context.Background(), contact, order, item)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrderItemDetailNotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery("SELECT oi.id").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetOrderItemDetail(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrderItemsByUser(t *testing.T) {
	s, mock := newMockStore(t)

	createdAt := time.Date(2024, 5, 9, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT oi.id, oi.order_number").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_number", "total", "state", "created_at"}).
			AddRow(17, "Pskov_017_240509", 3000, models.OrderStateConfirmed, createdAt).
			AddRow(16, "", 2200, models.OrderStateBasket, createdAt))

	items, err := s.ListOrderItemsByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(17), items[0].ID)
	assert.Equal(t, "Pskov_017_240509", items[0].OrderNumber)
	assert.Equal(t, models.OrderStateBasket, items[1].State)
}
