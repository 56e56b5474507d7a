package models

import "time"

// NotSpecified is the placeholder stored in contact fields the buyer has
// not filled in yet. Confirmation requires both fields to be real values.
const NotSpecified = "not specified"

// User types
const (
	UserTypeBuyer = "buyer"
	UserTypeShop  = "shop"
)

// User is an account that can browse, order and (for shop users) publish
// catalogs.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Username     string    `db:"username" json:"username"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Company      string    `db:"company" json:"company,omitempty"`
	Position     string    `db:"position" json:"position,omitempty"`
	Type         string    `db:"type" json:"type"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Shop is a vendor storefront populated by catalog import.
type Shop struct {
	ID        int64  `db:"id" json:"id"`
	OwnerID   int64  `db:"owner_id" json:"-"`
	Name      string `db:"name" json:"name"`
	URL       string `db:"url" json:"url"`
	State     bool   `db:"state" json:"state"`
	Placement string `db:"placement" json:"placement"`
}

type Category struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

type Product struct {
	ID         int64  `db:"id" json:"id"`
	Name       string `db:"name" json:"name"`
	CategoryID int64  `db:"category_id" json:"category_id"`
}

// ProductInfo is the sellable SKU: one product as stocked and priced by
// one shop. Unique per (product, shop, external_id).
type ProductInfo struct {
	ID         int64  `db:"id" json:"id"`
	ProductID  int64  `db:"product_id" json:"product_id"`
	ShopID     int64  `db:"shop_id" json:"shop_id"`
	ExternalID int64  `db:"external_id" json:"external_id"`
	Model      string `db:"model" json:"model"`
	Quantity   int    `db:"quantity" json:"quantity"`
	Price      int64  `db:"price" json:"price"`
	PriceRRC   int64  `db:"price_rrc" json:"price_rrc"`
}

type Parameter struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// ProductParameter attaches a free-form name/value attribute to a SKU.
type ProductParameter struct {
	ProductInfoID int64  `db:"product_info_id" json:"product_info_id"`
	ParameterID   int64  `db:"parameter_id" json:"parameter_id"`
	Value         string `db:"value" json:"value"`
}

// Contact is the delivery contact attached to an order. Address and phone
// may hold NotSpecified until the order is confirmed.
type Contact struct {
	ID      int64  `db:"id" json:"id"`
	UserID  int64  `db:"user_id" json:"user_id"`
	City    string `db:"city" json:"city"`
	Address string `db:"address" json:"address"`
	Phone   string `db:"phone" json:"phone"`
}

// Order states, ordered as a progression. Cancellation is reachable from
// any state.
const (
	OrderStateBasket    = "basket"
	OrderStateNew       = "new"
	OrderStateConfirmed = "confirmed"
	OrderStateSent      = "sent"
	OrderStateCompleted = "completed"
	OrderStateCancelled = "cancelled"
)

// ConfirmableStates are the states an order may be confirmed from.
var ConfirmableStates = []string{OrderStateBasket, OrderStateNew}

type Order struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ContactID int64     `db:"contact_id" json:"contact_id"`
	State     string    `db:"state" json:"state"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// OrderItem is one priced line within an order. OrderNumber stays empty
// until confirmation stamps it.
type OrderItem struct {
	ID            int64  `db:"id" json:"id"`
	OrderID       int64  `db:"order_id" json:"order_id"`
	ProductInfoID int64  `db:"product_info_id" json:"product_info_id"`
	Quantity      int    `db:"quantity" json:"quantity"`
	Total         int64  `db:"total" json:"total"`
	OrderNumber   string `db:"order_number" json:"order_number"`
}
