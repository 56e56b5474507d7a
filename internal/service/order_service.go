package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-api/internal/delivery"
	"marketplace-api/internal/models"
	"marketplace-api/internal/store"
	"marketplace-api/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderStore is the slice of the store the order workflow needs.
type OrderStore interface {
	GetProductInfoByID(ctx context.Context, id int64) (*store.ProductInfoDetail, error)
	CreateOrderWithItem(ctx context.Context, contact *models.Contact, order *models.Order, item *models.OrderItem) error
	GetOrderItemDetail(ctx context.Context, itemID int64) (*store.OrderItemDetail, error)
	ListOrderItemsByUser(ctx context.Context, userID int64) ([]store.OrderItemSummary, error)
	ConfirmOrderItemTx(ctx context.Context, p store.ConfirmOrderItemParams) error
}

// OrderEventPublisher publishes order lifecycle events.
type OrderEventPublisher interface {
	PublishOrderConfirmed(ctx context.Context, event *models.OrderConfirmedEvent) error
}

// OrderService handles order creation, confirmation and viewing.
type OrderService struct {
	store          OrderStore
	calculator     *delivery.Calculator
	eventPublisher OrderEventPublisher
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(store OrderStore, calculator *delivery.Calculator, eventPublisher OrderEventPublisher) *OrderService {
	return &OrderService{
		store:          store,
		calculator:     calculator,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// ContactPayload is the contact block of an order-creation request.
type ContactPayload struct {
	City    string `json:"city"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	Contact     *ContactPayload `json:"contact"`
	Quantity    int             `json:"quantity"`
	ProductInfo int64           `json:"product_info"`
}

// ReceiptProduct is the product block of an order receipt.
type ReceiptProduct struct {
	Name         string `json:"name"`
	Price        int64  `json:"price"`
	ShopLocation string `json:"shop_location"`
	Quantity     int    `json:"quantity"`
}

// OrderReceipt is the response to a successful order creation.
type OrderReceipt struct {
	ID           int64          `json:"id"`
	Status       string         `json:"status"`
	Product      ReceiptProduct `json:"product"`
	Sum          int64          `json:"sum"`
	DeliveryCost int64          `json:"delivery_cost"`
	Total        int64          `json:"total"`
}

// CreateOrder validates the request, prices the order including delivery,
// and persists contact, order and order item in one transaction. All
// validation runs before any write, so a rejected request leaves no rows
// behind.
func (s *OrderService) CreateOrder(ctx context.Context, userID int64, req *CreateOrderRequest) (*OrderReceipt, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	fieldErrs := FieldErrors{}
	if req.Contact == nil {
		fieldErrs["contact"] = "This field is required"
	} else if req.Contact.City == "" {
		fieldErrs["city"] = "This field is required"
	}
	if req.Quantity <= 0 {
		fieldErrs["quantity"] = "Only positive integers are allowed"
	}
	if req.ProductInfo == 0 {
		fieldErrs["product_info"] = "This field is required"
	}
	if len(fieldErrs) > 0 {
		util.OrdersFailedTotal.WithLabelValues("validation").Inc()
		return nil, fieldErrs
	}

	productInfo, err := s.store.GetProductInfoByID(ctx, req.ProductInfo)
	if errors.Is(err, ErrNotFound) {
		util.OrdersFailedTotal.WithLabelValues("unknown_product").Inc()
		return nil, FieldErrors{"product_info": "ID does not exist"}
	}
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to resolve product info: %w", err)
	}

	if !s.calculator.KnownCity(productInfo.ShopPlacement) {
		// Priced as if shipped from the first city in the table.
		s.logger.Warn("Shop placement outside delivery city table",
			zap.String("placement", productInfo.ShopPlacement),
			zap.Int64("shop_id", productInfo.ShopID))
	}
	deliveryCost := s.calculator.Cost(productInfo.ShopPlacement, req.Contact.City)
	subtotal := productInfo.Price * int64(req.Quantity)
	total := subtotal + deliveryCost

	contact := &models.Contact{
		UserID:  userID,
		City:    req.Contact.City,
		Address: orNotSpecified(req.Contact.Address),
		Phone:   orNotSpecified(req.Contact.Phone),
	}
	order := &models.Order{
		UserID: userID,
		State:  models.OrderStateBasket,
	}
	item := &models.OrderItem{
		ProductInfoID: productInfo.ID,
		Quantity:      req.Quantity,
		Total:         total,
	}

	if err := s.store.CreateOrderWithItem(ctx, contact, order, item); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("order_item_id", item.ID),
		zap.Int64("total", total))

	return &OrderReceipt{
		ID:     item.ID,
		Status: "in basket",
		Product: ReceiptProduct{
			Name:         productInfo.ProductName,
			Price:        productInfo.Price,
			ShopLocation: productInfo.ShopPlacement,
			Quantity:     req.Quantity,
		},
		Sum:          subtotal,
		DeliveryCost: deliveryCost,
		Total:        total,
	}, nil
}

// ConfirmOrderRequest carries the contact fields a buyer supplies at
// confirmation time.
type ConfirmOrderRequest struct {
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// ConfirmedProduct is the product block of a confirmation receipt.
type ConfirmedProduct struct {
	Name     string `json:"name"`
	Shop     string `json:"shop"`
	Price    int64  `json:"price"`
	Quantity int    `json:"quantity"`
	Total    int64  `json:"total"`
}

// ContactInfo is the finalized contact block of a confirmation receipt.
type ContactInfo struct {
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Person  string `json:"person"`
}

// ConfirmationReceipt is the response to a successful confirmation.
type ConfirmationReceipt struct {
	Status      string           `json:"status"`
	OrderNumber string           `json:"order_number"`
	Product     ConfirmedProduct `json:"product"`
	UserInfo    ContactInfo      `json:"user_info"`
}

// ConfirmOrder finalizes an order: fills in the contact, moves the order
// to confirmed, decrements stock and stamps the order number. The state
// transition and the stock decrement are both guarded in SQL, so a
// re-confirmation or an over-sell rolls back without persisting anything.
func (s *OrderService) ConfirmOrder(ctx context.Context, userID, itemID int64, req *ConfirmOrderRequest) (*ConfirmationReceipt, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ConfirmOrder")
	defer span.End()

	detail, err := s.store.GetOrderItemDetail(ctx, itemID)
	if errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve order item: %w", err)
	}

	if detail.OrderUserID != userID {
		return nil, fmt.Errorf("order item %d: %w", itemID, ErrPermissionDenied)
	}

	fieldErrs := FieldErrors{}
	if detail.Address == models.NotSpecified && req.Address == "" {
		fieldErrs["address"] = "Fill this field to confirm"
	}
	if detail.Phone == models.NotSpecified && req.Phone == "" {
		fieldErrs["phone"] = "Fill this field to confirm"
	}
	if len(fieldErrs) > 0 {
		return nil, fieldErrs
	}

	address := req.Address
	if address == "" {
		address = detail.Address
	}
	phone := req.Phone
	if phone == "" {
		phone = detail.Phone
	}

	orderNumber := FormatOrderNumber(detail.City, itemID, detail.OrderCreatedAt)

	err = s.store.ConfirmOrderItemTx(ctx, store.ConfirmOrderItemParams{
		ItemID:        itemID,
		OrderID:       detail.OrderID,
		ContactID:     detail.ContactID,
		ProductInfoID: detail.ProductInfoID,
		Quantity:      detail.Quantity,
		Address:       address,
		Phone:         phone,
		OrderNumber:   orderNumber,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrOrderNotConfirmable):
			util.OrderConfirmationsRejected.WithLabelValues("state").Inc()
		case errors.Is(err, ErrInsufficientStock):
			util.OrderConfirmationsRejected.WithLabelValues("stock").Inc()
		default:
			util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		}
		return nil, err
	}

	util.OrdersConfirmedTotal.Inc()
	s.logger.Info("Order confirmed",
		zap.Int64("order_id", detail.OrderID),
		zap.Int64("order_item_id", itemID),
		zap.String("order_number", orderNumber))

	if s.eventPublisher != nil {
		event := &models.OrderConfirmedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeOrderConfirmed,
				Timestamp: time.Now(),
			},
			OrderID:     detail.OrderID,
			OrderItemID: itemID,
			UserID:      userID,
			OrderNumber: orderNumber,
			Total:       detail.Total,
		}
		if err := s.eventPublisher.PublishOrderConfirmed(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderConfirmed event", zap.Error(err))
		}
	}

	return &ConfirmationReceipt{
		Status:      "OK",
		OrderNumber: orderNumber,
		Product: ConfirmedProduct{
			Name:     detail.ProductName,
			Shop:     detail.ShopName,
			Price:    detail.Price,
			Quantity: detail.Quantity,
			Total:    detail.Total,
		},
		UserInfo: ContactInfo{
			Address: address,
			Phone:   phone,
			Email:   detail.OwnerEmail,
			Person:  detail.OwnerFirstName + " " + detail.OwnerLastName,
		},
	}, nil
}

// OrderListEntry is one row of the caller's order list.
type OrderListEntry struct {
	ID          int64  `json:"id"`
	OrderNumber string `json:"order_number"`
	DateCreated string `json:"date_created"`
	Total       int64  `json:"total"`
	State       string `json:"state"`
}

// ListOrders returns every order item owned by the caller.
func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]OrderListEntry, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ListOrders")
	defer span.End()

	items, err := s.store.ListOrderItemsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	entries := make([]OrderListEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, OrderListEntry{
			ID:          item.ID,
			OrderNumber: item.OrderNumber,
			DateCreated: item.CreatedAt.Format("2006.01.02"),
			Total:       item.Total,
			State:       item.State,
		})
	}
	return entries, nil
}

// OrderDetails is the product block of an order-detail response.
type OrderDetails struct {
	ProductName string `json:"product_name"`
	Shop        string `json:"shop"`
	Price       int64  `json:"price"`
	Quantity    int    `json:"quantity"`
	Total       int64  `json:"total"`
}

// ContactDetails is the contact block of an order-detail response.
type ContactDetails struct {
	City    string `json:"city"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Person  string `json:"person"`
}

// OrderDetail is the full order-detail response.
type OrderDetail struct {
	OrderNumber    string         `json:"order_number"`
	DateCreated    string         `json:"date_created"`
	State          string         `json:"state"`
	OrderDetails   OrderDetails   `json:"order_details"`
	ContactDetails ContactDetails `json:"contact_details"`
}

// GetOrderDetail returns one order item with product and contact context.
// Only the owner may view it.
func (s *OrderService) GetOrderDetail(ctx context.Context, userID, itemID int64) (*OrderDetail, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.GetOrderDetail")
	defer span.End()

	detail, err := s.store.GetOrderItemDetail(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if detail.OrderUserID != userID {
		return nil, fmt.Errorf("order item %d: %w", itemID, ErrPermissionDenied)
	}

	return &OrderDetail{
		OrderNumber: detail.OrderNumber,
		DateCreated: detail.OrderCreatedAt.Format("2006.01.02"),
		State:       detail.OrderState,
		OrderDetails: OrderDetails{
			ProductName: detail.ProductName,
			Shop:        detail.ShopName,
			Price:       detail.Price,
			Quantity:    detail.Quantity,
			Total:       detail.Total,
		},
		ContactDetails: ContactDetails{
			City:    detail.City,
			Address: detail.Address,
			Phone:   detail.Phone,
			Email:   detail.OwnerEmail,
			Person:  detail.OwnerFirstName + " " + detail.OwnerLastName,
		},
	}, nil
}

// FormatOrderNumber builds the stamped order number:
// {city}_0{itemID}_{YYMMDD}, e.g. MSK_017_240509.
func FormatOrderNumber(city string, itemID int64, createdAt time.Time) string {
	return fmt.Sprintf("%s_0%d_%s", city, itemID, createdAt.Format("060102"))
}

func orNotSpecified(value string) string {
	if value == "" {
		return models.NotSpecified
	}
	return value
}
