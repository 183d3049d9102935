package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderStatus is a state of the order lifecycle
type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderShipped, OrderCancelled},
	OrderShipped:   {OrderDelivered},
}

// CanTransitionTo reports whether the lifecycle allows moving to next
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ===============================
// Database Entities (Internal)
// ===============================

// Order represents a placed order in the database
type Order struct {
	ID              string      `gorm:"type:text;primaryKey"`
	UserID          string      `gorm:"type:text;not null;index"`
	Status          OrderStatus `gorm:"type:text;not null;default:'pending'"`
	ShippingAddress string      `gorm:"type:text;not null"` // snapshot, survives address edits
	TotalAmount     float64     `gorm:"not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// OrderItem is a priced snapshot of one cart line
type OrderItem struct {
	ID        string  `gorm:"type:text;primaryKey"`
	OrderID   string  `gorm:"type:text;not null;index"`
	BookID    string  `gorm:"type:text;not null"`
	Title     string  `gorm:"not null"`
	UnitPrice float64 `gorm:"not null"`
	Quantity  int     `gorm:"not null"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// AddLine snapshots book at its effective price and updates the total
func (o *Order) AddLine(book *Book, quantity int) {
	unit := book.EffectivePrice()
	o.Items = append(o.Items, OrderItem{
		BookID:    book.ID,
		Title:     book.Title,
		UnitPrice: unit,
		Quantity:  quantity,
	})
	o.TotalAmount = roundCents(o.TotalAmount + unit*float64(quantity))
}

func (o *Order) ToOrderResponse() OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, OrderItemResponse{
			BookID:    item.BookID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice,
			Quantity:  item.Quantity,
		})
	}
	return OrderResponse{
		OrderID:         o.ID,
		Status:          o.Status,
		ShippingAddress: o.ShippingAddress,
		TotalAmount:     o.TotalAmount,
		Items:           items,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

// ===============================
// API DTOs (External)
// ===============================

type PlaceOrderRequest struct {
	AddressID string `json:"address_id" binding:"required"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" binding:"required,oneof=confirmed shipped delivered cancelled"`
}

type OrderItemResponse struct {
	BookID    string  `json:"book_id"`
	Title     string  `json:"title"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
}

type OrderResponse struct {
	OrderID         string              `json:"order_id"`
	Status          OrderStatus         `json:"status"`
	ShippingAddress string              `json:"shipping_address"`
	TotalAmount     float64             `json:"total_amount"`
	Items           []OrderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}
