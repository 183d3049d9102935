package model

import (
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is one line of a user's shopping cart
type CartItem struct {
	ID        string `gorm:"type:text;primaryKey"`
	UserID    string `gorm:"type:text;not null;uniqueIndex:idx_cart_user_book"`
	BookID    string `gorm:"type:text;not null;uniqueIndex:idx_cart_user_book"`
	Quantity  int    `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Book Book `gorm:"foreignKey:BookID"`
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// WishlistItem marks a book a user wants to keep an eye on
type WishlistItem struct {
	ID        string `gorm:"type:text;primaryKey"`
	UserID    string `gorm:"type:text;not null;uniqueIndex:idx_wishlist_user_book"`
	BookID    string `gorm:"type:text;not null;uniqueIndex:idx_wishlist_user_book"`
	CreatedAt time.Time

	Book Book `gorm:"foreignKey:BookID"`
}

func (w *WishlistItem) BeforeCreate(tx *gorm.DB) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	return nil
}

// ===============================
// API DTOs (External)
// ===============================

type AddCartItemRequest struct {
	BookID   string `json:"book_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,min=1,max=100"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1,max=100"`
}

type CartItemResponse struct {
	BookID    string  `json:"book_id"`
	Title     string  `json:"title"`
	Author    string  `json:"author"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Subtotal  float64 `json:"subtotal"`
}

type CartResponse struct {
	Items      []CartItemResponse `json:"items"`
	TotalItems int                `json:"total_items"`
	Total      float64            `json:"total"`
}

// NewCartResponse prices each cart line at the book's effective price
func NewCartResponse(items []CartItem) CartResponse {
	resp := CartResponse{Items: make([]CartItemResponse, 0, len(items))}
	for _, item := range items {
		unit := item.Book.EffectivePrice()
		subtotal := roundCents(unit * float64(item.Quantity))
		resp.Items = append(resp.Items, CartItemResponse{
			BookID:    item.BookID,
			Title:     item.Book.Title,
			Author:    item.Book.Author,
			UnitPrice: unit,
			Quantity:  item.Quantity,
			Subtotal:  subtotal,
		})
		resp.TotalItems += item.Quantity
		resp.Total += subtotal
	}
	resp.Total = roundCents(resp.Total)
	return resp
}

type WishlistResponse struct {
	Books []BookResponse `json:"books"`
}

type WishlistToggleResponse struct {
	BookID string `json:"book_id"`
	Added  bool   `json:"added"`
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
