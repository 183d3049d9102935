package model

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ===============================
// Database Entities (Internal)
// ===============================

// Book represents the book entity in the database
type Book struct {
	ID              string   `gorm:"type:text;primaryKey"`
	Title           string   `gorm:"not null"`
	Author          string   `gorm:"not null;index"`
	Price           float64  `gorm:"not null"`
	DiscountedPrice *float64 // nil means no discount
	StockQuantity   *int     // nil means stock is not tracked
	IsDeleted       bool     `gorm:"not null;default:false;index"`
	OutOfStock      bool     `gorm:"not null;default:false"`
	Description     string   `gorm:"type:text"`
	Genre           string   `gorm:"index"`
	ImageURL        string
	CreatedAt       time.Time `gorm:"index"`
	UpdatedAt       time.Time
}

// BeforeCreate assigns an ID when the caller did not provide one
func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// BeforeSave keeps the out-of-stock flag in line with tracked stock. Books
// without tracked stock are never out of stock.
func (b *Book) BeforeSave(tx *gorm.DB) error {
	b.OutOfStock = b.StockQuantity != nil && *b.StockQuantity == 0
	return nil
}

// EffectivePrice is what a customer pays for one copy
func (b *Book) EffectivePrice() float64 {
	if b.DiscountedPrice != nil {
		return *b.DiscountedPrice
	}
	return b.Price
}

// BookWithRating is a catalog row joined with its review aggregate
type BookWithRating struct {
	Book
	Rating      float64
	RatingCount int64
}

// ToBookSummary converts a rated catalog row to its cached representation
func (b *BookWithRating) ToBookSummary() BookSummary {
	return BookSummary{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		Price:           b.Price,
		DiscountedPrice: b.DiscountedPrice,
		StockQuantity:   b.StockQuantity,
		OutOfStock:      b.OutOfStock,
		Description:     b.Description,
		Genre:           b.Genre,
		ImageURL:        b.ImageURL,
		CreatedAt:       b.CreatedAt,
		Rating:          math.Round(b.Rating*10) / 10,
		RatingCount:     b.RatingCount,
	}
}

// ToBookResponse converts a database Book to API response
func (b *Book) ToBookResponse() *BookResponse {
	return &BookResponse{
		ID:              b.ID,
		Title:           b.Title,
		Author:          b.Author,
		Price:           b.Price,
		DiscountedPrice: b.DiscountedPrice,
		StockQuantity:   b.StockQuantity,
		IsDeleted:       b.IsDeleted,
		OutOfStock:      b.OutOfStock,
		Description:     b.Description,
		Genre:           b.Genre,
		ImageURL:        b.ImageURL,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

// ===============================
// Catalog Query DTOs (Internal)
// ===============================

// SortMode selects the ordering of a catalog page
type SortMode string

const (
	SortRelevance    SortMode = "relevance"
	SortPriceLowHigh SortMode = "price_low_high"
	SortPriceHighLow SortMode = "price_high_low"
	SortRating       SortMode = "rating"
)

// ParseSortMode maps a query value to a SortMode, falling back to relevance
func ParseSortMode(s string) SortMode {
	switch mode := SortMode(strings.ToLower(strings.TrimSpace(s))); mode {
	case SortPriceLowHigh, SortPriceHighLow, SortRating:
		return mode
	default:
		return SortRelevance
	}
}

// BookListQuery represents one page request in the repository layer
type BookListQuery struct {
	Sort   SortMode
	Offset int
	Limit  int
}

// ===============================
// API DTOs (External)
// ===============================

// BookInput carries the writable fields of a book. It is used for create,
// update and each row of a bulk import.
type BookInput struct {
	Title           string   `json:"title" validate:"required"`
	Author          string   `json:"author" validate:"required"`
	Price           float64  `json:"price" validate:"gt=0"`
	DiscountedPrice *float64 `json:"discounted_price" validate:"omitempty,gte=0"`
	StockQuantity   *int     `json:"stock_quantity" validate:"omitempty,gte=0"`
	Description     string   `json:"description"`
	Genre           string   `json:"genre"`
	ImageURL        string   `json:"image_url"`
}

// Normalize trims surrounding whitespace from the free-text fields
func (in *BookInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Author = strings.TrimSpace(in.Author)
	in.Genre = strings.TrimSpace(in.Genre)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
}

// ApplyTo copies the input onto a book entity
func (in *BookInput) ApplyTo(b *Book) {
	b.Title = in.Title
	b.Author = in.Author
	b.Price = in.Price
	b.DiscountedPrice = in.DiscountedPrice
	b.StockQuantity = in.StockQuantity
	b.Description = in.Description
	b.Genre = in.Genre
	b.ImageURL = in.ImageURL
}

// BulkImportRequest represents the API request for importing many books
type BulkImportRequest struct {
	Books []BookInput `json:"books" binding:"required,min=1"`
}

// BookSummary is the public shape of a book inside a cached catalog page
type BookSummary struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Price           float64   `json:"price"`
	DiscountedPrice *float64  `json:"discounted_price"`
	StockQuantity   *int      `json:"stock_quantity"`
	OutOfStock      bool      `json:"out_of_stock"`
	Description     string    `json:"description,omitempty"`
	Genre           string    `json:"genre,omitempty"`
	ImageURL        string    `json:"image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	Rating          float64   `json:"rating"`
	RatingCount     int64     `json:"rating_count"`
}

// BookPage is a serialized catalog page plus pagination metadata
type BookPage struct {
	Books       []BookSummary `json:"books"`
	CurrentPage int           `json:"current_page"`
	NextPage    *int          `json:"next_page"`
	PrevPage    *int          `json:"prev_page"`
	TotalPages  int           `json:"total_pages"`
	TotalCount  int64         `json:"total_count"`
}

// BookResponse represents book data in API responses
type BookResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	Price           float64   `json:"price"`
	DiscountedPrice *float64  `json:"discounted_price"`
	StockQuantity   *int      `json:"stock_quantity"`
	IsDeleted       bool      `json:"is_deleted"`
	OutOfStock      bool      `json:"out_of_stock"`
	Description     string    `json:"description,omitempty"`
	Genre           string    `json:"genre,omitempty"`
	ImageURL        string    `json:"image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// BookResult is the outcome of a single-book catalog write
type BookResult struct {
	Success bool          `json:"success"`
	Book    *BookResponse `json:"book,omitempty"`
	Errors  []string      `json:"errors,omitempty"`
}

// BooksResult is the outcome of a bulk import
type BooksResult struct {
	Success bool           `json:"success"`
	Books   []BookResponse `json:"books,omitempty"`
	Errors  []string       `json:"errors,omitempty"`
}
