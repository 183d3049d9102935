package repository

import (
	"context"
	"errors"

	"github.com/arunvm123/bookstore/model"
	"gorm.io/gorm"
)

var (
	ErrNotFound          = errors.New("record not found")
	ErrEmailExists       = errors.New("email already exists")
	ErrCartEmpty         = errors.New("cart is empty")
	ErrBookUnavailable   = errors.New("book is no longer available")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidTransition = errors.New("order status transition not allowed")
)

// BookRepository defines the persistence operations of the catalog
type BookRepository interface {
	CreateBook(ctx context.Context, book *model.Book) error
	GetBookByID(ctx context.Context, id string) (*model.Book, error)
	UpdateBook(ctx context.Context, book *model.Book) error
	SetDeleted(ctx context.Context, id string, deleted bool) error

	// ListBooks returns one sorted page of non-deleted books with their
	// review aggregates, and the total number of non-deleted books
	ListBooks(ctx context.Context, query model.BookListQuery) ([]model.BookWithRating, int64, error)
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	// CreateUser creates a new user with hashed password
	CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// ValidatePassword checks if the provided password matches the user's password
	ValidatePassword(user *model.User, password string) bool
}

type ReviewRepository interface {
	// UpsertReview creates the user's review of a book or replaces it
	UpsertReview(ctx context.Context, review *model.Review) error
	ListReviews(ctx context.Context, bookID string) ([]model.Review, error)
}

type CartRepository interface {
	GetCart(ctx context.Context, userID string) ([]model.CartItem, error)
	AddItem(ctx context.Context, userID, bookID string, quantity int) error
	SetQuantity(ctx context.Context, userID, bookID string, quantity int) error
	RemoveItem(ctx context.Context, userID, bookID string) error
	Clear(ctx context.Context, userID string) error
}

type WishlistRepository interface {
	// Toggle adds the book when absent and removes it when present
	Toggle(ctx context.Context, userID, bookID string) (added bool, err error)
	List(ctx context.Context, userID string) ([]model.WishlistItem, error)
}

type AddressRepository interface {
	CreateAddress(ctx context.Context, address *model.Address) error
	GetAddress(ctx context.Context, userID, id string) (*model.Address, error)
	ListAddresses(ctx context.Context, userID string) ([]model.Address, error)
	UpdateAddress(ctx context.Context, address *model.Address) error
	DeleteAddress(ctx context.Context, userID, id string) error
}

type OrderRepository interface {
	// PlaceOrder turns the user's cart into an order in one transaction
	PlaceOrder(ctx context.Context, userID, addressID string) (*model.Order, error)
	GetOrder(ctx context.Context, userID, id string) (*model.Order, error)
	GetOrderByID(ctx context.Context, id string) (*model.Order, error)
	ListOrders(ctx context.Context, userID string) ([]model.Order, error)
	// UpdateStatus moves an order along its lifecycle, restocking on cancel
	UpdateStatus(ctx context.Context, id string, status model.OrderStatus) (*model.Order, error)
}

// HealthChecker exposes the database for health checks
type HealthChecker interface {
	GetDB() *gorm.DB
}
