package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/arunvm123/bookstore/cache/redis"
	"github.com/arunvm123/bookstore/catalog"
	"github.com/arunvm123/bookstore/config"
	"github.com/arunvm123/bookstore/metrics"
	"github.com/arunvm123/bookstore/model"
	"github.com/arunvm123/bookstore/repository/postgres"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const adminEmail = "admin@bookstore.local"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []model.NotificationRequest
}

func (p *fakePublisher) Publish(_ context.Context, req model.NotificationRequest) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, req)
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.sent))
	for _, req := range p.sent {
		out = append(out, req.Type)
	}
	return out
}

type testServer struct {
	router    *gin.Engine
	repos     *postgres.Repositories
	redis     *miniredis.Miniredis
	publisher *fakePublisher
}

func setupTestServer(t *testing.T) *testServer {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, postgres.Migrate(db))

	mr := miniredis.RunT(t)
	store, err := redis.NewRedisCacheRepository(context.Background(), mr.Addr(), "", 0, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		JWTSecret: "test-secret",
		Catalog:   config.Catalog{PageSize: 12, MaxPageSize: 50, PageTTLMinutes: 60},
		Auth:      config.Auth{TokenTTLMinutes: 60, AdminEmails: []string{adminEmail}},
	}

	repos := postgres.NewRepositories(db, zap.NewNop())
	m := metrics.New()
	publisher := &fakePublisher{}

	router := SetupRouter(Dependencies{
		Config:    cfg,
		Repos:     repos,
		Cache:     store,
		Catalog:   catalog.NewService(repos.Books, store, cfg.Catalog, zap.NewNop(), m),
		Publisher: publisher,
		Metrics:   m,
		Log:       zap.NewNop(),
	})

	return &testServer{router: router, repos: repos, redis: mr, publisher: publisher}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// signup registers and logs in a user, returning the access token
func (s *testServer) signup(t *testing.T, email string) string {
	w := s.do(t, http.MethodPost, "/api/users/register", "", model.RegisterRequest{
		Email:     email,
		Password:  "password123",
		FirstName: "Test",
		LastName:  "User",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/users/login", "", model.LoginRequest{Email: email, Password: "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp model.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.AccessToken)
	return resp.AccessToken
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRegisterAssignsRolesAndPublishesWelcome(t *testing.T) {
	s := setupTestServer(t)

	adminToken := s.signup(t, adminEmail)
	customerToken := s.signup(t, "reader@example.com")

	me := decode[model.UserResponse](t, s.do(t, http.MethodGet, "/api/users/me", adminToken, nil))
	assert.Equal(t, model.RoleAdmin, me.Role)

	me = decode[model.UserResponse](t, s.do(t, http.MethodGet, "/api/users/me", customerToken, nil))
	assert.Equal(t, model.RoleCustomer, me.Role)

	assert.Equal(t, []string{model.NotificationWelcome, model.NotificationWelcome}, s.publisher.types())

	w := s.do(t, http.MethodPost, "/api/users/register", "", model.RegisterRequest{
		Email: "reader@example.com", Password: "password123", FirstName: "A", LastName: "B",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	s := setupTestServer(t)
	s.signup(t, "reader@example.com")

	w := s.do(t, http.MethodPost, "/api/users/login", "", model.LoginRequest{Email: "reader@example.com", Password: "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/users/login", "", model.LoginRequest{Email: "nobody@example.com", Password: "password123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := setupTestServer(t)
	token := s.signup(t, "reader@example.com")

	w := s.do(t, http.MethodPost, "/api/users/logout", token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCatalogManagementRequiresAdmin(t *testing.T) {
	s := setupTestServer(t)
	customer := s.signup(t, "reader@example.com")

	w := s.do(t, http.MethodPost, "/api/books", customer, model.BookInput{Title: "X", Author: "Y", Price: 1})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/api/books", "", model.BookInput{Title: "X", Author: "Y", Price: 1})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookLifecycleThroughAPI(t *testing.T) {
	s := setupTestServer(t)
	admin := s.signup(t, adminEmail)

	w := s.do(t, http.MethodPost, "/api/books", admin, model.BookInput{Title: "", Author: "Y", Price: 0})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	invalid := decode[model.BookResult](t, w)
	assert.False(t, invalid.Success)
	assert.Contains(t, invalid.Errors, "title can't be blank")
	assert.Contains(t, invalid.Errors, "price must be greater than 0")

	w = s.do(t, http.MethodPost, "/api/books", admin, model.BookInput{Title: "Dune", Author: "Frank Herbert", Price: 9.99})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.BookResult](t, w)
	require.True(t, created.Success)
	bookID := created.Book.ID

	page := decode[model.BookPage](t, s.do(t, http.MethodGet, "/api/books?page=1&sort=price_low_high", "", nil))
	require.Len(t, page.Books, 1)
	assert.Equal(t, "Dune", page.Books[0].Title)

	w = s.do(t, http.MethodPut, "/api/books/"+bookID, admin, model.BookInput{Title: "Dune Messiah", Author: "Frank Herbert", Price: 11})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	page = decode[model.BookPage](t, s.do(t, http.MethodGet, "/api/books", "", nil))
	assert.Equal(t, "Dune Messiah", page.Books[0].Title)

	w = s.do(t, http.MethodDelete, "/api/books/"+bookID, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	page = decode[model.BookPage](t, s.do(t, http.MethodGet, "/api/books", "", nil))
	assert.Empty(t, page.Books)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/books/"+bookID, "", nil).Code)
	w = s.do(t, http.MethodGet, "/api/books/"+bookID, admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[model.BookResponse](t, w).IsDeleted)

	w = s.do(t, http.MethodPost, "/api/books/"+bookID+"/toggle_delete", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/books/"+bookID, "", nil).Code)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/books/missing", admin, nil).Code)
}

func TestImportBooks(t *testing.T) {
	s := setupTestServer(t)
	admin := s.signup(t, adminEmail)

	w := s.do(t, http.MethodPost, "/api/books/import", admin, model.BulkImportRequest{Books: []model.BookInput{
		{Title: "One", Author: "A", Price: 1},
		{Title: "", Author: "B", Price: 2},
		{Title: "Three", Author: "C", Price: 3},
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	result := decode[model.BooksResult](t, w)
	assert.True(t, result.Success)
	assert.Len(t, result.Books, 2)

	w = s.do(t, http.MethodPost, "/api/books/import", admin, model.BulkImportRequest{Books: []model.BookInput{{Title: ""}}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.False(t, decode[model.BooksResult](t, w).Success)
}

func TestListBooksCapsPageSize(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodGet, "/api/books?per_page=500&sort=nonsense", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, s.redis.Exists("books_page_1_sort_relevance_per_50"))
	assert.Contains(t, w.Body.String(), `"books":[]`)
}

func TestReviewRefreshesRatings(t *testing.T) {
	s := setupTestServer(t)
	admin := s.signup(t, adminEmail)
	reader := s.signup(t, "reader@example.com")

	created := decode[model.BookResult](t, s.do(t, http.MethodPost, "/api/books", admin, model.BookInput{Title: "Rated", Author: "A", Price: 5}))
	bookID := created.Book.ID

	// cache the rating-sorted page before the review exists
	page := decode[model.BookPage](t, s.do(t, http.MethodGet, "/api/books?sort=rating", "", nil))
	assert.Zero(t, page.Books[0].Rating)

	w := s.do(t, http.MethodPost, "/api/books/"+bookID+"/reviews", reader, model.ReviewRequest{Rating: 4, Comment: "solid"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	page = decode[model.BookPage](t, s.do(t, http.MethodGet, "/api/books?sort=rating", "", nil))
	assert.Equal(t, 4.0, page.Books[0].Rating)
	assert.Equal(t, int64(1), page.Books[0].RatingCount)

	w = s.do(t, http.MethodPost, "/api/books/"+bookID+"/reviews", reader, model.ReviewRequest{Rating: 9})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/api/books/"+bookID+"/reviews", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"comment":"solid"`)
}

func TestCartOrderAndCancelFlow(t *testing.T) {
	s := setupTestServer(t)
	admin := s.signup(t, adminEmail)
	reader := s.signup(t, "reader@example.com")

	stock := 5
	created := decode[model.BookResult](t, s.do(t, http.MethodPost, "/api/books", admin, model.BookInput{
		Title: "Stocked", Author: "A", Price: 20, DiscountedPrice: floatPtr(15), StockQuantity: &stock,
	}))
	bookID := created.Book.ID

	w := s.do(t, http.MethodPost, "/api/orders", reader, model.PlaceOrderRequest{AddressID: "none"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	address := decode[model.AddressResponse](t, s.do(t, http.MethodPost, "/api/addresses", reader, model.AddressRequest{
		FullName: "Avid Reader", Line1: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US",
	}))
	assert.True(t, address.IsDefault)

	w = s.do(t, http.MethodPost, "/api/orders", reader, model.PlaceOrderRequest{AddressID: address.AddressID})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/cart/items", reader, model.AddCartItemRequest{BookID: bookID, Quantity: 2})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cart := decode[model.CartResponse](t, w)
	assert.Equal(t, 30.0, cart.Total)
	assert.Equal(t, 2, cart.TotalItems)

	w = s.do(t, http.MethodPost, "/api/orders", reader, model.PlaceOrderRequest{AddressID: address.AddressID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[model.OrderResponse](t, w)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.Equal(t, 30.0, order.TotalAmount)

	page := decode[model.BookPage](t, s.do(t, http.MethodGet, "/api/books", "", nil))
	require.Len(t, page.Books, 1)
	assert.Equal(t, 3, *page.Books[0].StockQuantity)

	cart = decode[model.CartResponse](t, s.do(t, http.MethodGet, "/api/cart", reader, nil))
	assert.Empty(t, cart.Items)

	w = s.do(t, http.MethodPut, "/api/orders/"+order.OrderID+"/status", reader, model.UpdateOrderStatusRequest{Status: model.OrderShipped})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPut, "/api/orders/"+order.OrderID+"/status", admin, model.UpdateOrderStatusRequest{Status: model.OrderShipped})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/orders/"+order.OrderID+"/cancel", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/api/orders/"+order.OrderID+"/cancel", reader, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.OrderCancelled, decode[model.OrderResponse](t, w).Status)

	page = decode[model.BookPage](t, s.do(t, http.MethodGet, "/api/books", "", nil))
	assert.Equal(t, 5, *page.Books[0].StockQuantity)

	types := s.publisher.types()
	assert.Contains(t, types, model.NotificationOrderPlaced)
	assert.Contains(t, types, model.NotificationOrderCancelled)

	orders := s.do(t, http.MethodGet, "/api/orders", reader, nil)
	require.Equal(t, http.StatusOK, orders.Code)
	assert.Contains(t, orders.Body.String(), order.OrderID)
}

func TestWishlistToggleThroughAPI(t *testing.T) {
	s := setupTestServer(t)
	admin := s.signup(t, adminEmail)
	reader := s.signup(t, "reader@example.com")

	created := decode[model.BookResult](t, s.do(t, http.MethodPost, "/api/books", admin, model.BookInput{Title: "Wanted", Author: "A", Price: 5}))

	toggle := decode[model.WishlistToggleResponse](t, s.do(t, http.MethodPost, "/api/wishlist/"+created.Book.ID+"/toggle", reader, nil))
	assert.True(t, toggle.Added)

	list := decode[model.WishlistResponse](t, s.do(t, http.MethodGet, "/api/wishlist", reader, nil))
	require.Len(t, list.Books, 1)
	assert.Equal(t, "Wanted", list.Books[0].Title)

	toggle = decode[model.WishlistToggleResponse](t, s.do(t, http.MethodPost, "/api/wishlist/"+created.Book.ID+"/toggle", reader, nil))
	assert.False(t, toggle.Added)

	w := s.do(t, http.MethodPost, "/api/wishlist/missing/toggle", reader, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health := decode[model.HealthResponse](t, w)
	assert.Equal(t, "healthy", health.Status)

	s.redis.Close()
	w = s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	health = decode[model.HealthResponse](t, w)
	assert.Equal(t, "degraded", health.Status)
	assert.Equal(t, "unreachable", health.Checks["cache"])

	// catalog reads keep working without the cache
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/books", "", nil).Code)

	w = s.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "bookstore_http_requests_total"))
	assert.True(t, strings.Contains(body, `bookstore_catalog_cache_errors_total{op="get"}`))
}

func floatPtr(v float64) *float64 { return &v }
