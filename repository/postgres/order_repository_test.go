package postgres

import (
	"context"
	"testing"

	"github.com/arunvm123/bookstore/model"
	"github.com/arunvm123/bookstore/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceOrder(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, repos, "buyer@example.com")
	address := seedAddress(t, repos, user.ID)

	tracked := &model.Book{Title: "Tracked", Author: "A", Price: 20, DiscountedPrice: floatPtr(15), StockQuantity: intPtr(2)}
	require.NoError(t, repos.Books.CreateBook(ctx, tracked))
	untracked := seedBook(t, repos, "Untracked", 7.5, 1)

	require.NoError(t, repos.Carts.AddItem(ctx, user.ID, tracked.ID, 2))
	require.NoError(t, repos.Carts.AddItem(ctx, user.ID, untracked.ID, 1))

	order, err := repos.Orders.PlaceOrder(ctx, user.ID, address.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderPending, order.Status)
	assert.Equal(t, 37.5, order.TotalAmount)
	assert.Len(t, order.Items, 2)
	assert.Contains(t, order.ShippingAddress, "Springfield")

	book, err := repos.Books.GetBookByID(ctx, tracked.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, *book.StockQuantity)
	assert.True(t, book.OutOfStock)

	cart, err := repos.Carts.GetCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart)

	stored, err := repos.Orders.GetOrder(ctx, user.ID, order.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
}

func TestPlaceOrderFailures(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, repos, "buyer@example.com")
	address := seedAddress(t, repos, user.ID)

	_, err := repos.Orders.PlaceOrder(ctx, user.ID, address.ID)
	assert.ErrorIs(t, err, repository.ErrCartEmpty)

	_, err = repos.Orders.PlaceOrder(ctx, user.ID, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	scarce := &model.Book{Title: "Scarce", Author: "A", Price: 10, StockQuantity: intPtr(1)}
	require.NoError(t, repos.Books.CreateBook(ctx, scarce))
	require.NoError(t, repos.Carts.AddItem(ctx, user.ID, scarce.ID, 2))

	_, err = repos.Orders.PlaceOrder(ctx, user.ID, address.ID)
	assert.ErrorIs(t, err, repository.ErrInsufficientStock)

	// the failed order leaves stock and cart untouched
	book, err := repos.Books.GetBookByID(ctx, scarce.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, *book.StockQuantity)
	cart, err := repos.Carts.GetCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, cart, 1)

	require.NoError(t, repos.Books.SetDeleted(ctx, scarce.ID, true))
	_, err = repos.Orders.PlaceOrder(ctx, user.ID, address.ID)
	assert.ErrorIs(t, err, repository.ErrBookUnavailable)
}

func TestUpdateStatusLifecycle(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, repos, "buyer@example.com")
	address := seedAddress(t, repos, user.ID)
	book := &model.Book{Title: "Stocked", Author: "A", Price: 10, StockQuantity: intPtr(3)}
	require.NoError(t, repos.Books.CreateBook(ctx, book))
	require.NoError(t, repos.Carts.AddItem(ctx, user.ID, book.ID, 3))

	order, err := repos.Orders.PlaceOrder(ctx, user.ID, address.ID)
	require.NoError(t, err)

	_, err = repos.Orders.UpdateStatus(ctx, order.ID, model.OrderDelivered)
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)

	updated, err := repos.Orders.UpdateStatus(ctx, order.ID, model.OrderCancelled)
	require.NoError(t, err)
	assert.Equal(t, model.OrderCancelled, updated.Status)

	restocked, err := repos.Books.GetBookByID(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, *restocked.StockQuantity)
	assert.False(t, restocked.OutOfStock)

	_, err = repos.Orders.UpdateStatus(ctx, order.ID, model.OrderConfirmed)
	assert.ErrorIs(t, err, repository.ErrInvalidTransition)

	_, err = repos.Orders.UpdateStatus(ctx, "missing", model.OrderConfirmed)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetOrderIsScopedToOwner(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()

	owner := seedUser(t, repos, "owner@example.com")
	other := seedUser(t, repos, "other@example.com")
	address := seedAddress(t, repos, owner.ID)
	book := seedBook(t, repos, "Any", 10, 0)
	require.NoError(t, repos.Carts.AddItem(ctx, owner.ID, book.ID, 1))

	order, err := repos.Orders.PlaceOrder(ctx, owner.ID, address.ID)
	require.NoError(t, err)

	_, err = repos.Orders.GetOrder(ctx, other.ID, order.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	orders, err := repos.Orders.ListOrders(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, orders, 1)

	orders, err = repos.Orders.ListOrders(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, orders)
}
