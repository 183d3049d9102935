package postgres

import (
	"context"
	"testing"

	"github.com/arunvm123/bookstore/model"
	"github.com/arunvm123/bookstore/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, repos, "  Reader@Example.com ")
	assert.Equal(t, "reader@example.com", user.Email)
	assert.Equal(t, model.RoleCustomer, user.Role)
	assert.NotEqual(t, "password123", user.PasswordHash)

	_, err := repos.Users.CreateUser(ctx, model.CreateUserRequest{Email: "reader@example.com", Password: "x"})
	assert.ErrorIs(t, err, repository.ErrEmailExists)

	found, err := repos.Users.GetUserByEmail(ctx, "READER@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.True(t, repos.Users.ValidatePassword(found, "password123"))
	assert.False(t, repos.Users.ValidatePassword(found, "wrong"))

	_, err = repos.Users.GetUserByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpsertReview(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, repos, "critic@example.com")
	book := seedBook(t, repos, "Rated", 10, 0)

	first := &model.Review{BookID: book.ID, UserID: user.ID, Rating: 2, Comment: "meh"}
	require.NoError(t, repos.Reviews.UpsertReview(ctx, first))
	assert.Equal(t, "Test User", first.User.FullName())

	second := &model.Review{BookID: book.ID, UserID: user.ID, Rating: 5, Comment: "grew on me"}
	require.NoError(t, repos.Reviews.UpsertReview(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	reviews, err := repos.Reviews.ListReviews(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 5, reviews[0].Rating)

	err = repos.Reviews.UpsertReview(ctx, &model.Review{BookID: "missing", UserID: user.ID, Rating: 3})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repos.Books.SetDeleted(ctx, book.ID, true))
	err = repos.Reviews.UpsertReview(ctx, &model.Review{BookID: book.ID, UserID: user.ID, Rating: 3})
	assert.ErrorIs(t, err, repository.ErrBookUnavailable)
}

func TestCartOperations(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, repos, "shopper@example.com")
	book := seedBook(t, repos, "Carted", 10, 0)

	require.NoError(t, repos.Carts.AddItem(ctx, user.ID, book.ID, 1))
	require.NoError(t, repos.Carts.AddItem(ctx, user.ID, book.ID, 2))

	items, err := repos.Carts.GetCart(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, "Carted", items[0].Book.Title)

	require.NoError(t, repos.Carts.SetQuantity(ctx, user.ID, book.ID, 5))
	items, err = repos.Carts.GetCart(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, items[0].Quantity)

	assert.ErrorIs(t, repos.Carts.SetQuantity(ctx, user.ID, "missing", 1), repository.ErrNotFound)
	assert.ErrorIs(t, repos.Carts.AddItem(ctx, user.ID, "missing", 1), repository.ErrNotFound)

	require.NoError(t, repos.Carts.RemoveItem(ctx, user.ID, book.ID))
	assert.ErrorIs(t, repos.Carts.RemoveItem(ctx, user.ID, book.ID), repository.ErrNotFound)
}

func TestWishlistToggle(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, repos, "dreamer@example.com")
	book := seedBook(t, repos, "Wanted", 10, 0)

	added, err := repos.Wishlists.Toggle(ctx, user.ID, book.ID)
	require.NoError(t, err)
	assert.True(t, added)

	items, err := repos.Wishlists.List(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Wanted", items[0].Book.Title)

	require.NoError(t, repos.Books.SetDeleted(ctx, book.ID, true))
	items, err = repos.Wishlists.List(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	added, err = repos.Wishlists.Toggle(ctx, user.ID, book.ID)
	require.NoError(t, err)
	assert.False(t, added)
}

func TestAddressDefaults(t *testing.T) {
	repos := setupTestDB(t)
	ctx := context.Background()

	user := seedUser(t, repos, "mover@example.com")
	first := seedAddress(t, repos, user.ID)
	assert.True(t, first.IsDefault)

	second := &model.Address{UserID: user.ID, FullName: "T", Line1: "2 Side St", City: "Shelbyville", PostalCode: "999", Country: "US", IsDefault: true}
	require.NoError(t, repos.Addresses.CreateAddress(ctx, second))

	addresses, err := repos.Addresses.ListAddresses(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, addresses, 2)
	assert.Equal(t, second.ID, addresses[0].ID)
	assert.True(t, addresses[0].IsDefault)
	assert.False(t, addresses[1].IsDefault)

	_, err = repos.Addresses.GetAddress(ctx, "someone-else", first.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repos.Addresses.DeleteAddress(ctx, user.ID, first.ID))
	assert.ErrorIs(t, repos.Addresses.DeleteAddress(ctx, user.ID, first.ID), repository.ErrNotFound)
}
