package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/arunvm123/bookstore/model"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *Repositories {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// every pooled connection would get its own in-memory database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db))
	return NewRepositories(db, zap.NewNop())
}

var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

// seedBook stores a book created the given number of minutes after baseTime
func seedBook(t *testing.T, repos *Repositories, title string, price float64, minute int) *model.Book {
	book := &model.Book{
		Title:     title,
		Author:    "Author " + title,
		Price:     price,
		CreatedAt: baseTime.Add(time.Duration(minute) * time.Minute),
	}
	require.NoError(t, repos.Books.CreateBook(context.Background(), book))
	return book
}

func seedUser(t *testing.T, repos *Repositories, email string) *model.User {
	user, err := repos.Users.CreateUser(context.Background(), model.CreateUserRequest{
		Email:     email,
		Password:  "password123",
		FirstName: "Test",
		LastName:  "User",
	})
	require.NoError(t, err)
	return user
}

func seedAddress(t *testing.T, repos *Repositories, userID string) *model.Address {
	address := &model.Address{
		UserID:     userID,
		FullName:   "Test User",
		Line1:      "1 Main St",
		City:       "Springfield",
		PostalCode: "12345",
		Country:    "US",
	}
	require.NoError(t, repos.Addresses.CreateAddress(context.Background(), address))
	return address
}
