package postgres

import (
	"fmt"
	"time"

	"github.com/arunvm123/bookstore/config"
	"github.com/arunvm123/bookstore/model"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Open connects to PostgreSQL, applies pool settings and migrates the schema
func Open(cfg *config.Database, log *zap.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDatabaseURL()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Info("Database connected and tables migrated",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.DatabaseName),
	)

	return db, nil
}

// Migrate creates or updates every bookstore table
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Book{},
		&model.Review{},
		&model.CartItem{},
		&model.WishlistItem{},
		&model.Address{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Repositories bundles every repository over one connection
type Repositories struct {
	db *gorm.DB

	Books     *PostgresBookRepository
	Users     *PostgresUserRepository
	Reviews   *PostgresReviewRepository
	Carts     *PostgresCartRepository
	Wishlists *PostgresWishlistRepository
	Addresses *PostgresAddressRepository
	Orders    *PostgresOrderRepository
}

func NewRepositories(db *gorm.DB, log *zap.Logger) *Repositories {
	return &Repositories{
		db:        db,
		Books:     NewBookRepository(db, log),
		Users:     NewUserRepository(db),
		Reviews:   NewReviewRepository(db),
		Carts:     NewCartRepository(db),
		Wishlists: NewWishlistRepository(db),
		Addresses: NewAddressRepository(db),
		Orders:    NewOrderRepository(db, log),
	}
}

// GetDB returns the database instance for health checks
func (r *Repositories) GetDB() *gorm.DB {
	return r.db
}
