package postgres

import (
	"context"

	"github.com/arunvm123/bookstore/model"
	"github.com/arunvm123/bookstore/repository"
	"gorm.io/gorm"
)

type PostgresCartRepository struct {
	db *gorm.DB
}

func NewCartRepository(db *gorm.DB) *PostgresCartRepository {
	return &PostgresCartRepository{db: db}
}

func (r *PostgresCartRepository) GetCart(ctx context.Context, userID string) ([]model.CartItem, error) {
	items := []model.CartItem{}
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AddItem puts quantity copies in the cart, adding to an existing line
func (r *PostgresCartRepository) AddItem(ctx context.Context, userID, bookID string, quantity int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAvailableBook(tx, bookID); err != nil {
			return err
		}

		result := tx.Model(&model.CartItem{}).
			Where("user_id = ? AND book_id = ?", userID, bookID).
			Update("quantity", gorm.Expr("quantity + ?", quantity))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}

		return tx.Create(&model.CartItem{UserID: userID, BookID: bookID, Quantity: quantity}).Error
	})
}

func (r *PostgresCartRepository) SetQuantity(ctx context.Context, userID, bookID string, quantity int) error {
	result := r.db.WithContext(ctx).Model(&model.CartItem{}).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Update("quantity", quantity)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PostgresCartRepository) RemoveItem(ctx context.Context, userID, bookID string) error {
	result := r.db.WithContext(ctx).Where("user_id = ? AND book_id = ?", userID, bookID).Delete(&model.CartItem{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PostgresCartRepository) Clear(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.CartItem{}).Error
}
