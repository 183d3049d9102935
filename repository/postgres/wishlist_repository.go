package postgres

import (
	"context"

	"github.com/arunvm123/bookstore/model"
	"gorm.io/gorm"
)

type PostgresWishlistRepository struct {
	db *gorm.DB
}

func NewWishlistRepository(db *gorm.DB) *PostgresWishlistRepository {
	return &PostgresWishlistRepository{db: db}
}

func (r *PostgresWishlistRepository) Toggle(ctx context.Context, userID, bookID string) (bool, error) {
	added := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("user_id = ? AND book_id = ?", userID, bookID).Delete(&model.WishlistItem{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}

		if err := requireAvailableBook(tx, bookID); err != nil {
			return err
		}
		if err := tx.Create(&model.WishlistItem{UserID: userID, BookID: bookID}).Error; err != nil {
			return err
		}
		added = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// List returns the wishlist newest first, skipping books removed from the catalog
func (r *PostgresWishlistRepository) List(ctx context.Context, userID string) ([]model.WishlistItem, error) {
	var items []model.WishlistItem
	err := r.db.WithContext(ctx).
		Preload("Book").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	visible := make([]model.WishlistItem, 0, len(items))
	for _, item := range items {
		if item.Book.ID != "" && !item.Book.IsDeleted {
			visible = append(visible, item)
		}
	}
	return visible, nil
}
