package postgres

import (
	"context"
	"errors"

	"github.com/arunvm123/bookstore/model"
	"github.com/arunvm123/bookstore/repository"
	"gorm.io/gorm"
)

type PostgresReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *PostgresReviewRepository {
	return &PostgresReviewRepository{db: db}
}

// UpsertReview keeps one review per user and book. The stored review,
// with its author loaded, is written back into review.
func (r *PostgresReviewRepository) UpsertReview(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireAvailableBook(tx, review.BookID); err != nil {
			return err
		}

		var existing model.Review
		err := tx.Where("book_id = ? AND user_id = ?", review.BookID, review.UserID).First(&existing).Error
		switch {
		case err == nil:
			existing.Rating = review.Rating
			existing.Comment = review.Comment
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
			review.ID = existing.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(review).Error; err != nil {
				return err
			}
		default:
			return err
		}

		return tx.Preload("User").Where("id = ?", review.ID).First(review).Error
	})
}

func (r *PostgresReviewRepository) ListReviews(ctx context.Context, bookID string) ([]model.Review, error) {
	reviews := []model.Review{}
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("book_id = ?", bookID).
		Order("created_at DESC").
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}

// requireAvailableBook fails with ErrNotFound for unknown ids and
// ErrBookUnavailable for soft-deleted books
func requireAvailableBook(tx *gorm.DB, bookID string) error {
	var book model.Book
	if err := tx.Select("id", "is_deleted").Where("id = ?", bookID).First(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.ErrNotFound
		}
		return err
	}
	if book.IsDeleted {
		return repository.ErrBookUnavailable
	}
	return nil
}
