package postgres

import (
	"context"
	"errors"

	"github.com/arunvm123/bookstore/model"
	"github.com/arunvm123/bookstore/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const ratedBookColumns = "books.*, " +
	"CAST(COALESCE(AVG(reviews.rating), 0) AS FLOAT) AS rating, " +
	"COUNT(reviews.id) AS rating_count"

type PostgresBookRepository struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewBookRepository(db *gorm.DB, log *zap.Logger) *PostgresBookRepository {
	return &PostgresBookRepository{db: db, log: log}
}

func (r *PostgresBookRepository) CreateBook(ctx context.Context, book *model.Book) error {
	if err := r.db.WithContext(ctx).Create(book).Error; err != nil {
		r.log.Error("Failed to create book", zap.String("title", book.Title), zap.Error(err))
		return err
	}
	return nil
}

func (r *PostgresBookRepository) GetBookByID(ctx context.Context, id string) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&book).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &book, nil
}

func (r *PostgresBookRepository) UpdateBook(ctx context.Context, book *model.Book) error {
	if err := r.db.WithContext(ctx).Save(book).Error; err != nil {
		r.log.Error("Failed to update book", zap.String("book_id", book.ID), zap.Error(err))
		return err
	}
	return nil
}

func (r *PostgresBookRepository) SetDeleted(ctx context.Context, id string, deleted bool) error {
	result := r.db.WithContext(ctx).Model(&model.Book{}).Where("id = ?", id).Update("is_deleted", deleted)
	if result.Error != nil {
		r.log.Error("Failed to flag book", zap.String("book_id", id), zap.Bool("deleted", deleted), zap.Error(result.Error))
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PostgresBookRepository) ListBooks(ctx context.Context, query model.BookListQuery) ([]model.BookWithRating, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Book{}).Where("is_deleted = ?", false).Count(&total).Error; err != nil {
		r.log.Error("Failed to count books", zap.Error(err))
		return nil, 0, err
	}

	books := make([]model.BookWithRating, 0, query.Limit)
	if total == 0 || int64(query.Offset) >= total {
		return books, total, nil
	}

	// Books without reviews stay in the result through the LEFT JOIN and
	// aggregate to a rating of 0.
	err := r.db.WithContext(ctx).
		Model(&model.Book{}).
		Select(ratedBookColumns).
		Joins("LEFT JOIN reviews ON reviews.book_id = books.id").
		Where("books.is_deleted = ?", false).
		Group("books.id").
		Order(orderClause(query.Sort)).
		Offset(query.Offset).
		Limit(query.Limit).
		Scan(&books).Error
	if err != nil {
		r.log.Error("Failed to list books", zap.String("sort", string(query.Sort)), zap.Error(err))
		return nil, 0, err
	}

	return books, total, nil
}

func orderClause(sort model.SortMode) string {
	const newest = "books.created_at DESC, books.id ASC"

	switch sort {
	case model.SortPriceLowHigh:
		return "COALESCE(books.discounted_price, books.price) ASC, " + newest
	case model.SortPriceHighLow:
		return "COALESCE(books.discounted_price, books.price) DESC, " + newest
	case model.SortRating:
		return "rating DESC, " + newest
	default:
		return newest
	}
}
