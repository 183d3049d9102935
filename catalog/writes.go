package catalog

import (
	"context"
	"fmt"

	"github.com/arunvm123/bookstore/model"
	"go.uber.org/zap"
)

// Create validates and stores a new book, then refreshes the page cache.
// A *ValidationError leaves both the database and the cache untouched.
func (s *Service) Create(ctx context.Context, in model.BookInput) (*model.Book, error) {
	in.Normalize()
	if err := validateBook(&in); err != nil {
		return nil, err
	}

	book := &model.Book{}
	in.ApplyTo(book)
	if err := s.books.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	s.log.Info("Book created", zap.String("book_id", book.ID), zap.String("title", book.Title))
	s.Refresh(ctx)
	return book, nil
}

// Update replaces the writable fields of a book
func (s *Service) Update(ctx context.Context, id string, in model.BookInput) (*model.Book, error) {
	book, err := s.books.GetBookByID(ctx, id)
	if err != nil {
		return nil, err
	}

	in.Normalize()
	if err := validateBook(&in); err != nil {
		return nil, err
	}

	in.ApplyTo(book)
	if err := s.books.UpdateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("failed to update book: %w", err)
	}

	s.log.Info("Book updated", zap.String("book_id", book.ID))
	s.Refresh(ctx)
	return book, nil
}

// SoftDelete hides a book from the catalog. Deleting an already deleted
// book succeeds and still refreshes the cache.
func (s *Service) SoftDelete(ctx context.Context, id string) (*model.Book, error) {
	return s.setDeleted(ctx, id, func(*model.Book) bool { return true })
}

// ToggleSoftDelete flips the deleted flag, so two calls restore the book
func (s *Service) ToggleSoftDelete(ctx context.Context, id string) (*model.Book, error) {
	return s.setDeleted(ctx, id, func(b *model.Book) bool { return !b.IsDeleted })
}

func (s *Service) setDeleted(ctx context.Context, id string, next func(*model.Book) bool) (*model.Book, error) {
	book, err := s.books.GetBookByID(ctx, id)
	if err != nil {
		return nil, err
	}

	deleted := next(book)
	if err := s.books.SetDeleted(ctx, id, deleted); err != nil {
		return nil, fmt.Errorf("failed to flag book: %w", err)
	}
	book.IsDeleted = deleted

	s.log.Info("Book visibility changed", zap.String("book_id", id), zap.Bool("deleted", deleted))
	s.Refresh(ctx)
	return book, nil
}

// BulkImport stores every valid row as its own book. Invalid or failing rows
// are skipped. The cache is refreshed once for the whole batch, and
// ErrImportFailed is returned when nothing was stored.
func (s *Service) BulkImport(ctx context.Context, rows []model.BookInput) ([]*model.Book, error) {
	created := make([]*model.Book, 0, len(rows))

	for i := range rows {
		in := rows[i]
		in.Normalize()
		if err := validateBook(&in); err != nil {
			s.log.Debug("Skipping invalid import row", zap.Int("row", i), zap.Error(err))
			continue
		}

		book := &model.Book{}
		in.ApplyTo(book)
		if err := s.books.CreateBook(ctx, book); err != nil {
			s.log.Warn("Skipping import row", zap.Int("row", i), zap.Error(err))
			continue
		}
		created = append(created, book)
	}

	if len(created) == 0 {
		return nil, ErrImportFailed
	}

	s.log.Info("Books imported", zap.Int("created", len(created)), zap.Int("rows", len(rows)))
	s.Refresh(ctx)
	return created, nil
}
