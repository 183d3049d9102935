package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/arunvm123/bookstore/catalog"
	"github.com/arunvm123/bookstore/model"
	"github.com/arunvm123/bookstore/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CatalogService is the catalog behaviour the HTTP layer depends on
type CatalogService interface {
	GetPage(ctx context.Context, q catalog.PageQuery) (*model.BookPage, error)
	PageSize() int
	Create(ctx context.Context, in model.BookInput) (*model.Book, error)
	Update(ctx context.Context, id string, in model.BookInput) (*model.Book, error)
	SoftDelete(ctx context.Context, id string) (*model.Book, error)
	ToggleSoftDelete(ctx context.Context, id string) (*model.Book, error)
	BulkImport(ctx context.Context, rows []model.BookInput) ([]*model.Book, error)
	Refresh(ctx context.Context)
}

type BookHandler struct {
	catalog     CatalogService
	books       repository.BookRepository
	maxPageSize int
	log         *zap.Logger
}

func NewBookHandler(svc CatalogService, books repository.BookRepository, maxPageSize int, log *zap.Logger) *BookHandler {
	return &BookHandler{
		catalog:     svc,
		books:       books,
		maxPageSize: maxPageSize,
		log:         log,
	}
}

// ListBooks handles catalog browsing with pagination and sorting
func (h *BookHandler) ListBooks(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(h.catalog.PageSize())))
	if h.maxPageSize > 0 && perPage > h.maxPageSize {
		perPage = h.maxPageSize
	}
	refresh, _ := strconv.ParseBool(c.DefaultQuery("refresh", "false"))

	result, err := h.catalog.GetPage(c.Request.Context(), catalog.PageQuery{
		Page:         page,
		PerPage:      perPage,
		ForceRefresh: refresh,
		Sort:         model.ParseSortMode(c.Query("sort")),
	})
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve books")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBook returns a single book that is still in the catalog
func (h *BookHandler) GetBook(c *gin.Context) {
	book, err := h.books.GetBookByID(c.Request.Context(), c.Param("id"))
	if err == nil && book.IsDeleted && c.GetString(ctxUserRole) != model.RoleAdmin {
		err = repository.ErrNotFound
	}
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve book")
		return
	}

	c.JSON(http.StatusOK, book.ToBookResponse())
}

func (h *BookHandler) CreateBook(c *gin.Context) {
	var req model.BookInput
	if !bindJSON(c, &req) {
		return
	}

	book, err := h.catalog.Create(c.Request.Context(), req)
	h.writeBookResult(c, http.StatusCreated, book, err)
}

func (h *BookHandler) UpdateBook(c *gin.Context) {
	var req model.BookInput
	if !bindJSON(c, &req) {
		return
	}

	book, err := h.catalog.Update(c.Request.Context(), c.Param("id"), req)
	h.writeBookResult(c, http.StatusOK, book, err)
}

func (h *BookHandler) DeleteBook(c *gin.Context) {
	book, err := h.catalog.SoftDelete(c.Request.Context(), c.Param("id"))
	h.writeBookResult(c, http.StatusOK, book, err)
}

func (h *BookHandler) ToggleDeleteBook(c *gin.Context) {
	book, err := h.catalog.ToggleSoftDelete(c.Request.Context(), c.Param("id"))
	h.writeBookResult(c, http.StatusOK, book, err)
}

// ImportBooks stores every valid row and skips the rest
func (h *BookHandler) ImportBooks(c *gin.Context) {
	var req model.BulkImportRequest
	if !bindJSON(c, &req) {
		return
	}

	books, err := h.catalog.BulkImport(c.Request.Context(), req.Books)
	if errors.Is(err, catalog.ErrImportFailed) {
		c.JSON(http.StatusUnprocessableEntity, model.BooksResult{
			Success: false,
			Errors:  []string{err.Error()},
		})
		return
	}
	if err != nil {
		respondError(c, h.log, err, "Failed to import books")
		return
	}

	result := model.BooksResult{Success: true, Books: make([]model.BookResponse, 0, len(books))}
	for _, book := range books {
		result.Books = append(result.Books, *book.ToBookResponse())
	}
	c.JSON(http.StatusCreated, result)
}

func (h *BookHandler) writeBookResult(c *gin.Context, status int, book *model.Book, err error) {
	var verr *catalog.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, model.BookResult{
			Success: false,
			Errors:  verr.Messages,
		})
		return
	}
	if err != nil {
		respondError(c, h.log, err, "Failed to save book")
		return
	}

	c.JSON(status, model.BookResult{Success: true, Book: book.ToBookResponse()})
}
