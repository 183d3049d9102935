package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/arunvm123/bookstore/cache"
	"github.com/arunvm123/bookstore/config"
	"github.com/arunvm123/bookstore/metrics"
	"github.com/arunvm123/bookstore/model"
	"github.com/arunvm123/bookstore/repository"
	"go.uber.org/zap"
)

// PageQuery selects one catalog page
type PageQuery struct {
	Page         int
	PerPage      int
	ForceRefresh bool // skip the cache read, still write the result
	Sort         model.SortMode
}

// Service serves catalog pages through the shared page cache and keeps that
// cache coherent with catalog writes. Cache failures never fail a call; the
// database is the source of truth.
type Service struct {
	books       repository.BookRepository
	cache       cache.Store
	log         *zap.Logger
	metrics     *metrics.Metrics
	pageSize    int
	maxPageSize int
	ttl         time.Duration
}

func NewService(books repository.BookRepository, store cache.Store, cfg config.Catalog, log *zap.Logger, m *metrics.Metrics) *Service {
	pageSize := cfg.PageSize
	if pageSize < 1 {
		pageSize = 12
	}
	maxPageSize := cfg.MaxPageSize
	if maxPageSize < 1 {
		maxPageSize = 100
	}
	if maxPageSize < pageSize {
		maxPageSize = pageSize
	}
	ttl := cfg.PageTTL()
	if ttl <= 0 {
		ttl = time.Hour
	}

	return &Service{
		books:       books,
		cache:       store,
		log:         log,
		metrics:     m,
		pageSize:    pageSize,
		maxPageSize: maxPageSize,
		ttl:         ttl,
	}
}

// PageSize is the page size used when a query does not name one
func (s *Service) PageSize() int {
	return s.pageSize
}

func (s *Service) normalize(q PageQuery) PageQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = s.pageSize
	}
	if q.PerPage > s.maxPageSize {
		q.PerPage = s.maxPageSize
	}
	q.Sort = model.ParseSortMode(string(q.Sort))
	return q
}

// GetPage returns one sorted page of non-deleted books. A cached page is
// returned as stored; otherwise the page is computed and cached.
func (s *Service) GetPage(ctx context.Context, q PageQuery) (*model.BookPage, error) {
	q = s.normalize(q)
	key := cache.BookPageKey(q.Page, q.Sort, q.PerPage)

	if !q.ForceRefresh {
		if page, ok := s.cachedPage(ctx, key); ok {
			s.metrics.CacheHit()
			return page, nil
		}
	}
	s.metrics.CacheMiss()

	page, err := s.buildPage(ctx, q)
	if err != nil {
		return nil, err
	}

	s.storePage(ctx, key, page)
	return page, nil
}

func (s *Service) cachedPage(ctx context.Context, key string) (*model.BookPage, bool) {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		s.metrics.CacheError("get")
		s.log.Warn("Catalog cache read failed, using database", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if data == nil {
		return nil, false
	}

	var page model.BookPage
	if err := json.Unmarshal(data, &page); err != nil {
		s.metrics.CacheError("decode")
		s.log.Warn("Discarding undecodable catalog page", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &page, true
}

func (s *Service) storePage(ctx context.Context, key string, page *model.BookPage) {
	data, err := json.Marshal(page)
	if err != nil {
		s.log.Error("Failed to encode catalog page", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.metrics.CacheError("set")
		s.log.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Service) buildPage(ctx context.Context, q PageQuery) (*model.BookPage, error) {
	rows, total, err := s.books.ListBooks(ctx, model.BookListQuery{
		Sort:   q.Sort,
		Offset: pageOffset(q),
		Limit:  q.PerPage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	page := &model.BookPage{
		Books:       make([]model.BookSummary, 0, len(rows)),
		CurrentPage: q.Page,
		TotalCount:  total,
		TotalPages:  int((total + int64(q.PerPage) - 1) / int64(q.PerPage)),
	}
	for i := range rows {
		page.Books = append(page.Books, rows[i].ToBookSummary())
	}

	if q.Page < page.TotalPages {
		next := q.Page + 1
		page.NextPage = &next
	}
	if q.Page > 1 {
		prev := q.Page - 1
		page.PrevPage = &prev
	}

	return page, nil
}

// pageOffset is the row offset of q. It saturates instead of overflowing, so
// absurd page numbers land past the end of the catalog.
func pageOffset(q PageQuery) int {
	if q.Page-1 > math.MaxInt/q.PerPage {
		return math.MaxInt
	}
	return (q.Page - 1) * q.PerPage
}

// InvalidatePages drops every cached catalog page, whatever its page, size
// or sort, and reports how many keys were deleted
func (s *Service) InvalidatePages(ctx context.Context) (int, error) {
	keys, err := s.cache.Keys(ctx, cache.BookPagePattern)
	if err != nil {
		return 0, fmt.Errorf("failed to list catalog page keys: %w", err)
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		return 0, fmt.Errorf("failed to delete catalog page keys: %w", err)
	}

	s.metrics.Invalidated(len(keys))
	s.log.Debug("Catalog pages invalidated", zap.Int("keys", len(keys)))
	return len(keys), nil
}

// Refresh invalidates every cached page and warms page 1 of the default
// listing. Failures are logged; pages left behind expire with their TTL.
func (s *Service) Refresh(ctx context.Context) {
	if _, err := s.InvalidatePages(ctx); err != nil {
		s.metrics.CacheError("invalidate")
		s.log.Error("Catalog cache invalidation failed", zap.Error(err))
	}

	q := PageQuery{Page: 1, PerPage: s.pageSize, Sort: model.SortRelevance}
	page, err := s.buildPage(ctx, q)
	if err != nil {
		s.log.Warn("Failed to warm first catalog page", zap.Error(err))
		return
	}
	s.storePage(ctx, cache.BookPageKey(q.Page, q.Sort, q.PerPage), page)
}
