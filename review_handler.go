package main

import (
	"net/http"

	"github.com/arunvm123/bookstore/model"
	"github.com/arunvm123/bookstore/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ReviewHandler struct {
	repo    repository.ReviewRepository
	catalog CatalogService
	log     *zap.Logger
}

func NewReviewHandler(repo repository.ReviewRepository, svc CatalogService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{repo: repo, catalog: svc, log: log}
}

// UpsertReview rates a book. Ratings are part of every cached catalog page,
// so the page cache is refreshed afterwards.
func (h *ReviewHandler) UpsertReview(c *gin.Context) {
	var req model.ReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review := &model.Review{
		BookID:  c.Param("id"),
		UserID:  currentUserID(c),
		Rating:  req.Rating,
		Comment: req.Comment,
	}
	if err := h.repo.UpsertReview(c.Request.Context(), review); err != nil {
		respondError(c, h.log, err, "Failed to save review")
		return
	}

	h.catalog.Refresh(c.Request.Context())
	c.JSON(http.StatusOK, review.ToReviewResponse())
}

func (h *ReviewHandler) ListReviews(c *gin.Context) {
	reviews, err := h.repo.ListReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve reviews")
		return
	}

	response := make([]model.ReviewResponse, 0, len(reviews))
	for i := range reviews {
		response = append(response, reviews[i].ToReviewResponse())
	}
	c.JSON(http.StatusOK, gin.H{"reviews": response})
}
