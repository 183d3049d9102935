package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/arunvm123/bookstore/cache"
	"github.com/arunvm123/bookstore/model"
	"github.com/arunvm123/bookstore/notification"
	"github.com/arunvm123/bookstore/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps repository errors to HTTP responses. Anything unexpected
// is logged and reported as a 500 with message.
func respondError(c *gin.Context, log *zap.Logger, err error, message string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{
			Error:   "not_found",
			Message: "Resource not found",
		})
	case errors.Is(err, repository.ErrEmailExists):
		c.JSON(http.StatusConflict, model.ErrorResponse{
			Error:   "conflict",
			Message: "Email already exists",
		})
	case errors.Is(err, repository.ErrCartEmpty),
		errors.Is(err, repository.ErrBookUnavailable),
		errors.Is(err, repository.ErrInsufficientStock),
		errors.Is(err, repository.ErrInvalidTransition):
		c.JSON(http.StatusConflict, model.ErrorResponse{
			Error:   "conflict",
			Message: err.Error(),
		})
	default:
		log.Error(message, zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "internal_error",
			Message: message,
		})
	}
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "validation_failed",
			Message: err.Error(),
		})
		return false
	}
	return true
}

func currentUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// notifier publishes e-mail notifications without failing the request
type notifier struct {
	publisher notification.Publisher
	log       *zap.Logger
}

func (n notifier) send(ctx context.Context, req model.NotificationRequest) {
	if n.publisher == nil {
		return
	}
	if err := n.publisher.Publish(ctx, req); err != nil {
		n.log.Warn("Notification not queued", zap.String("type", req.Type), zap.String("recipient", req.RecipientEmail), zap.Error(err))
	}
}

type HealthHandler struct {
	db    repository.HealthChecker
	cache cache.Store
}

func NewHealthHandler(db repository.HealthChecker, store cache.Store) *HealthHandler {
	return &HealthHandler{db: db, cache: store}
}

// HealthCheck reports unhealthy only when the database is down. The cache
// is optional for serving, so an outage is reported as degraded.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	response := model.HealthResponse{
		Status:    "healthy",
		Service:   "bookstore-api",
		Checks:    map[string]string{"database": "ok", "cache": "ok"},
		Timestamp: time.Now(),
	}

	sqlDB, err := h.db.GetDB().DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		response.Status = "unhealthy"
		response.Checks["database"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, response)
		return
	}

	if err := h.cache.Ping(ctx); err != nil {
		response.Status = "degraded"
		response.Checks["cache"] = "unreachable"
	}

	c.JSON(http.StatusOK, response)
}
