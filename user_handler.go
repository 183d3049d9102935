package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/arunvm123/bookstore/cache"
	"github.com/arunvm123/bookstore/config"
	"github.com/arunvm123/bookstore/model"
	"github.com/arunvm123/bookstore/repository"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type UserHandler struct {
	repo       repository.UserRepository
	jwtService *JWTService
	cache      cache.Store
	auth       config.Auth
	notifier   notifier
	log        *zap.Logger
}

func NewUserHandler(repo repository.UserRepository, jwtService *JWTService, store cache.Store, auth config.Auth, n notifier, log *zap.Logger) *UserHandler {
	return &UserHandler{
		repo:       repo,
		jwtService: jwtService,
		cache:      store,
		auth:       auth,
		notifier:   n,
		log:        log,
	}
}

// RegisterUser handles user registration
func (h *UserHandler) RegisterUser(c *gin.Context) {
	var req model.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	role := model.RoleCustomer
	if h.auth.IsAdminEmail(req.Email) {
		role = model.RoleAdmin
	}

	user, err := h.repo.CreateUser(c.Request.Context(), req.ToCreateUserRequest(role))
	if err != nil {
		respondError(c, h.log, err, "Failed to create user")
		return
	}

	h.notifier.send(c.Request.Context(), model.NotificationRequest{
		Type:           model.NotificationWelcome,
		RecipientEmail: user.Email,
		RecipientName:  user.FullName(),
	})

	c.JSON(http.StatusCreated, user.ToUserResponse())
}

// LoginUser handles user authentication
func (h *UserHandler) LoginUser(c *gin.Context) {
	var req model.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.repo.GetUserByEmail(c.Request.Context(), req.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		respondError(c, h.log, err, "Failed to authenticate")
		return
	}
	if err != nil || !h.repo.ValidatePassword(user, req.Password) {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{
			Error:   "authentication_failed",
			Message: "Invalid email or password",
		})
		return
	}

	token, err := h.jwtService.GenerateToken(user)
	if err != nil {
		respondError(c, h.log, err, "Failed to generate token")
		return
	}

	c.JSON(http.StatusOK, model.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int(h.jwtService.TTL().Seconds()),
		User:        *user.ToUserResponse(),
	})
}

// LogoutUser revokes the presented token until it would have expired
func (h *UserHandler) LogoutUser(c *gin.Context) {
	claims, ok := c.MustGet(ctxClaims).(*Claims)
	if !ok {
		respondError(c, h.log, errors.New("claims missing from context"), "Failed to log out")
		return
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl > 0 {
		if _, err := h.cache.SetNX(c.Request.Context(), cache.RevokedTokenKey(claims.ID), []byte("1"), ttl); err != nil {
			respondError(c, h.log, err, "Failed to log out")
			return
		}
	}

	c.Status(http.StatusNoContent)
}

// Me returns the caller's profile
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.repo.GetUserByID(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, h.log, err, "Failed to retrieve user")
		return
	}

	c.JSON(http.StatusOK, user.ToUserResponse())
}
