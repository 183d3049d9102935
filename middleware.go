package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/arunvm123/bookstore/cache"
	"github.com/arunvm123/bookstore/metrics"
	"github.com/arunvm123/bookstore/model"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Context keys set by AuthMiddleware
const (
	ctxUserID    = "user_id"
	ctxUserEmail = "user_email"
	ctxUserRole  = "user_role"
	ctxClaims    = "claims"
)

// Claims represents the JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService handles JWT operations
type JWTService struct {
	secretKey string
	ttl       time.Duration
}

func NewJWTService(secretKey string, ttl time.Duration) *JWTService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &JWTService{
		secretKey: secretKey,
		ttl:       ttl,
	}
}

// TTL is the lifetime of issued tokens
func (j *JWTService) TTL() time.Duration {
	return j.ttl
}

// GenerateToken issues a signed token for user with a unique token ID
func (j *JWTService) GenerateToken(user *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			Issuer:    "bookstore",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ValidateToken validates a JWT token and returns the claims
func (j *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}

var errTokenRevoked = errors.New("token has been revoked")

// AuthMiddleware validates bearer tokens and rejects logged-out ones. When the
// cache cannot be reached the revocation check is skipped.
func AuthMiddleware(jwtService *JWTService, store cache.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			abortUnauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := jwtService.ValidateToken(tokenParts[1])
		if err == nil {
			err = checkRevoked(c, store, claims, log)
		}
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		// Store user information in context for use in handlers
		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxUserEmail, claims.Email)
		c.Set(ctxUserRole, claims.Role)
		c.Set(ctxClaims, claims)

		c.Next()
	}
}

// OptionalAuthMiddleware identifies the caller when a valid bearer token is
// present and lets anonymous requests through otherwise.
func OptionalAuthMiddleware(jwtService *JWTService, store cache.Store, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok {
			c.Next()
			return
		}

		claims, err := jwtService.ValidateToken(token)
		if err == nil {
			err = checkRevoked(c, store, claims, log)
		}
		if err == nil {
			c.Set(ctxUserID, claims.UserID)
			c.Set(ctxUserEmail, claims.Email)
			c.Set(ctxUserRole, claims.Role)
			c.Set(ctxClaims, claims)
		}
		c.Next()
	}
}

func checkRevoked(c *gin.Context, store cache.Store, claims *Claims, log *zap.Logger) error {
	revoked, err := store.Exists(c.Request.Context(), cache.RevokedTokenKey(claims.ID))
	if err != nil {
		log.Warn("Token revocation check skipped", zap.String("jti", claims.ID), zap.Error(err))
		return nil
	}
	if revoked {
		return errTokenRevoked
	}
	return nil
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, model.ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
}

// AdminMiddleware allows only admin tokens through. It must run after
// AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxUserRole) != model.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, model.ErrorResponse{
				Error:   "forbidden",
				Message: "Admin access required",
			})
			return
		}
		c.Next()
	}
}

// CORSMiddleware handles CORS
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// LoggingMiddleware logs every request and records it in the HTTP metrics
func LoggingMiddleware(log *zap.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, status, latency)

		if raw != "" {
			path = path + "?" + raw
		}

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("HTTP request", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}
