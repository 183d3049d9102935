package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// ===============================
// Database Entities (Internal)
// ===============================

// User represents the user entity in the database
type User struct {
	ID           string `gorm:"type:text;primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	FirstName    string `gorm:"not null"`
	LastName     string `gorm:"not null"`
	Role         string `gorm:"not null;default:'customer'"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	return nil
}

// FullName joins first and last name for greetings
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// ToUserResponse converts database User to API response
func (u *User) ToUserResponse() *UserResponse {
	return &UserResponse{
		UserID:    u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

// ===============================
// Repository DTOs (Internal)
// ===============================

// CreateUserRequest represents input for creating a user in repository layer
type CreateUserRequest struct {
	Email     string
	Password  string // Plain text password (will be hashed in repository)
	FirstName string
	LastName  string
	Role      string
}

// ===============================
// API DTOs (External)
// ===============================

// RegisterRequest represents the user registration request from API
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

// ToCreateUserRequest converts API request to repository request
func (r *RegisterRequest) ToCreateUserRequest(role string) CreateUserRequest {
	return CreateUserRequest{
		Email:     r.Email,
		Password:  r.Password,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Role:      role,
	}
}

// LoginRequest represents the user login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse represents user data in API responses
type UserResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse represents the response for user login
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int          `json:"expires_in"`
	User        UserResponse `json:"user"`
}
