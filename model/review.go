package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is one user's rating of one book
type Review struct {
	ID        string `gorm:"type:text;primaryKey"`
	BookID    string `gorm:"type:text;not null;uniqueIndex:idx_reviews_book_user"`
	UserID    string `gorm:"type:text;not null;uniqueIndex:idx_reviews_book_user"`
	Rating    int    `gorm:"not null"`
	Comment   string `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time

	User User `gorm:"foreignKey:UserID"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (r *Review) ToReviewResponse() ReviewResponse {
	return ReviewResponse{
		ReviewID:  r.ID,
		BookID:    r.BookID,
		UserID:    r.UserID,
		UserName:  r.User.FullName(),
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt,
	}
}

// ReviewRequest represents the API request for rating a book
type ReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=2000"`
}

type ReviewResponse struct {
	ReviewID  string    `json:"review_id"`
	BookID    string    `json:"book_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
