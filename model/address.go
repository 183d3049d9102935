package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Address is a shipping address owned by a user
type Address struct {
	ID         string `gorm:"type:text;primaryKey"`
	UserID     string `gorm:"type:text;not null;index"`
	FullName   string `gorm:"not null"`
	Line1      string `gorm:"not null"`
	Line2      string
	City       string `gorm:"not null"`
	State      string
	PostalCode string `gorm:"not null"`
	Country    string `gorm:"not null"`
	Phone      string
	IsDefault  bool `gorm:"not null;default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (a *Address) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// OneLine renders the address for order records and e-mails
func (a *Address) OneLine() string {
	s := a.FullName + ", " + a.Line1
	if a.Line2 != "" {
		s += ", " + a.Line2
	}
	s += ", " + a.City
	if a.State != "" {
		s += ", " + a.State
	}
	return s + " " + a.PostalCode + ", " + a.Country
}

func (a *Address) ToAddressResponse() AddressResponse {
	return AddressResponse{
		AddressID:  a.ID,
		FullName:   a.FullName,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
		IsDefault:  a.IsDefault,
	}
}

// AddressRequest represents the API request for creating or replacing an address
type AddressRequest struct {
	FullName   string `json:"full_name" binding:"required"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city" binding:"required"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code" binding:"required"`
	Country    string `json:"country" binding:"required"`
	Phone      string `json:"phone"`
	IsDefault  bool   `json:"is_default"`
}

// ApplyTo copies the request onto an address owned by userID
func (r *AddressRequest) ApplyTo(a *Address, userID string) {
	a.UserID = userID
	a.FullName = r.FullName
	a.Line1 = r.Line1
	a.Line2 = r.Line2
	a.City = r.City
	a.State = r.State
	a.PostalCode = r.PostalCode
	a.Country = r.Country
	a.Phone = r.Phone
	a.IsDefault = r.IsDefault
}

type AddressResponse struct {
	AddressID  string `json:"address_id"`
	FullName   string `json:"full_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone,omitempty"`
	IsDefault  bool   `json:"is_default"`
}
