package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Client is a corporate customer whose enrollees are covered by the tenant.
type Client struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	CompanyName  string    `json:"company_name" gorm:"not null;uniqueIndex"`
	Address      string    `json:"address" gorm:"not null"`
	City         string    `json:"city" gorm:"not null"`
	Country      string    `json:"country" gorm:"not null"`
	Zip          string    `json:"zip"`
	Homepage     string    `json:"homepage"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	FirstName    string    `json:"first_name" gorm:"not null"`
	LastName     string    `json:"last_name" gorm:"not null"`
	PhoneNumber  string    `json:"phone_number"`
	MobileNumber string    `json:"mobile_number"`
	Salutation   string    `json:"salutation"`
	Title        string    `json:"title"`
	Active       bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (client *Client) BeforeCreate(tx *gorm.DB) (err error) {
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	return
}
