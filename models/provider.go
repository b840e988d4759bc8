package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Provider is a healthcare facility that bills the tenant.
type Provider struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Code         string    `json:"code" gorm:"size:32;not null;uniqueIndex"`
	Name         string    `json:"name" gorm:"not null"`
	Address      string    `json:"address" gorm:"not null"`
	City         string    `json:"city" gorm:"not null"`
	Country      string    `json:"country" gorm:"not null"`
	Zip          string    `json:"zip"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PhoneNumber  string    `json:"phone_number"`
	MobileNumber string    `json:"mobile_number"`
	Active       bool      `json:"active" gorm:"not null;default:true"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (provider *Provider) BeforeCreate(tx *gorm.DB) (err error) {
	if provider.ID == "" {
		provider.ID = uuid.NewString()
	}
	return
}
