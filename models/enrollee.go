package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Enrollee is a covered member. ClientID is set for members enrolled through a client.
type Enrollee struct {
	ID           string     `json:"id" gorm:"primaryKey;size:36"`
	PolicyNumber string     `json:"policy_number" gorm:"size:32;not null;uniqueIndex"`
	ClientID     *string    `json:"client_id" gorm:"size:36;index"`
	FirstName    string     `json:"first_name" gorm:"not null"`
	LastName     string     `json:"last_name" gorm:"not null"`
	DateOfBirth  *time.Time `json:"date_of_birth"`
	Email        string     `json:"email"`
	PhoneNumber  string     `json:"phone_number"`
	Active       bool       `json:"active" gorm:"not null;default:true"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (enrollee *Enrollee) BeforeCreate(tx *gorm.DB) (err error) {
	if enrollee.ID == "" {
		enrollee.ID = uuid.NewString()
	}
	return
}
