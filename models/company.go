package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Company is a tenant: a health maintenance organization with its own schema.
type Company struct {
	ID                 string        `json:"id" gorm:"primaryKey;size:36"`
	CompanyName        string        `json:"company_name" gorm:"not null;uniqueIndex"`
	RegistrationNumber string        `json:"registration_number"`
	Address            string        `json:"address" gorm:"not null"`
	City               string        `json:"city" gorm:"not null"`
	Country            string        `json:"country" gorm:"not null"`
	Zip                string        `json:"zip"`
	Homepage           string        `json:"homepage"`
	UserID             string        `json:"-" gorm:"size:36"`
	User               User          `json:"user" gorm:"foreignKey:UserID;references:ID"`
	ContactPersonID    uint          `json:"-"`
	ContactPerson      ContactPerson `json:"contact_person" gorm:"foreignKey:ContactPersonID;references:ID"`
	SchemaName         string        `json:"-" gorm:"size:63;not null;uniqueIndex"`
	CreatedAt          time.Time     `json:"created_at"`
}

func (company *Company) BeforeCreate(tx *gorm.DB) (err error) {
	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	return
}
