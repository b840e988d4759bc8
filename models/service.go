package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is a tariff catalog entry that line entries may reference.
type Service struct {
	ID            string          `json:"id" gorm:"primaryKey;size:36"`
	Code          string          `json:"code" gorm:"size:32;not null;uniqueIndex"`
	Name          string          `json:"name" gorm:"not null"`
	Description   string          `json:"description"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	UnitCost      decimal.Decimal `json:"unit_cost" gorm:"type:numeric(14,2);not null;default:0"`
	Active        bool            `json:"active" gorm:"not null;default:true"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (service *Service) BeforeCreate(tx *gorm.DB) (err error) {
	if service.ID == "" {
		service.ID = uuid.NewString()
	}
	return
}
