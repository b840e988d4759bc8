package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentBatch groups the provider settlements of one payment run.
type PaymentBatch struct {
	ID          string     `json:"id" gorm:"primaryKey;size:36"`
	Reference   string     `json:"reference" gorm:"size:64;not null;uniqueIndex"`
	Description string     `json:"description"`
	PeriodStart *time.Time `json:"period_start"`
	PeriodEnd   *time.Time `json:"period_end"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (batch *PaymentBatch) BeforeCreate(tx *gorm.DB) (err error) {
	if batch.ID == "" {
		batch.ID = uuid.NewString()
	}
	return
}

// PaymentBatchDetail is one provider's settlement inside a batch; its claims are the line entries.
type PaymentBatchDetail struct {
	ID             string     `json:"id" gorm:"primaryKey;size:36"`
	DetailNumber   string     `json:"detail_number" gorm:"size:64;not null;uniqueIndex"`
	PaymentBatchID *string    `json:"payment_batch_id" gorm:"size:36;index"`
	ProviderID     string     `json:"provider_id" gorm:"size:36;not null;index"`
	EnrolleeID     *string    `json:"enrollee_id" gorm:"size:36;index"`
	ClientID       *string    `json:"client_id" gorm:"size:36;index"`
	Amounts        `gorm:"embedded"`
	Workflow       `gorm:"embedded"`
	Notes          string     `json:"notes"`
	DueDate        *time.Time `json:"due_date"`
	CreatedAt      time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Claim is one adjudicated service line of a payment batch detail.
type Claim struct {
	ID                   string `json:"id" gorm:"primaryKey;size:36"`
	PaymentBatchDetailID string `json:"payment_batch_detail_id" gorm:"size:36;not null;uniqueIndex:idx_claims_seq,priority:1"`
	SequenceNumber       int    `json:"sequence_number" gorm:"not null;uniqueIndex:idx_claims_seq,priority:2"`
	LineFields           `gorm:"embedded"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}
