package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog is an append-only record of a committed ledger mutation.
type AuditLog struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	Action     string         `json:"action" gorm:"size:64;not null;index"`
	Message    string         `json:"message"`
	ActorID    string         `json:"actor_id" gorm:"size:64;index"`
	ActorType  string         `json:"actor_type" gorm:"size:32"`
	Meta       datatypes.JSON `json:"meta"`
	OccurredAt time.Time      `json:"occurred_at" gorm:"index"`
}
