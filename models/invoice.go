package models

import "time"

// Invoice is a provider bill, optionally addressed to an enrollee or a client.
type Invoice struct {
	ID            string     `json:"id" gorm:"primaryKey;size:36"`
	InvoiceNumber string     `json:"invoice_number" gorm:"size:64;not null;uniqueIndex"`
	ProviderID    string     `json:"provider_id" gorm:"size:36;not null;index"`
	EnrolleeID    *string    `json:"enrollee_id" gorm:"size:36;index"`
	ClientID      *string    `json:"client_id" gorm:"size:36;index"`
	Amounts       `gorm:"embedded"`
	Workflow      `gorm:"embedded"`
	Notes         string     `json:"notes"`
	DueDate       *time.Time `json:"due_date"`
	CreatedAt     time.Time  `json:"created_at" gorm:"index"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// InvoiceLineItem is one billed line. (invoice_id, sequence_number) is unique
// and sequence numbers are never reused after a delete.
type InvoiceLineItem struct {
	ID             string `json:"id" gorm:"primaryKey;size:36"`
	InvoiceID      string `json:"invoice_id" gorm:"size:36;not null;uniqueIndex:idx_invoice_line_items_seq,priority:1"`
	SequenceNumber int    `json:"sequence_number" gorm:"not null;uniqueIndex:idx_invoice_line_items_seq,priority:2"`
	LineFields     `gorm:"embedded"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
