package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"healthadmin-backend/ledger"
	"healthadmin-backend/models"
)

var directoryModels = map[ledger.EntityType]func() any{
	ledger.EntityProvider:     func() any { return &models.Provider{} },
	ledger.EntityEnrollee:     func() any { return &models.Enrollee{} },
	ledger.EntityClient:       func() any { return &models.Client{} },
	ledger.EntityPaymentBatch: func() any { return &models.PaymentBatch{} },
	ledger.EntityService:      func() any { return &models.Service{} },
}

// Directory answers ledger reference checks against the tenant tables.
type Directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) Exists(ctx context.Context, entity ledger.EntityType, id string) (bool, error) {
	model, ok := directoryModels[entity]
	if !ok {
		return false, fmt.Errorf("unknown entity type %q", entity)
	}
	var n int64
	err := InTenant(ctx, d.db, func(tx *gorm.DB) error {
		return tx.Model(model()).Where("id = ?", id).Count(&n).Error
	})
	return n > 0, err
}
