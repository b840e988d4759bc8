package audit

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"healthadmin-backend/database"
	"healthadmin-backend/ledger"
	"healthadmin-backend/models"
)

// DBSink appends audit_logs rows in the tenant schema, in a transaction of its own.
type DBSink struct {
	db *gorm.DB
}

func NewDBSink(db *gorm.DB) *DBSink {
	return &DBSink{db: db}
}

func (s *DBSink) Record(ctx context.Context, ev ledger.AuditEvent) error {
	meta, err := json.Marshal(ev.Meta)
	if err != nil {
		return err
	}
	row := models.AuditLog{
		Action:     ev.Action,
		Message:    ev.Message,
		ActorID:    ev.ActorID,
		ActorType:  ev.ActorType,
		Meta:       datatypes.JSON(meta),
		OccurredAt: ev.OccurredAt,
	}
	return database.InTenant(ctx, s.db, func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
}

func (s *DBSink) Close() error { return nil }
