package database

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"healthadmin-backend/logger"
	"healthadmin-backend/models"
)

// PublicModels live in the public schema and are shared by all tenants.
func PublicModels() []any {
	return []any{&models.ContactPerson{}, &models.User{}, &models.Company{}}
}

// TenantModels live in every tenant schema.
func TenantModels() []any {
	return []any{
		&models.Provider{},
		&models.Client{},
		&models.Enrollee{},
		&models.Service{},
		&models.Invoice{},
		&models.InvoiceLineItem{},
		&models.PaymentBatch{},
		&models.PaymentBatchDetail{},
		&models.Claim{},
		&models.Payment{},
		&models.AuditLog{},
		&models.IdempotencyKey{},
	}
}

// AutoMigrate migrates the public tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(PublicModels()...)
}

// MigrateTables creates every table in the current schema without the
// Postgres-only constraints. Used for SQLite.
func MigrateTables(db *gorm.DB) error {
	if err := db.AutoMigrate(PublicModels()...); err != nil {
		return err
	}
	return db.AutoMigrate(TenantModels()...)
}

// foreign keys added after AutoMigrate: table, constraint, definition.
var tenantForeignKeys = [][3]string{
	{"invoice_line_items", "fk_invoice_line_items_invoice", "FOREIGN KEY (invoice_id) REFERENCES invoices(id) ON DELETE CASCADE"},
	{"invoice_line_items", "fk_invoice_line_items_service", "FOREIGN KEY (service_id) REFERENCES services(id) ON UPDATE RESTRICT ON DELETE RESTRICT"},
	{"claims", "fk_claims_detail", "FOREIGN KEY (payment_batch_detail_id) REFERENCES payment_batch_details(id) ON DELETE CASCADE"},
	{"claims", "fk_claims_service", "FOREIGN KEY (service_id) REFERENCES services(id) ON UPDATE RESTRICT ON DELETE RESTRICT"},
	{"invoices", "fk_invoices_provider", "FOREIGN KEY (provider_id) REFERENCES providers(id) ON DELETE RESTRICT"},
	{"payment_batch_details", "fk_payment_batch_details_provider", "FOREIGN KEY (provider_id) REFERENCES providers(id) ON DELETE RESTRICT"},
	{"payment_batch_details", "fk_payment_batch_details_batch", "FOREIGN KEY (payment_batch_id) REFERENCES payment_batches(id) ON DELETE RESTRICT"},
	{"enrollees", "fk_enrollees_client", "FOREIGN KEY (client_id) REFERENCES clients(id) ON DELETE SET NULL"},
}

// CHECK constraints: table, constraint, expression.
var tenantChecks = [][3]string{
	{"services", "chk_services_unit_cost_nonneg", "unit_cost >= 0"},
	{"payments", "chk_payments_amount_pos", "amount > 0"},
	{"invoice_line_items", "chk_invoice_line_items_quantity_pos", "quantity > 0"},
	{"invoice_line_items", "chk_invoice_line_items_amounts_nonneg", "unit_cost >= 0 AND discount_amount >= 0 AND tax_amount >= 0"},
	{"claims", "chk_claims_quantity_pos", "quantity > 0"},
	{"claims", "chk_claims_amounts_nonneg", "unit_cost >= 0 AND discount_amount >= 0 AND tax_amount >= 0"},
	{"invoices", "chk_invoices_status", "status IN ('draft','issued','partially_paid','paid','cancelled')"},
	{"payment_batch_details", "chk_payment_batch_details_status", "status IN ('draft','issued','partially_paid','paid','cancelled')"},
}

func addConstraint(tx *gorm.DB, table, name, definition string) error {
	stmt := fmt.Sprintf(`
DO $$
BEGIN
	IF NOT EXISTS (
		SELECT 1 FROM pg_constraint
		WHERE conrelid = '%[1]s'::regclass
		  AND conname  = '%[2]s'
	) THEN
		ALTER TABLE %[1]s ADD CONSTRAINT %[2]s %[3]s;
	END IF;
END $$;`, table, name, definition)
	if err := tx.Exec(stmt).Error; err != nil {
		return fmt.Errorf("constraint %s failed: %w", name, err)
	}
	return nil
}

// MigrateTenantSchema applies (idempotent) migrations for a single tenant schema:
// tables, composite indexes, foreign keys and CHECK constraints.
func MigrateTenantSchema(db *gorm.DB, schema string) error {
	if !schemaPattern.MatchString(schema) {
		return fmt.Errorf("%w: %q", ErrInvalidSchema, schema)
	}
	if err := db.Exec(`CREATE SCHEMA IF NOT EXISTS "` + schema + `"`).Error; err != nil {
		return fmt.Errorf("create schema failed: %w", err)
	}

	return InTenant(WithSchema(context.Background(), schema), db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(TenantModels()...); err != nil {
			return fmt.Errorf("tenant automigrate failed: %w", err)
		}

		indexes := []string{
			`CREATE INDEX IF NOT EXISTS idx_invoices_provider_status ON invoices (provider_id, status)`,
			`CREATE INDEX IF NOT EXISTS idx_payment_batch_details_batch_status ON payment_batch_details (payment_batch_id, status)`,
			`CREATE INDEX IF NOT EXISTS idx_audit_logs_meta ON audit_logs USING GIN (meta)`,
		}
		for _, stmt := range indexes {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("index migration failed on: %s - %w", stmt, err)
			}
		}

		for _, fk := range tenantForeignKeys {
			if err := addConstraint(tx, fk[0], fk[1], fk[2]); err != nil {
				return err
			}
		}
		for _, chk := range tenantChecks {
			if err := addConstraint(tx, chk[0], chk[1], "CHECK ("+chk[2]+")"); err != nil {
				return err
			}
		}
		return nil
	})
}

// MigrateAllTenants migrates the schema of every registered company.
func MigrateAllTenants(db *gorm.DB) error {
	var schemas []string
	if err := db.Model(&models.Company{}).Pluck("schema_name", &schemas).Error; err != nil {
		return err
	}
	log := logger.WithComponent("migrate")
	for _, schema := range schemas {
		if err := MigrateTenantSchema(db, schema); err != nil {
			return fmt.Errorf("tenant %s: %w", schema, err)
		}
		log.Info().Str("schema", schema).Msg("tenant schema migrated")
	}
	return nil
}
