package middlewares

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"healthadmin-backend/database"
	"healthadmin-backend/logger"
)

// TenantTx opens a per-request DB transaction pinned to the tenant schema
// carried by the user context (a plain transaction when there is none).
// Order: run AFTER IsAuthenticatedHeader() (so schema/userID are present),
// and AFTER Idempotency() (so idempotency records aren't tied to the handler TX).
// Ledger routes do not use it: the ledger opens its own transactions.
func TenantTx(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		schema := database.SchemaFromContext(c.UserContext())
		tx := db.WithContext(c.UserContext()).Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to begin transaction")
		}

		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				panic(r)
			}
			if err != nil {
				_ = tx.Rollback()
				return
			}
			if e := tx.Commit().Error; e != nil {
				log := logger.WithComponent("tenant_tx")
				log.Error().Err(e).Str("schema", schema).Msg("tx commit failed")
				err = fiber.NewError(fiber.StatusInternalServerError, "transaction commit failed")
			}
		}()

		// SET LOCAL reverts at TX end.
		if schema != "" {
			if e := database.PinSchema(tx, schema); e != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "failed to set tenant schema")
			}
		}

		c.Locals("tx", tx)
		return c.Next()
	}
}
