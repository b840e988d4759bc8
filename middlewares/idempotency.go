package middlewares

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"healthadmin-backend/database"
	"healthadmin-backend/logger"
	"healthadmin-backend/models"
)

// Idempotency replays the stored response for a repeated Idempotency-Key on
// mutating requests. Records live in the tenant schema and are written in short
// transactions of their own, never in the handler's transaction.
func Idempotency(db *gorm.DB) fiber.Handler {
	log := logger.WithComponent("idempotency")
	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch && method != fiber.MethodDelete {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get("Idempotency-Key"))
		if key == "" {
			return c.Next()
		}
		if len(key) > 128 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Idempotency-Key too long"})
		}

		schema, _ := c.Locals("schema").(string)
		userID, _ := c.Locals("userID").(string)
		if schema == "" || userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "auth context missing"})
		}

		path := c.OriginalURL() // includes query string
		body := c.Body()

		// Build deterministic request hash: method|path|body|schema|user
		h := sha256.New()
		h.Write([]byte(method))
		h.Write([]byte{'\n'})
		h.Write([]byte(path))
		h.Write([]byte{'\n'})
		h.Write(body)
		h.Write([]byte{'\n'})
		h.Write([]byte(schema))
		h.Write([]byte{'\n'})
		h.Write([]byte(userID))
		reqHash := hex.EncodeToString(h.Sum(nil))

		// ---- Phase 1: read/create "pending" under a short tenant TX
		var (
			existing models.IdempotencyKey
			replayed bool
		)
		err := database.InTenant(c.UserContext(), db, func(tx *gorm.DB) error {
			rec := models.IdempotencyKey{
				Key:         key,
				RequestHash: reqHash,
				Method:      method,
				Path:        path,
				UserID:      userID,
			}
			// A concurrent request may have inserted the key first.
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "idempotency create failed")
			}
			if err := tx.Where("key = ?", key).First(&existing).Error; err != nil {
				return fiber.NewError(fiber.StatusInternalServerError, "idempotency lookup failed")
			}

			// Validate existing
			if existing.RequestHash != reqHash {
				return fiber.NewError(fiber.StatusConflict, "Idempotency-Key reuse with different request")
			}
			// Completed: replay. Pending: run the handler.
			replayed = existing.ResponseStatus != 0
			return nil
		})
		if err != nil {
			return err
		}
		if replayed {
			c.Set("Idempotent-Replayed", "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
			return c.Status(existing.ResponseStatus).Send(existing.ResponseBody)
		}

		// If we reached here, we need to run the handler once.
		if err := c.Next(); err != nil {
			return err
		}

		// ---- Phase 2: store the response under another short TX (best effort)
		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			return nil
		}
		err = database.InTenant(c.UserContext(), db, func(tx *gorm.DB) error {
			now := time.Now().UTC()
			resp := c.Response().Body()
			blob := make([]byte, len(resp))
			copy(blob, resp)

			return tx.Model(&models.IdempotencyKey{}).
				Where("key = ?", key).
				Updates(map[string]any{
					"response_status": status,
					"response_body":   blob,
					"completed_at":    &now,
				}).Error
		})
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("storing idempotent response failed")
		}
		return nil
	}
}
