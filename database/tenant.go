package database

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

var schemaPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// ErrInvalidSchema is returned for tenant schema names that are not safe identifiers.
var ErrInvalidSchema = errors.New("invalid tenant schema name")

type schemaKey struct{}

// WithSchema stores the tenant schema in ctx.
func WithSchema(ctx context.Context, schema string) context.Context {
	return context.WithValue(ctx, schemaKey{}, schema)
}

// SchemaFromContext returns the tenant schema stored in ctx, or "".
func SchemaFromContext(ctx context.Context) string {
	s, _ := ctx.Value(schemaKey{}).(string)
	return s
}

// SchemaName turns a company name into a schema identifier.
func SchemaName(companyName string) (string, error) {
	safeName := strings.ToLower(strings.TrimSpace(companyName))
	safeName = strings.Join(strings.Fields(safeName), "_")
	safeName = strings.Map(func(r rune) rune {
		if r == '-' || r == '.' {
			return '_'
		}
		return r
	}, safeName)
	if !schemaPattern.MatchString(safeName) || safeName == "public" {
		return "", fmt.Errorf("%w: %q", ErrInvalidSchema, safeName)
	}
	return safeName, nil
}

// PinSchema sets search_path for the current transaction only.
func PinSchema(tx *gorm.DB, schema string) error {
	if !schemaPattern.MatchString(schema) {
		return fmt.Errorf("%w: %q", ErrInvalidSchema, schema)
	}
	if err := tx.Exec(`SET LOCAL search_path = "` + schema + `", public`).Error; err != nil {
		return fmt.Errorf("set search_path failed: %w", err)
	}
	return nil
}

// InTenant runs fn in a transaction pinned to the schema carried by ctx.
// Without a schema in ctx it is a plain transaction (public tables, SQLite).
func InTenant(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if schema := SchemaFromContext(ctx); schema != "" {
			if err := PinSchema(tx, schema); err != nil {
				return err
			}
		}
		return fn(tx)
	})
}

// GetTenantDB returns the per-request transaction opened by middlewares.TenantTx.
func GetTenantDB(c *fiber.Ctx) (*gorm.DB, error) {
	if v := c.Locals("tx"); v != nil {
		if tx, ok := v.(*gorm.DB); ok && tx != nil {
			return tx, nil
		}
	}
	return nil, errors.New("tenant transaction missing")
}
