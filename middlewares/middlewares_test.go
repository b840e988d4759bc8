package middlewares

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"healthadmin-backend/database"
	"healthadmin-backend/ledger"
	"healthadmin-backend/models"
)

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func TestErrorHandler_StatusMapping(t *testing.T) {
	type payload struct {
		Name string `json:"name" validate:"required"`
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Get("/fiber", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })
	app.Get("/validator", func(c *fiber.Ctx) error { return ValidateStruct(payload{}) })
	app.Get("/ledger-validation", func(c *fiber.Ctx) error {
		return fmt.Errorf("create: %w", &ledger.ValidationError{Field: "quantity", Message: "must be greater than zero"})
	})
	app.Get("/not-found", func(c *fiber.Ctx) error { return ledger.NewNotFound("invoice", "x") })
	app.Get("/gorm-not-found", func(c *fiber.Ctx) error { return gorm.ErrRecordNotFound })
	app.Get("/state", func(c *fiber.Ctx) error { return &ledger.InvalidStateError{Op: "delete", Status: ledger.StatusIssued} })
	app.Get("/boom", func(c *fiber.Ctx) error { return fmt.Errorf("pq: connection reset") })

	tests := []struct {
		path    string
		status  int
		message string
	}{
		{"/fiber", fiber.StatusTeapot, "short and stout"},
		{"/validator", fiber.StatusBadRequest, "validation failed"},
		{"/ledger-validation", fiber.StatusBadRequest, "validation failed"},
		{"/not-found", fiber.StatusNotFound, "invoice x not found"},
		{"/gorm-not-found", fiber.StatusNotFound, "record not found"},
		{"/state", fiber.StatusForbidden, "cannot delete: aggregate is issued"},
		{"/boom", fiber.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			body := decode(t, resp)
			assert.Equal(t, tt.message, body["message"])
			if tt.path == "/validator" {
				assert.Equal(t, map[string]any{"name": "required"}, body["errors"])
			}
			if tt.path == "/ledger-validation" {
				assert.Equal(t, map[string]any{"quantity": "must be greater than zero"}, body["errors"])
			}
		})
	}
}

func TestAuth_TokenRoundTrip(t *testing.T) {
	auth, err := NewAuth("test-secret", time.Hour)
	require.NoError(t, err)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(auth.IsAuthenticatedHeader())
	app.Get("/me", func(c *fiber.Ctx) error {
		actor := ledger.ActorFrom(c.UserContext())
		return c.JSON(fiber.Map{
			"user":   actor.ID,
			"role":   actor.Type,
			"schema": database.SchemaFromContext(c.UserContext()),
		})
	})
	app.Get("/admin", RequireAdmin(), func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	token, err := auth.GenerateJWT("user-1", "acme", models.RoleStaff)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"user": "user-1", "role": "staff", "schema": "acme"}, decode(t, resp))

	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	other, err := NewAuth("other-secret", time.Hour)
	require.NoError(t, err)
	forged, err := other.GenerateJWT("user-1", "acme", models.RoleAdmin)
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	_, err = NewAuth(" ", time.Hour)
	assert.Error(t, err)
}

func TestIdempotency_ReplaysCompletedResponse(t *testing.T) {
	db, err := database.Open(sqlite.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.IdempotencyKey{}))

	calls := 0
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("userID", "user-1")
		c.Locals("schema", "acme")
		return c.Next()
	})
	app.Use(Idempotency(db))
	app.Post("/payments", func(c *fiber.Ctx) error {
		calls++
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"call": calls})
	})

	send := func(body string) *http.Response {
		req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "pay-123")
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp
	}

	first := send(`{"amount":"10"}`)
	assert.Equal(t, fiber.StatusCreated, first.StatusCode)
	assert.EqualValues(t, 1, decode(t, first)["call"])

	second := send(`{"amount":"10"}`)
	assert.Equal(t, fiber.StatusCreated, second.StatusCode)
	assert.Equal(t, "true", second.Header.Get("Idempotent-Replayed"))
	assert.EqualValues(t, 1, decode(t, second)["call"])
	assert.Equal(t, 1, calls)

	conflict := send(`{"amount":"20"}`)
	assert.Equal(t, fiber.StatusConflict, conflict.StatusCode)
}
