package routes

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
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"healthadmin-backend/audit"
	"healthadmin-backend/controllers"
	"healthadmin-backend/database"
	"healthadmin-backend/ledger"
	"healthadmin-backend/middlewares"
	"healthadmin-backend/models"
)

type testAPI struct {
	t   *testing.T
	app *fiber.App
	db  *gorm.DB
}

// fakeAuthn stands in for the JWT middleware. SQLite has no schemas, so the
// user context carries only the actor.
func fakeAuthn(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("userID", "user-1")
		c.Locals("schema", "acme")
		c.Locals("role", role)
		c.SetUserContext(ledger.WithActor(c.UserContext(), ledger.Actor{ID: "user-1", Type: role}))
		return c.Next()
	}
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	db, err := database.Open(sqlite.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.MigrateTables(db))

	auth, err := middlewares.NewAuth("test-secret", time.Hour)
	require.NoError(t, err)
	ctl := controllers.New(db, auth, audit.NewDBSink(db),
		controllers.WithTenantMigrator(func(*gorm.DB, string) error { return nil }))

	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	Register(app, ctl, fakeAuthn(models.RoleAdmin), db)
	return &testAPI{t: t, app: app, db: db}
}

func (a *testAPI) do(method, path string, body any) (int, map[string]any) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	var out map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(a.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

// money normalizes a JSON decimal to two places.
func money(t *testing.T, v any) string {
	t.Helper()
	d, err := decimal.NewFromString(fmt.Sprint(v))
	require.NoError(t, err, "not a decimal: %v", v)
	return d.StringFixed(2)
}

func (a *testAPI) seedDirectory() (providerID, enrolleeID, serviceID string) {
	a.t.Helper()
	status, provider := a.do(http.MethodPost, "/api/provider", map[string]any{
		"code": "PRV-001", "name": "Lagoon Clinic", "address": "1 Marina", "city": "Lagos",
		"country": "NG", "email": "billing@lagoon.test",
	})
	require.Equal(a.t, fiber.StatusCreated, status, provider)

	status, enrollee := a.do(http.MethodPost, "/api/enrollee", map[string]any{
		"policy_number": "POL-0001", "first_name": "Ada", "last_name": "Obi",
	})
	require.Equal(a.t, fiber.StatusCreated, status, enrollee)

	var services []models.Service
	req := httptest.NewRequest(http.MethodPost, "/api/services",
		strings.NewReader(`{"services":[{"code":"CONS","name":"Consultation","unit_cost":"100"}]}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	require.Equal(a.t, fiber.StatusCreated, resp.StatusCode)
	require.NoError(a.t, json.NewDecoder(resp.Body).Decode(&services))
	require.Len(a.t, services, 1)

	return provider["id"].(string), enrollee["id"].(string), services[0].ID
}

func TestInvoiceLifecycle(t *testing.T) {
	api := newTestAPI(t)
	providerID, enrolleeID, serviceID := api.seedDirectory()

	status, inv := api.do(http.MethodPost, "/api/invoices", map[string]any{
		"provider_id": providerID,
		"enrollee_id": enrolleeID,
		"entries": []map[string]any{
			{"service_id": serviceID, "name": "Consultation", "quantity": "1", "unit_cost": "100", "discount_amount": "10", "tax_amount": "5"},
			{"name": "Lab panel", "quantity": "2", "unit_cost": "25", "tax_amount": "2.5"},
		},
	})
	require.Equal(t, fiber.StatusCreated, status, inv)
	id := inv["id"].(string)
	assert.Equal(t, "draft", inv["status"])
	assert.Regexp(t, `^INV-`, inv["number"])
	assert.Equal(t, "150.00", money(t, inv["subtotal"]))
	assert.Equal(t, "10.00", money(t, inv["discount_amount"]))
	assert.Equal(t, "7.50", money(t, inv["tax_amount"]))
	assert.Equal(t, "147.50", money(t, inv["total_amount"]))
	assert.Len(t, inv["entries"], 2)

	status, added := api.do(http.MethodPost, "/api/invoices/"+id+"/items", map[string]any{
		"name": "Follow-up", "quantity": "1", "unit_cost": "25",
	})
	require.Equal(t, fiber.StatusCreated, status, added)
	entry := added["entry"].(map[string]any)
	assert.EqualValues(t, 3, entry["sequence_number"])
	assert.Equal(t, "172.50", money(t, added["aggregate"].(map[string]any)["total_amount"]))

	status, patched := api.do(http.MethodPut, "/api/invoice-items/"+entry["id"].(string), map[string]any{
		"quantity": "2", "unit_cost": "30",
	})
	require.Equal(t, fiber.StatusOK, status, patched)
	assert.Equal(t, "60.00", money(t, patched["entry"].(map[string]any)["subtotal"]))
	assert.Equal(t, "207.50", money(t, patched["aggregate"].(map[string]any)["total_amount"]))

	first := inv["entries"].([]any)[0].(map[string]any)["id"].(string)
	status, deleted := api.do(http.MethodDelete, "/api/invoice-items/"+first, nil)
	require.Equal(t, fiber.StatusOK, status, deleted)
	assert.Equal(t, "112.50", money(t, deleted["aggregate"].(map[string]any)["total_amount"]))

	status, issued := api.do(http.MethodPut, "/api/invoices/"+id+"/issue", nil)
	require.Equal(t, fiber.StatusOK, status, issued)
	assert.Equal(t, "issued", issued["status"])

	status, paid := api.do(http.MethodPost, "/api/invoices/"+id+"/payments", map[string]any{
		"amount": "12.5", "method": "transfer",
	})
	require.Equal(t, fiber.StatusCreated, status, paid)
	agg := paid["aggregate"].(map[string]any)
	assert.Equal(t, "partially_paid", agg["status"])
	assert.Equal(t, "100.00", money(t, agg["balance_amount"]))

	status, payments := api.do(http.MethodGet, "/api/invoices/"+id+"/payments", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, payments["payments"], 1)

	status, body := api.do(http.MethodDelete, "/api/invoices/"+id, nil)
	assert.Equal(t, fiber.StatusForbidden, status, body)

	status, totals := api.do(http.MethodPost, "/api/invoices/"+id+"/recalculate", nil)
	require.Equal(t, fiber.StatusOK, status, totals)
	assert.Equal(t, "112.50", money(t, totals["total_amount"]))
	assert.Equal(t, "12.50", money(t, totals["paid_amount"]))

	status, cancelled := api.do(http.MethodPut, "/api/invoices/"+id+"/cancel", map[string]any{"reason": "duplicate claim"})
	require.Equal(t, fiber.StatusOK, status, cancelled)
	assert.Equal(t, "cancelled", cancelled["status"])

	status, _ = api.do(http.MethodDelete, "/api/invoices/"+id, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	status, draft := api.do(http.MethodPost, "/api/invoices", map[string]any{
		"provider_id": providerID,
		"entries":     []map[string]any{{"name": "Consultation", "quantity": "1", "unit_cost": "100"}},
	})
	require.Equal(t, fiber.StatusCreated, status, draft)
	status, _ = api.do(http.MethodDelete, "/api/invoices/"+draft["id"].(string), nil)
	assert.Equal(t, fiber.StatusOK, status)
	status, _ = api.do(http.MethodGet, "/api/invoices/"+draft["id"].(string), nil)
	assert.Equal(t, fiber.StatusNotFound, status)
	var orphans int64
	require.NoError(t, api.db.Model(&models.InvoiceLineItem{}).Where("invoice_id = ?", draft["id"]).Count(&orphans).Error)
	assert.Zero(t, orphans)

	var logs []models.AuditLog
	require.NoError(t, api.db.Order("id ASC").Find(&logs).Error)
	require.NotEmpty(t, logs)
	assert.Equal(t, "invoice.created", logs[0].Action)
	assert.Equal(t, "user-1", logs[0].ActorID)
}

func TestInvoiceRequests_Rejected(t *testing.T) {
	api := newTestAPI(t)
	providerID, _, _ := api.seedDirectory()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"no entries", http.MethodPost, "/api/invoices", map[string]any{"provider_id": providerID, "entries": []any{}}, fiber.StatusBadRequest},
		{"zero quantity", http.MethodPost, "/api/invoices", map[string]any{
			"provider_id": providerID,
			"entries":     []map[string]any{{"name": "A", "quantity": "0", "unit_cost": "10"}},
		}, fiber.StatusBadRequest},
		{"unknown provider", http.MethodPost, "/api/invoices", map[string]any{
			"provider_id": uuid.NewString(),
			"entries":     []map[string]any{{"name": "A", "quantity": "1", "unit_cost": "10"}},
		}, fiber.StatusNotFound},
		{"unknown invoice", http.MethodGet, "/api/invoices/" + uuid.NewString(), nil, fiber.StatusNotFound},
		{"unknown entry", http.MethodPut, "/api/invoice-items/" + uuid.NewString(), map[string]any{"name": "x"}, fiber.StatusNotFound},
		{"bad status filter", http.MethodGet, "/api/invoices?status=archived", nil, fiber.StatusBadRequest},
		{"cancel without reason", http.MethodPut, "/api/invoices/x/cancel", map[string]any{}, fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := api.do(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status, body)
		})
	}

	var n int64
	require.NoError(t, api.db.Model(&models.Invoice{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestPaymentBatchDetails(t *testing.T) {
	api := newTestAPI(t)
	providerID, _, _ := api.seedDirectory()

	status, batch := api.do(http.MethodPost, "/api/payment-batches", map[string]any{"reference": "PB-2025-03"})
	require.Equal(t, fiber.StatusCreated, status, batch)
	batchID := batch["id"].(string)

	status, detail := api.do(http.MethodPost, "/api/payment-batches/"+batchID+"/details", map[string]any{
		"provider_id": providerID,
		"entries": []map[string]any{
			{"name": "Claim 1", "quantity": "1", "unit_cost": "10"},
			{"name": "Claim 2", "quantity": "1", "unit_cost": "20"},
		},
	})
	require.Equal(t, fiber.StatusCreated, status, detail)
	detailID := detail["id"].(string)
	assert.Equal(t, batchID, detail["payment_batch_id"])
	assert.Regexp(t, `^PBD-`, detail["number"])

	status, claim := api.do(http.MethodPost, "/api/payment-batch-details/"+detailID+"/claims", map[string]any{
		"name": "Claim 3", "quantity": "3", "unit_cost": "5",
	})
	require.Equal(t, fiber.StatusCreated, status, claim)
	assert.Equal(t, "45.00", money(t, claim["aggregate"].(map[string]any)["total_amount"]))

	claimID := claim["entry"].(map[string]any)["id"].(string)
	status, _ = api.do(http.MethodPut, "/api/claims/"+claimID, map[string]any{"discount_amount": "5"})
	require.Equal(t, fiber.StatusOK, status)

	status, list := api.do(http.MethodGet, "/api/payment-batch-details?batch_id="+batchID, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, list["total"])
	rows := list["payment_batch_details"].([]any)
	require.Len(t, rows, 1)
	assert.Equal(t, "40.00", money(t, rows[0].(map[string]any)["total_amount"]))

	status, _ = api.do(http.MethodDelete, "/api/claims/"+claimID, nil)
	require.Equal(t, fiber.StatusOK, status)
	status, got := api.do(http.MethodGet, "/api/payment-batch-details/"+detailID, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "30.00", money(t, got["total_amount"]))
	assert.Len(t, got["entries"], 2)

	status, _ = api.do(http.MethodPost, "/api/payment-batches/"+uuid.NewString()+"/details", map[string]any{
		"provider_id": providerID,
		"entries":     []map[string]any{{"name": "Loose", "quantity": "1", "unit_cost": "1"}},
	})
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestDirectoryCRUD(t *testing.T) {
	api := newTestAPI(t)
	providerID, _, serviceID := api.seedDirectory()

	status, updated := api.do(http.MethodPut, "/api/provider/"+providerID, map[string]any{"city": "  Abuja ", "active": false})
	require.Equal(t, fiber.StatusOK, status, updated)
	assert.Equal(t, "Abuja", updated["city"])
	assert.Equal(t, false, updated["active"])

	status, _ = api.do(http.MethodPut, "/api/provider/"+uuid.NewString(), map[string]any{"city": "Abuja"})
	assert.Equal(t, fiber.StatusNotFound, status)

	status, service := api.do(http.MethodPut, "/api/services/"+serviceID, map[string]any{"unit_cost": "120.456"})
	require.Equal(t, fiber.StatusOK, status, service)
	assert.Equal(t, "120.46", money(t, service["unit_cost"]))

	status, _ = api.do(http.MethodPut, "/api/services/"+serviceID, map[string]any{"unit_cost": "-1"})
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, client := api.do(http.MethodPost, "/api/client", map[string]any{
		"company_name": "Dangote Group", "address": "2 Broad St", "city": "Lagos", "country": "NG",
		"email": "hr@dangote.test", "first_name": "Bola", "last_name": "Ade",
	})
	require.Equal(t, fiber.StatusCreated, status, client)

	status, enrollee := api.do(http.MethodPost, "/api/enrollee", map[string]any{
		"policy_number": "POL-0002", "client_id": client["id"], "first_name": "Chidi", "last_name": "Eze",
	})
	require.Equal(t, fiber.StatusCreated, status, enrollee)

	status, list := api.do(http.MethodGet, "/api/enrollees?client_id="+client["id"].(string), nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, list["total"])

	status, body := api.do(http.MethodPost, "/api/enrollee", map[string]any{
		"policy_number": "POL-0003", "client_id": uuid.NewString(), "first_name": "X", "last_name": "Y",
	})
	assert.Equal(t, fiber.StatusNotFound, status, body)

	status, body = api.do(http.MethodPost, "/api/provider", map[string]any{"code": "P2"})
	require.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "required", body["errors"].(map[string]any)["name"])
}

func TestRegistrationAndLogin(t *testing.T) {
	api := newTestAPI(t)

	registration := map[string]any{
		"first_name": "Ngozi", "last_name": "Okafor", "email": "admin@acme.test",
		"password": "s3cret-pass", "password_confirm": "s3cret-pass",
		"company_name": "Acme Health", "address": "5 Allen Ave", "city": "Ikeja", "country": "NG",
	}
	status, company := api.do(http.MethodPost, "/api/registration", registration)
	require.Equal(t, fiber.StatusCreated, status, company)
	assert.Equal(t, "Acme Health", company["company_name"])
	assert.Equal(t, "admin", company["user"].(map[string]any)["role"])

	status, _ = api.do(http.MethodPost, "/api/registration", registration)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, login := api.do(http.MethodPost, "/api/login", map[string]any{"email": "admin@acme.test", "password": "s3cret-pass"})
	require.Equal(t, fiber.StatusOK, status, login)
	assert.Equal(t, "acme_health", login["schema"])
	assert.NotEmpty(t, login["token"])

	status, _ = api.do(http.MethodPost, "/api/login", map[string]any{"email": "admin@acme.test", "password": "wrong-pass"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, staff := api.do(http.MethodPost, "/api/staff", map[string]any{
		"first_name": "Tunde", "last_name": "Bello", "email": "tunde@acme.test", "password": "another-pass",
	})
	require.Equal(t, fiber.StatusCreated, status, staff)
	assert.Equal(t, "staff", staff["role"])

	status, list := api.do(http.MethodGet, "/api/staff", nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, list["staff"], 1)
}

func TestStaffRequiresAdmin(t *testing.T) {
	db, err := database.Open(sqlite.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.MigrateTables(db))

	auth, err := middlewares.NewAuth("test-secret", time.Hour)
	require.NoError(t, err)
	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	Register(app, controllers.New(db, auth, nil), fakeAuthn(models.RoleStaff), db)

	req := httptest.NewRequest(http.MethodPost, "/api/staff", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
