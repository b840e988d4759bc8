package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"healthadmin-backend/database"
	"healthadmin-backend/ledger"
	"healthadmin-backend/logger"
	"healthadmin-backend/middlewares"
	"healthadmin-backend/utils"
)

// Controller holds the dependencies shared by all HTTP handlers.
type Controller struct {
	db       *gorm.DB
	auth     *middlewares.Auth
	Invoices *LedgerHandlers
	Details  *LedgerHandlers
	log      zerolog.Logger

	migrateTenant func(db *gorm.DB, schema string) error
}

type Option func(*Controller)

// WithTenantMigrator replaces the schema migration run on registration.
func WithTenantMigrator(fn func(db *gorm.DB, schema string) error) Option {
	return func(ctl *Controller) { ctl.migrateTenant = fn }
}

// New wires the invoice and payment batch ledgers on db. sink may be nil.
func New(db *gorm.DB, auth *middlewares.Auth, sink ledger.AuditSink, opts ...Option) *Controller {
	dir := database.NewDirectory(db)
	ctl := &Controller{
		db:       db,
		auth:     auth,
		Invoices: &LedgerHandlers{l: ledger.New(ledger.KindInvoice, database.NewInvoiceStore(db), dir, sink)},
		Details:  &LedgerHandlers{l: ledger.New(ledger.KindPaymentBatchDetail, database.NewPaymentBatchStore(db), dir, sink)},
		log:      logger.WithComponent("http"),

		migrateTenant: database.MigrateTenantSchema,
	}
	for _, opt := range opts {
		opt(ctl)
	}
	return ctl
}

func tenantDB(c *fiber.Ctx) (*gorm.DB, error) {
	db, err := database.GetTenantDB(c)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusInternalServerError, "tenant db unavailable")
	}
	return db, nil
}

type page struct {
	Limit  int
	Offset int
}

func pageOf(c *fiber.Ctx) page {
	p := page{
		Limit:  utils.ParseIntDefault(c.Query("limit"), 50),
		Offset: utils.ParseIntDefault(c.Query("offset"), 0),
	}
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Limit > 200 {
		p.Limit = 200
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
