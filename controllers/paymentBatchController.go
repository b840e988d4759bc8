package controllers

import (
	"github.com/gofiber/fiber/v2"

	"healthadmin-backend/middlewares"
	"healthadmin-backend/models"
)

// POST /api/payment-batches
func (ctl *Controller) CreatePaymentBatch(c *fiber.Ctx) error {
	var in PaymentBatchCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if in.PeriodStart != nil && in.PeriodEnd != nil && in.PeriodEnd.Before(*in.PeriodStart) {
		return fiber.NewError(fiber.StatusBadRequest, "period_end must not be before period_start")
	}

	db, err := tenantDB(c)
	if err != nil {
		return err
	}

	batch := models.PaymentBatch{
		Reference:   in.Reference,
		Description: in.Description,
		PeriodStart: in.PeriodStart,
		PeriodEnd:   in.PeriodEnd,
	}
	if err := db.Create(&batch).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create payment batch")
	}
	return c.Status(fiber.StatusCreated).JSON(batch)
}

// GET /api/payment-batches
func (ctl *Controller) GetPaymentBatches(c *fiber.Ctx) error {
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	p := pageOf(c)

	var total int64
	if err := db.Model(&models.PaymentBatch{}).Count(&total).Error; err != nil {
		return err
	}
	var batches []models.PaymentBatch
	if err := db.Order("created_at DESC").Limit(p.Limit).Offset(p.Offset).Find(&batches).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"payment_batches": batches,
		"total":           total,
		"message":         "success",
	})
}
