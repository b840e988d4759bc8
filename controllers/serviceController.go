package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"healthadmin-backend/middlewares"
	"healthadmin-backend/models"
	"healthadmin-backend/utils"
)

// POST /api/services (batch create)
func (ctl *Controller) CreateServices(c *fiber.Ctx) error {
	var in ServiceBatchDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := tenantDB(c)
	if err != nil {
		return err
	}

	created := make([]models.Service, 0, len(in.Services))
	for _, s := range in.Services {
		if s.UnitCost.IsNegative() {
			return fiber.NewError(fiber.StatusBadRequest, "unit_cost must not be negative")
		}
		created = append(created, models.Service{
			Code:          s.Code,
			Name:          s.Name,
			Description:   s.Description,
			UnitOfMeasure: s.UnitOfMeasure,
			UnitCost:      s.UnitCost,
			Active:        true,
		})
	}
	if err := db.Create(&created).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create services")
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// GET /api/services?active=true
func (ctl *Controller) GetServices(c *fiber.Ctx) error {
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	q := db.Model(&models.Service{}).Order("code ASC")
	if c.Query("active") == "true" {
		q = q.Where("active = ?", true)
	}
	var services []models.Service
	if err := q.Find(&services).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"services": services,
		"message":  "success",
	})
}

// PUT /api/services/:id
// Price changes do not touch existing line entries; they carry their own unit cost.
func (ctl *Controller) UpdateService(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var in ServiceUpdateDTO
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	utils.NormalizePtrDTO(&in)
	if err := middlewares.ValidateStruct(in); err != nil {
		return err
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return fiber.NewError(fiber.StatusBadRequest, "unit_cost must not be negative")
	}

	db, err := tenantDB(c)
	if err != nil {
		return err
	}

	if updates := utils.UpdatesFromPtrDTO(&in, nil); len(updates) > 0 {
		if err := db.Model(&models.Service{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not update service")
		}
	}

	var out models.Service
	if err := db.First(&out, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "service not found")
		}
		return err
	}
	return c.JSON(out)
}
