package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"healthadmin-backend/middlewares"
	"healthadmin-backend/models"
	"healthadmin-backend/utils"
)

// POST /api/provider
func (ctl *Controller) CreateProvider(c *fiber.Ctx) error {
	var in ProviderCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := tenantDB(c)
	if err != nil {
		return err
	}

	provider := models.Provider{
		Code:         in.Code,
		Name:         in.Name,
		Address:      in.Address,
		City:         in.City,
		Country:      in.Country,
		Zip:          in.Zip,
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		MobileNumber: in.MobileNumber,
		Active:       true,
	}
	if err := db.Create(&provider).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create provider")
	}
	return c.Status(fiber.StatusCreated).JSON(provider)
}

// GET /api/providers?active=true
func (ctl *Controller) GetProviders(c *fiber.Ctx) error {
	db, err := tenantDB(c)
	if err != nil {
		return err
	}

	q := db.Model(&models.Provider{}).Order("name ASC")
	if c.Query("active") == "true" {
		q = q.Where("active = ?", true)
	}
	var providers []models.Provider
	if err := q.Find(&providers).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"providers": providers,
		"message":   "success",
	})
}

// PUT /api/provider/:id
func (ctl *Controller) UpdateProvider(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var in ProviderUpdateDTO
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	utils.NormalizePtrDTO(&in)
	if err := middlewares.ValidateStruct(in); err != nil {
		return err
	}

	db, err := tenantDB(c)
	if err != nil {
		return err
	}

	var existing models.Provider
	if err := db.First(&existing, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "provider not found")
		}
		return err
	}

	if updates := utils.UpdatesFromPtrDTO(&in, nil); len(updates) > 0 {
		if err := db.Model(&models.Provider{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not update provider")
		}
	}

	var out models.Provider
	if err := db.First(&out, "id = ?", id).Error; err != nil {
		return err
	}
	return c.JSON(out)
}
