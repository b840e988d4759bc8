package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"healthadmin-backend/middlewares"
	"healthadmin-backend/models"
	"healthadmin-backend/utils"
)

// POST /api/client
func (ctl *Controller) CreateClient(c *fiber.Ctx) error {
	var in ClientCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := tenantDB(c)
	if err != nil {
		return err
	}

	client := models.Client{
		CompanyName:  in.CompanyName,
		Address:      in.Address,
		City:         in.City,
		Country:      in.Country,
		Zip:          in.Zip,
		Homepage:     in.Homepage,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PhoneNumber:  in.PhoneNumber,
		MobileNumber: in.MobileNumber,
		Salutation:   in.Salutation,
		Title:        in.Title,
		Active:       true,
	}
	if err := db.Create(&client).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create client")
	}
	return c.Status(fiber.StatusCreated).JSON(client)
}

// GET /api/clients
func (ctl *Controller) GetClients(c *fiber.Ctx) error {
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	var clients []models.Client
	if err := db.Order("company_name ASC").Find(&clients).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"clients": clients,
		"message": "success",
	})
}

// GET /api/client/:id
func (ctl *Controller) GetClient(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	var client models.Client
	if err := db.First(&client, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "client not found")
		}
		return err
	}
	return c.JSON(client)
}

// PUT /api/client/:id
func (ctl *Controller) UpdateClient(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var in ClientUpdateDTO
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

	if updates := utils.UpdatesFromPtrDTO(&in, nil); len(updates) > 0 {
		if err := db.Model(&models.Client{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not update client")
		}
	}

	var out models.Client
	if err := db.First(&out, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "client not found")
		}
		return err
	}
	return c.JSON(out)
}
