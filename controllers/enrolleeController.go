package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"healthadmin-backend/middlewares"
	"healthadmin-backend/models"
)

// POST /api/enrollee
func (ctl *Controller) CreateEnrollee(c *fiber.Ctx) error {
	var in EnrolleeCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	db, err := tenantDB(c)
	if err != nil {
		return err
	}

	if in.ClientID != nil {
		var n int64
		if err := db.Model(&models.Client{}).Where("id = ?", *in.ClientID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return fiber.NewError(fiber.StatusNotFound, "client not found")
		}
	}

	enrollee := models.Enrollee{
		PolicyNumber: in.PolicyNumber,
		ClientID:     in.ClientID,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		DateOfBirth:  in.DateOfBirth,
		Email:        in.Email,
		PhoneNumber:  in.PhoneNumber,
		Active:       true,
	}
	if err := db.Create(&enrollee).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create enrollee")
	}
	return c.Status(fiber.StatusCreated).JSON(enrollee)
}

// GET /api/enrollees?client_id=
func (ctl *Controller) GetEnrollees(c *fiber.Ctx) error {
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	p := pageOf(c)

	clientID := c.Query("client_id")
	filtered := func() *gorm.DB {
		q := db.Model(&models.Enrollee{})
		if clientID != "" {
			q = q.Where("client_id = ?", clientID)
		}
		return q
	}
	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return err
	}
	var enrollees []models.Enrollee
	if err := filtered().Order("last_name ASC, first_name ASC").Limit(p.Limit).Offset(p.Offset).Find(&enrollees).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"enrollees": enrollees,
		"total":     total,
		"message":   "success",
	})
}

// GET /api/enrollee/:id
func (ctl *Controller) GetEnrollee(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	db, err := tenantDB(c)
	if err != nil {
		return err
	}
	var enrollee models.Enrollee
	if err := db.First(&enrollee, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "enrollee not found")
		}
		return err
	}
	return c.JSON(enrollee)
}
