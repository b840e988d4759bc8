package controllers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"healthadmin-backend/database"
	"healthadmin-backend/middlewares"
	"healthadmin-backend/models"
)

// POST /api/registration
// Creates the company, its admin user and contact person, then the tenant schema.
func (ctl *Controller) Register(c *fiber.Ctx) error {
	var in RegisterDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	schemaName, err := database.SchemaName(in.CompanyName)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "company name cannot be used as tenant name")
	}

	var existing int64
	if err := ctl.db.Model(&models.User{}).Where("email = ?", in.Email).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return fiber.NewError(fiber.StatusBadRequest, "email already exists")
	}
	if err := ctl.db.Model(&models.Company{}).Where("schema_name = ?", schemaName).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return fiber.NewError(fiber.StatusBadRequest, "company already registered")
	}

	user := models.User{
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Email:      in.Email,
		Role:       models.RoleAdmin,
		SchemaName: schemaName,
	}
	if err := user.SetPassword(in.Password); err != nil {
		return err
	}

	var company models.Company
	err = ctl.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not create user")
		}

		contactPerson := models.ContactPerson{
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Email:        in.Email,
			Salutation:   in.Salutation,
			Title:        in.Title,
			PhoneNumber:  in.PhoneNumber,
			MobileNumber: in.MobileNumber,
		}
		if err := tx.Create(&contactPerson).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not create contact person")
		}

		company = models.Company{
			CompanyName:        in.CompanyName,
			RegistrationNumber: in.RegistrationNumber,
			Address:            in.Address,
			City:               in.City,
			Country:            in.Country,
			Zip:                in.Zip,
			Homepage:           in.Homepage,
			UserID:             user.ID,
			ContactPersonID:    contactPerson.ID,
			SchemaName:         schemaName,
		}
		if err := tx.Create(&company).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "could not create company")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := ctl.migrateTenant(ctl.db, schemaName); err != nil {
		ctl.log.Error().Err(err).Str("schema", schemaName).Msg("tenant schema migration failed")
		return fiber.NewError(fiber.StatusInternalServerError, "could not migrate tenant schema")
	}
	ctl.log.Info().Str("schema", schemaName).Str("user_id", user.ID).Msg("tenant registered")

	if err := ctl.db.Preload("User").Preload("ContactPerson").First(&company, "id = ?", company.ID).Error; err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(company)
}

// POST /api/login
func (ctl *Controller) Login(c *fiber.Ctx) error {
	var in LoginDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	var user models.User
	if err := ctl.db.Where("email = ?", in.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
		}
		return err
	}
	if err := user.ComparePassword(in.Password); err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "invalid credentials")
	}

	token, err := ctl.auth.GenerateJWT(user.ID, user.SchemaName, user.Role)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"token":  token,
		"schema": user.SchemaName,
		"user": fiber.Map{
			"id":    user.ID,
			"name":  user.FirstName + " " + user.LastName,
			"email": user.Email,
			"role":  user.Role,
		},
	})
}

// POST /api/logout
func (ctl *Controller) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     "jwt",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	})
	return c.JSON(fiber.Map{
		"message": "success",
	})
}
