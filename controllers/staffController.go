package controllers

import (
	"github.com/gofiber/fiber/v2"

	"healthadmin-backend/middlewares"
	"healthadmin-backend/models"
)

// POST /api/staff (admin only)
// Staff accounts share the tenant schema of the admin creating them.
func (ctl *Controller) CreateStaff(c *fiber.Ctx) error {
	var in StaffCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	schema, _ := c.Locals("schema").(string)
	if schema == "" {
		return fiber.NewError(fiber.StatusBadRequest, "could not retrieve tenant schema")
	}

	var existing int64
	if err := ctl.db.Model(&models.User{}).Where("email = ?", in.Email).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return fiber.NewError(fiber.StatusBadRequest, "email already exists")
	}

	role := in.Role
	if role == "" {
		role = models.RoleStaff
	}
	user := models.User{
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Email:      in.Email,
		Role:       role,
		SchemaName: schema,
	}
	if err := user.SetPassword(in.Password); err != nil {
		return err
	}
	if err := ctl.db.Create(&user).Error; err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "could not create staff user")
	}
	return c.Status(fiber.StatusCreated).JSON(user)
}

// GET /api/staff
func (ctl *Controller) GetStaff(c *fiber.Ctx) error {
	schema, _ := c.Locals("schema").(string)
	var users []models.User
	if err := ctl.db.Where("schema_name = ?", schema).Order("created_at ASC").Find(&users).Error; err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"staff":   users,
		"message": "success",
	})
}
