package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lunchtableguy/mmeg-sub000/internal/authz"
)

// RoleHandler serves the static authorization table
type RoleHandler struct{}

func NewRoleHandler() *RoleHandler {
	return &RoleHandler{}
}

// GetRoles returns all roles with their rank and permissions
// GET /api/v1/roles
func (h *RoleHandler) GetRoles(c *fiber.Ctx) error {
	return c.JSON(authz.Describe())
}

// GetPermissions lists every permission in the table
// GET /api/v1/permissions
func (h *RoleHandler) GetPermissions(c *fiber.Ctx) error {
	return c.JSON(authz.AllPermissions())
}
