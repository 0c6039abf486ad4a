package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lunchtableguy/mmeg-sub000/internal/middleware"
	"github.com/lunchtableguy/mmeg-sub000/internal/service"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// ChangeRoleRequest is the body of PUT /users/:id/role
type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,role"`
}

// CreateUser handles user creation
// POST /api/v1/users
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var req service.CreateUserRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	user, err := h.userService.CreateUser(c.UserContext(), middleware.Subject(c), &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{
		"message": "User created successfully",
		"data":    user.ToResponse(),
	})
}

// ChangeRole assigns a new role
// PUT /api/v1/users/:id/role
func (h *UserHandler) ChangeRole(c *fiber.Ctx) error {
	userID, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	var req ChangeRoleRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	user, err := h.userService.ChangeRole(c.UserContext(), middleware.Subject(c), userID, req.Role)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Role updated successfully",
		"data":    user.ToResponse(),
	})
}

// GetUsers returns all users
// GET /api/v1/users
func (h *UserHandler) GetUsers(c *fiber.Ctx) error {
	users, err := h.userService.GetAllUsers(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch users"})
	}
	return c.JSON(users)
}

// GetUser returns a single user by ID
// GET /api/v1/users/:id
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	userID, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}

	user, err := h.userService.GetUserByID(c.UserContext(), userID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(user)
}

// Me returns the authenticated user with their permissions
// GET /api/v1/auth/me
func (h *UserHandler) Me(c *fiber.Ctx) error {
	subject := middleware.Subject(c)
	if subject.Anonymous() {
		return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
	}

	user, err := h.userService.GetUserByID(c.UserContext(), subject.UserID)
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "User not found"})
	}
	return c.JSON(user)
}

// UpdateUser handles user update
// PUT /api/v1/users/:id
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	userID, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	var req service.UpdateUserRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	user, err := h.userService.UpdateUser(c.UserContext(), middleware.Subject(c), userID, &req)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "User updated successfully",
		"data":    user.ToResponse(),
	})
}

// DeleteUser handles user deletion
// DELETE /api/v1/users/:id
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	userID, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}

	if err := h.userService.DeleteUser(c.UserContext(), middleware.Subject(c), userID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "User deleted successfully"})
}
