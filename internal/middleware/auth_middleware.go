package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/lunchtableguy/mmeg-sub000/internal/authz"
	"github.com/lunchtableguy/mmeg-sub000/internal/metrics"
	"github.com/lunchtableguy/mmeg-sub000/internal/service"
	"github.com/lunchtableguy/mmeg-sub000/pkg/jwt"
)

const (
	LocalsUserID  = "user_id"
	LocalsRole    = "user_role"
	localsSubject = "subject"
)

// bearerToken extracts the token from "Bearer <token>"
func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", jwt.ErrMissingToken
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", errInvalidFormat
	}
	return parts[1], nil
}

var errInvalidFormat = errors.New("invalid authorization format. Use: Bearer <token>")

func setSubject(c *fiber.Ctx, subject authz.Subject) {
	c.Locals(LocalsUserID, subject.UserID.String())
	c.Locals(LocalsRole, subject.Role)
	c.Locals(localsSubject, subject)
}

// RequireAuth validates the JWT against the live user record and attaches
// the caller's Subject to the request
func RequireAuth(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return unauthorized(c, err)
		}

		user, err := authService.Authenticate(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, service.ErrForbidden) {
				return forbidden(c)
			}
			return unauthorized(c, err)
		}

		setSubject(c, user.Subject())
		return c.Next()
	}
}

// OptionalAuth attaches a Subject when a valid token is present and lets
// anonymous requests through untouched
func OptionalAuth(authService service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return c.Next()
		}
		if user, err := authService.Authenticate(c.UserContext(), token); err == nil {
			setSubject(c, user.Subject())
		}
		return c.Next()
	}
}

// forbidden is the generic 403 body
func forbidden(c *fiber.Ctx) error {
	return c.Status(403).JSON(fiber.Map{"error": "Forbidden"})
}

func unauthorized(c *fiber.Ctx, err error) error {
	msg := "Invalid or expired token"
	switch {
	case errors.Is(err, jwt.ErrMissingToken):
		msg = "Missing authorization token"
	case errors.Is(err, errInvalidFormat):
		msg = "Invalid authorization format. Use: Bearer <token>"
	case errors.Is(err, service.ErrSessionRevoked):
		msg = "Session expired (logged in on another device)"
	case errors.Is(err, service.ErrUserInactive):
		msg = "User account is inactive"
	}
	return c.Status(401).JSON(fiber.Map{"error": msg})
}

// Subject returns the identity attached by RequireAuth or OptionalAuth;
// the zero Subject holds no permissions
func Subject(c *fiber.Ctx) authz.Subject {
	if s, ok := c.Locals(localsSubject).(authz.Subject); ok {
		return s
	}
	return authz.Subject{}
}

// RequirePermission checks the caller's role against the permission table
func RequirePermission(perm authz.Permission, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject := Subject(c)
		if subject.Anonymous() {
			return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
		}
		if !subject.Can(perm) {
			m.AccessDenied(string(perm))
			return forbidden(c)
		}
		return c.Next()
	}
}

// RequireRole checks that the caller ranks at least as high as role
func RequireRole(role authz.Role, m *metrics.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject := Subject(c)
		if subject.Anonymous() {
			return c.Status(401).JSON(fiber.Map{"error": "Unauthorized"})
		}
		if !subject.AtLeast(role) {
			m.AccessDenied("role:" + role.String())
			return forbidden(c)
		}
		return c.Next()
	}
}
