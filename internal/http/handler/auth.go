package handler

import (
	"github.com/gofiber/fiber/v2"

	"docvault/internal/http/middleware"
	"docvault/internal/service"
)

// Register creates an account from a JSON body {username,email,password}.
func Register(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req credentialsRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		u, err := svc.Register(c.UserContext(), req.Username, req.Email, req.Password)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(userResponse{
			ID:       wireID(u.ID),
			Username: u.Username,
			Email:    u.Email,
		})
	}
}

// Login exchanges {email,password} for a bearer token.
func Login(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req credentialsRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		token, err := svc.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(tokenResponse{Token: token})
	}
}

// Logout revokes the presented token. It succeeds without one.
func Logout(svc service.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := middleware.BearerToken(c); token != "" {
			svc.Logout(token)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
