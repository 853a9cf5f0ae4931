package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rahulds/goblog/internal/httperr"
	"github.com/rahulds/goblog/internal/middleware"
	"github.com/rahulds/goblog/internal/services"
)

type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := c.BodyParser(&in); err != nil {
		return httperr.Validation("Invalid request body")
	}

	user, token, err := h.auth.Register(c.Context(), in)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"user":    user.Public(),
		"token":   token,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&in); err != nil {
		return httperr.Validation("Invalid request body")
	}

	user, token, err := h.auth.Login(c.Context(), in.Email, in.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"user":  user.Public(),
		"token": token,
	})
}

func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return httperr.Unauthorized()
	}

	profile, err := h.auth.Profile(c.Context(), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}
