package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rahulds/goblog/internal/httperr"
	"github.com/rahulds/goblog/internal/services"
)

type CategoryHandler struct {
	categories *services.CategoryService
}

func NewCategoryHandler(categories *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var in services.CategoryInput
	if err := c.BodyParser(&in); err != nil {
		return httperr.Validation("Invalid request body")
	}

	category, err := h.categories.Create(c.Context(), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	categories, err := h.categories.List(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(categories)
}

func (h *CategoryHandler) Get(c *fiber.Ctx) error {
	category, err := h.categories.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(category)
}

func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	var in services.CategoryUpdate
	if err := c.BodyParser(&in); err != nil {
		return httperr.Validation("Invalid request body")
	}

	category, err := h.categories.Update(c.Context(), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(category)
}

func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	if err := h.categories.Delete(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Category deleted successfully"})
}
