package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lunchtableguy/mmeg-sub000/internal/middleware"
	"github.com/lunchtableguy/mmeg-sub000/internal/service"
)

type PageHandler struct {
	pageService service.PageService
}

func NewPageHandler(pageService service.PageService) *PageHandler {
	return &PageHandler{pageService: pageService}
}

// PublishRequest toggles a page live or back to draft
type PublishRequest struct {
	Published *bool `json:"published" validate:"required"`
}

// GetPublished serves a live page
// GET /api/v1/pages/:slug
func (h *PageHandler) GetPublished(c *fiber.Ctx) error {
	page, err := h.pageService.GetPublished(c.UserContext(), c.Params("slug"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Page not found"})
	}
	return c.JSON(page)
}

// ListPages includes drafts
// GET /api/v1/manage/pages?kind=
func (h *PageHandler) ListPages(c *fiber.Ctx) error {
	pages, err := h.pageService.List(c.UserContext(), c.Query("kind"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch pages"})
	}
	return c.JSON(pages)
}

// CreatePage
// POST /api/v1/manage/pages
func (h *PageHandler) CreatePage(c *fiber.Ctx) error {
	var req service.PageRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	page, err := h.pageService.Create(c.UserContext(), middleware.Subject(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Page created successfully", "data": page})
}

// UpdatePage
// PUT /api/v1/manage/pages/:id
func (h *PageHandler) UpdatePage(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	var req service.PageRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	page, err := h.pageService.Update(c.UserContext(), middleware.Subject(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Page updated successfully", "data": page})
}

// SetPublished
// PUT /api/v1/manage/pages/:id/publish
func (h *PageHandler) SetPublished(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	var req PublishRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	page, err := h.pageService.SetPublished(c.UserContext(), middleware.Subject(c), id, *req.Published)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Page updated successfully", "data": page})
}

// DeletePage
// DELETE /api/v1/manage/pages/:id
func (h *PageHandler) DeletePage(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	if err := h.pageService.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Page deleted successfully"})
}
