package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lunchtableguy/mmeg-sub000/internal/authz"
	"github.com/lunchtableguy/mmeg-sub000/internal/middleware"
	"github.com/lunchtableguy/mmeg-sub000/internal/service"
)

type ArtistHandler struct {
	artistService service.ArtistService
}

func NewArtistHandler(artistService service.ArtistService) *ArtistHandler {
	return &ArtistHandler{artistService: artistService}
}

// ListPublic returns the public roster
// GET /api/v1/artists
func (h *ArtistHandler) ListPublic(c *fiber.Ctx) error {
	artists, err := h.artistService.ListPublic(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch artists"})
	}
	return c.JSON(artists)
}

// GetPublic returns one public artist profile
// GET /api/v1/artists/:slug
func (h *ArtistHandler) GetPublic(c *fiber.Ctx) error {
	artist, err := h.artistService.GetPublic(c.UserContext(), c.Params("slug"))
	if err != nil {
		return c.Status(404).JSON(fiber.Map{"error": "Artist not found"})
	}
	return c.JSON(artist)
}

// ListManaged returns every profile the caller may edit
// GET /api/v1/manage/artists
func (h *ArtistHandler) ListManaged(c *fiber.Ctx) error {
	subject := middleware.Subject(c)

	var err error
	var out interface{}
	switch {
	case subject.Can(authz.ArtistsEditAll):
		out, err = h.artistService.ListAll(c.UserContext())
	case subject.Can(authz.ArtistsEditOwn):
		out, err = h.artistService.ListOwned(c.UserContext(), subject)
	default:
		return c.Status(403).JSON(fiber.Map{"error": "Forbidden"})
	}
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch artists"})
	}
	return c.JSON(out)
}

// CreateArtist
// POST /api/v1/manage/artists
func (h *ArtistHandler) CreateArtist(c *fiber.Ctx) error {
	var req service.ArtistRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	artist, err := h.artistService.Create(c.UserContext(), middleware.Subject(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Artist created successfully", "data": artist})
}

// UpdateArtist applies the ownership check in the service
// PUT /api/v1/manage/artists/:id
func (h *ArtistHandler) UpdateArtist(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	var req service.ArtistRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	artist, err := h.artistService.Update(c.UserContext(), middleware.Subject(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Artist updated successfully", "data": artist})
}

// DeleteArtist
// DELETE /api/v1/manage/artists/:id
func (h *ArtistHandler) DeleteArtist(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	if err := h.artistService.Delete(c.UserContext(), middleware.Subject(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Artist deleted successfully"})
}
