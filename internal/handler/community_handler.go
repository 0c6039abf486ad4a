package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lunchtableguy/mmeg-sub000/internal/middleware"
	"github.com/lunchtableguy/mmeg-sub000/internal/service"
)

type AnnouncementHandler struct {
	announcementService service.AnnouncementService
}

func NewAnnouncementHandler(announcementService service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcementService: announcementService}
}

// ListPublished
// GET /api/v1/announcements?audience=&limit=
func (h *AnnouncementHandler) ListPublished(c *fiber.Ctx) error {
	items, err := h.announcementService.ListPublished(c.UserContext(), c.Query("audience"), c.QueryInt("limit"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch announcements"})
	}
	return c.JSON(items)
}

// ListAll includes drafts
// GET /api/v1/manage/announcements
func (h *AnnouncementHandler) ListAll(c *fiber.Ctx) error {
	items, err := h.announcementService.List(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch announcements"})
	}
	return c.JSON(items)
}

// Create
// POST /api/v1/manage/announcements
func (h *AnnouncementHandler) Create(c *fiber.Ctx) error {
	var req service.AnnouncementRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	item, err := h.announcementService.Create(c.UserContext(), middleware.Subject(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Announcement created successfully", "data": item})
}

// Update
// PUT /api/v1/manage/announcements/:id
func (h *AnnouncementHandler) Update(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	var req service.AnnouncementRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	item, err := h.announcementService.Update(c.UserContext(), middleware.Subject(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Announcement updated successfully", "data": item})
}

// Delete
// DELETE /api/v1/manage/announcements/:id
func (h *AnnouncementHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	if err := h.announcementService.Delete(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Announcement deleted successfully"})
}

type ForumHandler struct {
	forumService service.ForumService
}

func NewForumHandler(forumService service.ForumService) *ForumHandler {
	return &ForumHandler{forumService: forumService}
}

// ListPosts hides moderated posts from everyone but moderators
// GET /api/v1/forum?topic=&limit=
func (h *ForumHandler) ListPosts(c *fiber.Ctx) error {
	posts, err := h.forumService.List(c.UserContext(), middleware.Subject(c), c.Query("topic"), c.QueryInt("limit"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch posts"})
	}
	return c.JSON(posts)
}

// CreatePost
// POST /api/v1/forum
func (h *ForumHandler) CreatePost(c *fiber.Ctx) error {
	var req service.ForumPostRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	post, err := h.forumService.Create(c.UserContext(), middleware.Subject(c), &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Post created successfully", "data": post})
}

// ModeratePost hides or restores a post
// PUT /api/v1/forum/:id/moderate
func (h *ForumHandler) ModeratePost(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	var req service.ModerateRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	post, err := h.forumService.Moderate(c.UserContext(), middleware.Subject(c), id, &req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post moderated successfully", "data": post})
}

// DeletePost
// DELETE /api/v1/forum/:id
func (h *ForumHandler) DeletePost(c *fiber.Ctx) error {
	id, ok := paramID(c)
	if !ok {
		return invalidID(c)
	}
	if err := h.forumService.Delete(c.UserContext(), middleware.Subject(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}
