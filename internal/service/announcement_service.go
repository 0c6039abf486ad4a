package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lunchtableguy/mmeg-sub000/internal/authz"
	"github.com/lunchtableguy/mmeg-sub000/internal/model"
	"github.com/lunchtableguy/mmeg-sub000/internal/repository"
	"github.com/lunchtableguy/mmeg-sub000/internal/ws"
	"github.com/lunchtableguy/mmeg-sub000/pkg/validator"
)

const defaultAnnouncementLimit = 20

type AnnouncementService interface {
	ListPublished(ctx context.Context, audience string, limit int) ([]model.Announcement, error)
	List(ctx context.Context) ([]model.Announcement, error)
	Create(ctx context.Context, actor authz.Subject, req *AnnouncementRequest) (*model.Announcement, error)
	Update(ctx context.Context, actor authz.Subject, id uuid.UUID, req *AnnouncementRequest) (*model.Announcement, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type AnnouncementRequest struct {
	Title     string `json:"title" validate:"required,max=255"`
	Body      string `json:"body" validate:"required"`
	Audience  string `json:"audience" validate:"required,oneof=public artists fans staff"`
	Published bool   `json:"published"`
}

type announcementService struct {
	repo repository.AnnouncementRepository
	hub  ws.Publisher
	now  func() time.Time
}

func NewAnnouncementService(repo repository.AnnouncementRepository, hub ws.Publisher) AnnouncementService {
	return &announcementService{repo: repo, hub: hub, now: time.Now}
}

func (s *announcementService) ListPublished(ctx context.Context, audience string, limit int) ([]model.Announcement, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultAnnouncementLimit
	}
	return s.repo.FindPublished(ctx, audience, limit)
}

func (s *announcementService) List(ctx context.Context) ([]model.Announcement, error) {
	return s.repo.FindAll(ctx)
}

func (s *announcementService) Create(ctx context.Context, actor authz.Subject, req *AnnouncementRequest) (*model.Announcement, error) {
	if err := validator.Error(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	a := &model.Announcement{Title: req.Title, Body: req.Body, Audience: req.Audience}
	a.CreatedBy = actor.UserID.String()
	a.UpdatedBy = actor.UserID.String()
	wasPublished := s.applyPublish(a, req.Published)

	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	if !wasPublished && a.Published {
		s.broadcast(a)
	}
	return a, nil
}

func (s *announcementService) Update(ctx context.Context, actor authz.Subject, id uuid.UUID, req *AnnouncementRequest) (*model.Announcement, error) {
	if err := validator.Error(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	a, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	a.Title = req.Title
	a.Body = req.Body
	a.Audience = req.Audience
	a.UpdatedBy = actor.UserID.String()
	wasPublished := s.applyPublish(a, req.Published)

	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	if !wasPublished && a.Published {
		s.broadcast(a)
	}
	return a, nil
}

func (s *announcementService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// applyPublish sets the publish fields and returns the previous state
func (s *announcementService) applyPublish(a *model.Announcement, publish bool) bool {
	was := a.Published
	a.Published = publish
	switch {
	case publish && !was:
		now := s.now()
		a.PublishedAt = &now
	case !publish:
		a.PublishedAt = nil
	}
	return was
}

func (s *announcementService) broadcast(a *model.Announcement) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(ws.EventAnnouncementPublished, map[string]interface{}{
		"id":           a.ID,
		"title":        a.Title,
		"audience":     a.Audience,
		"published_at": a.PublishedAt,
	})
}
