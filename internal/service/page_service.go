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
	"github.com/lunchtableguy/mmeg-sub000/pkg/validator"
)

type PageService interface {
	GetPublished(ctx context.Context, slug string) (*model.Page, error)
	List(ctx context.Context, kind string) ([]model.Page, error)
	Create(ctx context.Context, actor authz.Subject, req *PageRequest) (*model.Page, error)
	Update(ctx context.Context, actor authz.Subject, id uuid.UUID, req *PageRequest) (*model.Page, error)
	SetPublished(ctx context.Context, actor authz.Subject, id uuid.UUID, published bool) (*model.Page, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type PageRequest struct {
	Slug  string `json:"slug" validate:"required,slug"`
	Title string `json:"title" validate:"required,max=255"`
	Kind  string `json:"kind" validate:"omitempty,oneof=page news event merch press"`
	Body  string `json:"body"`
}

type pageService struct {
	repo repository.PageRepository
	now  func() time.Time
}

func NewPageService(repo repository.PageRepository) PageService {
	return &pageService{repo: repo, now: time.Now}
}

func (s *pageService) GetPublished(ctx context.Context, slug string) (*model.Page, error) {
	page, err := s.repo.FindPublishedBySlug(ctx, slug)
	if err != nil {
		return nil, ErrNotFound
	}
	return page, nil
}

func (s *pageService) List(ctx context.Context, kind string) ([]model.Page, error) {
	return s.repo.FindAll(ctx, kind)
}

func (s *pageService) Create(ctx context.Context, actor authz.Subject, req *PageRequest) (*model.Page, error) {
	if err := validator.Error(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.slugFree(ctx, req.Slug); err != nil {
		return nil, err
	}

	page := &model.Page{Slug: req.Slug, Title: req.Title, Kind: kindOrDefault(req.Kind), Body: req.Body}
	page.CreatedBy = actor.UserID.String()
	page.UpdatedBy = actor.UserID.String()
	if err := s.repo.Create(ctx, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *pageService) slugFree(ctx context.Context, slug string) error {
	_, err := s.repo.FindBySlug(ctx, slug)
	switch {
	case err == nil:
		return ErrSlugExists
	case errors.Is(err, repository.ErrNotFound):
		return nil
	default:
		return fmt.Errorf("check slug: %w", err)
	}
}

func (s *pageService) find(ctx context.Context, id uuid.UUID) (*model.Page, error) {
	page, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return page, nil
}

func (s *pageService) Update(ctx context.Context, actor authz.Subject, id uuid.UUID, req *PageRequest) (*model.Page, error) {
	if err := validator.Error(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	page, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	// Editing live content is a publish action
	if page.Published && !actor.Can(authz.PagesPublish) {
		return nil, ErrForbidden
	}
	if req.Slug != page.Slug {
		if err := s.slugFree(ctx, req.Slug); err != nil {
			return nil, err
		}
	}

	page.Slug = req.Slug
	page.Title = req.Title
	page.Kind = kindOrDefault(req.Kind)
	page.Body = req.Body
	page.UpdatedBy = actor.UserID.String()
	if err := s.repo.Update(ctx, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *pageService) SetPublished(ctx context.Context, actor authz.Subject, id uuid.UUID, published bool) (*model.Page, error) {
	page, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	page.Published = published
	if published {
		now := s.now()
		page.PublishedAt = &now
	} else {
		page.PublishedAt = nil
	}
	page.UpdatedBy = actor.UserID.String()
	if err := s.repo.Update(ctx, page); err != nil {
		return nil, err
	}
	return page, nil
}

func (s *pageService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func kindOrDefault(kind string) string {
	if kind == "" {
		return "page"
	}
	return kind
}
