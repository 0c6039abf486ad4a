package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/lunchtableguy/mmeg-sub000/internal/authz"
	"github.com/lunchtableguy/mmeg-sub000/internal/model"
	"github.com/lunchtableguy/mmeg-sub000/internal/repository"
	"github.com/lunchtableguy/mmeg-sub000/pkg/validator"
)

type ArtistService interface {
	ListPublic(ctx context.Context) ([]model.Artist, error)
	GetPublic(ctx context.Context, slug string) (*model.Artist, error)
	ListAll(ctx context.Context) ([]model.Artist, error)
	ListOwned(ctx context.Context, actor authz.Subject) ([]model.Artist, error)
	Create(ctx context.Context, actor authz.Subject, req *ArtistRequest) (*model.Artist, error)
	Update(ctx context.Context, actor authz.Subject, id uuid.UUID, req *ArtistRequest) (*model.Artist, error)
	Delete(ctx context.Context, actor authz.Subject, id uuid.UUID) error
}

type ArtistRequest struct {
	Slug        string     `json:"slug" validate:"required,slug"`
	Name        string     `json:"name" validate:"required,max=255"`
	Genre       string     `json:"genre" validate:"max=100"`
	Bio         string     `json:"bio"`
	ImageURL    string     `json:"image_url" validate:"omitempty,url"`
	PressKitURL string     `json:"press_kit_url" validate:"omitempty,url"`
	Website     string     `json:"website" validate:"omitempty,url"`
	IsPublic    bool       `json:"is_public"`
	OwnerUserID *uuid.UUID `json:"owner_user_id"`
}

type artistService struct {
	repo repository.ArtistRepository
}

func NewArtistService(repo repository.ArtistRepository) ArtistService {
	return &artistService{repo: repo}
}

func (s *artistService) ListPublic(ctx context.Context) ([]model.Artist, error) {
	return s.repo.FindAll(ctx, true)
}

func (s *artistService) GetPublic(ctx context.Context, slug string) (*model.Artist, error) {
	artist, err := s.repo.FindBySlug(ctx, slug)
	if err != nil || !artist.IsPublic {
		return nil, ErrNotFound
	}
	return artist, nil
}

func (s *artistService) ListAll(ctx context.Context) ([]model.Artist, error) {
	return s.repo.FindAll(ctx, false)
}

// slugFree returns ErrSlugExists when slug is in use, and any lookup error
// other than not found
func (s *artistService) slugFree(ctx context.Context, slug string) error {
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

func (s *artistService) ListOwned(ctx context.Context, actor authz.Subject) ([]model.Artist, error) {
	return s.repo.FindByOwner(ctx, actor.UserID)
}

func (s *artistService) Create(ctx context.Context, actor authz.Subject, req *ArtistRequest) (*model.Artist, error) {
	if !actor.Can(authz.ArtistsCreate) {
		return nil, ErrForbidden
	}
	if err := validator.Error(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if err := s.slugFree(ctx, req.Slug); err != nil {
		return nil, err
	}

	artist := &model.Artist{}
	applyArtist(artist, req)
	artist.OwnerUserID = req.OwnerUserID
	artist.CreatedBy = actor.UserID.String()
	artist.UpdatedBy = actor.UserID.String()

	if err := s.repo.Create(ctx, artist); err != nil {
		return nil, err
	}
	return artist, nil
}

// Update applies the ownership-scoped edit check: a band may edit only the
// profile it owns and may not hand it to someone else.
func (s *artistService) Update(ctx context.Context, actor authz.Subject, id uuid.UUID, req *ArtistRequest) (*model.Artist, error) {
	artist, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !actor.CanEditArtist(artist.OwnerUserID) {
		return nil, ErrForbidden
	}
	if err := validator.Error(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if req.Slug != artist.Slug {
		if err := s.slugFree(ctx, req.Slug); err != nil {
			return nil, err
		}
	}

	applyArtist(artist, req)
	if actor.Can(authz.ArtistsEditAll) {
		artist.OwnerUserID = req.OwnerUserID
	}
	artist.UpdatedBy = actor.UserID.String()

	if err := s.repo.Update(ctx, artist); err != nil {
		return nil, err
	}
	return artist, nil
}

func (s *artistService) Delete(ctx context.Context, actor authz.Subject, id uuid.UUID) error {
	if !actor.Can(authz.ArtistsDelete) {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func applyArtist(a *model.Artist, req *ArtistRequest) {
	a.Slug = req.Slug
	a.Name = req.Name
	a.Genre = req.Genre
	a.Bio = req.Bio
	a.ImageURL = req.ImageURL
	a.PressKitURL = req.PressKitURL
	a.Website = req.Website
	a.IsPublic = req.IsPublic
}
