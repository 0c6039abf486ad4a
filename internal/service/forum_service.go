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

const defaultForumLimit = 50

type ForumService interface {
	List(ctx context.Context, actor authz.Subject, topic string, limit int) ([]model.ForumPost, error)
	Create(ctx context.Context, actor authz.Subject, req *ForumPostRequest) (*model.ForumPost, error)
	Moderate(ctx context.Context, actor authz.Subject, id uuid.UUID, req *ModerateRequest) (*model.ForumPost, error)
	Delete(ctx context.Context, actor authz.Subject, id uuid.UUID) error
}

type ForumPostRequest struct {
	Topic string `json:"topic" validate:"required,max=120"`
	Body  string `json:"body" validate:"required,max=5000"`
}

type ModerateRequest struct {
	Hidden *bool  `json:"hidden" validate:"required"`
	Reason string `json:"reason" validate:"max=255"`
}

type forumService struct {
	repo repository.ForumRepository
	hub  ws.Publisher
	now  func() time.Time
}

func NewForumService(repo repository.ForumRepository, hub ws.Publisher) ForumService {
	return &forumService{repo: repo, hub: hub, now: time.Now}
}

// List shows hidden posts only to moderators
func (s *forumService) List(ctx context.Context, actor authz.Subject, topic string, limit int) ([]model.ForumPost, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultForumLimit
	}
	if actor.Can(authz.ForumModerate) {
		return s.repo.FindAll(ctx, topic, limit)
	}
	return s.repo.FindVisible(ctx, topic, limit)
}

func (s *forumService) Create(ctx context.Context, actor authz.Subject, req *ForumPostRequest) (*model.ForumPost, error) {
	if !actor.Can(authz.MessagesSend) {
		return nil, ErrForbidden
	}
	if err := validator.Error(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	post := &model.ForumPost{Topic: req.Topic, Body: req.Body, AuthorID: actor.UserID}
	post.CreatedBy = actor.UserID.String()
	post.UpdatedBy = actor.UserID.String()
	if err := s.repo.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *forumService) Moderate(ctx context.Context, actor authz.Subject, id uuid.UUID, req *ModerateRequest) (*model.ForumPost, error) {
	if !actor.Can(authz.ForumModerate) {
		return nil, ErrForbidden
	}
	if err := validator.Error(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	now := s.now()
	moderator := actor.UserID
	post.Hidden = *req.Hidden
	post.HiddenReason = ""
	if post.Hidden {
		post.HiddenReason = req.Reason
	}
	post.ModeratedBy = &moderator
	post.ModeratedAt = &now
	post.UpdatedBy = actor.UserID.String()

	if err := s.repo.Update(ctx, post); err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.Publish(ws.EventForumPostModerated, map[string]interface{}{
			"id":     post.ID,
			"topic":  post.Topic,
			"hidden": post.Hidden,
		})
	}
	return post, nil
}

// Delete lets authors remove their own posts and moderators remove any
func (s *forumService) Delete(ctx context.Context, actor authz.Subject, id uuid.UUID) error {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if post.AuthorID != actor.UserID && !actor.Can(authz.ForumModerate) {
		return ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}
