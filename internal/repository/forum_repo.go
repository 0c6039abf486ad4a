package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lunchtableguy/mmeg-sub000/internal/model"
)

type ForumRepository interface {
	FindVisible(ctx context.Context, topic string, limit int) ([]model.ForumPost, error)
	FindAll(ctx context.Context, topic string, limit int) ([]model.ForumPost, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.ForumPost, error)
	Create(ctx context.Context, post *model.ForumPost) error
	Update(ctx context.Context, post *model.ForumPost) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type forumRepo struct {
	db *gorm.DB
}

func NewForumRepo(db *gorm.DB) ForumRepository {
	return &forumRepo{db}
}

func (r *forumRepo) list(ctx context.Context, topic string, limit int, visibleOnly bool) ([]model.ForumPost, error) {
	var posts []model.ForumPost
	q := r.db.WithContext(ctx).Preload("Author").Order("created_at DESC").Limit(limit)
	if topic != "" {
		q = q.Where("topic = ?", topic)
	}
	if visibleOnly {
		q = q.Where("hidden = ?", false)
	}
	if err := q.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *forumRepo) FindVisible(ctx context.Context, topic string, limit int) ([]model.ForumPost, error) {
	return r.list(ctx, topic, limit, true)
}

func (r *forumRepo) FindAll(ctx context.Context, topic string, limit int) ([]model.ForumPost, error) {
	return r.list(ctx, topic, limit, false)
}

func (r *forumRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ForumPost, error) {
	var post model.ForumPost
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

func (r *forumRepo) Create(ctx context.Context, post *model.ForumPost) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *forumRepo) Update(ctx context.Context, post *model.ForumPost) error {
	return r.db.WithContext(ctx).Save(post).Error
}

func (r *forumRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.ForumPost{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
