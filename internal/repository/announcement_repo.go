package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lunchtableguy/mmeg-sub000/internal/model"
)

type AnnouncementRepository interface {
	FindPublished(ctx context.Context, audience string, limit int) ([]model.Announcement, error)
	FindAll(ctx context.Context) ([]model.Announcement, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Announcement, error)
	Create(ctx context.Context, a *model.Announcement) error
	Update(ctx context.Context, a *model.Announcement) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type announcementRepo struct {
	db *gorm.DB
}

func NewAnnouncementRepo(db *gorm.DB) AnnouncementRepository {
	return &announcementRepo{db}
}

func (r *announcementRepo) FindPublished(ctx context.Context, audience string, limit int) ([]model.Announcement, error) {
	var out []model.Announcement
	q := r.db.WithContext(ctx).Where("published = ?", true).Order("published_at DESC").Limit(limit)
	if audience != "" {
		q = q.Where("audience = ?", audience)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *announcementRepo) FindAll(ctx context.Context) ([]model.Announcement, error) {
	var out []model.Announcement
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *announcementRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Announcement, error) {
	var a model.Announcement
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (r *announcementRepo) Create(ctx context.Context, a *model.Announcement) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *announcementRepo) Update(ctx context.Context, a *model.Announcement) error {
	return r.db.WithContext(ctx).Save(a).Error
}

func (r *announcementRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Announcement{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
