package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lunchtableguy/mmeg-sub000/internal/model"
)

type PageRepository interface {
	FindAll(ctx context.Context, kind string) ([]model.Page, error)
	FindPublishedBySlug(ctx context.Context, slug string) (*model.Page, error)
	FindBySlug(ctx context.Context, slug string) (*model.Page, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Page, error)
	Create(ctx context.Context, page *model.Page) error
	Update(ctx context.Context, page *model.Page) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type pageRepo struct {
	db *gorm.DB
}

func NewPageRepo(db *gorm.DB) PageRepository {
	return &pageRepo{db}
}

func (r *pageRepo) FindAll(ctx context.Context, kind string) ([]model.Page, error) {
	var pages []model.Page
	q := r.db.WithContext(ctx).Order("updated_at DESC")
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	if err := q.Find(&pages).Error; err != nil {
		return nil, err
	}
	return pages, nil
}

func (r *pageRepo) FindPublishedBySlug(ctx context.Context, slug string) (*model.Page, error) {
	var page model.Page
	if err := r.db.WithContext(ctx).Where("slug = ? AND published = ?", slug, true).First(&page).Error; err != nil {
		return nil, translate(err)
	}
	return &page, nil
}

func (r *pageRepo) FindBySlug(ctx context.Context, slug string) (*model.Page, error) {
	var page model.Page
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&page).Error; err != nil {
		return nil, translate(err)
	}
	return &page, nil
}

func (r *pageRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Page, error) {
	var page model.Page
	if err := r.db.WithContext(ctx).First(&page, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &page, nil
}

func (r *pageRepo) Create(ctx context.Context, page *model.Page) error {
	return r.db.WithContext(ctx).Create(page).Error
}

func (r *pageRepo) Update(ctx context.Context, page *model.Page) error {
	return r.db.WithContext(ctx).Save(page).Error
}

func (r *pageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Page{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
