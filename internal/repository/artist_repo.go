package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lunchtableguy/mmeg-sub000/internal/model"
)

type ArtistRepository interface {
	FindAll(ctx context.Context, publicOnly bool) ([]model.Artist, error)
	FindBySlug(ctx context.Context, slug string) (*model.Artist, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Artist, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Artist, error)
	Create(ctx context.Context, artist *model.Artist) error
	Update(ctx context.Context, artist *model.Artist) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type artistRepo struct {
	db *gorm.DB
}

func NewArtistRepo(db *gorm.DB) ArtistRepository {
	return &artistRepo{db}
}

func (r *artistRepo) FindAll(ctx context.Context, publicOnly bool) ([]model.Artist, error) {
	var artists []model.Artist
	q := r.db.WithContext(ctx).Order("name")
	if publicOnly {
		q = q.Where("is_public = ?", true)
	}
	if err := q.Find(&artists).Error; err != nil {
		return nil, err
	}
	return artists, nil
}

func (r *artistRepo) FindBySlug(ctx context.Context, slug string) (*model.Artist, error) {
	var artist model.Artist
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&artist).Error; err != nil {
		return nil, translate(err)
	}
	return &artist, nil
}

func (r *artistRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Artist, error) {
	var artist model.Artist
	if err := r.db.WithContext(ctx).First(&artist, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &artist, nil
}

func (r *artistRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Artist, error) {
	var artists []model.Artist
	err := r.db.WithContext(ctx).Where("owner_user_id = ?", ownerID).Order("name").Find(&artists).Error
	return artists, err
}

func (r *artistRepo) Create(ctx context.Context, artist *model.Artist) error {
	return r.db.WithContext(ctx).Create(artist).Error
}

func (r *artistRepo) Update(ctx context.Context, artist *model.Artist) error {
	return r.db.WithContext(ctx).Save(artist).Error
}

func (r *artistRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Artist{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
