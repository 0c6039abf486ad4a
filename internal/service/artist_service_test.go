package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lunchtableguy/mmeg-sub000/internal/authz"
	"github.com/lunchtableguy/mmeg-sub000/internal/model"
	"github.com/lunchtableguy/mmeg-sub000/internal/repository"
)

func ownedArtist(owner *uuid.UUID) *model.Artist {
	a := &model.Artist{Slug: "night-owls", Name: "Night Owls", IsPublic: true, OwnerUserID: owner}
	a.ID = uuid.New()
	return a
}

func TestArtistUpdateOwnership(t *testing.T) {
	band := subject(authz.RoleBand)
	other := uuid.New()

	cases := []struct {
		name  string
		actor authz.Subject
		owner *uuid.UUID
		want  error
	}{
		{"band edits own profile", band, &band.UserID, nil},
		{"band cannot edit another profile", band, &other, ErrForbidden},
		{"band cannot edit unowned profile", band, nil, ErrForbidden},
		{"account executive edits any profile", subject(authz.RoleAccountExecutive), &other, nil},
		{"admin edits unowned profile", subject(authz.RoleAdmin), nil, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			artist := ownedArtist(tc.owner)
			repo := new(MockArtistRepository)
			repo.On("FindByID", mock.Anything, artist.ID).Return(artist, nil)
			repo.On("Update", mock.Anything, artist).Return(nil)
			svc := NewArtistService(repo)

			_, err := svc.Update(context.Background(), tc.actor, artist.ID, &ArtistRequest{
				Slug: "night-owls", Name: "Night Owls II", IsPublic: true, OwnerUserID: tc.owner,
			})
			if tc.want == nil {
				require.NoError(t, err)
				assert.Equal(t, "Night Owls II", artist.Name)
			} else {
				assert.ErrorIs(t, err, tc.want)
				repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestArtistUpdateBandCannotReassignOwner(t *testing.T) {
	band := subject(authz.RoleBand)
	artist := ownedArtist(&band.UserID)
	repo := new(MockArtistRepository)
	repo.On("FindByID", mock.Anything, artist.ID).Return(artist, nil)
	repo.On("Update", mock.Anything, artist).Return(nil)
	svc := NewArtistService(repo)

	someoneElse := uuid.New()
	_, err := svc.Update(context.Background(), band, artist.ID, &ArtistRequest{
		Slug: "night-owls", Name: "Night Owls", OwnerUserID: &someoneElse,
	})
	require.NoError(t, err)
	require.NotNil(t, artist.OwnerUserID)
	assert.Equal(t, band.UserID, *artist.OwnerUserID)
}

func TestArtistCreate(t *testing.T) {
	t.Run("band cannot create", func(t *testing.T) {
		svc := NewArtistService(new(MockArtistRepository))
		_, err := svc.Create(context.Background(), subject(authz.RoleBand), &ArtistRequest{Slug: "x", Name: "X"})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("slug taken", func(t *testing.T) {
		repo := new(MockArtistRepository)
		repo.On("FindBySlug", mock.Anything, "night-owls").Return(ownedArtist(nil), nil)
		svc := NewArtistService(repo)

		_, err := svc.Create(context.Background(), subject(authz.RoleAccountExecutive), &ArtistRequest{Slug: "night-owls", Name: "Dup"})
		assert.ErrorIs(t, err, ErrSlugExists)
	})

	t.Run("slug lookup fails", func(t *testing.T) {
		repo := new(MockArtistRepository)
		dbErr := errors.New("connection refused")
		repo.On("FindBySlug", mock.Anything, "dawn-chorus").Return(nil, dbErr)
		svc := NewArtistService(repo)

		_, err := svc.Create(context.Background(), subject(authz.RoleAdmin), &ArtistRequest{Slug: "dawn-chorus", Name: "Dawn Chorus"})
		assert.ErrorIs(t, err, dbErr)
		assert.NotErrorIs(t, err, ErrSlugExists)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("bad slug", func(t *testing.T) {
		svc := NewArtistService(new(MockArtistRepository))
		_, err := svc.Create(context.Background(), subject(authz.RoleAdmin), &ArtistRequest{Slug: "Night Owls!", Name: "X"})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("created", func(t *testing.T) {
		repo := new(MockArtistRepository)
		repo.On("FindBySlug", mock.Anything, "dawn-chorus").Return(nil, repository.ErrNotFound)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Artist")).Return(nil)
		svc := NewArtistService(repo)

		a, err := svc.Create(context.Background(), subject(authz.RoleAdmin), &ArtistRequest{Slug: "dawn-chorus", Name: "Dawn Chorus", IsPublic: true})
		require.NoError(t, err)
		assert.Equal(t, "dawn-chorus", a.Slug)
	})
}

func TestArtistGetPublicHidesPrivate(t *testing.T) {
	private := ownedArtist(nil)
	private.IsPublic = false
	repo := new(MockArtistRepository)
	repo.On("FindBySlug", mock.Anything, "night-owls").Return(private, nil)
	svc := NewArtistService(repo)

	_, err := svc.GetPublic(context.Background(), "night-owls")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestArtistDelete(t *testing.T) {
	id := uuid.New()

	svc := NewArtistService(new(MockArtistRepository))
	assert.ErrorIs(t, svc.Delete(context.Background(), subject(authz.RoleAccountExecutive), id), ErrForbidden)

	repo := new(MockArtistRepository)
	repo.On("Delete", mock.Anything, id).Return(repository.ErrNotFound)
	svc = NewArtistService(repo)
	assert.ErrorIs(t, svc.Delete(context.Background(), subject(authz.RoleAdmin), id), ErrNotFound)
}
