package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/lunchtableguy/mmeg-sub000/internal/authz"
	"github.com/lunchtableguy/mmeg-sub000/internal/model"
	"github.com/lunchtableguy/mmeg-sub000/internal/repository"
	"github.com/lunchtableguy/mmeg-sub000/pkg/jwt"
)

// MockConsentRepository records writes so tests can inspect them
type MockConsentRepository struct {
	mock.Mock
	mu     sync.Mutex
	states []*model.ConsentState
	events []*model.ConsentEvent
}

func (m *MockConsentRepository) Upsert(ctx context.Context, state *model.ConsentState) error {
	args := m.Called(ctx, state)
	if args.Error(0) == nil {
		m.mu.Lock()
		m.states = append(m.states, state)
		m.mu.Unlock()
	}
	return args.Error(0)
}

func (m *MockConsentRepository) AppendEvent(ctx context.Context, event *model.ConsentEvent) error {
	args := m.Called(ctx, event)
	if args.Error(0) == nil {
		m.mu.Lock()
		m.events = append(m.events, event)
		m.mu.Unlock()
	}
	return args.Error(0)
}

func (m *MockConsentRepository) FindBySession(ctx context.Context, sessionID string) (*model.ConsentState, error) {
	args := m.Called(ctx, sessionID)
	if s := args.Get(0); s != nil {
		return s.(*model.ConsentState), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockConsentRepository) ListEvents(ctx context.Context, sessionID string, limit int) ([]model.ConsentEvent, error) {
	args := m.Called(ctx, sessionID, limit)
	if e := args.Get(0); e != nil {
		return e.([]model.ConsentEvent), args.Error(1)
	}
	return nil, args.Error(1)
}

// Transaction runs fn against the same mock; an error from fn is returned
// as-is, mirroring a rollback.
func (m *MockConsentRepository) Transaction(ctx context.Context, fn func(repo repository.ConsentRepository) error) error {
	args := m.Called(ctx)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(m)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if u := args.Get(0); u != nil {
		return u.([]model.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	args := m.Called(ctx, id, deletedBy)
	return args.Error(0)
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, hashedPassword string) error {
	args := m.Called(ctx, userID, hashedPassword)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateTokenVersion(ctx context.Context, userID uuid.UUID, version string) error {
	args := m.Called(ctx, userID, version)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateLastSeen(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type MockArtistRepository struct {
	mock.Mock
}

func (m *MockArtistRepository) FindAll(ctx context.Context, publicOnly bool) ([]model.Artist, error) {
	args := m.Called(ctx, publicOnly)
	if a := args.Get(0); a != nil {
		return a.([]model.Artist), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockArtistRepository) FindBySlug(ctx context.Context, slug string) (*model.Artist, error) {
	args := m.Called(ctx, slug)
	if a := args.Get(0); a != nil {
		return a.(*model.Artist), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockArtistRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Artist, error) {
	args := m.Called(ctx, id)
	if a := args.Get(0); a != nil {
		return a.(*model.Artist), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockArtistRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Artist, error) {
	args := m.Called(ctx, ownerID)
	if a := args.Get(0); a != nil {
		return a.([]model.Artist), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockArtistRepository) Create(ctx context.Context, artist *model.Artist) error {
	return m.Called(ctx, artist).Error(0)
}

func (m *MockArtistRepository) Update(ctx context.Context, artist *model.Artist) error {
	return m.Called(ctx, artist).Error(0)
}

func (m *MockArtistRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockForumRepository struct {
	mock.Mock
}

func (m *MockForumRepository) FindVisible(ctx context.Context, topic string, limit int) ([]model.ForumPost, error) {
	args := m.Called(ctx, topic, limit)
	if p := args.Get(0); p != nil {
		return p.([]model.ForumPost), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockForumRepository) FindAll(ctx context.Context, topic string, limit int) ([]model.ForumPost, error) {
	args := m.Called(ctx, topic, limit)
	if p := args.Get(0); p != nil {
		return p.([]model.ForumPost), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockForumRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ForumPost, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*model.ForumPost), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockForumRepository) Create(ctx context.Context, post *model.ForumPost) error {
	return m.Called(ctx, post).Error(0)
}

func (m *MockForumRepository) Update(ctx context.Context, post *model.ForumPost) error {
	return m.Called(ctx, post).Error(0)
}

func (m *MockForumRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

type MockAnnouncementRepository struct {
	mock.Mock
}

func (m *MockAnnouncementRepository) FindPublished(ctx context.Context, audience string, limit int) ([]model.Announcement, error) {
	args := m.Called(ctx, audience, limit)
	if a := args.Get(0); a != nil {
		return a.([]model.Announcement), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAnnouncementRepository) FindAll(ctx context.Context) ([]model.Announcement, error) {
	args := m.Called(ctx)
	if a := args.Get(0); a != nil {
		return a.([]model.Announcement), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAnnouncementRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Announcement, error) {
	args := m.Called(ctx, id)
	if a := args.Get(0); a != nil {
		return a.(*model.Announcement), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAnnouncementRepository) Create(ctx context.Context, a *model.Announcement) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAnnouncementRepository) Update(ctx context.Context, a *model.Announcement) error {
	return m.Called(ctx, a).Error(0)
}

func (m *MockAnnouncementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// recordingPublisher captures hub events
type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
}

// stubTokens is a TokenIssuer with fixed claims
type stubTokens struct {
	claims *jwt.Claims
	err    error
}

func (s stubTokens) GenerateToken(userID uuid.UUID, email, name string, role authz.Role, tokenVersion string) (string, error) {
	return "token-" + tokenVersion, nil
}

func (s stubTokens) ValidateToken(tokenString string) (*jwt.Claims, error) {
	return s.claims, s.err
}

type MockPageRepository struct {
	mock.Mock
}

func (m *MockPageRepository) FindAll(ctx context.Context, kind string) ([]model.Page, error) {
	args := m.Called(ctx, kind)
	if p := args.Get(0); p != nil {
		return p.([]model.Page), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPageRepository) FindPublishedBySlug(ctx context.Context, slug string) (*model.Page, error) {
	args := m.Called(ctx, slug)
	if p := args.Get(0); p != nil {
		return p.(*model.Page), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPageRepository) FindBySlug(ctx context.Context, slug string) (*model.Page, error) {
	args := m.Called(ctx, slug)
	if p := args.Get(0); p != nil {
		return p.(*model.Page), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPageRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Page, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*model.Page), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockPageRepository) Create(ctx context.Context, page *model.Page) error {
	return m.Called(ctx, page).Error(0)
}

func (m *MockPageRepository) Update(ctx context.Context, page *model.Page) error {
	return m.Called(ctx, page).Error(0)
}

func (m *MockPageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}
