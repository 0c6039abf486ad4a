package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lunchtableguy/mmeg-sub000/internal/model"
)

// ConsentRepository persists consent state and its audit trail.
// Events are append-only: there is deliberately no update or delete.
type ConsentRepository interface {
	Upsert(ctx context.Context, state *model.ConsentState) error
	AppendEvent(ctx context.Context, event *model.ConsentEvent) error
	FindBySession(ctx context.Context, sessionID string) (*model.ConsentState, error)
	ListEvents(ctx context.Context, sessionID string, limit int) ([]model.ConsentEvent, error)
	// Transaction runs fn against a repository bound to one database transaction
	Transaction(ctx context.Context, fn func(repo ConsentRepository) error) error
}

type consentRepo struct {
	db *gorm.DB
}

func NewConsentRepo(db *gorm.DB) ConsentRepository {
	return &consentRepo{db}
}

var consentUpsertColumns = []string{
	"user_id", "necessary", "functional", "analytics", "advertising",
	"do_not_sell_share", "gpc", "version", "region", "updated_at",
}

// Upsert inserts the session's row or overwrites it in place; concurrent
// submissions for one session resolve last-writer-wins.
func (r *consentRepo) Upsert(ctx context.Context, state *model.ConsentState) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}},
		DoUpdates: clause.AssignmentColumns(consentUpsertColumns),
	}).Create(state).Error
}

func (r *consentRepo) AppendEvent(ctx context.Context, event *model.ConsentEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *consentRepo) FindBySession(ctx context.Context, sessionID string) (*model.ConsentState, error) {
	var state model.ConsentState
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&state).Error; err != nil {
		return nil, translate(err)
	}
	return &state, nil
}

func (r *consentRepo) ListEvents(ctx context.Context, sessionID string, limit int) ([]model.ConsentEvent, error) {
	var events []model.ConsentEvent
	q := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if sessionID != "" {
		q = q.Where("session_id = ?", sessionID)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *consentRepo) Transaction(ctx context.Context, fn func(repo ConsentRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&consentRepo{db: tx})
	})
}
