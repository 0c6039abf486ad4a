package service

import (
	"context"
	"fmt"
	"time"

	"github.com/lunchtableguy/mmeg-sub000/internal/consent"
	"github.com/lunchtableguy/mmeg-sub000/internal/model"
	"github.com/lunchtableguy/mmeg-sub000/internal/repository"
	"github.com/lunchtableguy/mmeg-sub000/pkg/config"
)

const (
	defaultConsentEvents = 50
)

type ConsentService interface {
	// Current is the side-effect free read used by GET
	Current(req consent.Request) (consent.Flags, consent.Status)
	Submit(ctx context.Context, req consent.Request, choice consent.Choice) (*SubmitResult, error)
	Events(ctx context.Context, sessionID string, limit int) ([]model.ConsentEvent, error)
}

// ConsentOptions fixes the schema version and the audit policy
type ConsentOptions struct {
	Version     int
	AuditPolicy string
	IPSalt      string
}

// SubmitResult separates "state saved, audit lost" from a failed save;
// the latter is returned as an error instead.
type SubmitResult struct {
	Before   consent.Flags
	After    consent.Flags
	AuditErr error
}

// AuditFailed reports whether the state was saved without its audit event
func (r *SubmitResult) AuditFailed() bool {
	return r != nil && r.AuditErr != nil
}

type consentService struct {
	repo repository.ConsentRepository
	opts ConsentOptions
	now  func() time.Time
}

func NewConsentService(repo repository.ConsentRepository, opts ConsentOptions) ConsentService {
	if opts.AuditPolicy == "" {
		opts.AuditPolicy = config.AuditBestEffort
	}
	return &consentService{repo: repo, opts: opts, now: time.Now}
}

func (s *consentService) Current(req consent.Request) (consent.Flags, consent.Status) {
	return consent.Read(req.Cookie, req.GPC, s.opts.Version), consent.Derive(req.Cookie, req.GPC, s.opts.Version)
}

func (s *consentService) Submit(ctx context.Context, req consent.Request, choice consent.Choice) (*SubmitResult, error) {
	if req.SessionID == "" {
		return nil, fmt.Errorf("%w: missing session", ErrInvalidInput)
	}
	req.Region = consent.NormalizeRegion(req.Region)

	// 1-2. Clamp the request against the live GPC signal
	after := consent.Apply(choice, req.GPC, s.opts.Version, s.now())
	// 3. Previous effective state, for the audit trail
	before := consent.Read(req.Cookie, req.GPC, s.opts.Version)

	state := model.NewConsentState(req, after)
	event := s.newEvent(req, choice, before, after)

	// 4-5. Persist
	if s.opts.AuditPolicy == config.AuditRequired {
		err := s.repo.Transaction(ctx, func(r repository.ConsentRepository) error {
			if err := r.Upsert(ctx, state); err != nil {
				return err
			}
			return r.AppendEvent(ctx, event)
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConsentNotSaved, err)
		}
		return &SubmitResult{Before: before, After: after}, nil
	}

	if err := s.repo.Upsert(ctx, state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConsentNotSaved, err)
	}
	result := &SubmitResult{Before: before, After: after}
	if err := s.repo.AppendEvent(ctx, event); err != nil {
		result.AuditErr = err
	}
	return result, nil
}

func (s *consentService) Events(ctx context.Context, sessionID string, limit int) ([]model.ConsentEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = defaultConsentEvents
	}
	return s.repo.ListEvents(ctx, sessionID, limit)
}

func (s *consentService) newEvent(req consent.Request, choice consent.Choice, before, after consent.Flags) *model.ConsentEvent {
	return &model.ConsentEvent{
		SessionID: req.SessionID,
		UserID:    req.UserID,
		Before:    model.ConsentSnapshot(before),
		After:     model.ConsentSnapshot(after),
		Source:    consent.NormalizeSource(choice.Source),
		Version:   s.opts.Version,
		IPHash:    consent.HashIP(req.IP, s.opts.IPSalt),
		UserAgent: consent.TruncateUserAgent(req.UserAgent),
		Region:    req.Region,
	}
}
