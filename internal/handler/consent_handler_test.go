package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lunchtableguy/mmeg-sub000/internal/consent"
	"github.com/lunchtableguy/mmeg-sub000/internal/metrics"
	"github.com/lunchtableguy/mmeg-sub000/internal/model"
	"github.com/lunchtableguy/mmeg-sub000/internal/repository"
	"github.com/lunchtableguy/mmeg-sub000/internal/service"
	"github.com/lunchtableguy/mmeg-sub000/pkg/config"
)

const testVersion = 3

// memoryConsentRepo keeps consent rows in memory
type memoryConsentRepo struct {
	mu        sync.Mutex
	states    map[string]model.ConsentState
	events    []model.ConsentEvent
	failState bool
	failAudit bool
}

func newMemoryConsentRepo() *memoryConsentRepo {
	return &memoryConsentRepo{states: map[string]model.ConsentState{}}
}

func (r *memoryConsentRepo) Upsert(ctx context.Context, state *model.ConsentState) error {
	if r.failState {
		return errors.New("db down")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state.SessionID] = *state
	return nil
}

func (r *memoryConsentRepo) AppendEvent(ctx context.Context, event *model.ConsentEvent) error {
	if r.failAudit {
		return errors.New("audit table locked")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *event)
	return nil
}

func (r *memoryConsentRepo) FindBySession(ctx context.Context, sessionID string) (*model.ConsentState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.states[sessionID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &s, nil
}

func (r *memoryConsentRepo) ListEvents(ctx context.Context, sessionID string, limit int) ([]model.ConsentEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.ConsentEvent
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		if r.events[i].SessionID == sessionID {
			out = append(out, r.events[i])
		}
	}
	return out, nil
}

// Transaction discards the state write when fn fails
func (r *memoryConsentRepo) Transaction(ctx context.Context, fn func(repo repository.ConsentRepository) error) error {
	r.mu.Lock()
	snapshot := make(map[string]model.ConsentState, len(r.states))
	for k, v := range r.states {
		snapshot[k] = v
	}
	r.mu.Unlock()

	if err := fn(r); err != nil {
		r.mu.Lock()
		r.states = snapshot
		r.mu.Unlock()
		return err
	}
	return nil
}

func (r *memoryConsentRepo) writes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.states) + len(r.events)
}

type consentFixture struct {
	app  *fiber.App
	repo *memoryConsentRepo
	reg  *prometheus.Registry
}

func newConsentFixture(policy string) *consentFixture {
	repo := newMemoryConsentRepo()
	reg := prometheus.NewRegistry()
	svc := service.NewConsentService(repo, service.ConsentOptions{Version: testVersion, AuditPolicy: policy, IPSalt: "pepper"})
	h := NewConsentHandler(svc, metrics.New(reg), zap.NewNop(), ConsentCookieOptions{RegionHeader: "X-Vercel-IP-Country"})

	app := fiber.New()
	app.Get("/api/v1/consent", h.GetConsent)
	app.Post("/api/v1/consent", h.SubmitConsent)
	app.Get("/api/v1/consent/events", h.ListEvents)
	return &consentFixture{app: app, repo: repo, reg: reg}
}

func postConsent(t *testing.T, app *fiber.App, body string, headers map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/v1/consent", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func consentCookie(t *testing.T, resp *http.Response) consent.Flags {
	t.Helper()
	c := cookieNamed(resp, consent.CookieName)
	require.NotNil(t, c, "consent cookie not set")
	raw, err := url.QueryUnescape(c.Value)
	require.NoError(t, err)
	flags, ok := consent.Decode(raw)
	require.True(t, ok)
	return flags
}

const allowAnalytics = `{"functional":true,"analytics":true,"advertising":false,"doNotSellShare":false,"source":"banner"}`

func TestSubmitConsentFreshVisitor(t *testing.T) {
	f := newConsentFixture(config.AuditBestEffort)

	resp := postConsent(t, f.app, allowAnalytics, map[string]string{
		"User-Agent":          "Mozilla/5.0",
		"X-Forwarded-For":     "203.0.113.9, 10.0.0.1",
		"X-Vercel-IP-Country": "DE",
	})
	require.Equal(t, 200, resp.StatusCode)

	flags := consentCookie(t, resp)
	assert.True(t, flags.Necessary)
	assert.True(t, flags.Functional)
	assert.True(t, flags.Analytics)
	assert.False(t, flags.GPC)
	assert.Equal(t, testVersion, flags.Version)

	c := cookieNamed(resp, consent.CookieName)
	assert.False(t, c.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, int(consent.CookieMaxAge.Seconds()), c.MaxAge)

	sid := cookieNamed(resp, consent.SessionCookieName)
	require.NotNil(t, sid)
	assert.True(t, sid.HttpOnly)

	require.Len(t, f.repo.events, 1)
	ev := f.repo.events[0]
	assert.Equal(t, sid.Value, ev.SessionID)
	assert.False(t, ev.Before.Analytics)
	assert.True(t, ev.After.Analytics)
	assert.Equal(t, consent.HashIP("203.0.113.9", "pepper"), ev.IPHash)
	assert.Equal(t, "DE", ev.Region)
	assert.Equal(t, "Mozilla/5.0", ev.UserAgent)
}

func TestSubmitConsentWithGPC(t *testing.T) {
	f := newConsentFixture(config.AuditBestEffort)

	resp := postConsent(t, f.app, `{"functional":true,"analytics":true,"advertising":true,"doNotSellShare":false}`,
		map[string]string{"Sec-GPC": "1"})
	require.Equal(t, 200, resp.StatusCode)

	flags := consentCookie(t, resp)
	assert.False(t, flags.Analytics)
	assert.False(t, flags.Advertising)
	assert.True(t, flags.DoNotSellShare)
	assert.True(t, flags.GPC)
	assert.True(t, flags.Functional)
}

func TestSubmitConsentRejectsBadBodies(t *testing.T) {
	f := newConsentFixture(config.AuditBestEffort)

	for name, body := range map[string]string{
		"malformed":       `{"functional":tru`,
		"missing boolean": `{"functional":true,"analytics":true,"advertising":false}`,
		"wrong type":      `{"functional":"yes","analytics":true,"advertising":false,"doNotSellShare":false}`,
		"null boolean":    `{"functional":null,"analytics":true,"advertising":false,"doNotSellShare":false}`,
	} {
		t.Run(name, func(t *testing.T) {
			resp := postConsent(t, f.app, body, nil)
			assert.Equal(t, 400, resp.StatusCode)
			assert.Nil(t, cookieNamed(resp, consent.CookieName))
		})
	}
	assert.Zero(t, f.repo.writes())
}

func TestSubmitConsentTwiceChainsEvents(t *testing.T) {
	f := newConsentFixture(config.AuditBestEffort)

	first := postConsent(t, f.app, allowAnalytics, nil)
	require.Equal(t, 200, first.StatusCode)
	sid := cookieNamed(first, consent.SessionCookieName).Value
	firstCookie := cookieNamed(first, consent.CookieName).Value

	second := postConsent(t, f.app, `{"functional":false,"analytics":false,"advertising":false,"doNotSellShare":true,"source":"settings"}`,
		map[string]string{"Cookie": consent.SessionCookieName + "=" + sid + "; " + consent.CookieName + "=" + firstCookie})
	require.Equal(t, 200, second.StatusCode)
	assert.Nil(t, cookieNamed(second, consent.SessionCookieName), "existing session must be reused")

	require.Len(t, f.repo.events, 2)
	assert.Equal(t, sid, f.repo.events[1].SessionID)
	assert.True(t, consent.Flags(f.repo.events[0].After).Equal(consent.Flags(f.repo.events[1].Before)))
	assert.Len(t, f.repo.states, 1)
	assert.True(t, f.repo.states[sid].DoNotSellShare)
}

func TestSubmitConsentAuditFailureStillSucceeds(t *testing.T) {
	f := newConsentFixture(config.AuditBestEffort)
	f.repo.failAudit = true

	resp := postConsent(t, f.app, allowAnalytics, nil)
	require.Equal(t, 200, resp.StatusCode)
	assert.True(t, consentCookie(t, resp).Analytics)
	assert.Len(t, f.repo.states, 1)
	assert.Empty(t, f.repo.events)

	mfs, err := f.reg.Gather()
	require.NoError(t, err)
	var failures float64
	for _, mf := range mfs {
		if mf.GetName() == "mmeg_consent_audit_failures_total" {
			failures = mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	assert.Equal(t, 1.0, failures)
}

func TestSubmitConsentRequiredPolicyFailure(t *testing.T) {
	f := newConsentFixture(config.AuditRequired)
	f.repo.failAudit = true

	resp := postConsent(t, f.app, allowAnalytics, nil)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Nil(t, cookieNamed(resp, consent.CookieName))
	assert.Empty(t, f.repo.states)
}

func TestSubmitConsentStateFailure(t *testing.T) {
	f := newConsentFixture(config.AuditBestEffort)
	f.repo.failState = true

	resp := postConsent(t, f.app, allowAnalytics, nil)
	assert.Equal(t, 500, resp.StatusCode)
	assert.Nil(t, cookieNamed(resp, consent.CookieName))
}

func TestGetConsent(t *testing.T) {
	f := newConsentFixture(config.AuditBestEffort)

	get := func(cookie string, gpc bool) (consent.Flags, consent.Status) {
		req := httptest.NewRequest("GET", "/api/v1/consent", nil)
		if cookie != "" {
			req.Header.Set("Cookie", consent.CookieName+"="+url.QueryEscape(cookie))
		}
		if gpc {
			req.Header.Set("Sec-GPC", "1")
		}
		resp, err := f.app.Test(req)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)

		var body struct {
			OK      bool           `json:"ok"`
			Consent consent.Flags  `json:"consent"`
			Status  consent.Status `json:"status"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.True(t, body.OK)
		return body.Consent, body.Status
	}

	none, status := get("", false)
	assert.Equal(t, consent.PhaseNone, status.Phase)
	assert.True(t, none.Necessary)
	assert.False(t, none.Analytics)

	stale := consent.Flags{Necessary: true, Analytics: true, Version: testVersion - 1}.Encode()
	fromStale, status := get(stale, false)
	assert.Equal(t, consent.PhaseStale, status.Phase)
	assert.Equal(t, none, fromStale)

	current := consent.Flags{Necessary: true, Analytics: true, Advertising: true, Version: testVersion}.Encode()
	clamped, status := get(current, true)
	assert.Equal(t, consent.PhaseCurrent, status.Phase)
	assert.True(t, status.GPCOverridden)
	assert.False(t, clamped.Analytics)
	assert.True(t, clamped.DoNotSellShare)

	assert.Zero(t, f.repo.writes())
}

func TestListConsentEvents(t *testing.T) {
	f := newConsentFixture(config.AuditBestEffort)
	resp := postConsent(t, f.app, allowAnalytics, nil)
	sid := cookieNamed(resp, consent.SessionCookieName).Value

	req := httptest.NewRequest("GET", "/api/v1/consent/events?session_id="+sid, nil)
	resp, err := f.app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)

	var events []model.ConsentEvent
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&events))
	require.Len(t, events, 1)
	assert.Equal(t, "banner", events[0].Source)

	resp, err = f.app.Test(httptest.NewRequest("GET", "/api/v1/consent/events", nil))
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestClientIP(t *testing.T) {
	app := fiber.New()
	app.Get("/ip", func(c *fiber.Ctx) error { return c.SendString(ClientIP(c)) })

	cases := map[string]map[string]string{
		"198.51.100.1": {"X-Forwarded-For": " 198.51.100.1 , 10.0.0.2", "X-Real-IP": "10.9.9.9"},
		"10.9.9.9":     {"X-Real-IP": "10.9.9.9"},
	}
	for want, headers := range cases {
		req := httptest.NewRequest("GET", "/ip", nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(resp.Body)
		assert.Equal(t, want, buf.String())
	}
}

func TestSubmitConsentIgnoresOversizedRegion(t *testing.T) {
	f := newConsentFixture(config.AuditBestEffort)

	resp := postConsent(t, f.app, allowAnalytics, map[string]string{
		"X-Vercel-IP-Country": strings.Repeat("X", 40),
	})
	require.Equal(t, 200, resp.StatusCode)
	consentCookie(t, resp)

	require.Len(t, f.repo.events, 1)
	assert.Empty(t, f.repo.events[0].Region)
	for _, state := range f.repo.states {
		assert.Empty(t, state.Region)
	}
}

func TestSubmitConsentRejectsLongSource(t *testing.T) {
	f := newConsentFixture(config.AuditBestEffort)

	body := `{"functional":true,"analytics":false,"advertising":false,"doNotSellShare":false,"source":"` + strings.Repeat("é", 65) + `"}`
	resp := postConsent(t, f.app, body, nil)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Zero(t, f.repo.writes())
}

func TestConsentLimiterIgnoresForwardedHeaders(t *testing.T) {
	app := fiber.New()
	app.Post("/api/v1/consent", ConsentLimiter(2), func(c *fiber.Ctx) error { return c.SendStatus(200) })

	statuses := make([]int, 0, 3)
	for _, xff := range []string{"198.51.100.1", "198.51.100.2", "198.51.100.3"} {
		req := httptest.NewRequest("POST", "/api/v1/consent", nil)
		req.Header.Set("X-Forwarded-For", xff)
		req.Header.Set("X-Real-IP", xff)
		resp, err := app.Test(req)
		require.NoError(t, err)
		statuses = append(statuses, resp.StatusCode)
	}
	assert.Equal(t, []int{200, 200, 429}, statuses)
}
