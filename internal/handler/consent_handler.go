package handler

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lunchtableguy/mmeg-sub000/internal/consent"
	"github.com/lunchtableguy/mmeg-sub000/internal/metrics"
	"github.com/lunchtableguy/mmeg-sub000/internal/middleware"
	"github.com/lunchtableguy/mmeg-sub000/internal/service"
)

// ConsentCookieOptions controls how the consent cookies are written
type ConsentCookieOptions struct {
	Secure       bool
	RegionHeader string
}

type ConsentHandler struct {
	consentService service.ConsentService
	metrics        *metrics.Metrics
	log            *zap.Logger
	opts           ConsentCookieOptions
}

func NewConsentHandler(consentService service.ConsentService, m *metrics.Metrics, log *zap.Logger, opts ConsentCookieOptions) *ConsentHandler {
	return &ConsentHandler{consentService: consentService, metrics: m, log: log.Named("consent"), opts: opts}
}

// ConsentRequest is the POST body. Booleans are pointers so a missing
// field is rejected instead of read as false.
type ConsentRequest struct {
	Functional     *bool  `json:"functional" validate:"required"`
	Analytics      *bool  `json:"analytics" validate:"required"`
	Advertising    *bool  `json:"advertising" validate:"required"`
	DoNotSellShare *bool  `json:"doNotSellShare" validate:"required"`
	Source         string `json:"source" validate:"max=64"`
}

// GetConsent returns the effective consent without touching storage
// GET /api/v1/consent
func (h *ConsentHandler) GetConsent(c *fiber.Ctx) error {
	req := h.request(c, h.session(c))
	flags, status := h.consentService.Current(req)
	return c.JSON(fiber.Map{"ok": true, "consent": flags, "status": status})
}

// SubmitConsent records a visitor's choice
// POST /api/v1/consent
func (h *ConsentHandler) SubmitConsent(c *fiber.Ctx) error {
	var body ConsentRequest
	if ok, err := parseBody(c, &body); !ok {
		return err
	}

	req := h.request(c, h.session(c))
	res, err := h.consentService.Submit(c.UserContext(), req, consent.Choice{
		Functional:     *body.Functional,
		Analytics:      *body.Analytics,
		Advertising:    *body.Advertising,
		DoNotSellShare: *body.DoNotSellShare,
		Source:         body.Source,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidInput) {
			return c.Status(400).JSON(fiber.Map{"error": err.Error()})
		}
		h.log.Error("consent not saved", zap.String("session_id", req.SessionID), zap.Error(err))
		return c.Status(500).JSON(fiber.Map{"ok": false, "error": "Could not save consent"})
	}

	if res.AuditFailed() {
		h.metrics.AuditFailed()
		h.log.Warn("consent saved without audit event",
			zap.String("session_id", req.SessionID),
			zap.Error(res.AuditErr))
	}
	h.metrics.ConsentSubmitted(req.GPC, !res.AuditFailed())

	c.Cookie(&fiber.Cookie{
		Name:     consent.CookieName,
		Value:    url.QueryEscape(res.After.Encode()),
		Path:     "/",
		MaxAge:   int(consent.CookieMaxAge / time.Second),
		Secure:   h.opts.Secure,
		HTTPOnly: false,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"ok": true, "consent": res.After})
}

// ListEvents returns the audit trail for one session
// GET /api/v1/consent/events?session_id=&limit=
func (h *ConsentHandler) ListEvents(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "session_id is required"})
	}
	events, err := h.consentService.Events(c.UserContext(), sessionID, c.QueryInt("limit"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "Failed to fetch consent events"})
	}
	return c.JSON(events)
}

// session returns the visitor's session id, issuing one when absent
func (h *ConsentHandler) session(c *fiber.Ctx) string {
	if sid := c.Cookies(consent.SessionCookieName); sid != "" {
		if _, err := uuid.Parse(sid); err == nil {
			return sid
		}
	}
	sid := uuid.New().String()
	c.Cookie(&fiber.Cookie{
		Name:     consent.SessionCookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(consent.CookieMaxAge / time.Second),
		Secure:   h.opts.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return sid
}

func (h *ConsentHandler) request(c *fiber.Ctx, sessionID string) consent.Request {
	raw := c.Cookies(consent.CookieName)
	if v, err := url.QueryUnescape(raw); err == nil {
		raw = v
	}

	req := consent.Request{
		SessionID: sessionID,
		GPC:       strings.TrimSpace(c.Get(consent.GPCHeader)) == "1",
		Cookie:    raw,
		IP:        ClientIP(c),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
	if h.opts.RegionHeader != "" {
		req.Region = c.Get(h.opts.RegionHeader)
	}
	if subject := middleware.Subject(c); !subject.Anonymous() {
		id := subject.UserID
		req.UserID = &id
	}
	return req
}

// ConsentLimiter caps submissions per peer address. The key is c.IP(), which
// follows the proxy header only for trusted proxies; forwarded headers sent by
// the client never change it.
func ConsentLimiter(max int) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:          max,
		Expiration:   time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests"})
		},
	})
}

// ClientIP is the address hashed onto audit events. It prefers the first
// X-Forwarded-For hop, then X-Real-IP
func ClientIP(c *fiber.Ctx) string {
	if xff := c.Get(fiber.HeaderXForwardedFor); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(c.Get("X-Real-IP")); ip != "" {
		return ip
	}
	return c.IP()
}
