// Package consent reconciles a visitor's stored tracking choices with the
// Global Privacy Control signal. Everything here is pure; persistence and
// cookies live in the service and handler layers.
package consent

import (
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

const (
	// CookieName holds the JSON encoded Flags, readable by client scripts
	CookieName = "mmeg_consent"
	// SessionCookieName keys the consent_states row
	SessionCookieName = "mmeg_sid"
	// CookieMaxAge is two years
	CookieMaxAge = 2 * 365 * 24 * time.Hour

	// GPCHeader carries the Global Privacy Control signal
	GPCHeader = "Sec-GPC"

	MaxUserAgentLength = 500
	MaxSourceLength    = 64
	MaxRegionLength    = 16
	DefaultSource      = "unknown"
)

// Flags is the consent state carried in the cookie and returned by the API
type Flags struct {
	Necessary      bool       `json:"necessary"`
	Functional     bool       `json:"functional"`
	Analytics      bool       `json:"analytics"`
	Advertising    bool       `json:"advertising"`
	DoNotSellShare bool       `json:"doNotSellShare"`
	GPC            bool       `json:"gpc"`
	Version        int        `json:"version"`
	UpdatedAt      *time.Time `json:"updatedAt,omitempty"`
}

// Choice is what the visitor asked for on a submission
type Choice struct {
	Functional     bool
	Analytics      bool
	Advertising    bool
	DoNotSellShare bool
	Source         string
}

// Request is the request-scoped input to every consent decision
type Request struct {
	SessionID string
	UserID    *uuid.UUID
	GPC       bool
	Cookie    string
	IP        string
	UserAgent string
	Region    string
}

// Default is the state of a visitor with no valid recorded consent
func Default(gpc bool, version int) Flags {
	return Flags{
		Necessary:      true,
		DoNotSellShare: gpc,
		GPC:            gpc,
		Version:        version,
	}
}

// Decode parses a cookie value; ok is false when empty or malformed
func Decode(cookie string) (Flags, bool) {
	if cookie == "" {
		return Flags{}, false
	}
	var f Flags
	if err := json.Unmarshal([]byte(cookie), &f); err != nil {
		return Flags{}, false
	}
	return f, true
}

// Encode serializes the flags for the consent cookie
func (f Flags) Encode() string {
	b, _ := json.Marshal(f)
	return string(b)
}

// OptedOut reports whether the three GPC-controlled categories are closed
func (f Flags) OptedOut() bool {
	return !f.Analytics && !f.Advertising && f.DoNotSellShare
}

// Equal compares the consent categories, ignoring timestamps
func (f Flags) Equal(o Flags) bool {
	return f.Necessary == o.Necessary &&
		f.Functional == o.Functional &&
		f.Analytics == o.Analytics &&
		f.Advertising == o.Advertising &&
		f.DoNotSellShare == o.DoNotSellShare &&
		f.GPC == o.GPC &&
		f.Version == o.Version
}

// Read returns the effective consent for a request. A missing, malformed or
// outdated cookie yields Default; GPC always overrides stored opt-ins.
func Read(cookie string, gpc bool, version int) Flags {
	stored, ok := Decode(cookie)
	if !ok || stored.Version != version {
		return Default(gpc, version)
	}

	stored.Necessary = true
	stored.GPC = gpc
	if gpc && !stored.OptedOut() {
		stored.Analytics = false
		stored.Advertising = false
		stored.DoNotSellShare = true
	}
	return stored
}

// Apply computes the state to store for a submission. GPC clamps the
// submission on every write, not only as a UI default.
func Apply(choice Choice, gpc bool, version int, now time.Time) Flags {
	at := now.UTC()
	f := Flags{
		Necessary:      true,
		Functional:     choice.Functional,
		Analytics:      choice.Analytics,
		Advertising:    choice.Advertising,
		DoNotSellShare: choice.DoNotSellShare,
		GPC:            gpc,
		Version:        version,
		UpdatedAt:      &at,
	}
	if gpc {
		f.Analytics = false
		f.Advertising = false
		f.DoNotSellShare = true
	}
	return f
}

// Allowed reports whether a tracking category is currently permitted.
// Unknown categories are denied.
func (f Flags) Allowed(category string) bool {
	switch category {
	case "necessary":
		return true
	case "functional":
		return f.Functional
	case "analytics":
		return f.Analytics
	case "advertising":
		return f.Advertising && !f.DoNotSellShare
	default:
		return false
	}
}

// HashIP returns a keyed BLAKE2b-256 digest of ip. An empty ip hashes to "".
func HashIP(ip, salt string) string {
	if ip == "" {
		return ""
	}
	var key []byte
	if salt != "" {
		k := blake2b.Sum256([]byte(salt))
		key = k[:]
	}
	h, err := blake2b.New256(key)
	if err != nil {
		return ""
	}
	h.Write([]byte(ip))
	return hex.EncodeToString(h.Sum(nil))
}

// TruncateUserAgent limits ua to MaxUserAgentLength characters
func TruncateUserAgent(ua string) string {
	if utf8.RuneCountInString(ua) <= MaxUserAgentLength {
		return ua
	}
	r := []rune(ua)
	return string(r[:MaxUserAgentLength])
}

// NormalizeSource trims the submission source, defaults it and caps it at
// MaxSourceLength characters
func NormalizeSource(source string) string {
	source = strings.TrimSpace(source)
	if source == "" {
		return DefaultSource
	}
	if utf8.RuneCountInString(source) > MaxSourceLength {
		source = strings.TrimSpace(string([]rune(source)[:MaxSourceLength]))
	}
	return source
}

// NormalizeRegion accepts a country or subdivision code such as "DE" or
// "US-CA" and returns "" for anything else
func NormalizeRegion(region string) string {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" || len(region) > MaxRegionLength {
		return ""
	}
	for _, r := range region {
		if (r < 'A' || r > 'Z') && (r < '0' || r > '9') && r != '-' {
			return ""
		}
	}
	return region
}
