package consent

// Phase is the derived consent state; there is no stored state column
type Phase string

const (
	PhaseNone    Phase = "none"
	PhaseCurrent Phase = "current"
	PhaseStale   Phase = "stale"
)

// Status describes where a visitor sits in the consent lifecycle
type Status struct {
	Phase         Phase `json:"phase"`
	GPCOverridden bool  `json:"gpcOverridden"`
	NeedsPrompt   bool  `json:"needsPrompt"`
}

// Derive works out the status from the raw cookie and the live GPC signal
func Derive(cookie string, gpc bool, version int) Status {
	stored, ok := Decode(cookie)
	var s Status
	switch {
	case !ok:
		s.Phase = PhaseNone
	case stored.Version != version:
		s.Phase = PhaseStale
	default:
		s.Phase = PhaseCurrent
	}
	s.NeedsPrompt = s.Phase != PhaseCurrent
	s.GPCOverridden = gpc && s.Phase == PhaseCurrent && !stored.OptedOut()
	return s
}
