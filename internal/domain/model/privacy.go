package model

import "time"

// Consent is the user's decision about context caching.
type Consent string

const (
	ConsentAllow Consent = "allow"
	ConsentDeny  Consent = "deny"
	ConsentUnset Consent = "unset"
)

// PrivacyMode controls how participant identities appear in composed context.
type PrivacyMode string

const (
	ModeStrict     PrivacyMode = "strict"
	ModeBalanced   PrivacyMode = "balanced"
	ModePermissive PrivacyMode = "permissive"
)

func ParseConsent(s string) (Consent, bool) {
	switch Consent(s) {
	case ConsentAllow, ConsentDeny, ConsentUnset:
		return Consent(s), true
	}
	return ConsentUnset, false
}

func ParsePrivacyMode(s string) (PrivacyMode, bool) {
	switch PrivacyMode(s) {
	case ModeStrict, ModeBalanced, ModePermissive:
		return PrivacyMode(s), true
	}
	return ModeStrict, false
}

// PrivacyPreference captures per-user consent and privacy mode.
// It is metadata only and never carries message content.
type PrivacyPreference struct {
	UserID    string
	Consent   Consent
	Mode      PrivacyMode
	UpdatedAt time.Time
}

// DefaultPreference is what an unknown user gets: no consent recorded,
// strict identity handling until they say otherwise.
func DefaultPreference(userID string) *PrivacyPreference {
	return &PrivacyPreference{
		UserID:  userID,
		Consent: ConsentUnset,
		Mode:    ModeStrict,
	}
}

// SafePreference is the degraded fallback when the preference store is
// unreachable: deny caching, anonymize everything.
func SafePreference(userID string) *PrivacyPreference {
	return &PrivacyPreference{
		UserID:  userID,
		Consent: ConsentDeny,
		Mode:    ModeStrict,
	}
}

func (p *PrivacyPreference) AllowsCaching() bool {
	return p.Consent == ConsentAllow
}
