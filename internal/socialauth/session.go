package socialauth

import "golang.org/x/oauth2"

// State is the position of a Session in the login flow.
type State int

const (
	StateUnauthenticated State = iota
	StateRedirectIssued
	StateVerified
)

func (s State) String() string {
	switch s {
	case StateRedirectIssued:
		return "redirect_issued"
	case StateVerified:
		return "verified"
	default:
		return "unauthenticated"
	}
}

// Session carries the per-login state of a provider. It is a plain value so
// callers can persist it between the redirect and the callback.
type Session struct {
	Token          *oauth2.Token `json:"token,omitempty"`
	UserID         string        `json:"uid,omitempty"`
	RedirectURI    string        `json:"redirectUri,omitempty"`
	Permission     Permission    `json:"permission"`
	RedirectIssued bool          `json:"redirectIssued,omitempty"`
	Verified       bool          `json:"verified,omitempty"`
}

// AccessToken returns the bearer credential, or "" before verification.
func (s Session) AccessToken() string {
	if s.Token == nil {
		return ""
	}
	return s.Token.AccessToken
}

// State derives the flow position from the session fields.
func (s Session) State() State {
	switch {
	case s.Verified && s.AccessToken() != "":
		return StateVerified
	case s.RedirectIssued:
		return StateRedirectIssued
	default:
		return StateUnauthenticated
	}
}

// Clear drops every credential and returns the session to
// StateUnauthenticated. The requested permission is kept.
func (s *Session) Clear() {
	*s = Session{Permission: s.Permission}
}
