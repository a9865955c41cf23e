package socialauth

import (
	"context"
	"net/url"
)

// Provider abstracts one external identity provider behind the login
// redirect, callback verification and authenticated API calls. An instance
// owns a single Session and must not be used from concurrent flows.
type Provider interface {
	Name() string
	SetPermission(p Permission)
	LoginRedirectURL(callbackURL string) (string, error)
	VerifyResponse(ctx context.Context, params url.Values) (*Profile, error)
	UserProfile(ctx context.Context) (*Profile, error)
	ContactList(ctx context.Context) ([]Contact, error)
	UpdateStatus(ctx context.Context, msg string) error
	Logout()
	Session() Session
}
