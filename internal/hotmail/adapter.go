// Package hotmail implements the socialauth provider for Windows Live
// (Hotmail) using the WRAP consent flow.
package hotmail

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/socialauth-portfolio/liveconnect/internal/socialauth"
)

const scopeContactsActivities = "WL_Contacts.View,WL_Activities.Update"

// Adapter drives one login session against Windows Live. It is not safe for
// concurrent use; run one Adapter per in-flight login.
type Adapter struct {
	cfg        Config
	endpoints  Endpoints
	httpClient *http.Client
	logger     *slog.Logger
	session    socialauth.Session
}

var _ socialauth.Provider = (*Adapter)(nil)

// Option configures the Adapter.
type Option func(a *Adapter)

// WithHTTPClient sets the client used for every provider call.
func WithHTTPClient(c *http.Client) Option {
	return func(a *Adapter) {
		a.httpClient = c
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = l
	}
}

// WithEndpoints overrides the provider URLs.
func WithEndpoints(e Endpoints) Option {
	return func(a *Adapter) {
		a.endpoints = e
	}
}

// WithSession resumes a session previously returned by Session.
func WithSession(s socialauth.Session) Option {
	return func(a *Adapter) {
		a.session = s
	}
}

// New validates cfg and returns an Adapter with an empty session unless
// WithSession is given.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Adapter{
		cfg:       cfg,
		endpoints: DefaultEndpoints,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Adapter) Name() string { return "hotmail" }

// SetPermission selects the scope requested by the next login redirect.
func (a *Adapter) SetPermission(p socialauth.Permission) {
	a.session.Permission = p
}

// Session returns a copy of the current session state.
func (a *Adapter) Session() socialauth.Session {
	s := a.session
	if s.Token != nil {
		tok := *s.Token
		s.Token = &tok
	}
	return s
}

// LoginRedirectURL returns the consent page the browser should be sent to.
// It does not contact the provider.
func (a *Adapter) LoginRedirectURL(callbackURL string) (string, error) {
	a.logger.Info("determining login redirect url", "callback", callbackURL)

	consent, err := url.Parse(a.endpoints.ConsentURL)
	if err != nil {
		return "", fmt.Errorf("hotmail: parse consent url: %w", err)
	}
	q := consent.Query()
	q.Set("wrap_client_id", a.cfg.ConsumerKey)
	q.Set("wrap_callback", callbackURL)
	if a.session.Permission != socialauth.PermissionAuthenticateOnly {
		q.Set("wrap_scope", scopeContactsActivities)
	}
	consent.RawQuery = q.Encode()

	a.session.RedirectIssued = true
	a.session.RedirectURI = callbackURL

	redirect := consent.String()
	a.logger.Info("login redirect built", "url", redirect, "permission", a.session.Permission.String())
	return redirect, nil
}

// Logout forgets the access token locally. The token is not revoked at the
// provider.
func (a *Adapter) Logout() {
	a.session.Clear()
}

func (a *Adapter) requireVerified() error {
	if a.session.State() != socialauth.StateVerified {
		return socialauth.ErrNotAuthenticated
	}
	return nil
}
