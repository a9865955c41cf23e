package socialauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

// Fixture holds canned provider data for local development. It is shared by
// every StaticProvider created from it.
type Fixture struct {
	mu       sync.RWMutex
	profile  Profile
	contacts []Contact
	statuses []string
}

// LoadFixture parses the provided JSON payload and keeps it in memory.
func LoadFixture(data []byte) (*Fixture, error) {
	type doc struct {
		Profile  Profile   `json:"profile"`
		Contacts []Contact `json:"contacts"`
	}
	var parsed doc
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("socialauth: parse fixture: %w", err)
	}
	if parsed.Profile.ValidatedID == "" {
		return nil, errors.New("socialauth: fixture profile has no validatedId")
	}

	f := &Fixture{
		profile:  parsed.Profile,
		contacts: make([]Contact, 0, len(parsed.Contacts)),
	}
	for _, c := range parsed.Contacts {
		if c.Email == "" {
			continue
		}
		f.contacts = append(f.contacts, c)
	}
	return f, nil
}

// Statuses returns the status messages posted through the fixture so far.
func (f *Fixture) Statuses() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return append([]string(nil), f.statuses...)
}

// NewProvider returns a StaticProvider resuming the given session.
func (f *Fixture) NewProvider(session Session) *StaticProvider {
	return &StaticProvider{fixture: f, session: session}
}

// StaticProvider follows the same login flow as a real provider but never
// leaves the process: the redirect points straight back at the callback.
type StaticProvider struct {
	fixture *Fixture
	session Session
}

func (p *StaticProvider) Name() string { return "static" }

func (p *StaticProvider) SetPermission(perm Permission) { p.session.Permission = perm }

func (p *StaticProvider) Session() Session { return p.session }

// LoginRedirectURL returns the callback with a fixed verification code.
func (p *StaticProvider) LoginRedirectURL(callbackURL string) (string, error) {
	u, err := url.Parse(callbackURL)
	if err != nil {
		return "", fmt.Errorf("socialauth: parse callback url: %w", err)
	}
	q := u.Query()
	q.Set("wrap_verification_code", "static")
	u.RawQuery = q.Encode()

	p.session.RedirectIssued = true
	p.session.RedirectURI = callbackURL
	return u.String(), nil
}

func (p *StaticProvider) VerifyResponse(ctx context.Context, params url.Values) (*Profile, error) {
	if params.Get("wrap_error_reason") == "user_denied" {
		return nil, ErrPermissionDenied
	}
	if !p.session.RedirectIssued {
		return nil, ErrInvalidProviderState
	}
	if strings.TrimSpace(params.Get("wrap_verification_code")) == "" {
		return nil, fmt.Errorf("%w: verification code missing", ErrInvalidResponse)
	}
	p.session.Token = &oauth2.Token{AccessToken: "static-" + p.fixture.profile.ValidatedID, TokenType: "WRAP"}
	p.session.UserID = p.fixture.profile.ValidatedID
	p.session.Verified = true
	return p.UserProfile(ctx)
}

func (p *StaticProvider) UserProfile(_ context.Context) (*Profile, error) {
	if p.session.State() != StateVerified {
		return nil, ErrNotAuthenticated
	}
	profile := p.fixture.profile
	return &profile, nil
}

func (p *StaticProvider) ContactList(_ context.Context) ([]Contact, error) {
	if p.session.State() != StateVerified {
		return nil, ErrNotAuthenticated
	}
	p.fixture.mu.RLock()
	defer p.fixture.mu.RUnlock()

	result := make([]Contact, len(p.fixture.contacts))
	copy(result, p.fixture.contacts)
	return result, nil
}

func (p *StaticProvider) UpdateStatus(_ context.Context, msg string) error {
	if p.session.State() != StateVerified {
		return ErrNotAuthenticated
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return ErrEmptyStatus
	}
	p.fixture.mu.Lock()
	defer p.fixture.mu.Unlock()
	p.fixture.statuses = append(p.fixture.statuses, msg)
	return nil
}

func (p *StaticProvider) Logout() { p.session.Clear() }
