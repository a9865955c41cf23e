package socialauth

import (
	"context"
	"errors"
	"net/url"
	"testing"
)

const sampleData = `{"profile": {"validatedId": "cid-1", "firstName": "Dana", "email": "dana@example.com"},
"contacts": [{"email": "lee@example.com", "displayName": "Lee"}, {"displayName": "No Email"}]}`

var _ Provider = (*StaticProvider)(nil)

func TestStaticProviderLoginFlow(t *testing.T) {
	fixture, err := LoadFixture([]byte(sampleData))
	if err != nil {
		t.Fatalf("LoadFixture error: %v", err)
	}
	p := fixture.NewProvider(Session{})

	redirect, err := p.LoginRedirectURL("http://localhost/callback")
	if err != nil {
		t.Fatalf("LoginRedirectURL error: %v", err)
	}
	u, err := url.Parse(redirect)
	if err != nil {
		t.Fatalf("parse redirect: %v", err)
	}

	// Resume from the exported session, as a web handler would.
	p = fixture.NewProvider(p.Session())
	profile, err := p.VerifyResponse(context.Background(), u.Query())
	if err != nil {
		t.Fatalf("VerifyResponse error: %v", err)
	}
	if profile.Email != "dana@example.com" {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if p.Session().State() != StateVerified {
		t.Fatalf("state = %s, want verified", p.Session().State())
	}

	contacts, err := p.ContactList(context.Background())
	if err != nil {
		t.Fatalf("ContactList error: %v", err)
	}
	if len(contacts) != 1 || contacts[0].Email != "lee@example.com" {
		t.Fatalf("unexpected contacts %+v", contacts)
	}

	if err := p.UpdateStatus(context.Background(), "  hello  "); err != nil {
		t.Fatalf("UpdateStatus error: %v", err)
	}
	if got := fixture.Statuses(); len(got) != 1 || got[0] != "hello" {
		t.Fatalf("unexpected statuses %v", got)
	}
}

func TestStaticProviderRejectsOutOfOrderCallback(t *testing.T) {
	fixture, err := LoadFixture([]byte(sampleData))
	if err != nil {
		t.Fatalf("LoadFixture error: %v", err)
	}
	p := fixture.NewProvider(Session{})
	_, err = p.VerifyResponse(context.Background(), url.Values{"wrap_verification_code": {"static"}})
	if !errors.Is(err, ErrInvalidProviderState) {
		t.Fatalf("VerifyResponse error = %v, want ErrInvalidProviderState", err)
	}
	if _, err := p.ContactList(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("ContactList error = %v, want ErrNotAuthenticated", err)
	}
}

func TestStaticProviderLogout(t *testing.T) {
	fixture, err := LoadFixture([]byte(sampleData))
	if err != nil {
		t.Fatalf("LoadFixture error: %v", err)
	}
	p := fixture.NewProvider(Session{Permission: PermissionAll})
	p.Logout()
	p.Logout()
	s := p.Session()
	if s.State() != StateUnauthenticated || s.Permission != PermissionAll {
		t.Fatalf("unexpected session after logout %+v", s)
	}
}

func TestLoadFixtureRequiresID(t *testing.T) {
	if _, err := LoadFixture([]byte(`{"profile": {"email": "x@y"}}`)); err == nil {
		t.Fatal("expected error for fixture without validatedId")
	}
}

func TestParsePermission(t *testing.T) {
	tests := []struct {
		in      string
		want    Permission
		wantErr bool
	}{
		{"", PermissionDefault, false},
		{"default", PermissionDefault, false},
		{"AUTHENTICATE_ONLY", PermissionAuthenticateOnly, false},
		{"authenticate-only", PermissionAuthenticateOnly, false},
		{" all ", PermissionAll, false},
		{"everything", PermissionDefault, true},
	}
	for _, tc := range tests {
		got, err := ParsePermission(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParsePermission(%q) = %v, %v", tc.in, got, err)
		}
	}
}

func TestFetchErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := error(&FetchError{Kind: ErrContactFetch, URL: "http://x", StatusCode: 502, Err: cause})
	if !errors.Is(err, ErrContactFetch) || !errors.Is(err, cause) {
		t.Fatalf("FetchError does not unwrap to kind and cause: %v", err)
	}
	if errors.Is(err, ErrProfileFetch) {
		t.Fatalf("FetchError matched the wrong kind")
	}
}
