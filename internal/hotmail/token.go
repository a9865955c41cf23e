package hotmail

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"

	"github.com/socialauth-portfolio/liveconnect/internal/socialauth"
)

// tokenResponse is the decoded body of the AccessToken.aspx exchange.
type tokenResponse struct {
	AccessToken string
	ExpiresIn   int
	HasExpiry   bool
	UID         string
}

// VerifyResponse handles the provider callback: it exchanges the
// verification code for an access token and loads the user profile. The
// session is only updated when every step succeeds.
func (a *Adapter) VerifyResponse(ctx context.Context, params url.Values) (*socialauth.Profile, error) {
	a.logger.Info("verifying login callback")

	if params.Get("wrap_error_reason") == "user_denied" {
		return nil, socialauth.ErrPermissionDenied
	}
	if !a.session.RedirectIssued {
		return nil, socialauth.ErrInvalidProviderState
	}
	code := params.Get("wrap_verification_code")
	if code == "" {
		return nil, fmt.Errorf("%w: verification code missing", socialauth.ErrInvalidResponse)
	}

	tok, err := a.exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	if tok.AccessToken == "" || !tok.HasExpiry {
		return nil, fmt.Errorf("%w: not found in response from %s", socialauth.ErrMissingCredentials, a.endpoints.AccessTokenURL)
	}
	a.logger.Debug("access token obtained", "uid", tok.UID, "expires_in", tok.ExpiresIn)

	next := a.session
	next.Token = &oauth2.Token{
		AccessToken: tok.AccessToken,
		TokenType:   "WRAP",
		Expiry:      time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second),
	}
	next.UserID = tok.UID
	next.Verified = true
	next.RedirectIssued = false

	a.logger.Debug("obtaining user profile", "uid", tok.UID)
	profile, err := a.fetchProfile(ctx, next)
	if err != nil {
		return nil, err
	}
	a.session = next
	return profile, nil
}

func (a *Adapter) exchange(ctx context.Context, code string) (tokenResponse, error) {
	var out tokenResponse

	form := url.Values{}
	form.Set("wrap_client_id", a.cfg.ConsumerKey)
	form.Set("wrap_client_secret", a.cfg.ConsumerSecret)
	form.Set("wrap_callback", a.session.RedirectURI)
	form.Set("wrap_verification_code", code)
	form.Set("idtype", "CID")

	endpoint := a.endpoints.AccessTokenURL
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBufferString(form.Encode()))
	if err != nil {
		return out, fmt.Errorf("hotmail: new token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	res, err := a.do(req)
	if err != nil {
		return out, fmt.Errorf("hotmail: token exchange failed: %w", err)
	}
	if res.StatusCode != http.StatusOK || len(bytes.TrimSpace(res.Body)) == 0 {
		return out, fmt.Errorf("%w: problem getting access token from %s (status %d): application key or secret may be wrong, "+
			"or the callback domain differs from the one registered for the keys", socialauth.ErrConfiguration, endpoint, res.StatusCode)
	}

	values, err := decodeForm(string(res.Body))
	if err != nil {
		return out, fmt.Errorf("hotmail: token response from %s: %w", endpoint, err)
	}
	out.AccessToken = values["wrap_access_token"]
	out.UID = values["uid"]
	if raw, ok := values["wrap_access_token_expires_in"]; ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return out, fmt.Errorf("%w: expires_in %q is not a number", socialauth.ErrMalformedResponse, raw)
		}
		out.ExpiresIn = n
		out.HasExpiry = true
	}
	return out, nil
}
