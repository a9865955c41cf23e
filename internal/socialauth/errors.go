package socialauth

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration reports missing credentials or a key, secret or
	// callback the provider does not accept.
	ErrConfiguration = errors.New("socialauth: configuration error")
	// ErrPermissionDenied is returned when the user declined consent.
	ErrPermissionDenied = errors.New("socialauth: user denied permission")
	// ErrInvalidProviderState is returned for a callback that was not
	// preceded by a login redirect.
	ErrInvalidProviderState = errors.New("socialauth: callback received without a login redirect")
	ErrInvalidResponse      = errors.New("socialauth: invalid provider response")
	ErrMalformedResponse    = errors.New("socialauth: malformed provider response")
	// ErrMissingCredentials is returned when the token exchange succeeded
	// but did not carry both an access token and its expiry.
	ErrMissingCredentials = errors.New("socialauth: access token or expiry missing")
	ErrNotAuthenticated   = errors.New("socialauth: session is not verified")
	ErrProfileFetch       = errors.New("socialauth: profile fetch failed")
	ErrContactFetch       = errors.New("socialauth: contact fetch failed")
	ErrEmptyStatus        = errors.New("socialauth: status cannot be blank")
)

// FetchError describes a failed authenticated API call. Kind is one of the
// sentinel errors above; Err is the underlying cause, if any.
type FetchError struct {
	Kind       error
	URL        string
	StatusCode int
	Body       string
	Err        error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%v: %s", e.Kind, e.URL)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" status %d", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *FetchError) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}
