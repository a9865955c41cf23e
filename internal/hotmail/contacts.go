package hotmail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/socialauth-portfolio/liveconnect/internal/socialauth"
)

type contactsResponse struct {
	Entries []contactEntry `json:"entries"`
}

type contactEntry struct {
	Emails []struct {
		Value flexString `json:"value"`
	} `json:"emails"`
	Name *struct {
		FamilyName flexString `json:"familyName"`
		Formatted  flexString `json:"formatted"`
		GivenName  flexString `json:"givenName"`
	} `json:"name"`
}

// toContact reports false for entries without an email address.
func (e contactEntry) toContact() (socialauth.Contact, bool) {
	var c socialauth.Contact
	var emails []string
	for _, em := range e.Emails {
		if em.Value != "" {
			emails = append(emails, string(em.Value))
		}
	}
	if len(emails) == 0 {
		return c, false
	}
	c.Email = emails[0]
	if len(emails) > 1 {
		c.OtherEmails = emails[1:]
	}
	if e.Name != nil {
		c.LastName = string(e.Name.FamilyName)
		c.DisplayName = string(e.Name.Formatted)
		c.FirstName = string(e.Name.GivenName)
	}
	return c, true
}

// ContactList returns the address book of the verified user. Only name and
// email fields are available.
func (a *Adapter) ContactList(ctx context.Context) ([]socialauth.Contact, error) {
	if err := a.requireVerified(); err != nil {
		return nil, err
	}
	endpoint := a.endpoints.contactsURL(a.session.UserID)
	a.logger.Info("fetching contacts", "url", endpoint)

	req, err := newAPIRequest(ctx, http.MethodGet, endpoint, a.session.AccessToken(), nil)
	if err != nil {
		return nil, fmt.Errorf("hotmail: new contacts request: %w", err)
	}
	res, err := a.do(req)
	if err != nil {
		return nil, &socialauth.FetchError{Kind: socialauth.ErrContactFetch, URL: endpoint, Err: err}
	}
	if res.StatusCode != http.StatusOK {
		return nil, &socialauth.FetchError{Kind: socialauth.ErrContactFetch, URL: endpoint, StatusCode: res.StatusCode}
	}

	var payload contactsResponse
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return nil, &socialauth.FetchError{
			Kind:       socialauth.ErrContactFetch,
			URL:        endpoint,
			StatusCode: res.StatusCode,
			Body:       string(res.Body),
			Err:        fmt.Errorf("decode contacts: %w", err),
		}
	}

	a.logger.Debug("contacts found", "entries", len(payload.Entries))
	contacts := make([]socialauth.Contact, 0, len(payload.Entries))
	for _, entry := range payload.Entries {
		if c, ok := entry.toContact(); ok {
			contacts = append(contacts, c)
		}
	}
	return contacts, nil
}
