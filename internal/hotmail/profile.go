package hotmail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/socialauth-portfolio/liveconnect/internal/socialauth"
)

// flexString accepts a JSON string or number; null leaves it empty.
type flexString string

func (s *flexString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = flexString(n.String())
	return nil
}

type profileEmail struct {
	Type    flexString `json:"Type"`
	Address flexString `json:"Address"`
}

type profileResponse struct {
	ID                 flexString     `json:"Id"`
	FirstName          flexString     `json:"FirstName"`
	LastName           flexString     `json:"LastName"`
	Location           flexString     `json:"Location"`
	Gender             flexString     `json:"Gender"`
	ThumbnailImageLink flexString     `json:"ThumbnailImageLink"`
	Emails             []profileEmail `json:"Emails"`
}

func (r profileResponse) toProfile() *socialauth.Profile {
	return &socialauth.Profile{
		ValidatedID:     string(r.ID),
		FirstName:       string(r.FirstName),
		LastName:        string(r.LastName),
		Location:        string(r.Location),
		Gender:          genderName(string(r.Gender)),
		Email:           primaryEmail(r.Emails),
		ProfileImageURL: string(r.ThumbnailImageLink),
	}
}

func genderName(code string) string {
	switch code {
	case "1":
		return "Female"
	case "2":
		return "Male"
	}
	return ""
}

// primaryEmail picks the entry typed "1", falling back to the first entry.
func primaryEmail(emails []profileEmail) string {
	for _, e := range emails {
		if e.Type == "1" {
			return string(e.Address)
		}
	}
	if len(emails) > 0 {
		return string(emails[0].Address)
	}
	return ""
}

// UserProfile fetches the profile of the verified user.
func (a *Adapter) UserProfile(ctx context.Context) (*socialauth.Profile, error) {
	if err := a.requireVerified(); err != nil {
		return nil, err
	}
	return a.fetchProfile(ctx, a.session)
}

func (a *Adapter) fetchProfile(ctx context.Context, s socialauth.Session) (*socialauth.Profile, error) {
	endpoint := a.endpoints.profileURL(s.UserID)
	a.logger.Info("fetching user profile", "url", endpoint)

	fail := func(status int, body []byte, err error) error {
		return &socialauth.FetchError{Kind: socialauth.ErrProfileFetch, URL: endpoint, StatusCode: status, Body: string(body), Err: err}
	}

	req, err := newAPIRequest(ctx, http.MethodGet, endpoint, s.AccessToken(), nil)
	if err != nil {
		return nil, fail(0, nil, err)
	}
	res, err := a.do(req)
	if err != nil {
		return nil, fail(0, nil, err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fail(res.StatusCode, res.Body, nil)
	}

	var payload profileResponse
	if err := json.Unmarshal(res.Body, &payload); err != nil {
		return nil, fail(res.StatusCode, res.Body, fmt.Errorf("decode profile: %w", err))
	}
	return payload.toProfile(), nil
}
