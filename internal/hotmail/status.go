package hotmail

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/socialauth-portfolio/liveconnect/internal/socialauth"
)

const (
	activityType       = "AddStatusActivity:http://schemas.microsoft.com/ado/2007/08/dataservices"
	activityVerbPost   = "http://activitystrea.ms/schema/1.0/post"
	activityObjectType = "http://activitystrea.ms/schema/1.0/status"
	applicationLink    = "http://rex.mslivelabs.com"
	alternateLink      = "http://www.contoso.com/wp-content/uploads/2009/06/comments-icon.jpg"
)

type statusActivity struct {
	Type            string           `json:"__type"`
	ActivityVerb    string           `json:"ActivityVerb"`
	ApplicationLink string           `json:"ApplicationLink"`
	ActivityObjects []activityObject `json:"ActivityObjects"`
}

type activityObject struct {
	ActivityObjectType string `json:"ActivityObjectType"`
	Content            string `json:"Content"`
	AlternateLink      string `json:"AlternateLink"`
}

func newStatusActivity(msg string) statusActivity {
	return statusActivity{
		Type:            activityType,
		ActivityVerb:    activityVerbPost,
		ApplicationLink: applicationLink,
		ActivityObjects: []activityObject{{
			ActivityObjectType: activityObjectType,
			Content:            msg,
			AlternateLink:      alternateLink,
		}},
	}
}

// UpdateStatus posts msg as the user's status. The provider's reply code is
// logged but not checked; it has historically been 201.
func (a *Adapter) UpdateStatus(ctx context.Context, msg string) error {
	a.logger.Info("updating status")
	if err := a.requireVerified(); err != nil {
		return err
	}
	if strings.TrimSpace(msg) == "" {
		return socialauth.ErrEmptyStatus
	}

	body, err := json.Marshal(newStatusActivity(msg))
	if err != nil {
		return fmt.Errorf("hotmail: encode status: %w", err)
	}
	endpoint := a.endpoints.statusURL(a.session.UserID)
	req, err := newAPIRequest(ctx, http.MethodPost, endpoint, a.session.AccessToken(), body)
	if err != nil {
		return fmt.Errorf("hotmail: new status request: %w", err)
	}
	res, err := a.do(req)
	if err != nil {
		return fmt.Errorf("hotmail: update status: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		a.logger.Warn("status update returned non-success code", "status", res.StatusCode, "url", endpoint)
		return nil
	}
	a.logger.Debug("status updated", "status", res.StatusCode)
	return nil
}
