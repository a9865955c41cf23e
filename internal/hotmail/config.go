package hotmail

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"

	"github.com/socialauth-portfolio/liveconnect/internal/socialauth"
)

// Config identifies the calling application to the Windows Live consent
// service.
type Config struct {
	ConsumerKey    string `env:"LIVE_CONSUMER_KEY"`
	ConsumerSecret string `env:"LIVE_CONSUMER_SECRET"`
	CallbackDomain string `env:"LIVE_CALLBACK_DOMAIN"`
}

// LoadConfig reads the application credentials from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("%w: parse env: %v", socialauth.ErrConfiguration, err)
	}
	cfg.ConsumerKey = strings.TrimSpace(cfg.ConsumerKey)
	cfg.ConsumerSecret = strings.TrimSpace(cfg.ConsumerSecret)
	cfg.CallbackDomain = strings.TrimSpace(cfg.CallbackDomain)
	return cfg, cfg.Validate()
}

// Validate reports ErrConfiguration when the key or secret is empty.
func (c Config) Validate() error {
	if c.ConsumerSecret == "" {
		return fmt.Errorf("%w: consumer secret is empty", socialauth.ErrConfiguration)
	}
	if c.ConsumerKey == "" {
		return fmt.Errorf("%w: consumer key is empty", socialauth.ErrConfiguration)
	}
	return nil
}

// Endpoints are the provider URLs the adapter talks to. Tests point them at
// a local server.
type Endpoints struct {
	ConsentURL     string
	AccessTokenURL string
	APIBaseURL     string
}

// DefaultEndpoints are the production Windows Live URLs.
var DefaultEndpoints = Endpoints{
	ConsentURL:     "https://consent.live.com/Connect.aspx",
	AccessTokenURL: "https://consent.live.com/AccessToken.aspx",
	APIBaseURL:     "http://apis.live.net/V4.1",
}

func (e Endpoints) api(uid string) string {
	return strings.TrimSuffix(e.APIBaseURL, "/") + "/cid-" + url.PathEscape(uid)
}

func (e Endpoints) profileURL(uid string) string {
	return e.api(uid) + "/Profiles/1-" + url.PathEscape(uid)
}

func (e Endpoints) contactsURL(uid string) string {
	return e.api(uid) + "/Contacts/AllContacts?$type=portable"
}

func (e Endpoints) statusURL(uid string) string {
	return e.api(uid) + "/MyActivities"
}
