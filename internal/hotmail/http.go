package hotmail

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

var defaultHTTPClient = &http.Client{Timeout: 10 * time.Second}

type response struct {
	StatusCode int
	Body       []byte
}

// client prefers the configured client, then one carried in ctx under
// oauth2.HTTPClient.
func (a *Adapter) client(ctx context.Context) *http.Client {
	if a.httpClient != nil {
		return a.httpClient
	}
	if c, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); ok && c != nil {
		return c
	}
	return defaultHTTPClient
}

// do sends req and reads the whole body. The body is closed exactly once.
func (a *Adapter) do(req *http.Request) (*response, error) {
	res, err := a.client(req.Context()).Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &response{StatusCode: res.StatusCode, Body: body}, nil
}

// newAPIRequest builds a request authenticated with the WRAP access token.
func newAPIRequest(ctx context.Context, method, endpoint, accessToken string, body []byte) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.ContentLength = int64(len(body))
	}
	req.Header.Set("Authorization", "WRAP access_token="+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return req, nil
}
