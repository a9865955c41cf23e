package hotmail

import (
	"fmt"
	"strings"

	"github.com/socialauth-portfolio/liveconnect/internal/socialauth"
)

// decodeForm splits a key=value&key=value body into a map. Every pair must
// contain exactly one '='; values are taken verbatim.
func decodeForm(body string) (map[string]string, error) {
	out := make(map[string]string)
	for _, pair := range strings.Split(strings.TrimSpace(body), "&") {
		kv := strings.Split(pair, "=")
		if len(kv) != 2 {
			return nil, fmt.Errorf("%w: unexpected pair %q", socialauth.ErrMalformedResponse, pair)
		}
		out[kv[0]] = kv[1]
	}
	return out, nil
}
