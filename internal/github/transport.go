package github

import (
	"net/http"

	"github.com/gregjones/httpcache"
	"golang.org/x/oauth2"
)

const (
	mediaType  = "application/vnd.github+json"
	apiVersion = "2022-11-28"
)

// headerTransport stamps the fixed GitHub headers on every outgoing request.
type headerTransport struct {
	userAgent string
	base      http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Accept", mediaType)
	clone.Header.Set("X-GitHub-Api-Version", apiVersion)
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}

// newSharedTransport builds the token independent part of the chain. GitHub sends
// Vary: Authorization, so cached answers are never served across tokens.
func newSharedTransport(base http.RoundTripper, userAgent string, cache bool) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	var rt http.RoundTripper = &headerTransport{userAgent: userAgent, base: base}
	if cache {
		cached := httpcache.NewTransport(httpcache.NewMemoryCache())
		cached.Transport = rt
		rt = cached
	}
	return rt
}

// tokenTransport wraps the shared chain with bearer authentication for one token.
func tokenTransport(shared http.RoundTripper, token string) http.RoundTripper {
	return &oauth2.Transport{
		Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
		Base:   shared,
	}
}
