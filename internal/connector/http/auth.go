package http

import "net/http"

// =============================================================================
// AUTHENTICATION STRATEGIES
// =============================================================================

// AuthConfig represents authentication configuration.
type AuthConfig interface {
	Apply(req *http.Request)
}

// NoAuth represents no authentication.
type NoAuth struct{}

func (a NoAuth) Apply(req *http.Request) {}

// BearerToken uses Bearer token authentication.
type BearerToken struct {
	Token string
}

// Apply adds Bearer token header to the request.
func (a BearerToken) Apply(req *http.Request) {
	if a.Token == "" {
		return
	}
	req.Header.Set("Authorization", "Bearer "+a.Token)
}

// QueryKey passes an API key as a query parameter. Google-style APIs
// authenticate simple server keys this way (param name "key").
type QueryKey struct {
	Param string // Query parameter name (default: "key").
	Key   string
}

// Apply adds the API key to the request URL's query string.
func (a QueryKey) Apply(req *http.Request) {
	if a.Key == "" {
		return
	}
	param := a.Param
	if param == "" {
		param = "key"
	}
	q := req.URL.Query()
	q.Set(param, a.Key)
	req.URL.RawQuery = q.Encode()
}
