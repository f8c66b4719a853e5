package oseo

import "net/http"

// DefaultUser is the GeoServer account the REST calls authenticate as.
const DefaultUser = "admin"

// BasicAuthTransport injects HTTP Basic credentials into outgoing requests.
type BasicAuthTransport struct {
	Username string
	Password string
	Base     http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *BasicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	if t.Username != "" || t.Password != "" {
		clone.SetBasicAuth(t.Username, t.Password)
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}
