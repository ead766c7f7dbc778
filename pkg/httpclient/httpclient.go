package httpclient

import (
	"net/http"
)

// UserAgent identifies zigup in outbound requests. ziglang.org asks
// automated downloaders to send a descriptive agent string.
var UserAgent = "zigup"

// New creates the HTTP client used for index and artifact requests.
// No timeout is set; downloads of toolchain tarballs can legitimately
// take minutes and cancellation is handled through request contexts.
func New() *http.Client {
	return &http.Client{
		Transport: &userAgentTransport{
			Base: http.DefaultTransport,
		},
	}
}

// userAgentTransport is a RoundTripper that stamps the User-Agent header.
type userAgentTransport struct {
	Base http.RoundTripper
}

// RoundTrip implements the http.RoundTripper interface
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// Clone the request to avoid modifying the original
	req2 := req.Clone(req.Context())
	if req2.Header.Get("User-Agent") == "" {
		req2.Header.Set("User-Agent", UserAgent)
	}
	return t.Base.RoundTrip(req2)
}
