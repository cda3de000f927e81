package service

import (
	"net/http"
	"strings"
)

// Request is the transport-agnostic view of an incoming request the guard
// reads token material from.
type Request interface {
	// Query returns a URL query parameter, or "".
	Query(name string) string

	// Input returns a body/form parameter, or "".
	Input(name string) string

	// Header returns a request header value, or "".
	Header(name string) string

	// BearerToken returns the token from an Authorization: Bearer header,
	// or "".
	BearerToken() string

	// BasicAuthPassword returns the password of an Authorization: Basic
	// header, if present.
	BasicAuthPassword() (string, bool)
}

// HTTPRequest adapts *http.Request to the Request interface.
type HTTPRequest struct {
	r *http.Request
}

// NewHTTPRequest wraps an *http.Request.
func NewHTTPRequest(r *http.Request) *HTTPRequest {
	return &HTTPRequest{r: r}
}

// Query returns a URL query parameter.
func (h *HTTPRequest) Query(name string) string {
	return h.r.URL.Query().Get(name)
}

// Input returns a form/body parameter. The form is parsed on first use;
// a parse failure reads as an absent parameter.
func (h *HTTPRequest) Input(name string) string {
	if h.r.PostForm == nil {
		_ = h.r.ParseForm()
	}
	return h.r.PostForm.Get(name)
}

// Header returns a request header value.
func (h *HTTPRequest) Header(name string) string {
	return h.r.Header.Get(name)
}

// BearerToken extracts the bearer token from the Authorization header.
func (h *HTTPRequest) BearerToken() string {
	auth := h.r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return strings.TrimSpace(auth[len(prefix):])
	}
	return ""
}

// BasicAuthPassword extracts the password of HTTP basic credentials.
func (h *HTTPRequest) BasicAuthPassword() (string, bool) {
	_, password, ok := h.r.BasicAuth()
	if !ok || password == "" {
		return "", false
	}
	return password, true
}

var _ Request = (*HTTPRequest)(nil)
