package signer

import (
	"net/http"
	"net/url"
	"strings"
)

// RequestView is the narrow, transport-independent view of an incoming
// request the Verifier needs. Adapters translate whatever web framework is
// in use into this shape; the library never imports net/http transport
// types beyond what's needed to describe a request.
type RequestView interface {
	Method() string
	RequestURI() string // path + "?" + raw query, exactly as received
	Header(name string) []string
	ServerName() string // effective host the transport accepted the connection for, not the Host header
	ServerPort() string
	Scheme() string
	Body() []byte
}

// httpRequestView adapts *http.Request to RequestView.
type httpRequestView struct {
	r    *http.Request
	body []byte
}

// NewHTTPRequestView wraps an *http.Request (with body already read into
// memory by the caller) as a RequestView. Its ServerName and ServerPort are
// taken from r.Host, which net/http fills from the request's Host header or
// absolute request URI; the adapter reads no server name from the
// connection itself, so with this view the host check compares the Host
// header against itself.
func NewHTTPRequestView(r *http.Request, body []byte) RequestView {
	return &httpRequestView{r: r, body: body}
}

func (v *httpRequestView) Method() string { return v.r.Method }

func (v *httpRequestView) RequestURI() string {
	if v.r.URL.RawQuery == "" {
		return v.r.URL.EscapedPath()
	}
	return v.r.URL.EscapedPath() + "?" + v.r.URL.RawQuery
}

func (v *httpRequestView) Header(name string) []string {
	if strings.EqualFold(name, "host") {
		host := v.r.Header.Get("Host")
		if host == "" {
			host = v.r.Host
		}
		if host == "" {
			return nil
		}
		return []string{host}
	}
	values := v.r.Header.Values(http.CanonicalHeaderKey(name))
	if values == nil {
		return nil
	}
	return values
}

func (v *httpRequestView) ServerName() string {
	host := v.r.Host
	if idx := strings.LastIndex(host, ":"); idx >= 0 {
		return host[:idx]
	}
	return host
}

func (v *httpRequestView) ServerPort() string {
	host := v.r.Host
	if idx := strings.LastIndex(host, ":"); idx >= 0 {
		return host[idx+1:]
	}
	if v.r.TLS != nil {
		return "443"
	}
	return "80"
}

func (v *httpRequestView) Scheme() string {
	if v.r.TLS != nil {
		return "https"
	}
	return "http"
}

func (v *httpRequestView) Body() []byte { return v.body }

// headerMap folds RequestView headers the Verifier cares about into a
// lowercase-name -> values map, the shape BuildCanonicalRequest expects.
func headerMap(req RequestView, names []string) map[string][]string {
	out := make(map[string][]string, len(names))
	for _, name := range names {
		lower := strings.ToLower(name)
		if values := req.Header(lower); len(values) > 0 {
			out[lower] = values
		}
	}
	return out
}

func requestURIParts(requestURI string) (path, rawQuery string) {
	idx := strings.IndexByte(requestURI, '?')
	if idx < 0 {
		return requestURI, ""
	}
	return requestURI[:idx], requestURI[idx+1:]
}

func parseQueryValues(rawQuery string) url.Values {
	values, _ := url.ParseQuery(rawQuery)
	if values == nil {
		values = url.Values{}
	}
	return values
}
