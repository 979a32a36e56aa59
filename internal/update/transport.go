package update

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/http2"
)

const (
	// DefaultConnectTimeout bounds TCP connection setup for all requests.
	DefaultConnectTimeout = 5 * time.Second

	// DefaultUserAgent is sent with every request.
	DefaultUserAgent = "Amax Updater Client v0.1"

	maxRedirects = 10
)

// NewHTTPClient returns a client that only speaks HTTPS, bounds the
// connect phase to connectTimeout and negotiates HTTP/2 when the server
// offers it. Gzip-encoded responses are decompressed transparently.
//
// The client has no overall timeout because archive downloads can take
// minutes; callers bound requests with a context instead.
func NewHTTPClient(connectTimeout time.Duration) (*http.Client, error) {
	if connectTimeout <= 0 {
		connectTimeout = DefaultConnectTimeout
	}

	dialer := &net.Dialer{
		Timeout:   connectTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: connectTimeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		MaxIdleConns:          4,
		IdleConnTimeout:       30 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, fmt.Errorf("configure http2: %w", err)
	}

	return &http.Client{
		Transport:     transport,
		CheckRedirect: httpsOnlyRedirect,
	}, nil
}

// httpsOnlyRedirect refuses redirects that would downgrade to plain HTTP.
func httpsOnlyRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("too many redirects")
	}
	return requireHTTPS(req.URL)
}

func requireHTTPS(u *url.URL) error {
	if u.Scheme != "https" {
		return fmt.Errorf("refusing non-https url %q", u.Redacted())
	}
	return nil
}

// newGetRequest builds a GET request for rawURL after checking its scheme.
func newGetRequest(ctx context.Context, rawURL, userAgent string) (*http.Request, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if err := requireHTTPS(u); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)
	return req, nil
}
