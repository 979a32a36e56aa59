package update

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

const (
	// DefaultEndpoint is the update server base URL.
	DefaultEndpoint = "https://cs.amax-emu.com"

	// ManagedDir is the installation-relative directory replaced on every update.
	ManagedDir = "amax"

	// MarkerName is the version marker file inside ManagedDir.
	MarkerName = "version"

	versionPath = "/version.txt"

	// maxVersionBytes caps the version endpoint response body.
	maxVersionBytes = 1 << 10
)

// Resolver determines the remote and local versions.
type Resolver struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
	logger     *log.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverHTTPClient sets the HTTP client used for the version request.
func WithResolverHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) {
		r.httpClient = c
	}
}

// WithResolverUserAgent overrides the User-Agent header.
func WithResolverUserAgent(ua string) ResolverOption {
	return func(r *Resolver) {
		r.userAgent = ua
	}
}

// WithResolverLogger sets the logger.
func WithResolverLogger(l *log.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = l
	}
}

// NewResolver returns a Resolver for the given endpoint.
func NewResolver(endpoint string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		endpoint:  strings.TrimRight(endpoint, "/"),
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.httpClient == nil {
		r.httpClient = http.DefaultClient
	}
	if r.logger == nil {
		r.logger = discardLogger()
	}
	return r
}

// VersionURL returns the URL of the remote version file.
func (r *Resolver) VersionURL() string {
	return r.endpoint + versionPath
}

// Remote fetches the published version string. Any transport failure,
// non-success status or malformed body is reported as ErrNetwork.
func (r *Resolver) Remote(ctx context.Context) (string, error) {
	req, err := newGetRequest(ctx, r.VersionURL(), r.userAgent)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNetwork, err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: GET %s: unexpected status %d", ErrNetwork, r.VersionURL(), resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxVersionBytes))
	if err != nil {
		return "", fmt.Errorf("%w: read version: %w", ErrNetwork, err)
	}

	remote := strings.TrimRight(string(body), " \t\r\n")
	if _, err := ParseVersion(remote); err != nil {
		return "", fmt.Errorf("%w: malformed remote version: %w", ErrNetwork, err)
	}

	r.logger.Debug("fetched remote version", "url", r.VersionURL(), "version", remote)
	return remote, nil
}

// MarkerPath returns the path of the version marker under root.
func MarkerPath(root string) string {
	return filepath.Join(root, ManagedDir, MarkerName)
}

// ReadLocal returns the version recorded under root. A missing or
// unreadable marker yields ErrVersionRead; callers treat that as
// "nothing installed" rather than a failure.
func ReadLocal(root string) (string, error) {
	data, err := os.ReadFile(MarkerPath(root))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrVersionRead, err)
	}
	local := strings.TrimSpace(string(data))
	if local == "" {
		return "", fmt.Errorf("%w: marker %s is empty", ErrVersionRead, MarkerPath(root))
	}
	return local, nil
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}
